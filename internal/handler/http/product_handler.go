package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bookkart/bookkart/internal/auth"
	"github.com/bookkart/bookkart/internal/product"
)

type CreateProductRequest struct {
	Title          string                 `json:"title" validate:"required"`
	Images         []string               `json:"images" validate:"required,min=1"`
	Subject        string                 `json:"subject" validate:"required"`
	Category       string                 `json:"category" validate:"required"`
	Condition      string                 `json:"condition" validate:"required"`
	ClassType      string                 `json:"class_type" validate:"required"`
	Price          decimal.Decimal        `json:"price" validate:"required"`
	FinalPrice     decimal.Decimal        `json:"final_price" validate:"required"`
	Author         *string                `json:"author,omitempty"`
	Edition        *string                `json:"edition,omitempty"`
	Description    *string                `json:"description,omitempty"`
	ShippingCharge *string                `json:"shipping_charge,omitempty"`
	PaymentMode    string                 `json:"payment_mode" validate:"required"`
	PaymentDetails *product.SellerPayment `json:"payment_details,omitempty"`
}

type ProductHandler struct {
	service  product.Service
	validate *validator.Validate
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{service: service, validate: validator.New()}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/product", func(r chi.Router) {
		r.Get("/", h.handleGetAll)
		r.Get("/{id}", h.handleGetByID)
		r.Get("/seller/{sellerId}", h.handleGetBySeller)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", h.handleCreate)
			r.Delete("/{productId}", h.handleDelete)
		})
	})
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	var req CreateProductRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	p := &product.Product{
		SellerID:       userID,
		Title:          req.Title,
		Images:         req.Images,
		Subject:        req.Subject,
		Category:       req.Category,
		Condition:      req.Condition,
		ClassType:      req.ClassType,
		Price:          req.Price,
		FinalPrice:     req.FinalPrice,
		Author:         req.Author,
		Edition:        req.Edition,
		Description:    req.Description,
		ShippingCharge: req.ShippingCharge,
		PaymentMode:    req.PaymentMode,
		PaymentDetails: req.PaymentDetails,
	}

	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		switch {
		case errors.Is(err, product.ErrMissingUPIID):
			respondError(w, http.StatusBadRequest, "UPI ID is required for payments")
		case errors.Is(err, product.ErrMissingBankDetails):
			respondError(w, http.StatusBadRequest, "Bank details are required for payments")
		default:
			log.Error().Err(err).Msg("handler: failed to create product")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respond(w, http.StatusOK, "Product created successfully", created)
}

func (h *ProductHandler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to fetch products")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Products fetched successfully", products)
}

func (h *ProductHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to fetch product")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Product fetched by Id successfully", p)
}

func (h *ProductHandler) handleGetBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID, err := uuid.FromString(chi.URLParam(r, "sellerId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid seller id")
		return
	}

	products, err := h.service.GetBySellerID(r.Context(), sellerID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to fetch seller products")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Products fetched by seller Id successfully", products)
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to delete product")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Product deleted successfully", nil)
}
