package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bookkart/bookkart/internal/auth"
	"github.com/bookkart/bookkart/internal/cart"
)

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{service: service, validate: validator.New()}
}

func (h *CartHandler) RegisterRoutes(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/add", h.handleAdd)
		r.Delete("/remove/{productId}", h.handleRemove)
		r.Get("/", h.handleGet)
	})
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	var req AddToCartRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	c, err := h.service.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrProductNotFound):
			respondError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, cart.ErrOwnProduct):
			respondError(w, http.StatusBadRequest, "You cannot add your own product to the cart")
		case errors.Is(err, cart.ErrInvalidQuantity):
			respondError(w, http.StatusBadRequest, "Quantity must be greater than zero")
		default:
			log.Error().Err(err).Msg("handler: failed to add cart item")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respond(w, http.StatusOK, "Item added to cart successfully", c)
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	c, err := h.service.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			respondError(w, http.StatusNotFound, "Cart not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to remove cart item")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Item removed from cart", c)
}

func (h *CartHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	c, err := h.service.GetByUserID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to fetch cart")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Cart retrieved successfully", c)
}
