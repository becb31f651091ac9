package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/bookkart/bookkart/internal/auth"
	"github.com/bookkart/bookkart/internal/order"
	"github.com/bookkart/bookkart/internal/payment"
)

// signatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const signatureHeader = "X-Razorpay-Signature"

type PaymentDetailsRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID string `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature string `json:"razorpay_signature,omitempty"`
}

type CreateOrUpdateOrderRequest struct {
	OrderID           *uuid.UUID             `json:"order_id,omitempty"`
	ShippingAddressID *uuid.UUID             `json:"shipping_address_id,omitempty"`
	PaymentMethod     *string                `json:"payment_method,omitempty"`
	TotalAmount       *decimal.Decimal       `json:"total_amount,omitempty"`
	PaymentDetails    *PaymentDetailsRequest `json:"payment_details,omitempty"`
}

type CreateRemotePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{service: service, validate: validator.New()}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/order", func(r chi.Router) {
		// Webhook is signature-authenticated, not session-authenticated.
		r.Post("/webhook", h.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", h.handleCreateOrUpdate)
			r.Post("/payment-gateway", h.handleCreateRemotePayment)
			r.Get("/", h.handleGetByUser)
			r.Get("/{id}", h.handleGetByID)
		})
	})
}

func (h *OrderHandler) handleCreateOrUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	var req CreateOrUpdateOrderRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	in := order.CreateOrUpdateInput{
		OrderID:           req.OrderID,
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
		TotalAmount:       req.TotalAmount,
	}
	if req.PaymentDetails != nil {
		in.PaymentDetails = &order.PaymentDetails{
			RazorpayOrderID:   req.PaymentDetails.RazorpayOrderID,
			RazorpayPaymentID: req.PaymentDetails.RazorpayPaymentID,
			RazorpaySignature: req.PaymentDetails.RazorpaySignature,
		}
	}

	o, err := h.service.CreateOrUpdate(r.Context(), userID, in)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			respondError(w, http.StatusBadRequest, "Cart is empty")
		case errors.Is(err, order.ErrTotalMismatch):
			respondError(w, http.StatusBadRequest, "Total amount does not match the cart contents")
		case errors.Is(err, order.ErrInvalidTotal):
			respondError(w, http.StatusBadRequest, "Total amount must be positive")
		case errors.Is(err, order.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, order.ErrVersionConflict):
			respondError(w, http.StatusConflict, "Order was modified concurrently, please retry")
		default:
			log.Error().Err(err).Msg("handler: failed to create or update order")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respond(w, http.StatusOK, "Order created/updated successfully", o)
}

func (h *OrderHandler) handleGetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	orders, err := h.service.GetByUserID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to fetch user orders")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Orders fetched by user successfully", orders)
}

func (h *OrderHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	o, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to fetch order")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if o.UserID != userID {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}

	respond(w, http.StatusOK, "Order fetched by Id successfully", o)
}

func (h *OrderHandler) handleCreateRemotePayment(w http.ResponseWriter, r *http.Request) {
	var req CreateRemotePaymentRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	remote, err := h.service.CreateRemotePayment(r.Context(), req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, payment.ErrGatewayUnavailable):
			respondError(w, http.StatusBadGateway, "Payment gateway is unavailable, please try again")
		default:
			log.Error().Err(err).Msg("handler: failed to create remote payment")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respond(w, http.StatusOK, "Payment created successfully", map[string]any{"order": remote})
}

func (h *OrderHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	// The signature covers the exact bytes on the wire, so the body must be
	// verified before any JSON parsing.
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	err = h.service.HandleWebhook(r.Context(), rawBody, r.Header.Get(signatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidSignature):
			respondError(w, http.StatusUnauthorized, "Invalid webhook signature")
		case errors.Is(err, order.ErrOrderNotFound):
			// Non-success so the gateway's retry policy redelivers.
			respondError(w, http.StatusNotFound, "Order not found")
		default:
			log.Error().Err(err).Msg("handler: failed to handle webhook")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respond(w, http.StatusOK, "Webhook handled successfully", nil)
}
