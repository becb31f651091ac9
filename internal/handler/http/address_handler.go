package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bookkart/bookkart/internal/address"
	"github.com/bookkart/bookkart/internal/auth"
)

type CreateOrUpdateAddressRequest struct {
	AddressID    *uuid.UUID `json:"address_id,omitempty"`
	AddressLine1 string     `json:"address_line1" validate:"required"`
	AddressLine2 *string    `json:"address_line2,omitempty"`
	PhoneNumber  string     `json:"phone_number" validate:"required"`
	City         string     `json:"city" validate:"required"`
	State        string     `json:"state" validate:"required"`
	Pincode      string     `json:"pincode" validate:"required"`
}

type AddressHandler struct {
	service  address.Service
	validate *validator.Validate
}

func NewAddressHandler(service address.Service) *AddressHandler {
	return &AddressHandler{service: service, validate: validator.New()}
}

func (h *AddressHandler) RegisterRoutes(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/address", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/create-or-update", h.handleCreateOrUpdate)
		r.Get("/", h.handleGetByUser)
	})
}

func (h *AddressHandler) handleCreateOrUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	var req CreateOrUpdateAddressRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	a := &address.Address{
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		PhoneNumber:  req.PhoneNumber,
		City:         req.City,
		State:        req.State,
		Pincode:      req.Pincode,
	}

	saved, err := h.service.CreateOrUpdate(r.Context(), userID, req.AddressID, a)
	if err != nil {
		if errors.Is(err, address.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Address not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to save address")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	code := http.StatusOK
	message := "Address updated successfully"
	if req.AddressID == nil {
		code = http.StatusCreated
		message = "Address created successfully"
	}

	respond(w, code, message, saved)
}

func (h *AddressHandler) handleGetByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	addresses, err := h.service.GetByUserID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to fetch addresses")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Addresses fetched successfully", addresses)
}
