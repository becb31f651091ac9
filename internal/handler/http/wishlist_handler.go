package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bookkart/bookkart/internal/auth"
	"github.com/bookkart/bookkart/internal/wishlist"
)

type AddToWishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

type WishlistHandler struct {
	service  wishlist.Service
	validate *validator.Validate
}

func NewWishlistHandler(service wishlist.Service) *WishlistHandler {
	return &WishlistHandler{service: service, validate: validator.New()}
}

func (h *WishlistHandler) RegisterRoutes(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/wishlist", func(r chi.Router) {
		r.Use(authenticated)
		r.Post("/add", h.handleAdd)
		r.Delete("/remove/{productId}", h.handleRemove)
		r.Get("/", h.handleGet)
	})
}

func (h *WishlistHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	var req AddToWishlistRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	wl, err := h.service.Add(r.Context(), userID, req.ProductID)
	if err != nil {
		if errors.Is(err, wishlist.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to add wishlist item")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Product added to wishlist", wl)
}

func (h *WishlistHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
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

	wl, err := h.service.Remove(r.Context(), userID, productID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to remove wishlist item")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Item removed from wishlist", wl)
}

func (h *WishlistHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	wl, err := h.service.GetByUserID(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to fetch wishlist")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Wishlist retrieved successfully", wl)
}
