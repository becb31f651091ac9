package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookkart/bookkart/internal/auth"
)

type Handlers struct {
	Auth     *AuthHandler
	Product  *ProductHandler
	Cart     *CartHandler
	Wishlist *WishlistHandler
	Address  *AddressHandler
	Order    *OrderHandler
}

func NewRouter(tokens *auth.TokenManager, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	authenticated := Authenticated(tokens)

	r.Route("/api", func(r chi.Router) {
		h.Auth.RegisterRoutes(r, authenticated)
		h.Product.RegisterRoutes(r, authenticated)
		h.Cart.RegisterRoutes(r, authenticated)
		h.Wishlist.RegisterRoutes(r, authenticated)
		h.Address.RegisterRoutes(r, authenticated)
		h.Order.RegisterRoutes(r, authenticated)
	})

	return r
}
