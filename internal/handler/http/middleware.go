package http

import (
	"net/http"

	"github.com/bookkart/bookkart/internal/auth"
)

const accessTokenCookie = "access_token"

// Authenticated reads the access_token cookie and puts the user id into the
// request context; requests without a valid token get a 401 envelope.
func Authenticated(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(accessTokenCookie)
			if err != nil || cookie.Value == "" {
				respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
				return
			}

			userID, err := tm.Parse(cookie.Value)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Not authorized, token not valid or expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
