package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bookkart/bookkart/internal/auth"
	"github.com/bookkart/bookkart/internal/user"
)

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	AgreeTerms bool   `json:"agree_terms"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	Name        string  `json:"name" validate:"omitempty,min=2"`
	Email       string  `json:"email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

// AuthHandler handles registration, session and profile endpoints.
type AuthHandler struct {
	service  user.Service
	tokens   *auth.TokenManager
	validate *validator.Validate
}

func NewAuthHandler(service user.Service, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens, validate: validator.New()}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router, authenticated func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Get("/verify-email/{token}", h.handleVerifyEmail)
		r.Post("/login", h.handleLogin)
		r.Get("/logout", h.handleLogout)
		r.Post("/forgot-password", h.handleForgotPassword)
		r.Post("/reset-password/{token}", h.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/verify-auth", h.handleCheckAuth)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticated)
		r.Put("/user/profile/{userId}", h.handleUpdateProfile)
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	_, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password, req.AgreeTerms)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			respondError(w, http.StatusBadRequest, "A user with this email already exists")
			return
		}
		log.Error().Err(err).Msg("handler: failed to register user")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Registration successful! Please check your email for the verification link.", nil)
}

func (h *AuthHandler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	u, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		if errors.Is(err, user.ErrInvalidAuthToken) {
			respondError(w, http.StatusBadRequest, "Invalid or expired verification token")
			return
		}
		log.Error().Err(err).Msg("handler: failed to verify email")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !h.setSessionCookie(w, u.ID) {
		return
	}

	respond(w, http.StatusOK, "Your email has been successfully verified.", nil)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials):
			respondError(w, http.StatusBadRequest, "Incorrect email or password")
		case errors.Is(err, user.ErrNotVerified):
			respondError(w, http.StatusBadRequest, "Please verify your email before logging in")
		default:
			log.Error().Err(err).Msg("handler: failed to log in user")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if !h.setSessionCookie(w, u.ID) {
		return
	}

	respond(w, http.StatusOK, "Login successful", map[string]any{
		"user": map[string]string{"name": u.Name, "email": u.Email},
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respond(w, http.StatusOK, "Logout successful", nil)
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, http.StatusNotFound, "No account found associated with this email address")
			return
		}
		log.Error().Err(err).Msg("handler: failed to start password reset")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "A password reset link has been sent to your email address", nil)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req ResetPasswordRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		if errors.Is(err, user.ErrInvalidResetToken) {
			respondError(w, http.StatusBadRequest, "Invalid or expired reset password token")
			return
		}
		log.Error().Err(err).Msg("handler: failed to reset password")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "Password reset successful! You may now log in with your new password.", nil)
}

func (h *AuthHandler) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	u, err := h.service.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			respondError(w, http.StatusForbidden, "User not found")
			return
		}
		log.Error().Err(err).Msg("handler: failed to fetch current user")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond(w, http.StatusOK, "User retrieved successfully", u)
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated, please login")
		return
	}

	pathID, err := uuid.FromString(chi.URLParam(r, "userId"))
	if err != nil || pathID != userID {
		respondError(w, http.StatusForbidden, "Cannot update another user's profile")
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Email, req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			respondError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, user.ErrEmailExists):
			respondError(w, http.StatusBadRequest, "A user with this email already exists")
		default:
			log.Error().Err(err).Msg("handler: failed to update profile")
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respond(w, http.StatusOK, "User updated successfully", u)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, userID uuid.UUID) bool {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to issue access token")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
	})

	return true
}
