package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// envelope is the uniform response body: {success, message, data}.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(w http.ResponseWriter, code int, message string, data any) {
	body, err := json.Marshal(envelope{Success: code < 400, Message: message, Data: data})
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Internal server error","data":null}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, code int, message string) {
	respond(w, code, message, nil)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := v.Struct(dst); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			respondError(w, http.StatusBadRequest, formatValidationErrors(validationErrors))
			return false
		}
		log.Error().Err(err).Msg("handler: unexpected error type during validation")
		respondError(w, http.StatusInternalServerError, "Internal validation error")
		return false
	}

	return true
}

func formatValidationErrors(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation failed"
	}
	fe := errs[0]
	return "Validation failed on field '" + fe.Field() + "' (" + fe.Tag() + ")"
}
