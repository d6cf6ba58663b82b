package handlers

import (
	"errors"
	"net/http"

	"chikota/internal/services"
	"chikota/internal/utils"
)

// sendServiceError writes the status matching err. Messages of store or
// provider failures are replaced with fallback.
func sendServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.SendJSONError(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.SendJSONError(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, services.ErrUnavailable):
		utils.SendJSONError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		utils.SendJSONError(w, fallback, http.StatusInternalServerError)
	}
}

var success = map[string]bool{"success": true}
