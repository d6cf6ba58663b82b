package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID returns a copy of ctx carrying the authenticated user's id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user's id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

// GetUserIDFromContext extracts the userID from the request context, writing a 401 when absent.
func GetUserIDFromContext(w http.ResponseWriter, r *http.Request) (string, error) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return "", errors.New("missing user ID in context")
	}
	return userID, nil
}

// GetIDFromVars extracts a path parameter from mux.Vars, writing a 400 when absent.
func GetIDFromVars(w http.ResponseWriter, r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(mux.Vars(r)[paramName])
	if id == "" {
		SendJSONError(w, "Missing ID parameter", http.StatusBadRequest)
		return "", errors.New("missing ID parameter")
	}
	return id, nil
}

// ParseIDs splits a comma-separated id list, dropping blanks.
func ParseIDs(idsStr string) []string {
	var ids []string
	for _, id := range strings.Split(idsStr, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func SendJSONError(w http.ResponseWriter, message string, code int) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}
