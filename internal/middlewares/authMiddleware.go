package middlewares

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"chikota/internal/utils"
)

// NewAuthMiddleware authenticates a request by its session cookie, falling
// back to an Authorization: Bearer token.
func NewAuthMiddleware(store sessions.Store, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if userID, ok := utils.SessionUserID(store, r); ok {
				next.ServeHTTP(w, r.WithContext(utils.WithUserID(r.Context(), userID)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, err := utils.ParseJWT(strings.TrimSpace(token), jwtSecret)
			if err != nil {
				log.Debug().Err(err).Msg("Rejected bearer token")
				utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUserID(r.Context(), userID)))
		})
	}
}
