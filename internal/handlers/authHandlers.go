package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog/log"

	"chikota/internal/services"
	"chikota/internal/utils"
)

type AuthHandler struct {
	authService services.AuthService
	store       sessions.Store
	frontendURL string
}

func NewAuthHandler(authService services.AuthService, store sessions.Store, frontendURL string) *AuthHandler {
	return &AuthHandler{authService: authService, store: store, frontendURL: frontendURL}
}

func (a *AuthHandler) ProviderAuth(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if provider == "" {
		log.Error().Msg("Provider not specified in URL")
		utils.SendJSONError(w, "Provider not specified", http.StatusBadRequest)
		return
	}

	log.Info().Str("provider", provider).Msg("Initiating authentication with provider")
	gothic.BeginAuthHandler(w, r)
}

func (a *AuthHandler) ProviderCallback(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Provider callback initiated")

	providerUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		log.Error().Err(err).Msg("Error completing user authentication")
		http.Redirect(w, r, a.frontendURL+"/login?error=auth", http.StatusTemporaryRedirect)
		return
	}

	user, _, err := a.authService.HandleLogin(r.Context(), providerUser)
	if err != nil {
		log.Error().Err(err).Msg("Error handling login after provider authentication")
		http.Redirect(w, r, a.frontendURL+"/login?error=auth", http.StatusTemporaryRedirect)
		return
	}

	if err := utils.SetSessionUser(a.store, w, r, user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to save session after provider login")
		http.Redirect(w, r, a.frontendURL+"/login?error=session", http.StatusTemporaryRedirect)
		return
	}
	log.Info().Str("email", user.Email).Msg("Session started for provider login")

	http.Redirect(w, r, a.frontendURL, http.StatusTemporaryRedirect)
}
