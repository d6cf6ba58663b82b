package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"chikota/internal/models"
	"chikota/internal/services"
	"chikota/internal/utils"
)

type UserHandler struct {
	userService services.UserService
	store       sessions.Store
}

func NewUserHandler(userService services.UserService, store sessions.Store) *UserHandler {
	return &UserHandler{userService: userService, store: store}
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (u *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid user data input for Register")
		utils.SendJSONError(w, "Invalid user data input: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := u.userService.RegisterUser(r.Context(), req)
	if err != nil {
		sendServiceError(w, err, "Failed to register user")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, user)
}

// Login starts a cookie session and also returns a bearer token for non-browser clients.
func (u *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Login
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		log.Warn().Err(err).Msg("Invalid request body for Login")
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	token, user, err := u.userService.LoginUser(r.Context(), creds)
	if err != nil {
		sendServiceError(w, err, "Failed to log in")
		return
	}

	if err := utils.SetSessionUser(u.store, w, r, user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to save session")
		utils.SendJSONError(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (u *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := utils.ClearSession(u.store, w, r); err != nil {
		log.Warn().Err(err).Msg("Failed to clear session")
	}
	utils.RespondWithJSON(w, http.StatusOK, success)
}

func (u *UserHandler) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	user, err := u.userService.GetUserProfile(r.Context(), userID)
	if err != nil {
		sendServiceError(w, err, "Failed to fetch profile")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, user)
}
