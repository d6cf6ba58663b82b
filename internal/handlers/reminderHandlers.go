package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"chikota/internal/models"
	"chikota/internal/services"
	"chikota/internal/utils"
)

type ReminderHandler struct {
	service services.ReminderService
}

func NewReminderHandler(service services.ReminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

func (h *ReminderHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var req models.ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid JSON for SendReminder")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.service.SendReminder(r.Context(), userID, req)
	if err != nil {
		sendServiceError(w, err, "Failed to send reminder")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, models.ReminderResponse{Success: true, ID: id})
}
