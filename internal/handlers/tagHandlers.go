package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"chikota/internal/models"
	"chikota/internal/services"
	"chikota/internal/utils"
)

type TagHandler struct {
	service services.TagService
}

func NewTagHandler(service services.TagService) *TagHandler {
	return &TagHandler{service: service}
}

// AddTag returns 201 with a new tag, or 200 with the user's existing tag of that name.
func (h *TagHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var in models.TagInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Warn().Err(err).Msg("Invalid JSON input for AddTag")
		utils.SendJSONError(w, "Invalid JSON input: "+err.Error(), http.StatusBadRequest)
		return
	}

	tag, created, err := h.service.AddTag(r.Context(), userID, in)
	if err != nil {
		sendServiceError(w, err, "Failed to add tag")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	utils.RespondWithJSON(w, status, tag)
}

func (h *TagHandler) GetUserTags(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	tags, err := h.service.GetUserTags(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Error getting user tags from service")
		sendServiceError(w, err, "Failed to fetch tags")
		return
	}

	log.Info().Int("count", len(tags)).Str("user_id", userID).Msg("User tags retrieved successfully")
	utils.RespondWithJSON(w, http.StatusOK, tags)
}

func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	tagID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var body tagPatchBody
	raw, err := utils.DecodePatch(r.Body, &body)
	if err != nil {
		log.Warn().Err(err).Str("tag_id", tagID).Msg("Invalid JSON payload for UpdateTag")
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateTag(r.Context(), userID, tagID, body.toPatch(raw)); err != nil {
		sendServiceError(w, err, "Failed to update tag")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, success)
}

func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	tagID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteTag(r.Context(), userID, tagID); err != nil {
		log.Error().Err(err).Str("tag_id", tagID).Str("user_id", userID).Msg("Error deleting tag via service")
		sendServiceError(w, err, "Failed to delete tag")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, success)
}
