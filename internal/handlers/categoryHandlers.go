package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"chikota/internal/models"
	"chikota/internal/services"
	"chikota/internal/utils"
)

type CategoryHandler struct {
	service services.CategoryService
}

func NewCategoryHandler(service services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) AddCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var req models.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid JSON for AddCategory")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	category, err := h.service.AddCategory(r.Context(), userID, req)
	if err != nil {
		sendServiceError(w, err, "Failed to add category")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	categories, err := h.service.GetCategories(r.Context(), userID)
	if err != nil {
		sendServiceError(w, err, "Failed to fetch categories")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	categoryID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var body categoryPatchBody
	raw, err := utils.DecodePatch(r.Body, &body)
	if err != nil {
		log.Warn().Err(err).Str("category_id", categoryID).Msg("Invalid JSON for UpdateCategory")
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateCategory(r.Context(), userID, categoryID, body.toPatch(raw)); err != nil {
		sendServiceError(w, err, "Failed to update category")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, success)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	categoryID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), userID, categoryID); err != nil {
		log.Error().Err(err).Str("category_id", categoryID).Msg("Error deleting category via service")
		sendServiceError(w, err, "Failed to delete category")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, success)
}
