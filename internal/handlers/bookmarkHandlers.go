package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"chikota/internal/models"
	"chikota/internal/services"
	"chikota/internal/utils"
)

type BookmarkHandler struct {
	service services.BookmarkService
	summary services.SummaryService
}

func NewBookmarksHandler(service services.BookmarkService, summary services.SummaryService) *BookmarkHandler {
	return &BookmarkHandler{service: service, summary: summary}
}

func (h *BookmarkHandler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	bookmarks, err := h.service.GetBookmarks(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Error getting bookmarks from service")
		sendServiceError(w, err, "Failed to fetch bookmarks")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, bookmarks)
}

func (h *BookmarkHandler) AddBookmark(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	var req models.CreateBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Error decoding request body for AddBookmark")
		utils.SendJSONError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	bm, err := h.service.AddBookmark(r.Context(), userID, req)
	if err != nil {
		sendServiceError(w, err, "Failed to add bookmark")
		return
	}

	log.Info().Str("bookmark_id", bm.ID).Msg("Successfully created bookmark")
	utils.RespondWithJSON(w, http.StatusCreated, bm)
}

func (h *BookmarkHandler) GetBookmarkByID(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	bookmarkID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	bm, err := h.service.GetBookmarkByID(r.Context(), userID, bookmarkID)
	if err != nil {
		sendServiceError(w, err, "Failed to fetch bookmark")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, bm)
}

func (h *BookmarkHandler) UpdateBookmark(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	bookmarkID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	var body bookmarkPatchBody
	raw, err := utils.DecodePatch(r.Body, &body)
	if err != nil {
		log.Warn().Err(err).Str("bookmark_id", bookmarkID).Msg("Invalid request body for UpdateBookmark")
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.service.UpdateBookmark(r.Context(), userID, bookmarkID, body.toPatch(raw)); err != nil {
		sendServiceError(w, err, "Failed to update bookmark")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, success)
}

func (h *BookmarkHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	bookmarkID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	if err := h.service.DeleteBookmark(r.Context(), userID, bookmarkID); err != nil {
		log.Error().Err(err).Str("bookmark_id", bookmarkID).Msg("Error deleting bookmark via service")
		sendServiceError(w, err, "Failed to delete bookmark")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, success)
}

// DeleteBookmarks handles DELETE /api/bookmarks?ids=a,b,c.
func (h *BookmarkHandler) DeleteBookmarks(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}

	ids := utils.ParseIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		utils.SendJSONError(w, "Missing ids parameter", http.StatusBadRequest)
		return
	}

	if _, err := h.service.DeleteBookmarks(r.Context(), userID, ids); err != nil {
		log.Error().Err(err).Int("count", len(ids)).Msg("Error bulk deleting bookmarks via service")
		sendServiceError(w, err, "Failed to delete bookmarks")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, success)
}

func (h *BookmarkHandler) SummarizeBookmark(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(w, r)
	if err != nil {
		return
	}
	bookmarkID, err := utils.GetIDFromVars(w, r, "id")
	if err != nil {
		return
	}

	bm, err := h.summary.SummarizeBookmark(r.Context(), userID, bookmarkID)
	if err != nil {
		sendServiceError(w, err, "Failed to generate summary")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, bm)
}
