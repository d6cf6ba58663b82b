package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"chikota/internal/metrics"
	"chikota/internal/models"
	"chikota/internal/repositories"
)

type SummaryService interface {
	// SummarizeBookmark stores a generated summary as the bookmark's description.
	SummarizeBookmark(ctx context.Context, userID, bookmarkID string) (*models.Bookmark, error)
}

type summaryServiceImpl struct {
	bookmarkRepo repositories.BookmarkRepository
	summarizer   Summarizer
}

func NewSummaryService(bookmarkRepo repositories.BookmarkRepository, summarizer Summarizer) SummaryService {
	return &summaryServiceImpl{bookmarkRepo: bookmarkRepo, summarizer: summarizer}
}

func (s *summaryServiceImpl) SummarizeBookmark(ctx context.Context, userID, bookmarkID string) (*models.Bookmark, error) {
	log.Debug().Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Attempting to retrieve bookmark for summary")

	bm, err := s.bookmarkRepo.FindOne(ctx, userID, bookmarkID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Error().Err(err).Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Failed to retrieve bookmark for summary")
		}
		return nil, translate(err, "bookmark")
	}

	summary, err := s.summarizer.Summarize(ctx, bm.URL, bm.Title)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Failed to generate summary")
		return nil, err
	}

	ts := now()
	fields := map[string]interface{}{"description": summary, "updated_at": ts}
	if _, err := s.bookmarkRepo.Update(ctx, userID, bookmarkID, fields); err != nil {
		log.Error().Err(err).Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Failed to update bookmark summary")
		return nil, err
	}

	bm.Description = &summary
	bm.UpdatedAt = ts
	metrics.SummaryGeneratedTotal.Inc()
	log.Info().Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Bookmark summary generated")
	return bm, nil
}
