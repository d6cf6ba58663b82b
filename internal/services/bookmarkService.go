package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"chikota/internal/metrics"
	"chikota/internal/models"
	"chikota/internal/repositories"
)

type BookmarkService interface {
	GetBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error)
	GetBookmarkByID(ctx context.Context, userID, bookmarkID string) (*models.Bookmark, error)
	AddBookmark(ctx context.Context, userID string, req models.CreateBookmarkRequest) (*models.Bookmark, error)
	UpdateBookmark(ctx context.Context, userID, bookmarkID string, patch models.BookmarkPatch) (*models.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID, bookmarkID string) error
	DeleteBookmarks(ctx context.Context, userID string, bookmarkIDs []string) (int64, error)
}

type bookmarkServiceImpl struct {
	db           TxRunner
	bookmarkRepo repositories.BookmarkRepository
	tagRepo      repositories.TagRepository
	categoryRepo repositories.CategoryRepository
}

func NewBookmarkService(db TxRunner, bookmarkRepo repositories.BookmarkRepository, tagRepo repositories.TagRepository, categoryRepo repositories.CategoryRepository) BookmarkService {
	return &bookmarkServiceImpl{
		db:           db,
		bookmarkRepo: bookmarkRepo,
		tagRepo:      tagRepo,
		categoryRepo: categoryRepo,
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *bookmarkServiceImpl) GetBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error) {
	log.Debug().Str("userID", userID).Msg("Attempting to retrieve bookmarks")

	bookmarks, err := s.bookmarkRepo.FindByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error finding bookmarks")
		return nil, err
	}

	log.Debug().Str("userID", userID).Int("count", len(bookmarks)).Msg("Successfully retrieved bookmarks")
	return bookmarks, nil
}

func (s *bookmarkServiceImpl) GetBookmarkByID(ctx context.Context, userID, bookmarkID string) (*models.Bookmark, error) {
	log.Debug().Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Attempting to retrieve bookmark by ID")

	bm, err := s.bookmarkRepo.FindOne(ctx, userID, bookmarkID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Bookmark not found")
		} else {
			log.Error().Err(err).Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Error finding bookmark by ID")
		}
		return nil, translate(err, "bookmark")
	}
	return bm, nil
}

// AddBookmark inserts the bookmark, resolves every tag name for the user and
// links them, all in one transaction.
func (s *bookmarkServiceImpl) AddBookmark(ctx context.Context, userID string, req models.CreateBookmarkRequest) (*models.Bookmark, error) {
	log.Debug().Str("userID", userID).Str("url", req.URL).Int("tags", len(req.Tags)).Msg("Attempting to add bookmark")

	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Title) == "" {
		log.Warn().Str("userID", userID).Msg("URL and Title are required for adding bookmark")
		return nil, invalid("url and title are required")
	}

	categoryID := nonEmpty(req.CategoryID)
	if err := s.checkCategory(ctx, userID, categoryID); err != nil {
		return nil, err
	}

	ts := now()
	bm := &models.Bookmark{
		ID:            uuid.NewString(),
		UserID:        userID,
		URL:           req.URL,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		CategoryID:    categoryID,
		ReminderAt:    utcPtr(req.ReminderAt),
		ReminderEmail: nonEmpty(req.ReminderEmail),
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	var resolved []models.Tag
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		bookmarks := s.bookmarkRepo.WithTx(tx)
		if err := bookmarks.Create(ctx, bm); err != nil {
			return err
		}

		var err error
		resolved, err = s.resolveTags(ctx, s.tagRepo.WithTx(tx), userID, req.Tags)
		if err != nil {
			return err
		}
		return bookmarks.LinkTags(ctx, bm.ID, tagIDs(resolved))
	})
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error inserting bookmark")
		return nil, translate(err, "bookmark")
	}

	bm.Tags = resolved
	metrics.BookmarkCreatedTotal.Inc()
	log.Info().Str("userID", userID).Str("bookmarkID", bm.ID).Int("tags", len(resolved)).Msg("Bookmark added successfully")
	return bm, nil
}

// UpdateBookmark applies the present fields of patch. When patch carries tags
// they replace the bookmark's whole tag set.
func (s *bookmarkServiceImpl) UpdateBookmark(ctx context.Context, userID, bookmarkID string, patch models.BookmarkPatch) (*models.Bookmark, error) {
	log.Debug().Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Attempting to update bookmark")

	fields, err := s.buildUpdateFields(ctx, userID, patch)
	if err != nil {
		log.Warn().Err(err).Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Invalid bookmark update")
		return nil, err
	}

	var updated *models.Bookmark
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		bookmarks := s.bookmarkRepo.WithTx(tx)
		if _, err := bookmarks.FindOne(ctx, userID, bookmarkID); err != nil {
			return err
		}
		if _, err := bookmarks.Update(ctx, userID, bookmarkID, fields); err != nil {
			return err
		}
		if patch.Tags != nil {
			resolved, err := s.resolveTags(ctx, s.tagRepo.WithTx(tx), userID, *patch.Tags)
			if err != nil {
				return err
			}
			if err := bookmarks.ReplaceTags(ctx, bookmarkID, tagIDs(resolved)); err != nil {
				return err
			}
		}

		var err error
		updated, err = bookmarks.FindOne(ctx, userID, bookmarkID)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Bookmark not found or not authorized to update")
		} else {
			log.Error().Err(err).Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Error updating bookmark")
		}
		return nil, translate(err, "bookmark")
	}

	log.Info().Str("userID", userID).Str("bookmarkID", bookmarkID).Msg("Bookmark updated successfully")
	return updated, nil
}

func (s *bookmarkServiceImpl) buildUpdateFields(ctx context.Context, userID string, patch models.BookmarkPatch) (map[string]interface{}, error) {
	if patch.IsEmpty() {
		return nil, invalid("no valid fields provided for update")
	}

	fields := map[string]interface{}{}
	if patch.Title.Set {
		if patch.Title.Value == nil || strings.TrimSpace(*patch.Title.Value) == "" {
			return nil, invalid("title cannot be empty")
		}
		fields["title"] = *patch.Title.Value
	}
	if patch.Description.Set {
		fields["description"] = valueOrNil(patch.Description.Value)
	}
	if patch.ImageURL.Set {
		fields["image_url"] = valueOrNil(patch.ImageURL.Value)
	}
	if patch.CategoryID.Set {
		categoryID := nonEmpty(patch.CategoryID.Value)
		if err := s.checkCategory(ctx, userID, categoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = valueOrNil(categoryID)
	}
	if patch.ReminderAt.Set {
		if patch.ReminderAt.Value == nil {
			fields["reminder_at"] = nil
		} else {
			fields["reminder_at"] = patch.ReminderAt.Value.UTC()
		}
	}
	if patch.ReminderEmail.Set {
		fields["reminder_email"] = valueOrNil(nonEmpty(patch.ReminderEmail.Value))
	}
	fields["updated_at"] = now()
	return fields, nil
}

// DeleteBookmark succeeds whether or not a matching bookmark existed.
func (s *bookmarkServiceImpl) DeleteBookmark(ctx context.Context, userID, bookmarkID string) error {
	_, err := s.DeleteBookmarks(ctx, userID, []string{bookmarkID})
	return err
}

func (s *bookmarkServiceImpl) DeleteBookmarks(ctx context.Context, userID string, bookmarkIDs []string) (int64, error) {
	log.Debug().Str("userID", userID).Strs("bookmarkIDs", bookmarkIDs).Msg("Attempting to delete bookmarks")
	if len(bookmarkIDs) == 0 {
		log.Warn().Str("userID", userID).Msg("No bookmark IDs provided for deletion")
		return 0, invalid("no bookmark ids provided")
	}

	deleted, err := s.bookmarkRepo.Delete(ctx, userID, bookmarkIDs...)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error deleting bookmarks")
		return 0, err
	}

	if deleted < int64(len(bookmarkIDs)) {
		log.Warn().Str("userID", userID).Int64("deleted", deleted).Int("requested", len(bookmarkIDs)).Msg("Some bookmarks were not found or not owned by user")
	}
	metrics.BookmarkDeletedTotal.Add(float64(deleted))
	log.Info().Str("userID", userID).Int64("deleted", deleted).Msg("Bookmarks deleted successfully")
	return deleted, nil
}

// resolveTags finds or creates each named tag for the user. Repeated names resolve once.
func (s *bookmarkServiceImpl) resolveTags(ctx context.Context, tags repositories.TagRepository, userID string, inputs []models.TagInput) ([]models.Tag, error) {
	resolved := make([]models.Tag, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))

	for _, in := range inputs {
		if in.Name == "" {
			continue
		}
		if _, ok := seen[in.Name]; ok {
			continue
		}
		seen[in.Name] = struct{}{}

		tag, created, err := tags.FindOrCreate(ctx, userID, in.Name, in.ColorOrDefault())
		if err != nil {
			log.Error().Err(err).Str("userID", userID).Str("tagName", in.Name).Msg("Failed to resolve tag")
			return nil, err
		}
		if created {
			metrics.TagCreatedTotal.Inc()
			log.Debug().Str("userID", userID).Str("tagID", tag.ID).Str("tagName", tag.Name).Msg("Created tag for bookmark")
		} else {
			metrics.TagReusedTotal.Inc()
		}
		resolved = append(resolved, *tag)
	}
	return resolved, nil
}

func (s *bookmarkServiceImpl) checkCategory(ctx context.Context, userID string, categoryID *string) error {
	if categoryID == nil || s.categoryRepo == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, userID, *categoryID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("userID", userID).Str("categoryID", *categoryID).Msg("Unknown category referenced by bookmark")
			return invalid("unknown category")
		}
		return err
	}
	return nil
}

func tagIDs(tags []models.Tag) []string {
	ids := make([]string, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func valueOrNil[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
