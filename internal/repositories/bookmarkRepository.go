package repositories

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/bun"

	"chikota/internal/models"
)

const bookmarkRepo = "bookmark"

type BookmarkRepository interface {
	// WithTx returns a repository bound to tx.
	WithTx(tx bun.IDB) BookmarkRepository
	Create(ctx context.Context, bm *models.Bookmark) error
	FindByUser(ctx context.Context, userID string) ([]models.Bookmark, error)
	FindOne(ctx context.Context, userID, bookmarkID string) (*models.Bookmark, error)
	Update(ctx context.Context, userID, bookmarkID string, fields map[string]interface{}) (int64, error)
	LinkTags(ctx context.Context, bookmarkID string, tagIDs []string) error
	ReplaceTags(ctx context.Context, bookmarkID string, tagIDs []string) error
	Delete(ctx context.Context, userID string, bookmarkIDs ...string) (int64, error)
	ClearCategory(ctx context.Context, userID, categoryID string) (int64, error)
}

type bookmarkRepository struct {
	db bun.IDB
}

func NewBookmarkRepository(db bun.IDB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) WithTx(tx bun.IDB) BookmarkRepository {
	return &bookmarkRepository{db: tx}
}

func (r *bookmarkRepository) Create(ctx context.Context, bm *models.Bookmark) (err error) {
	defer trackQuery("create", bookmarkRepo)(&err)

	if _, err = r.db.NewInsert().Model(bm).Exec(ctx); err != nil {
		return fmt.Errorf("failed to add bookmark: %w", mapError(err))
	}
	return nil
}

// FindByUser returns the user's bookmarks with their tags, newest first.
func (r *bookmarkRepository) FindByUser(ctx context.Context, userID string) (bookmarks []models.Bookmark, err error) {
	defer trackQuery("findByUser", bookmarkRepo)(&err)

	bookmarks = []models.Bookmark{}
	err = r.db.NewSelect().
		Model(&bookmarks).
		Relation("Tags").
		Where("b.user_id = ?", userID).
		Order("b.created_at DESC", "b.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve bookmarks: %w", mapError(err))
	}

	for i := range bookmarks {
		normalizeTags(&bookmarks[i])
	}
	return bookmarks, nil
}

func (r *bookmarkRepository) FindOne(ctx context.Context, userID, bookmarkID string) (bm *models.Bookmark, err error) {
	defer trackQuery("findOne", bookmarkRepo)(&err)

	bm = new(models.Bookmark)
	err = r.db.NewSelect().
		Model(bm).
		Relation("Tags").
		Where("b.id = ?", bookmarkID).
		Where("b.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	normalizeTags(bm)
	return bm, nil
}

// Update sets the given columns on a bookmark owned by userID and reports how many rows matched.
func (r *bookmarkRepository) Update(ctx context.Context, userID, bookmarkID string, fields map[string]interface{}) (n int64, err error) {
	defer trackQuery("update", bookmarkRepo)(&err)

	if len(fields) == 0 {
		return 0, nil
	}
	q := r.db.NewUpdate().
		Model((*models.Bookmark)(nil)).
		Where("id = ?", bookmarkID).
		Where("user_id = ?", userID)
	for column, value := range fields {
		q = q.Set("? = ?", bun.Ident(column), value)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to update bookmark: %w", mapError(err))
	}
	return res.RowsAffected()
}

func (r *bookmarkRepository) LinkTags(ctx context.Context, bookmarkID string, tagIDs []string) (err error) {
	defer trackQuery("linkTags", bookmarkRepo)(&err)

	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]models.BookmarkTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		links = append(links, models.BookmarkTag{BookmarkID: bookmarkID, TagID: tagID})
	}
	if _, err = r.db.NewInsert().Model(&links).Exec(ctx); err != nil {
		return fmt.Errorf("failed to link tags: %w", mapError(err))
	}
	return nil
}

func (r *bookmarkRepository) ReplaceTags(ctx context.Context, bookmarkID string, tagIDs []string) (err error) {
	defer trackQuery("replaceTags", bookmarkRepo)(&err)

	_, err = r.db.NewDelete().
		Model((*models.BookmarkTag)(nil)).
		Where("bookmark_id = ?", bookmarkID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unlink tags: %w", mapError(err))
	}
	return r.LinkTags(ctx, bookmarkID, tagIDs)
}

// Delete removes the listed bookmarks owned by userID. Ids owned by anyone else are skipped.
func (r *bookmarkRepository) Delete(ctx context.Context, userID string, bookmarkIDs ...string) (n int64, err error) {
	defer trackQuery("delete", bookmarkRepo)(&err)

	if len(bookmarkIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.NewDelete().
		Model((*models.Bookmark)(nil)).
		Where("user_id = ?", userID).
		Where("id IN (?)", bun.In(bookmarkIDs)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookmarks: %w", mapError(err))
	}
	return res.RowsAffected()
}

// ClearCategory detaches the user's bookmarks from categoryID.
func (r *bookmarkRepository) ClearCategory(ctx context.Context, userID, categoryID string) (n int64, err error) {
	defer trackQuery("clearCategory", bookmarkRepo)(&err)

	res, err := r.db.NewUpdate().
		Model((*models.Bookmark)(nil)).
		Set("category_id = NULL").
		Where("user_id = ?", userID).
		Where("category_id = ?", categoryID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear category: %w", mapError(err))
	}
	return res.RowsAffected()
}

func normalizeTags(bm *models.Bookmark) {
	if bm.Tags == nil {
		bm.Tags = []models.Tag{}
		return
	}
	sort.SliceStable(bm.Tags, func(i, j int) bool { return bm.Tags[i].Name < bm.Tags[j].Name })
}
