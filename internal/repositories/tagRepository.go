package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"chikota/internal/models"
)

const tagRepo = "tag"

type TagRepository interface {
	WithTx(tx bun.IDB) TagRepository
	// FindOrCreate returns the user's tag with this exact name, inserting it
	// when missing. created reports whether this call inserted the row.
	FindOrCreate(ctx context.Context, userID, name, color string) (tag *models.Tag, created bool, err error)
	FindByID(ctx context.Context, userID, tagID string) (*models.Tag, error)
	FindByName(ctx context.Context, userID, name string) (*models.Tag, error)
	FindByUser(ctx context.Context, userID string) ([]models.Tag, error)
	Update(ctx context.Context, userID, tagID string, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, userID string, tagIDs ...string) (int64, error)
}

type tagRepository struct {
	db bun.IDB
}

func NewTagRepository(db bun.IDB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) WithTx(tx bun.IDB) TagRepository {
	return &tagRepository{db: tx}
}

func (r *tagRepository) FindOrCreate(ctx context.Context, userID, name, color string) (tag *models.Tag, created bool, err error) {
	defer trackQuery("findOrCreate", tagRepo)(&err)

	tag, err = r.FindByName(ctx, userID, name)
	if err == nil {
		return tag, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	tag = &models.Tag{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Color:     &color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// A concurrent insert of the same name wins the unique constraint; the row is re-read below.
	res, err := r.db.NewInsert().
		Model(tag).
		On("CONFLICT (user_id, name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		log.Error().Err(err).Str("tag_name", name).Str("user_id", userID).Msg("Failed to insert tag")
		return nil, false, fmt.Errorf("failed to insert tag: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return tag, true, nil
	}

	log.Debug().Str("tag_name", name).Str("user_id", userID).Msg("Tag created concurrently, reusing existing row")
	tag, err = r.FindByName(ctx, userID, name)
	if err != nil {
		return nil, false, err
	}
	return tag, false, nil
}

func (r *tagRepository) FindByID(ctx context.Context, userID, tagID string) (tag *models.Tag, err error) {
	defer trackQuery("findByID", tagRepo)(&err)

	tag = new(models.Tag)
	err = r.db.NewSelect().Model(tag).Where("t.id = ?", tagID).Where("t.user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return tag, nil
}

func (r *tagRepository) FindByName(ctx context.Context, userID, name string) (tag *models.Tag, err error) {
	defer trackQuery("findByName", tagRepo)(&err)

	tag = new(models.Tag)
	err = r.db.NewSelect().Model(tag).Where("t.user_id = ?", userID).Where("t.name = ?", name).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return tag, nil
}

func (r *tagRepository) FindByUser(ctx context.Context, userID string) (tags []models.Tag, err error) {
	defer trackQuery("findByUser", tagRepo)(&err)

	tags = []models.Tag{}
	err = r.db.NewSelect().
		Model(&tags).
		Where("t.user_id = ?", userID).
		Order("t.created_at DESC", "t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tags: %w", mapError(err))
	}
	return tags, nil
}

func (r *tagRepository) Update(ctx context.Context, userID, tagID string, fields map[string]interface{}) (n int64, err error) {
	defer trackQuery("update", tagRepo)(&err)

	if len(fields) == 0 {
		return 0, nil
	}
	q := r.db.NewUpdate().
		Model((*models.Tag)(nil)).
		Where("id = ?", tagID).
		Where("user_id = ?", userID)
	for column, value := range fields {
		q = q.Set("? = ?", bun.Ident(column), value)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to update tag: %w", mapError(err))
	}
	return res.RowsAffected()
}

func (r *tagRepository) Delete(ctx context.Context, userID string, tagIDs ...string) (n int64, err error) {
	defer trackQuery("delete", tagRepo)(&err)

	if len(tagIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.NewDelete().
		Model((*models.Tag)(nil)).
		Where("user_id = ?", userID).
		Where("id IN (?)", bun.In(tagIDs)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tag: %w", mapError(err))
	}
	return res.RowsAffected()
}
