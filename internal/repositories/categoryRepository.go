package repositories

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"chikota/internal/models"
)

const categoryRepo = "category"

type CategoryRepository interface {
	WithTx(tx bun.IDB) CategoryRepository
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	FindByUser(ctx context.Context, userID string) ([]models.Category, error)
	Update(ctx context.Context, userID, categoryID string, fields map[string]interface{}) (int64, error)
	Delete(ctx context.Context, userID, categoryID string) (int64, error)
}

type categoryRepository struct {
	db bun.IDB
}

func NewCategoryRepository(db bun.IDB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) WithTx(tx bun.IDB) CategoryRepository {
	return &categoryRepository{db: tx}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) (err error) {
	defer trackQuery("create", categoryRepo)(&err)

	if _, err = r.db.NewInsert().Model(category).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert category: %w", mapError(err))
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, userID, categoryID string) (category *models.Category, err error) {
	defer trackQuery("findByID", categoryRepo)(&err)

	category = new(models.Category)
	err = r.db.NewSelect().Model(category).Where("c.id = ?", categoryID).Where("c.user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return category, nil
}

func (r *categoryRepository) FindByUser(ctx context.Context, userID string) (categories []models.Category, err error) {
	defer trackQuery("findByUser", categoryRepo)(&err)

	categories = []models.Category{}
	err = r.db.NewSelect().
		Model(&categories).
		Where("c.user_id = ?", userID).
		Order("c.created_at ASC", "c.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching categories: %w", mapError(err))
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, userID, categoryID string, fields map[string]interface{}) (n int64, err error) {
	defer trackQuery("update", categoryRepo)(&err)

	if len(fields) == 0 {
		return 0, nil
	}
	q := r.db.NewUpdate().
		Model((*models.Category)(nil)).
		Where("id = ?", categoryID).
		Where("user_id = ?", userID)
	for column, value := range fields {
		q = q.Set("? = ?", bun.Ident(column), value)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to update category: %w", mapError(err))
	}
	return res.RowsAffected()
}

func (r *categoryRepository) Delete(ctx context.Context, userID, categoryID string) (n int64, err error) {
	defer trackQuery("delete", categoryRepo)(&err)

	res, err := r.db.NewDelete().
		Model((*models.Category)(nil)).
		Where("user_id = ?", userID).
		Where("id = ?", categoryID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete category: %w", mapError(err))
	}
	return res.RowsAffected()
}
