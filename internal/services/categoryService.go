package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"chikota/internal/metrics"
	"chikota/internal/models"
	"chikota/internal/repositories"
)

// CategoryService defines the interface for category-related business logic.
type CategoryService interface {
	AddCategory(ctx context.Context, userID string, req models.CreateCategoryRequest) (*models.Category, error)
	GetCategories(ctx context.Context, userID string) ([]models.Category, error)
	GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error)
	UpdateCategory(ctx context.Context, userID, categoryID string, patch models.CategoryPatch) error
	DeleteCategory(ctx context.Context, userID, categoryID string) error
}

type categoryServiceImpl struct {
	db           TxRunner
	categoryRepo repositories.CategoryRepository
	bookmarkRepo repositories.BookmarkRepository
}

func NewCategoryService(db TxRunner, categoryRepo repositories.CategoryRepository, bookmarkRepo repositories.BookmarkRepository) CategoryService {
	return &categoryServiceImpl{db: db, categoryRepo: categoryRepo, bookmarkRepo: bookmarkRepo}
}

func (s *categoryServiceImpl) AddCategory(ctx context.Context, userID string, req models.CreateCategoryRequest) (*models.Category, error) {
	log.Debug().Str("userID", userID).Str("categoryName", req.Name).Msg("Attempting to add category")

	if strings.TrimSpace(req.Name) == "" {
		log.Warn().Str("userID", userID).Msg("Category name is required")
		return nil, invalid("name is required")
	}
	if !req.Color.Valid() {
		log.Warn().Str("userID", userID).Str("color", string(req.Color)).Msg("Invalid category color")
		return nil, invalid("invalid color %q", req.Color)
	}

	ts := now()
	category := &models.Category{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Color:     req.Color,
		Icon:      nonEmpty(req.Icon),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		log.Error().Err(err).Str("category_name", category.Name).Str("user_id", userID).Msg("Failed to insert category")
		return nil, translate(err, "category")
	}

	metrics.CategoryCreatedTotal.Inc()
	log.Info().Str("userID", userID).Str("categoryID", category.ID).Str("categoryName", category.Name).Msg("Category added successfully")
	return category, nil
}

func (s *categoryServiceImpl) GetCategories(ctx context.Context, userID string) ([]models.Category, error) {
	log.Debug().Str("userID", userID).Msg("Attempting to retrieve categories")

	categories, err := s.categoryRepo.FindByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Msg("Error retrieving categories")
		return nil, err
	}
	return categories, nil
}

func (s *categoryServiceImpl) GetCategoryByID(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, userID, categoryID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Warn().Str("userID", userID).Str("categoryID", categoryID).Msg("Category not found")
		} else {
			log.Error().Err(err).Str("userID", userID).Str("categoryID", categoryID).Msg("Error retrieving category")
		}
		return nil, translate(err, "category")
	}
	return category, nil
}

func (s *categoryServiceImpl) UpdateCategory(ctx context.Context, userID, categoryID string, patch models.CategoryPatch) error {
	log.Debug().Str("userID", userID).Str("categoryID", categoryID).Msg("Attempting to update category")

	if patch.IsEmpty() {
		return invalid("no valid fields provided for update")
	}

	fields := map[string]interface{}{}
	if patch.Name.Set {
		if patch.Name.Value == nil || strings.TrimSpace(*patch.Name.Value) == "" {
			return invalid("name cannot be empty")
		}
		fields["name"] = *patch.Name.Value
	}
	if patch.Color.Set {
		if patch.Color.Value == nil || !patch.Color.Value.Valid() {
			log.Warn().Str("userID", userID).Str("categoryID", categoryID).Msg("Invalid category color")
			return invalid("invalid color")
		}
		fields["color"] = string(*patch.Color.Value)
	}
	if patch.Icon.Set {
		fields["icon"] = valueOrNil(nonEmpty(patch.Icon.Value))
	}
	fields["updated_at"] = now()

	matched, err := s.categoryRepo.Update(ctx, userID, categoryID, fields)
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Str("categoryID", categoryID).Msg("Error updating category")
		return translate(err, "category")
	}
	if matched == 0 {
		log.Warn().Str("userID", userID).Str("categoryID", categoryID).Msg("Category not found or not owned by user, nothing updated")
		return nil
	}
	log.Info().Str("userID", userID).Str("categoryID", categoryID).Msg("Category updated successfully")
	return nil
}

// DeleteCategory detaches the user's bookmarks from the category and deletes it in one transaction.
func (s *categoryServiceImpl) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	log.Debug().Str("userID", userID).Str("categoryID", categoryID).Msg("Attempting to delete category")

	var detached, deleted int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if detached, err = s.bookmarkRepo.WithTx(tx).ClearCategory(ctx, userID, categoryID); err != nil {
			return err
		}
		deleted, err = s.categoryRepo.WithTx(tx).Delete(ctx, userID, categoryID)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("userID", userID).Str("categoryID", categoryID).Msg("Error deleting category")
		return err
	}

	if deleted == 0 {
		log.Warn().Str("userID", userID).Str("categoryID", categoryID).Msg("Category not found or not owned by user, nothing deleted")
		return nil
	}
	log.Info().Str("userID", userID).Str("categoryID", categoryID).Int64("detachedBookmarks", detached).Msg("Category deleted successfully")
	return nil
}
