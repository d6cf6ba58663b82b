package store

import (
	"context"
	"slices"

	"chikota/internal/models"
)

type CategoryAPI interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) error
	DeleteCategory(ctx context.Context, id string) error
}

// Categories holds the user's categories, oldest first.
type Categories struct {
	*Collection[models.Category]
	api     CategoryAPI
	creates *creates[models.Category]
}

func NewCategories(api CategoryAPI) *Categories {
	c := &Categories{Collection: NewCollection[models.Category](), api: api, creates: newCreates(categoryID)}
	c.onRevert = c.creates.rebase
	return c
}

func categoryID(c models.Category) string { return c.ID }

func (c *Categories) Init(ctx context.Context) error {
	list, err := c.api.ListCategories(ctx)
	if err != nil {
		return err
	}
	c.Replace(func([]models.Category) []models.Category { return list })
	return nil
}

func (c *Categories) Add(ctx context.Context, req models.CreateCategoryRequest) (string, <-chan error) {
	optimistic := models.Category{ID: localID(), Name: req.Name, Color: req.Color, Icon: req.Icon}
	pending := c.creates.track(optimistic.ID)

	done := c.Mutate(ctx,
		func(items []models.Category) []models.Category {
			return append(items, optimistic)
		},
		func(ctx context.Context) (Settle[models.Category], error) {
			created, err := c.api.CreateCategory(ctx, req)
			if err != nil {
				c.creates.finish(pending, nil)
				return nil, err
			}
			return func(items []models.Category) []models.Category {
				c.creates.finish(pending, created)
				if i := indexOf(items, optimistic.ID, categoryID); i >= 0 {
					items[i] = *created
				}
				return items
			}, nil
		},
	)
	return optimistic.ID, done
}

func (c *Categories) Update(ctx context.Context, id string, patch models.CategoryPatch) <-chan error {
	return c.Mutate(ctx,
		func(items []models.Category) []models.Category {
			return c.patch(items, c.creates.aliases(id), patch)
		},
		func(ctx context.Context) (Settle[models.Category], error) {
			serverID, ok, err := c.creates.resolve(ctx, id)
			if err != nil || !ok {
				return nil, err
			}
			if err := c.api.UpdateCategory(ctx, serverID, patch); err != nil {
				return nil, err
			}
			return func(items []models.Category) []models.Category {
				return c.patch(items, []string{serverID}, patch)
			}, nil
		},
	)
}

func (c *Categories) patch(items []models.Category, ids []string, patch models.CategoryPatch) []models.Category {
	for i := range items {
		if slices.Contains(ids, items[i].ID) {
			patch.Apply(&items[i])
		}
	}
	return items
}

func (c *Categories) Remove(ctx context.Context, id string) <-chan error {
	local := c.creates.aliases(id)
	return c.Mutate(ctx,
		func(items []models.Category) []models.Category {
			return without(items, local, categoryID)
		},
		func(ctx context.Context) (Settle[models.Category], error) {
			serverID, ok, err := c.creates.resolve(ctx, id)
			if err != nil || !ok {
				return nil, err
			}
			if err := c.api.DeleteCategory(ctx, serverID); err != nil {
				return nil, err
			}
			return func(items []models.Category) []models.Category {
				return without(items, []string{serverID}, categoryID)
			}, nil
		},
	)
}
