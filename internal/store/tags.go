package store

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"chikota/internal/models"
)

type TagAPI interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, in models.TagInput) (*models.Tag, error)
	UpdateTag(ctx context.Context, id string, patch models.TagPatch) error
	DeleteTag(ctx context.Context, id string) error
}

type Tags struct {
	*Collection[models.Tag]
	api     TagAPI
	creates *creates[models.Tag]
}

func NewTags(api TagAPI) *Tags {
	t := &Tags{Collection: NewCollection[models.Tag](), api: api, creates: newCreates(tagID)}
	t.onRevert = t.creates.rebase
	return t
}

func tagID(t models.Tag) string { return t.ID }

func (t *Tags) Init(ctx context.Context) error {
	list, err := t.api.ListTags(ctx)
	if err != nil {
		return err
	}
	t.Replace(func([]models.Tag) []models.Tag { return list })
	return nil
}

// Add shows the tag at once under a local id. The server may answer with a tag
// the user already has; the cache then keeps a single entry for it.
func (t *Tags) Add(ctx context.Context, in models.TagInput) (string, <-chan error) {
	color := in.ColorOrDefault()
	optimistic := models.Tag{ID: localID(), Name: in.Name, Color: &color}
	pending := t.creates.track(optimistic.ID)

	done := t.Mutate(ctx,
		func(items []models.Tag) []models.Tag {
			return append([]models.Tag{optimistic}, items...)
		},
		func(ctx context.Context) (Settle[models.Tag], error) {
			created, err := t.api.CreateTag(ctx, in)
			if err != nil {
				t.creates.finish(pending, nil)
				return nil, err
			}
			return func(items []models.Tag) []models.Tag {
				t.creates.finish(pending, created)
				local := indexOf(items, optimistic.ID, tagID)
				if local < 0 {
					return items
				}
				if existing := indexOf(items, created.ID, tagID); existing >= 0 {
					items[existing] = *created
					return append(items[:local], items[local+1:]...)
				}
				items[local] = *created
				return items
			}, nil
		},
	)
	return optimistic.ID, done
}

func (t *Tags) Update(ctx context.Context, id string, patch models.TagPatch) <-chan error {
	return t.Mutate(ctx,
		func(items []models.Tag) []models.Tag {
			return t.patch(items, t.creates.aliases(id), patch)
		},
		func(ctx context.Context) (Settle[models.Tag], error) {
			serverID, ok, err := t.creates.resolve(ctx, id)
			if err != nil || !ok {
				return nil, err
			}
			if err := t.api.UpdateTag(ctx, serverID, patch); err != nil {
				return nil, err
			}
			return func(items []models.Tag) []models.Tag {
				return t.patch(items, []string{serverID}, patch)
			}, nil
		},
	)
}

func (t *Tags) patch(items []models.Tag, ids []string, patch models.TagPatch) []models.Tag {
	for i := range items {
		if slices.Contains(ids, items[i].ID) {
			patch.Apply(&items[i])
		}
	}
	return items
}

func (t *Tags) Remove(ctx context.Context, id string) <-chan error {
	return t.RemoveMany(ctx, []string{id})
}

// RemoveMany deletes the tags concurrently. Any failure restores all of them.
func (t *Tags) RemoveMany(ctx context.Context, ids []string) <-chan error {
	var local []string
	for _, id := range ids {
		local = append(local, t.creates.aliases(id)...)
	}
	return t.Mutate(ctx,
		func(items []models.Tag) []models.Tag {
			return without(items, local, tagID)
		},
		func(ctx context.Context) (Settle[models.Tag], error) {
			serverIDs, err := t.creates.resolveAll(ctx, ids)
			if err != nil {
				return nil, err
			}
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(4)
			for _, id := range serverIDs {
				id := id
				g.Go(func() error { return t.api.DeleteTag(gctx, id) })
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return func(items []models.Tag) []models.Tag {
				return without(items, serverIDs, tagID)
			}, nil
		},
	)
}
