package store

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"chikota/internal/models"
)

type BookmarkAPI interface {
	ListBookmarks(ctx context.Context) ([]models.Bookmark, error)
	CreateBookmark(ctx context.Context, req models.CreateBookmarkRequest) (*models.Bookmark, error)
	UpdateBookmark(ctx context.Context, id string, patch models.BookmarkPatch) error
	DeleteBookmark(ctx context.Context, id string) error
	DeleteBookmarks(ctx context.Context, ids []string) error
}

// Bookmarks holds the user's bookmarks, newest first.
type Bookmarks struct {
	*Collection[models.Bookmark]
	api     BookmarkAPI
	creates *creates[models.Bookmark]
}

func NewBookmarks(api BookmarkAPI) *Bookmarks {
	b := &Bookmarks{
		Collection: NewCollection[models.Bookmark](),
		api:        api,
		creates:    newCreates(bookmarkID),
	}
	b.onRevert = b.creates.rebase
	return b
}

func bookmarkID(b models.Bookmark) string { return b.ID }

func localID() string { return "local-" + uuid.NewString() }

func (b *Bookmarks) Init(ctx context.Context) error {
	list, err := b.api.ListBookmarks(ctx)
	if err != nil {
		return err
	}
	b.Replace(func([]models.Bookmark) []models.Bookmark { return list })
	return nil
}

// Add shows the bookmark immediately under a local id. Once the server has
// stored it the local entry is swapped for the server's copy, unless the entry
// was removed in the meantime. The local id stays usable with Update and
// Remove; they wait for the create and act on the server's id.
func (b *Bookmarks) Add(ctx context.Context, req models.CreateBookmarkRequest) (string, <-chan error) {
	now := time.Now().UTC()
	tags := make([]models.Tag, 0, len(req.Tags))
	for _, in := range req.Tags {
		color := in.ColorOrDefault()
		tags = append(tags, models.Tag{Name: in.Name, Color: &color})
	}
	optimistic := models.Bookmark{
		ID:            localID(),
		URL:           req.URL,
		Title:         req.Title,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		CategoryID:    req.CategoryID,
		ReminderAt:    req.ReminderAt,
		ReminderEmail: req.ReminderEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
		Tags:          tags,
	}
	pending := b.creates.track(optimistic.ID)

	done := b.Mutate(ctx,
		func(items []models.Bookmark) []models.Bookmark {
			return append([]models.Bookmark{optimistic}, items...)
		},
		func(ctx context.Context) (Settle[models.Bookmark], error) {
			created, err := b.api.CreateBookmark(ctx, req)
			if err != nil {
				b.creates.finish(pending, nil)
				return nil, err
			}
			return func(items []models.Bookmark) []models.Bookmark {
				b.creates.finish(pending, created)
				if i := indexOf(items, optimistic.ID, bookmarkID); i >= 0 {
					items[i] = *created
				}
				return items
			}, nil
		},
	)
	return optimistic.ID, done
}

func (b *Bookmarks) Update(ctx context.Context, id string, patch models.BookmarkPatch) <-chan error {
	return b.Mutate(ctx,
		func(items []models.Bookmark) []models.Bookmark {
			return b.patch(items, b.creates.aliases(id), patch)
		},
		func(ctx context.Context) (Settle[models.Bookmark], error) {
			serverID, ok, err := b.creates.resolve(ctx, id)
			if err != nil || !ok {
				return nil, err
			}
			if err := b.api.UpdateBookmark(ctx, serverID, patch); err != nil {
				return nil, err
			}
			// The server's copy may have replaced the patched local entry.
			return func(items []models.Bookmark) []models.Bookmark {
				return b.patch(items, []string{serverID}, patch)
			}, nil
		},
	)
}

func (b *Bookmarks) patch(items []models.Bookmark, ids []string, patch models.BookmarkPatch) []models.Bookmark {
	for i := range items {
		if slices.Contains(ids, items[i].ID) {
			patch.Apply(&items[i])
		}
	}
	return items
}

func (b *Bookmarks) Remove(ctx context.Context, id string) <-chan error {
	return b.RemoveMany(ctx, []string{id})
}

// RemoveMany deletes the bookmarks in one request. Local ids of bookmarks
// still being created are deleted once the server has assigned their ids.
func (b *Bookmarks) RemoveMany(ctx context.Context, ids []string) <-chan error {
	var local []string
	for _, id := range ids {
		local = append(local, b.creates.aliases(id)...)
	}
	return b.Mutate(ctx,
		func(items []models.Bookmark) []models.Bookmark {
			return without(items, local, bookmarkID)
		},
		func(ctx context.Context) (Settle[models.Bookmark], error) {
			serverIDs, err := b.creates.resolveAll(ctx, ids)
			if err != nil || len(serverIDs) == 0 {
				return nil, err
			}
			if len(serverIDs) == 1 {
				err = b.api.DeleteBookmark(ctx, serverIDs[0])
			} else {
				err = b.api.DeleteBookmarks(ctx, serverIDs)
			}
			if err != nil {
				return nil, err
			}
			return func(items []models.Bookmark) []models.Bookmark {
				return without(items, serverIDs, bookmarkID)
			}, nil
		},
	)
}

// CancelAllReminders clears every scheduled reminder.
func (b *Bookmarks) CancelAllReminders(ctx context.Context) <-chan error {
	var ids []string
	return b.Mutate(ctx,
		func(items []models.Bookmark) []models.Bookmark {
			for i := range items {
				if items[i].ReminderAt != nil {
					ids = append(ids, items[i].ID)
					items[i].ReminderAt = nil
				}
			}
			return items
		},
		Commit[models.Bookmark](func(ctx context.Context) error {
			g, ctx := errgroup.WithContext(ctx)
			g.SetLimit(4)
			for _, id := range ids {
				id := id
				g.Go(func() error {
					serverID, ok, err := b.creates.resolve(ctx, id)
					if err != nil || !ok {
						return err
					}
					return b.api.UpdateBookmark(ctx, serverID, models.BookmarkPatch{ReminderAt: models.Null[time.Time]()})
				})
			}
			return g.Wait()
		}),
	)
}

// detachCategory mirrors the server clearing category_id when a category is deleted.
func (b *Bookmarks) detachCategory(categoryID string) {
	b.Replace(func(items []models.Bookmark) []models.Bookmark {
		for i := range items {
			if items[i].InCategory(categoryID) {
				items[i].CategoryID = nil
			}
		}
		return items
	})
}
