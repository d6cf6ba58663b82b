package store

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"chikota/internal/models"
)

// AllCategories selects every bookmark in Filtered.
const AllCategories = "all"

// API is everything the cache needs from the server. *client.Client implements it.
type API interface {
	BookmarkAPI
	TagAPI
	CategoryAPI
}

type Cache struct {
	Bookmarks  *Bookmarks
	Tags       *Tags
	Categories *Categories

	// ActiveCategory is AllCategories or a category id.
	ActiveCategory *Value[string]
	// Filtered is Bookmarks restricted to ActiveCategory.
	Filtered *Computed[[]models.Bookmark]
	// Counts maps category id to its number of bookmarks. Uncategorized
	// bookmarks are counted under "".
	Counts *Computed[map[string]int]
}

func NewCache(api API) *Cache {
	c := &Cache{
		Bookmarks:      NewBookmarks(api),
		Tags:           NewTags(api),
		Categories:     NewCategories(api),
		ActiveCategory: NewValue(AllCategories),
	}
	c.Filtered = Derive2[[]models.Bookmark, string](c.Bookmarks, c.ActiveCategory, filterByCategory)
	c.Counts = Derive[[]models.Bookmark](c.Bookmarks, countByCategory)
	return c
}

// Init loads bookmarks, tags and categories concurrently.
func (c *Cache) Init(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Bookmarks.Init(ctx) })
	g.Go(func() error { return c.Tags.Init(ctx) })
	g.Go(func() error { return c.Categories.Init(ctx) })
	return g.Wait()
}

// RemoveCategory deletes the category and, once the server confirms, detaches
// its bookmarks locally. An active selection of it falls back to AllCategories.
func (c *Cache) RemoveCategory(ctx context.Context, id string) <-chan error {
	if slices.Contains(c.Categories.creates.aliases(id), c.ActiveCategory.Get()) {
		c.ActiveCategory.Set(AllCategories)
	}

	out := make(chan error, 1)
	res := c.Categories.Remove(ctx, id)
	go func() {
		defer close(out)
		err := <-res
		if err == nil {
			for _, alias := range c.Categories.creates.aliases(id) {
				c.Bookmarks.detachCategory(alias)
			}
		}
		out <- err
	}()
	return out
}

func (c *Cache) Close() {
	c.Filtered.Close()
	c.Counts.Close()
}

func filterByCategory(bookmarks []models.Bookmark, active string) []models.Bookmark {
	if active == AllCategories {
		return bookmarks
	}
	out := make([]models.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.InCategory(active) {
			out = append(out, b)
		}
	}
	return out
}

func countByCategory(bookmarks []models.Bookmark) map[string]int {
	counts := make(map[string]int)
	for _, b := range bookmarks {
		key := ""
		if b.CategoryID != nil {
			key = *b.CategoryID
		}
		counts[key]++
	}
	return counts
}
