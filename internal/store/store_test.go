package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chikota/internal/models"
)

var errBoom = errors.New("boom")

// fakeAPI is an in-memory server that keeps the bookmark rows it is given.
// Setting fail makes every write fail, and a non-nil gate blocks
// CreateBookmark until it is closed. deleteGate does the same for bookmark
// deletes, and deleting failID always fails.
type fakeAPI struct {
	mu          sync.Mutex
	fail        bool
	gate        chan struct{}
	deleteGate  chan struct{}
	failID      string
	bookmarks   []models.Bookmark
	tags        []models.Tag
	categories  []models.Category
	deleted     []string
	updated     []string
	deletedTags []string
}

func (f *fakeAPI) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errBoom
	}
	return nil
}

func (f *fakeAPI) ListBookmarks(context.Context) ([]models.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Bookmark(nil), f.bookmarks...), nil
}

func (f *fakeAPI) CreateBookmark(ctx context.Context, req models.CreateBookmarkRequest) (*models.Bookmark, error) {
	if f.gate != nil {
		<-f.gate
	}
	if err := f.err(); err != nil {
		return nil, err
	}
	created := models.Bookmark{ID: "srv-" + req.Title, URL: req.URL, Title: req.Title}
	f.mu.Lock()
	f.bookmarks = append([]models.Bookmark{created}, f.bookmarks...)
	f.mu.Unlock()
	return &created, nil
}

func (f *fakeAPI) UpdateBookmark(ctx context.Context, id string, patch models.BookmarkPatch) error {
	if err := f.err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.updated = append(f.updated, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) DeleteBookmark(ctx context.Context, id string) error {
	return f.DeleteBookmarks(ctx, []string{id})
}

func (f *fakeAPI) DeleteBookmarks(ctx context.Context, ids []string) error {
	if f.deleteGate != nil {
		<-f.deleteGate
	}
	if err := f.err(); err != nil {
		return err
	}
	if f.failID != "" && slices.Contains(ids, f.failID) {
		return errBoom
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	f.bookmarks = slices.DeleteFunc(f.bookmarks, func(b models.Bookmark) bool { return slices.Contains(ids, b.ID) })
	return nil
}

func (f *fakeAPI) ListTags(context.Context) ([]models.Tag, error) {
	return append([]models.Tag(nil), f.tags...), nil
}

func (f *fakeAPI) CreateTag(ctx context.Context, in models.TagInput) (*models.Tag, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	for _, t := range f.tags {
		if t.Name == in.Name {
			return &t, nil
		}
	}
	return &models.Tag{ID: "srv-" + in.Name, Name: in.Name}, nil
}

func (f *fakeAPI) UpdateTag(context.Context, string, models.TagPatch) error { return f.err() }

func (f *fakeAPI) DeleteTag(ctx context.Context, id string) error {
	if id == "t2" {
		return errBoom
	}
	if err := f.err(); err != nil {
		return err
	}
	f.mu.Lock()
	f.deletedTags = append(f.deletedTags, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) ListCategories(context.Context) ([]models.Category, error) {
	return append([]models.Category(nil), f.categories...), nil
}

func (f *fakeAPI) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return &models.Category{ID: "srv-" + req.Name, Name: req.Name, Color: req.Color}, nil
}

func (f *fakeAPI) UpdateCategory(context.Context, string, models.CategoryPatch) error { return f.err() }

func (f *fakeAPI) DeleteCategory(context.Context, string) error { return f.err() }

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("mutation did not settle")
		return nil
	}
}

func ids[T any](items []T, idOf func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, idOf(it))
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestValueSubscribe(t *testing.T) {
	v := NewValue(1)
	var seen []int
	unsubscribe := v.Subscribe(func(n int) { seen = append(seen, n) })

	v.Set(2)
	assert.Equal(t, 3, v.Update(func(n int) int { return n + 1 }))
	unsubscribe()
	unsubscribe()
	v.Set(10)

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 10, v.Get())
}

func TestDerive2RecomputesOnEitherSource(t *testing.T) {
	a := NewValue(2)
	b := NewValue(3)
	sum := Derive2[int, int](a, b, func(x, y int) int { return x + y })
	defer sum.Close()

	assert.Equal(t, 5, sum.Get())
	a.Set(10)
	assert.Equal(t, 13, sum.Get())
	b.Set(0)
	assert.Equal(t, 10, sum.Get())

	sum.Close()
	a.Set(100)
	assert.Equal(t, 10, sum.Get(), "closed views stop tracking")
}

func TestMutateRevertsToSnapshot(t *testing.T) {
	c := NewCollection[int]()
	c.Replace(func([]int) []int { return []int{1, 2, 3} })

	release := make(chan struct{})
	done := c.Mutate(context.Background(),
		func(items []int) []int { return append(items, 4) },
		Commit[int](func(context.Context) error {
			<-release
			return errBoom
		}),
	)

	assert.Equal(t, []int{1, 2, 3, 4}, c.Get(), "optimistic state is visible before commit")
	close(release)
	assert.ErrorIs(t, wait(t, done), errBoom)
	assert.Equal(t, []int{1, 2, 3}, c.Get())
}

func TestBookmarkAddReconciles(t *testing.T) {
	api := &fakeAPI{}
	b := NewBookmarks(api)

	localID, done := b.Add(context.Background(), models.CreateBookmarkRequest{
		URL: "https://a.com", Title: "A", Tags: []models.TagInput{{Name: "tech"}},
	})
	items := b.Get()
	require.Len(t, items, 1)
	assert.Equal(t, localID, items[0].ID)
	assert.Equal(t, "tech", items[0].Tags[0].Name)

	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"srv-A"}, ids(b.Get(), bookmarkID))
}

func TestBookmarkAddThenRemoveBeforeServerAnswers(t *testing.T) {
	api := &fakeAPI{gate: make(chan struct{})}
	b := NewBookmarks(api)

	localID, added := b.Add(context.Background(), models.CreateBookmarkRequest{URL: "https://a.com", Title: "A"})
	removed := b.Remove(context.Background(), localID)
	assert.Empty(t, b.Get())

	close(api.gate)
	require.NoError(t, wait(t, added))
	require.NoError(t, wait(t, removed))
	assert.Empty(t, b.Get(), "removed entry is not re-inserted")
	assert.Equal(t, []string{"srv-A"}, api.deleted, "the delete targets the server's id")

	reloaded := NewBookmarks(api)
	require.NoError(t, reloaded.Init(context.Background()))
	assert.Empty(t, reloaded.Get())
}

func TestBookmarkUpdateBeforeServerAnswers(t *testing.T) {
	api := &fakeAPI{gate: make(chan struct{})}
	b := NewBookmarks(api)

	localID, added := b.Add(context.Background(), models.CreateBookmarkRequest{URL: "https://a.com", Title: "A"})
	updated := b.Update(context.Background(), localID, models.BookmarkPatch{Description: models.Some("later")})
	require.NotNil(t, b.Get()[0].Description)

	close(api.gate)
	require.NoError(t, wait(t, added))
	require.NoError(t, wait(t, updated))

	assert.Equal(t, []string{"srv-A"}, api.updated)
	items := b.Get()
	require.Len(t, items, 1)
	assert.Equal(t, "srv-A", items[0].ID)
	require.NotNil(t, items[0].Description)
	assert.Equal(t, "later", *items[0].Description)
}

func TestRevertKeepsServerCopyOfSettledAdd(t *testing.T) {
	api := &fakeAPI{
		gate:       make(chan struct{}),
		deleteGate: make(chan struct{}),
		failID:     "x",
		bookmarks:  []models.Bookmark{{ID: "x"}},
	}
	b := NewBookmarks(api)
	require.NoError(t, b.Init(context.Background()))

	localID, added := b.Add(context.Background(), models.CreateBookmarkRequest{URL: "https://a.com", Title: "A"})
	removed := b.Remove(context.Background(), "x")
	assert.Equal(t, []string{localID}, ids(b.Get(), bookmarkID))

	close(api.gate)
	require.NoError(t, wait(t, added))
	assert.Equal(t, []string{"srv-A"}, ids(b.Get(), bookmarkID))

	close(api.deleteGate)
	assert.ErrorIs(t, wait(t, removed), errBoom)
	assert.Equal(t, []string{"srv-A", "x"}, ids(b.Get(), bookmarkID))

	require.NoError(t, wait(t, b.Remove(context.Background(), localID)))
	assert.Equal(t, []string{"x"}, ids(b.Get(), bookmarkID))
	assert.Equal(t, []string{"srv-A"}, api.deleted)
}

func TestRemoveOfFailedAddSkipsServer(t *testing.T) {
	api := &fakeAPI{gate: make(chan struct{}), fail: true}
	b := NewBookmarks(api)

	localID, added := b.Add(context.Background(), models.CreateBookmarkRequest{URL: "https://a.com", Title: "A"})
	removed := b.Remove(context.Background(), localID)

	close(api.gate)
	assert.ErrorIs(t, wait(t, added), errBoom)
	require.NoError(t, wait(t, removed))
	assert.Empty(t, b.Get())
	assert.Empty(t, api.deleted)
}

func TestBookmarkAddFailureReverts(t *testing.T) {
	api := &fakeAPI{fail: true, bookmarks: []models.Bookmark{{ID: "b1"}}}
	b := NewBookmarks(api)
	require.NoError(t, b.Init(context.Background()))

	_, done := b.Add(context.Background(), models.CreateBookmarkRequest{URL: "https://a.com", Title: "A"})
	assert.Len(t, b.Get(), 2)
	assert.ErrorIs(t, wait(t, done), errBoom)
	assert.Equal(t, []string{"b1"}, ids(b.Get(), bookmarkID))
}

func TestBookmarkUpdateAndRemoveRevert(t *testing.T) {
	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{fail: true, bookmarks: []models.Bookmark{
		{ID: "b1", Title: "one", ReminderAt: &when},
		{ID: "b2", Title: "two"},
	}}
	b := NewBookmarks(api)
	require.NoError(t, b.Init(context.Background()))

	assert.Error(t, wait(t, b.Update(context.Background(), "b1", models.BookmarkPatch{Title: models.Some("changed")})))
	assert.Equal(t, "one", b.Get()[0].Title)

	assert.Error(t, wait(t, b.RemoveMany(context.Background(), []string{"b1", "b2"})))
	assert.Equal(t, []string{"b1", "b2"}, ids(b.Get(), bookmarkID))

	assert.Error(t, wait(t, b.CancelAllReminders(context.Background())))
	require.NotNil(t, b.Get()[0].ReminderAt)
	assert.True(t, b.Get()[0].ReminderAt.Equal(when))
}

func TestCancelAllReminders(t *testing.T) {
	when := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{bookmarks: []models.Bookmark{
		{ID: "b1", ReminderAt: &when},
		{ID: "b2"},
		{ID: "b3", ReminderAt: &when},
	}}
	b := NewBookmarks(api)
	require.NoError(t, b.Init(context.Background()))

	require.NoError(t, wait(t, b.CancelAllReminders(context.Background())))
	for _, bm := range b.Get() {
		assert.Nil(t, bm.ReminderAt)
	}
	assert.ElementsMatch(t, []string{"b1", "b3"}, api.updated)
}

func TestTagAddKeepsSingleEntryForExistingTag(t *testing.T) {
	api := &fakeAPI{tags: []models.Tag{{ID: "t1", Name: "go"}}}
	tags := NewTags(api)
	require.NoError(t, tags.Init(context.Background()))

	_, done := tags.Add(context.Background(), models.TagInput{Name: "go"})
	assert.Len(t, tags.Get(), 2)
	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"t1"}, ids(tags.Get(), tagID))

	_, done = tags.Add(context.Background(), models.TagInput{Name: "rust", Color: strPtr("red")})
	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"srv-rust", "t1"}, ids(tags.Get(), tagID))
}

func TestTagRemoveByLocalIDUsesServerID(t *testing.T) {
	api := &fakeAPI{}
	tags := NewTags(api)

	localID, done := tags.Add(context.Background(), models.TagInput{Name: "rust"})
	require.NoError(t, wait(t, done))

	require.NoError(t, wait(t, tags.Remove(context.Background(), localID)))
	assert.Empty(t, tags.Get())
	assert.Equal(t, []string{"srv-rust"}, api.deletedTags)
}

func TestTagRemoveManyRevertsOnAnyFailure(t *testing.T) {
	api := &fakeAPI{tags: []models.Tag{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}}
	tags := NewTags(api)
	require.NoError(t, tags.Init(context.Background()))

	assert.ErrorIs(t, wait(t, tags.RemoveMany(context.Background(), []string{"t1", "t2"})), errBoom)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(tags.Get(), tagID))

	require.NoError(t, wait(t, tags.RemoveMany(context.Background(), []string{"t1", "t3"})))
	assert.Equal(t, []string{"t2"}, ids(tags.Get(), tagID))
}

func TestCacheViews(t *testing.T) {
	work, home := "work", "home"
	api := &fakeAPI{
		bookmarks: []models.Bookmark{
			{ID: "b1", CategoryID: &work},
			{ID: "b2", CategoryID: &home},
			{ID: "b3", CategoryID: &work},
			{ID: "b4"},
		},
		tags:       []models.Tag{{ID: "t1"}},
		categories: []models.Category{{ID: "work", Color: models.ColorSky}, {ID: "home", Color: models.ColorRose}},
	}
	cache := NewCache(api)
	defer cache.Close()
	require.NoError(t, cache.Init(context.Background()))

	assert.Len(t, cache.Filtered.Get(), 4)
	assert.Equal(t, map[string]int{"work": 2, "home": 1, "": 1}, cache.Counts.Get())
	assert.Len(t, cache.Tags.Get(), 1)
	assert.Len(t, cache.Categories.Get(), 2)

	var seen [][]string
	unsubscribe := cache.Filtered.Subscribe(func(items []models.Bookmark) {
		seen = append(seen, ids(items, bookmarkID))
	})
	defer unsubscribe()

	cache.ActiveCategory.Set("work")
	assert.Equal(t, []string{"b1", "b3"}, ids(cache.Filtered.Get(), bookmarkID))

	require.NoError(t, wait(t, cache.Bookmarks.Remove(context.Background(), "b1")))
	assert.Equal(t, []string{"b3"}, ids(cache.Filtered.Get(), bookmarkID))
	assert.Equal(t, []string{"b3"}, seen[len(seen)-1])

	require.NoError(t, wait(t, cache.RemoveCategory(context.Background(), "work")))
	assert.Equal(t, AllCategories, cache.ActiveCategory.Get())
	assert.Equal(t, map[string]int{"home": 1, "": 2}, cache.Counts.Get())
	assert.Equal(t, []string{"home"}, ids(cache.Categories.Get(), categoryID))
}

func TestCategoryAddAndRevert(t *testing.T) {
	api := &fakeAPI{}
	cats := NewCategories(api)

	_, done := cats.Add(context.Background(), models.CreateCategoryRequest{Name: "Reading", Color: models.ColorAmber})
	require.NoError(t, wait(t, done))
	assert.Equal(t, []string{"srv-Reading"}, ids(cats.Get(), categoryID))

	api.fail = true
	assert.Error(t, wait(t, cats.Update(context.Background(), "srv-Reading", models.CategoryPatch{Name: models.Some("Later")})))
	assert.Equal(t, "Reading", cats.Get()[0].Name)
}
