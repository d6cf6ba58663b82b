package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"chikota/internal/config"
	"chikota/internal/database"
	"chikota/internal/models"
	"chikota/internal/repositories"
)

type testEnv struct {
	db         *bun.DB
	users      repositories.UserRepository
	bookmarks  repositories.BookmarkRepository
	tags       repositories.TagRepository
	categories repositories.CategoryRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv, err := database.New(config.DatabaseConfig{
		Driver: database.DriverSQLite,
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	db := srv.DB()
	return &testEnv{
		db:         db,
		users:      repositories.NewUserRepository(db),
		bookmarks:  repositories.NewBookmarkRepository(db),
		tags:       repositories.NewTagRepository(db),
		categories: repositories.NewCategoryRepository(db),
	}
}

func (e *testEnv) user(t *testing.T, email string) string {
	t.Helper()
	ts := now()
	u := &models.User{ID: uuid.NewString(), Name: email, Email: email, CreatedAt: ts, UpdatedAt: ts}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u.ID
}

func (e *testEnv) count(t *testing.T, model interface{}) int {
	t.Helper()
	n, err := e.db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return n
}

func (e *testEnv) bookmarkService() BookmarkService {
	return NewBookmarkService(e.db, e.bookmarks, e.tags, e.categories)
}

func strPtr(s string) *string { return &s }

func TestAddBookmarkSharesTagsAcrossBookmarks(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookmarkService()
	ctx := context.Background()
	userID := env.user(t, "a@example.com")

	req := models.CreateBookmarkRequest{URL: "https://a.com", Title: "A", Tags: []models.TagInput{{Name: "tech"}}}
	first, err := svc.AddBookmark(ctx, userID, req)
	require.NoError(t, err)
	second, err := svc.AddBookmark(ctx, userID, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	require.Len(t, first.Tags, 1)
	require.Len(t, second.Tags, 1)
	assert.Equal(t, first.Tags[0].ID, second.Tags[0].ID)
	assert.Equal(t, models.DefaultTagColor, *first.Tags[0].Color)

	assert.Equal(t, 2, env.count(t, (*models.Bookmark)(nil)))
	assert.Equal(t, 1, env.count(t, (*models.Tag)(nil)))
	assert.Equal(t, 2, env.count(t, (*models.BookmarkTag)(nil)))
}

func TestAddBookmarkResolvesNewAndExistingTags(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookmarkService()
	ctx := context.Background()
	userID := env.user(t, "a@example.com")

	for _, name := range []string{"go", "db"} {
		_, _, err := env.tags.FindOrCreate(ctx, userID, name, "red")
		require.NoError(t, err)
	}

	bm, err := svc.AddBookmark(ctx, userID, models.CreateBookmarkRequest{
		URL:   "https://b.com",
		Title: "B",
		Tags: []models.TagInput{
			{Name: "go"}, {Name: "db"}, {Name: "new1"}, {Name: "new2", Color: strPtr("green")}, {Name: "go"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, bm.Tags, 4)

	tags, err := env.tags.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, tags, 4)

	stored, err := svc.GetBookmarkByID(ctx, userID, bm.ID)
	require.NoError(t, err)
	names := []string{}
	for _, tag := range stored.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"go", "db", "new1", "new2"}, names)
}

func TestAddBookmarkValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookmarkService()
	userID := env.user(t, "a@example.com")

	_, err := svc.AddBookmark(context.Background(), userID, models.CreateBookmarkRequest{URL: "https://a.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddBookmark(context.Background(), userID, models.CreateBookmarkRequest{
		URL: "https://a.com", Title: "A", CategoryID: strPtr("nope"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, env.count(t, (*models.Bookmark)(nil)))
}

type failingLinkRepo struct {
	repositories.BookmarkRepository
}

func (f failingLinkRepo) WithTx(tx bun.IDB) repositories.BookmarkRepository {
	return failingLinkRepo{f.BookmarkRepository.WithTx(tx)}
}

func (f failingLinkRepo) LinkTags(ctx context.Context, bookmarkID string, tagIDs []string) error {
	return errors.New("connection reset")
}

func TestAddBookmarkRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	svc := NewBookmarkService(env.db, failingLinkRepo{env.bookmarks}, env.tags, env.categories)
	userID := env.user(t, "a@example.com")

	_, err := svc.AddBookmark(context.Background(), userID, models.CreateBookmarkRequest{
		URL: "https://a.com", Title: "A", Tags: []models.TagInput{{Name: "tech"}, {Name: "news"}},
	})
	require.Error(t, err)

	assert.Zero(t, env.count(t, (*models.Bookmark)(nil)))
	assert.Zero(t, env.count(t, (*models.Tag)(nil)))
	assert.Zero(t, env.count(t, (*models.BookmarkTag)(nil)))
}

func TestGetBookmarksNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookmarkService()
	ctx := context.Background()
	userID := env.user(t, "a@example.com")

	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.AddBookmark(ctx, userID, models.CreateBookmarkRequest{URL: "https://x.com/" + title, Title: title})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	list, err := svc.GetBookmarks(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "one", list[2].Title)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.After(list[i-1].CreatedAt))
	}
}

func TestDeleteBookmarkIsTenantScoped(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookmarkService()
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")

	bm, err := svc.AddBookmark(ctx, alice, models.CreateBookmarkRequest{URL: "https://a.com", Title: "A"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBookmark(ctx, bob, bm.ID))
	_, err = svc.GetBookmarkByID(ctx, alice, bm.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBookmark(ctx, alice, bm.ID))
	require.NoError(t, svc.DeleteBookmark(ctx, alice, bm.ID), "deleting twice succeeds")
	_, err = svc.GetBookmarkByID(ctx, alice, bm.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteBookmarksBulk(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookmarkService()
	ctx := context.Background()
	userID := env.user(t, "a@example.com")

	var ids []string
	for i := 0; i < 3; i++ {
		bm, err := svc.AddBookmark(ctx, userID, models.CreateBookmarkRequest{
			URL: fmt.Sprintf("https://x.com/%d", i), Title: "x", Tags: []models.TagInput{{Name: "t"}},
		})
		require.NoError(t, err)
		ids = append(ids, bm.ID)
	}

	deleted, err := svc.DeleteBookmarks(ctx, userID, append(ids[:2:2], "missing"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.Equal(t, 1, env.count(t, (*models.Bookmark)(nil)))
	assert.Equal(t, 1, env.count(t, (*models.BookmarkTag)(nil)))

	_, err = svc.DeleteBookmarks(ctx, userID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateBookmark(t *testing.T) {
	env := newTestEnv(t)
	svc := env.bookmarkService()
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")

	bm, err := svc.AddBookmark(ctx, alice, models.CreateBookmarkRequest{
		URL: "https://a.com", Title: "A", Tags: []models.TagInput{{Name: "old"}},
	})
	require.NoError(t, err)

	when := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	updated, err := svc.UpdateBookmark(ctx, alice, bm.ID, models.BookmarkPatch{
		ReminderAt:    models.Some(when),
		ReminderEmail: models.Some("me@example.com"),
		Tags:          &[]models.TagInput{{Name: "new"}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ReminderAt)
	assert.True(t, updated.ReminderAt.Equal(when))
	assert.Equal(t, "me@example.com", *updated.ReminderEmail)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "new", updated.Tags[0].Name)

	cleared, err := svc.UpdateBookmark(ctx, alice, bm.ID, models.BookmarkPatch{
		ReminderAt:    models.Null[time.Time](),
		ReminderEmail: models.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.ReminderAt)
	assert.Nil(t, cleared.ReminderEmail)
	assert.Len(t, cleared.Tags, 1, "tags are untouched when absent from the patch")

	_, err = svc.UpdateBookmark(ctx, bob, bm.ID, models.BookmarkPatch{Title: models.Some("stolen")})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateBookmark(ctx, alice, bm.ID, models.BookmarkPatch{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateBookmark(ctx, alice, bm.ID, models.BookmarkPatch{Title: models.Null[string]()})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTagService(t *testing.T) {
	env := newTestEnv(t)
	svc := NewTagService(env.tags)
	ctx := context.Background()
	alice := env.user(t, "alice@example.com")
	bob := env.user(t, "bob@example.com")

	tag, created, err := svc.AddTag(ctx, alice, models.TagInput{Name: "go"})
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := svc.AddTag(ctx, alice, models.TagInput{Name: "go", Color: strPtr("red")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, tag.ID, again.ID)

	bobs, created, err := svc.AddTag(ctx, bob, models.TagInput{Name: "go"})
	require.NoError(t, err)
	assert.True(t, created, "lookup is scoped to the requesting user")
	assert.NotEqual(t, tag.ID, bobs.ID)

	_, _, err = svc.AddTag(ctx, alice, models.TagInput{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = svc.AddTag(ctx, alice, models.TagInput{Name: "rust"})
	require.NoError(t, err)
	err = svc.UpdateTag(ctx, alice, tag.ID, models.TagPatch{Name: models.Some("rust")})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, svc.UpdateTag(ctx, bob, tag.ID, models.TagPatch{Color: models.Some("pink")}))
	got, err := env.tags.FindByID(ctx, alice, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "blue", *got.Color)

	require.NoError(t, svc.DeleteTag(ctx, bob, tag.ID))
	require.NoError(t, svc.DeleteTag(ctx, alice, tag.ID))
	require.NoError(t, svc.DeleteTag(ctx, alice, tag.ID))
	_, err = env.tags.FindByID(ctx, alice, tag.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestCategoryDeleteDetachesBookmarks(t *testing.T) {
	env := newTestEnv(t)
	categories := NewCategoryService(env.db, env.categories, env.bookmarks)
	bookmarks := env.bookmarkService()
	ctx := context.Background()
	userID := env.user(t, "a@example.com")

	cat, err := categories.AddCategory(ctx, userID, models.CreateCategoryRequest{Name: "Reading", Color: models.ColorViolet})
	require.NoError(t, err)

	bm, err := bookmarks.AddBookmark(ctx, userID, models.CreateBookmarkRequest{URL: "https://a.com", Title: "A", CategoryID: &cat.ID})
	require.NoError(t, err)
	require.NotNil(t, bm.CategoryID)

	require.NoError(t, categories.DeleteCategory(ctx, userID, cat.ID))
	require.NoError(t, categories.DeleteCategory(ctx, userID, cat.ID))

	got, err := bookmarks.GetBookmarkByID(ctx, userID, bm.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestCategoryValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewCategoryService(env.db, env.categories, env.bookmarks)
	ctx := context.Background()
	userID := env.user(t, "a@example.com")

	_, err := svc.AddCategory(ctx, userID, models.CreateCategoryRequest{Name: "X", Color: "blue"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	cat, err := svc.AddCategory(ctx, userID, models.CreateCategoryRequest{Name: "X", Color: models.ColorAmber})
	require.NoError(t, err)

	err = svc.UpdateCategory(ctx, userID, cat.ID, models.CategoryPatch{Color: models.Some(models.CategoryColor("teal"))})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.UpdateCategory(ctx, userID, cat.ID, models.CategoryPatch{Name: models.Some("Y"), Icon: models.Some("book")}))
	got, err := svc.GetCategoryByID(ctx, userID, cat.ID)
	require.NoError(t, err)
	assert.Equal(t, "Y", got.Name)
	assert.Equal(t, "book", *got.Icon)
}

type fakeEmail struct {
	to, subject, html string
	err               error
}

func (f *fakeEmail) SendEmail(to, subject, html string) (string, error) {
	f.to, f.subject, f.html = to, subject, html
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

func TestSendReminder(t *testing.T) {
	email := &fakeEmail{}
	svc := NewReminderService(email)
	when := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	id, err := svc.SendReminder(context.Background(), "u1", models.ReminderRequest{
		Email: "me@example.com", Title: "<b>Go</b>", URL: "https://go.dev", ReminderAt: &when,
	})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	assert.Equal(t, "me@example.com", email.to)
	assert.Equal(t, "Reminder: <b>Go</b>", email.subject)
	assert.Contains(t, email.html, "&lt;b&gt;Go&lt;/b&gt;")
	assert.Contains(t, email.html, `href="https://go.dev"`)
	assert.Contains(t, email.html, "March 1, 2026 at 10:00 AM UTC")
}

func TestSendReminderValidationAndFailure(t *testing.T) {
	email := &fakeEmail{}
	svc := NewReminderService(email)

	_, err := svc.SendReminder(context.Background(), "u1", models.ReminderRequest{Email: "me@example.com", Title: "T", URL: "https://x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualError(t, err, "Missing required fields")
	assert.Empty(t, email.to)

	when := time.Now()
	email.err = errors.New("smtp down")
	_, err = svc.SendReminder(context.Background(), "u1", models.ReminderRequest{Email: "me@example.com", Title: "T", URL: "https://x", ReminderAt: &when})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "chikota.app", senderDomain("Chikota <reminders@chikota.app>"))
	assert.Equal(t, "localhost", senderDomain("not an address"))
}

func TestUserRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.users, "secret", time.Hour)
	ctx := context.Background()

	user, err := svc.RegisterUser(ctx, models.RegisterRequest{Name: "Ada", Email: "Ada@Example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = svc.RegisterUser(ctx, models.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.RegisterUser(ctx, models.RegisterRequest{Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	token, got, err := svc.LoginUser(ctx, models.Login{Email: "ada@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)

	_, _, err = svc.LoginUser(ctx, models.Login{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.LoginUser(ctx, models.Login{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	count, err := svc.GetTotalUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestAuthHandleLoginFindsOrCreates(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(env.users, "secret", time.Hour)
	ctx := context.Background()

	first, token, err := svc.HandleLogin(ctx, goth.User{Email: "Grace@Example.com", Name: "Grace", Provider: "google"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, first.EmailVerified)

	second, _, err := svc.HandleLogin(ctx, goth.User{Email: "grace@example.com", Provider: "google"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, _, err = svc.HandleLogin(ctx, goth.User{Provider: "google"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f fakeSummarizer) Summarize(ctx context.Context, url, title string) (string, error) {
	return f.summary, f.err
}

func TestSummarizeBookmark(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.user(t, "a@example.com")
	bm, err := env.bookmarkService().AddBookmark(ctx, userID, models.CreateBookmarkRequest{URL: "https://go.dev", Title: "Go"})
	require.NoError(t, err)

	svc := NewSummaryService(env.bookmarks, fakeSummarizer{summary: "# Go"})
	got, err := svc.SummarizeBookmark(ctx, userID, bm.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Go", *got.Description)

	_, err = svc.SummarizeBookmark(ctx, "someone-else", bm.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	disabled := NewSummaryService(env.bookmarks, NewSummarizer(config.LLMConfig{}))
	_, err = disabled.SummarizeBookmark(ctx, userID, bm.ID)
	assert.ErrorIs(t, err, ErrUnavailable)
}
