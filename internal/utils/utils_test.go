package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseIDs("a, b,,c ,"))
	assert.Empty(t, ParseIDs(""))
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1", "secret", time.Hour)
	require.NoError(t, err)

	userID, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateJWT("user-1", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)
}

func TestSessionRoundTrip(t *testing.T) {
	store := NewSessionStore("0123456789abcdef0123456789abcdef", 3600, false)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, SetSessionUser(store, rec, req, "user-42"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		next.AddCookie(c)
	}
	userID, ok := SessionUserID(store, next)
	assert.True(t, ok)
	assert.Equal(t, "user-42", userID)

	_, ok = SessionUserID(store, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestDecodePatchTracksPresence(t *testing.T) {
	var body struct {
		ReminderAt    *time.Time `json:"reminderAt"`
		ReminderEmail *string    `json:"reminderEmail"`
		Title         *string    `json:"title"`
	}
	raw, err := DecodePatch(strings.NewReader(`{"reminderAt":"2026-03-01T10:00:00Z","reminderEmail":null}`), &body)
	require.NoError(t, err)

	assert.True(t, Has(raw, "reminderAt"))
	assert.True(t, Has(raw, "reminderEmail"))
	assert.False(t, Has(raw, "title"))
	require.NotNil(t, body.ReminderAt)
	assert.True(t, body.ReminderAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
	assert.Nil(t, body.ReminderEmail)
}

func TestDecodePatchRejectsBadJSON(t *testing.T) {
	var body struct{}
	_, err := DecodePatch(strings.NewReader(`{`), &body)
	assert.Error(t, err)
}

func TestGetIDFromVars(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "abc"})
	id, err := GetIDFromVars(httptest.NewRecorder(), req, "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	rec := httptest.NewRecorder()
	_, err = GetIDFromVars(rec, httptest.NewRequest(http.MethodGet, "/", nil), "id")
	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserIDFromContext(t *testing.T) {
	rec := httptest.NewRecorder()
	_, err := GetUserIDFromContext(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUserID(req.Context(), "u1"))
	userID, err := GetUserIDFromContext(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}
