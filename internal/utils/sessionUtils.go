package utils

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	SessionName      = "chikota_session"
	sessionUserIDKey = "user_id"
)

// NewSessionStore builds the cookie store shared by the auth middleware and gothic.
func NewSessionStore(key string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(key))
	store.MaxAge(maxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

func SetSessionUser(store sessions.Store, w http.ResponseWriter, r *http.Request, userID string) error {
	session, err := store.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	session.Values[sessionUserIDKey] = userID
	return session.Save(r, w)
}

// SessionUserID returns the user id stored in the request's session cookie.
func SessionUserID(store sessions.Store, r *http.Request) (string, bool) {
	session, err := store.Get(r, SessionName)
	if err != nil || session == nil {
		return "", false
	}
	userID, ok := session.Values[sessionUserIDKey].(string)
	return userID, ok && userID != ""
}

func ClearSession(store sessions.Store, w http.ResponseWriter, r *http.Request) error {
	session, err := store.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	delete(session.Values, sessionUserIDKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
