// Package client is a typed client for the bookmark JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"chikota/internal/models"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client that keeps the session cookie set by Login.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar},
	}, nil
}

// WithToken authenticates requests with a bearer token instead of the session cookie.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var res loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", models.Login{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	c.token = res.Token
	return res.User, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListBookmarks(ctx context.Context) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := c.do(ctx, http.MethodGet, "/api/bookmarks", nil, &bookmarks)
	return bookmarks, err
}

func (c *Client) CreateBookmark(ctx context.Context, req models.CreateBookmarkRequest) (*models.Bookmark, error) {
	var bm models.Bookmark
	if err := c.do(ctx, http.MethodPost, "/api/bookmarks", req, &bm); err != nil {
		return nil, err
	}
	return &bm, nil
}

func (c *Client) UpdateBookmark(ctx context.Context, id string, patch models.BookmarkPatch) error {
	return c.do(ctx, http.MethodPut, "/api/bookmarks/"+url.PathEscape(id), patch, nil)
}

func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/bookmarks/"+url.PathEscape(id), nil, nil)
}

func (c *Client) DeleteBookmarks(ctx context.Context, ids []string) error {
	q := url.Values{"ids": {strings.Join(ids, ",")}}
	return c.do(ctx, http.MethodDelete, "/api/bookmarks?"+q.Encode(), nil, nil)
}

func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := c.do(ctx, http.MethodGet, "/api/tags", nil, &tags)
	return tags, err
}

func (c *Client) CreateTag(ctx context.Context, in models.TagInput) (*models.Tag, error) {
	var tag models.Tag
	if err := c.do(ctx, http.MethodPost, "/api/tags", in, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) UpdateTag(ctx context.Context, id string, patch models.TagPatch) error {
	return c.do(ctx, http.MethodPut, "/api/tags/"+url.PathEscape(id), patch, nil)
}

func (c *Client) DeleteTag(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tags/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &categories)
	return categories, err
}

func (c *Client) CreateCategory(ctx context.Context, req models.CreateCategoryRequest) (*models.Category, error) {
	var category models.Category
	if err := c.do(ctx, http.MethodPost, "/api/categories", req, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, patch models.CategoryPatch) error {
	return c.do(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(id), patch, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

// SendReminder returns the id of the sent message.
func (c *Client) SendReminder(ctx context.Context, req models.ReminderRequest) (string, error) {
	var res models.ReminderResponse
	if err := c.do(ctx, http.MethodPost, "/api/send-reminder", req, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return decodeError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(res *http.Response) error {
	apiErr := &APIError{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}
