// Package remote talks to the dummyjson todos API:
//
//	GET    /todos        -> {"todos": [item...]}
//	POST   /todos/add    -> item
//	PUT    /todos/{id}   -> item
//	DELETE /todos/{id}   -> item + isDeleted, deletedOn
//
// Calls are plain blocking requests bounded by the caller's context. There
// are no retries and no timeout beyond the transport defaults.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/idilsaglam/todosync/internal/model"
)

// DefaultBaseURL is the public demo API.
const DefaultBaseURL = "https://dummyjson.com"

var (
	// ErrRemoteUnavailable covers transport failures and non-2xx responses.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrRemoteDecode is returned when a response body doesn't have the
	// expected shape.
	ErrRemoteDecode = errors.New("remote response decode error")
)

// StatusError carries the HTTP status of a rejected request. It unwraps to
// ErrRemoteUnavailable.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrRemoteUnavailable }

// Deleted is the body returned by DELETE /todos/{id}.
type Deleted struct {
	model.Item
	IsDeleted bool   `json:"isDeleted"`
	DeletedOn string `json:"deletedOn"`
}

type listResponse struct {
	Todos *[]model.Item `json:"todos"`
}

type itemRequest struct {
	Todo      string `json:"todo"`
	Completed bool   `json:"completed"`
	UserID    int    `json:"userId"`
}

// Client is a stateless wrapper around the REST contract.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger; requests are logged at debug level and
// failures at warn level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for baseURL (DefaultBaseURL if empty).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	c := &Client{base: u, http: http.DefaultClient, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches every todo.
func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "todos", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Todos == nil {
		return nil, fmt.Errorf("%w: GET /todos: missing \"todos\" field", ErrRemoteDecode)
	}
	return *resp.Todos, nil
}

// Create posts a new todo. The returned item is whatever the server echoed.
func (c *Client) Create(ctx context.Context, d model.Draft) (model.Item, error) {
	var out model.Item
	err := c.do(ctx, http.MethodPost, "todos/add", itemRequest{
		Todo:      d.Text,
		Completed: d.Completed,
		UserID:    d.OwnerID,
	}, &out)
	return out, err
}

// Update replaces the todo with item.ID.
func (c *Client) Update(ctx context.Context, it model.Item) (model.Item, error) {
	var out model.Item
	err := c.do(ctx, http.MethodPut, "todos/"+strconv.Itoa(it.ID), itemRequest{
		Todo:      it.Text,
		Completed: it.Completed,
		UserID:    it.OwnerID,
	}, &out)
	return out, err
}

// Delete removes the todo with id.
func (c *Client) Delete(ctx context.Context, id int) (Deleted, error) {
	var out Deleted
	err := c.do(ctx, http.MethodDelete, "todos/"+strconv.Itoa(id), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	target := c.base.JoinPath(path)
	reqID := uuid.NewString()
	log := c.logger.With("method", method, "path", target.Path, "request_id", reqID)

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug("remote request")
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("remote request failed", "err", err)
		return fmt.Errorf("%w: %s %s: %v", ErrRemoteUnavailable, method, target.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("remote read failed", "status", resp.StatusCode, "err", err)
		return fmt.Errorf("%w: %s %s: read body: %v", ErrRemoteUnavailable, method, target.Path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("remote rejected request", "status", resp.StatusCode)
		return &StatusError{Method: method, Path: target.Path, Code: resp.StatusCode, Body: truncate(string(raw), 200)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		log.Warn("remote response undecodable", "status", resp.StatusCode, "err", err)
		return fmt.Errorf("%w: %s %s: %v", ErrRemoteDecode, method, target.Path, err)
	}
	log.Debug("remote request done", "status", resp.StatusCode)
	return nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
