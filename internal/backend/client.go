// Package backend wraps the external REST API, one service per resource.
//
// The Client is the only place that transmits the bearer token. It reads the
// token from the browser's durable store carried in the request context; the
// session store owns the value but never attaches it to requests itself.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/google/go-querystring/query"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope is the backend's standard wrapper for resource payloads.
type envelope[T any] struct {
	Data    T      `json:"data"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

// Do sends one request. params is encoded as the query string (go-querystring
// struct tags), body as JSON. A non-2xx answer becomes an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, params, body, out any) error {
	target := c.baseURL + path
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("failed to encode query: %w", err)
		}
		if enc := v.Encode(); enc != "" {
			target += "?" + enc
		}
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.authorize(ctx, req)

	if requestID, ok := ctx.Value(logger.RequestIDKey).(string); ok {
		req.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Backend request", "method", method, "url", target)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp.StatusCode, data)
		logger.WarnContext(ctx, "Backend error response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", apiErr.Message,
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// authorize is the shared interceptor: bearer token from durable storage.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	store := storage.FromContext(ctx)
	if store == nil {
		return
	}
	token, ok, err := store.Get(ctx, storage.KeyToken)
	if err != nil {
		logger.WarnContext(ctx, "Failed to read token from storage", "error", err)
		return
	}
	if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) get(ctx context.Context, path string, params, out any) error {
	return c.Do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func resource(base string, id string) string {
	return base + "/" + url.PathEscape(id)
}

// Services bundles every resource wrapper around one Client.
type Services struct {
	Auth      *AuthService
	Events    *EventService
	Occasions *OccasionService
	Blogs     *BlogService
	Bookings  *BookingService
	Cart      *CartService
	Users     *UserService
	Contacts  *ContactService
}

func NewServices(c *Client) *Services {
	return &Services{
		Auth:      &AuthService{c: c},
		Events:    &EventService{c: c},
		Occasions: &OccasionService{c: c},
		Blogs:     &BlogService{c: c},
		Bookings:  &BookingService{c: c},
		Cart:      &CartService{c: c},
		Users:     &UserService{c: c},
		Contacts:  &ContactService{c: c},
	}
}
