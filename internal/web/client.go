package web

import (
	"context"
	"net/http"
	"time"

	"github.com/diagnosis/festa-decor/internal/session"
	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const clientCookieMaxAge = 365 * 24 * time.Hour

// Client identifies the browser with a signed long-lived cookie, opens its
// durable storage and restores its session for the request.
type Client struct {
	name     string
	secure   bool
	codec    *securecookie.SecureCookie
	backend  storage.Backend
	provider *session.Provider
}

func NewClient(cookieName string, hashKey []byte, secure bool, backend storage.Backend, provider *session.Provider) *Client {
	codec := securecookie.New(hashKey, nil)
	codec.MaxAge(int(clientCookieMaxAge.Seconds()))
	return &Client{
		name:     cookieName,
		secure:   secure,
		codec:    codec,
		backend:  backend,
		provider: provider,
	}
}

// ID returns the browser's client id, issuing a new one when the cookie is
// missing or was not signed by us.
func (c *Client) ID(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(c.name); err == nil {
		var id string
		if err := c.codec.Decode(c.name, ck.Value, &id); err == nil && id != "" {
			return id
		}
	}

	id := uuid.NewString()
	encoded, err := c.codec.Encode(c.name, id)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to encode client cookie", "error", err)
		return id
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(clientCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (c *Client) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := c.ID(w, r)
		ctx := context.WithValue(r.Context(), logger.ClientIDKey, id)

		kv := c.backend.Open(id)
		ctx = storage.WithStore(ctx, kv)

		s := c.provider.Open(ctx, kv)
		ctx = session.WithSession(ctx, s)
		if u := s.Get().User; u != nil {
			ctx = context.WithValue(ctx, logger.UserRoleKey, u.Role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
