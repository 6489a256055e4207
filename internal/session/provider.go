package session

import (
	"context"
	"time"

	"github.com/diagnosis/festa-decor/internal/storage"
	"github.com/diagnosis/festa-decor/pkg/events"
	"github.com/diagnosis/festa-decor/pkg/logger"
)

// Hook observes transitions of every Store the Provider opens.
type Hook func(ctx context.Context, ev Event)

// Provider is built once at start and opens a Store per browser.
type Provider struct {
	api   AuthAPI
	hooks []Hook
}

func NewProvider(api AuthAPI, hooks ...Hook) *Provider {
	return &Provider{api: api, hooks: hooks}
}

// Open builds the browser's Store, attaches the hooks and restores it.
func (p *Provider) Open(ctx context.Context, kv storage.Store) *Store {
	s := New(p.api, kv)
	for _, h := range p.hooks {
		h := h
		s.Subscribe(func(ev Event) { h(ctx, ev) })
	}
	s.Restore(ctx)
	return s
}

// PublishHook forwards logins, registrations and logouts to pub.
// Restores happen on every request and are not published.
func PublishHook(pub events.Publisher) Hook {
	return func(ctx context.Context, ev Event) {
		var subject string
		switch ev.Type {
		case EventLogin:
			subject = events.SessionLogin
		case EventRegister:
			subject = events.SessionRegister
		case EventLogout:
			subject = events.SessionLogout
		default:
			return
		}

		payload := events.SessionEvent{
			Type: string(ev.Type),
			At:   time.Now().UTC(),
		}
		if id, ok := ctx.Value(logger.ClientIDKey).(string); ok {
			payload.ClientID = id
		}
		if u := ev.State.User; u != nil {
			payload.Email = u.Email
			payload.Role = u.Role
		}

		if err := pub.Publish(ctx, subject, payload); err != nil {
			logger.WarnContext(ctx, "Failed to publish session event", "subject", subject, "error", err)
		}
	}
}
