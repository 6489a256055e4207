// Package storage is the durable per-browser key/value store. It plays the
// role of the browser's local storage: the session store mirrors its state
// here and the backend client reads the bearer token from it.
//
// Writes are last-write-wins per key; there is no multi-key atomicity.
package storage

import (
	"context"
)

// Well-known keys. Other packages (profile pages, booking forms) read these
// directly, so their names are part of the contract.
const (
	KeyToken      = "token"
	KeyUser       = "user"
	KeyLoggedIn   = "isUserLoggedIn"
	KeyRole       = "userRole"
	KeyUserName   = "userName"
	KeyUserMobile = "userMobile"
	KeySessionID  = "sessionId"
)

// Store is one browser's namespace.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Backend hands out per-browser stores.
type Backend interface {
	Open(clientID string) Store
	Close() error
}

type ctxKey struct{}

func WithStore(ctx context.Context, s Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store attached to ctx, or nil.
func FromContext(ctx context.Context) Store {
	if s, ok := ctx.Value(ctxKey{}).(Store); ok {
		return s
	}
	return nil
}
