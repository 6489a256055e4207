package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS client_storage (
	client_id  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (client_id, key)
)`

type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

// EnsureSchema creates the storage table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := b.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Open(clientID string) Store {
	return &postgresStore{pool: b.pool, clientID: clientID}
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

type postgresStore struct {
	pool     *pgxpool.Pool
	clientID string
}

func (s *postgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `SELECT value FROM client_storage WHERE client_id = $1 AND key = $2`

	var value string
	err := s.pool.QueryRow(ctx, q, s.clientID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *postgresStore) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO client_storage (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (client_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()`

	if _, err := s.pool.Exec(ctx, q, s.clientID, key, value); err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `DELETE FROM client_storage WHERE client_id = $1 AND key = ANY($2)`

	if _, err := s.pool.Exec(ctx, q, s.clientID, keys); err != nil {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}
