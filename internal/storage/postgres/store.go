// Package postgres stores the mastery state in PostgreSQL through pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/crucible/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS mastery_state (
	learner_id TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Connect opens a pool from a database URL with the usual pool defaults
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse database URL: %w", err)
	}
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 4
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// Store implements storage.StateStore on a single JSONB row per learner
type Store struct {
	pool      *pgxpool.Pool
	learnerID string
}

// Ensure Store implements the storage interfaces
var (
	_ storage.StateStore = (*Store)(nil)
	_ storage.Deleter    = (*Store)(nil)
)

// NewStore creates a Postgres-backed state store for one learner
func NewStore(pool *pgxpool.Pool, learnerID string) *Store {
	if learnerID == "" {
		learnerID = "default"
	}
	return &Store{pool: pool, learnerID: learnerID}
}

// EnsureSchema creates the state table if it does not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: create schema: %w", err)
	}
	return nil
}

// Load returns the stored state blob
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		"SELECT data::text FROM mastery_state WHERE learner_id = $1", s.learnerID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: select mastery state: %w", err)
	}
	return data, nil
}

// Save replaces the state blob in a single upsert
func (s *Store) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO mastery_state (learner_id, data, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (learner_id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.pool.Exec(ctx, query, s.learnerID, string(data)); err != nil {
		return fmt.Errorf("postgres: upsert mastery state: %w", err)
	}
	return nil
}

// Delete removes the learner's state row
func (s *Store) Delete(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM mastery_state WHERE learner_id = $1", s.learnerID); err != nil {
		return fmt.Errorf("postgres: delete mastery state: %w", err)
	}
	return nil
}

// Close releases the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
