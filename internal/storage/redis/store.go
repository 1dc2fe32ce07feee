// Package redis stores the mastery state as a single Redis string key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/crucible/internal/storage"
)

// KeyPrefix namespaces state keys
const KeyPrefix = "crucible:mastery:"

// Config holds the Redis connection settings
type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Store implements storage.StateStore with a single SET per save
type Store struct {
	client *goredis.Client
	key    string
}

// Ensure Store implements the storage interfaces
var (
	_ storage.StateStore = (*Store)(nil)
	_ storage.Deleter    = (*Store)(nil)
)

// NewStore connects to Redis and verifies the connection
func NewStore(ctx context.Context, cfg Config, learnerID string) (*Store, error) {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	return NewStoreWithClient(client, learnerID), nil
}

// NewStoreWithClient wraps an existing client
func NewStoreWithClient(client *goredis.Client, learnerID string) *Store {
	if learnerID == "" {
		learnerID = "default"
	}
	return &Store{client: client, key: KeyPrefix + learnerID}
}

// Key returns the Redis key holding the state
func (s *Store) Key() string {
	return s.key
}

// Load returns the stored state blob
func (s *Store) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", s.key, err)
	}
	return data, nil
}

// Save replaces the state blob. The key never expires.
func (s *Store) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", s.key, err)
	}
	return nil
}

// Delete removes the state key
func (s *Store) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", s.key, err)
	}
	return nil
}

// Close closes the client
func (s *Store) Close() error {
	return s.client.Close()
}
