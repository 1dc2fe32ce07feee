// Package app wires configuration into a ready mastery service: curriculum,
// state store, scorer and event publisher. The CLI, the daemon and the MCP
// server all start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/crucible/internal/config"
	"github.com/felixgeelhaar/crucible/internal/curriculum"
	"github.com/felixgeelhaar/crucible/internal/evaluation"
	"github.com/felixgeelhaar/crucible/internal/events"
	"github.com/felixgeelhaar/crucible/internal/mastery"
	"github.com/felixgeelhaar/crucible/internal/storage"
	"github.com/felixgeelhaar/crucible/internal/storage/local"
	"github.com/felixgeelhaar/crucible/internal/storage/postgres"
	"github.com/felixgeelhaar/crucible/internal/storage/redis"
	"github.com/felixgeelhaar/crucible/internal/storage/sqlite"
)

// App holds the wired service and the resources it owns
type App struct {
	Config   *config.LocalConfig
	Registry *curriculum.Registry
	Store    storage.StateStore
	Service  *mastery.Service

	closers []func() error
}

// New builds an App from configuration
func New(ctx context.Context, cfg *config.LocalConfig) (*App, error) {
	a := &App{Config: cfg}

	registry, err := LoadCurriculum(cfg.Curriculum.Path)
	if err != nil {
		return nil, err
	}
	a.Registry = registry

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store

	loc, err := cfg.Progress.Location()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Service = mastery.NewService(mastery.Options{
		Store:     store,
		Catalog:   registry,
		Scorer:    evaluation.NewLexicalScorer(cfg.Scoring.Thresholds()),
		Publisher: a.openPublisher(),
		Location:  loc,
	})
	return a, nil
}

// LoadCurriculum loads the curriculum at path, or the built-in one when
// path is empty
func LoadCurriculum(path string) (*curriculum.Registry, error) {
	loader := curriculum.DefaultLoader()
	if path != "" {
		loader = curriculum.NewLoader(path)
	}
	registry := curriculum.NewRegistry(loader)
	if err := registry.Load(); err != nil {
		return nil, err
	}
	stats := registry.Stats()
	slog.Debug("curriculum loaded",
		"source", loader.Source(),
		"id", stats.CurriculumID,
		"topics", stats.TopicCount,
		"drills", stats.DrillCount)
	return registry, nil
}

func (a *App) openStore(ctx context.Context) (storage.StateStore, error) {
	sc := a.Config.Storage

	switch sc.Backend {
	case config.BackendLocal:
		store, err := local.NewStoreWithFile(sc.Path, learnerFile(sc.LearnerID))
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return store, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(sc.Path, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		db, err := sqlite.Open(ctx, filepath.Join(sc.Path, "crucible.db"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewStateStore(db, sc.LearnerID, sc.Snapshots), nil

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, sc.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store := postgres.NewStore(pool, sc.LearnerID)
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		return a.resilient("postgres", store), nil

	case config.BackendRedis:
		store, err := redis.NewStore(ctx, redis.Config{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
		}, sc.LearnerID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return a.resilient("redis", store), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
}

func (a *App) resilient(name string, store storage.StateStore) storage.StateStore {
	rc := a.Config.Storage.Resilience
	if !rc.Enabled {
		return store
	}
	cfg := storage.DefaultResilientConfig()
	cfg.MaxAttempts = rc.MaxAttempts
	return storage.NewResilientStore(name, store, cfg)
}

// openPublisher connects to RabbitMQ when events are enabled. An unreachable
// broker degrades to no events.
func (a *App) openPublisher() events.Publisher {
	ec := a.Config.Events
	if !ec.Enabled {
		return events.Nop{}
	}
	conn, err := events.NewConnection(events.AMQPConfig{
		URL:      ec.URL,
		Exchange: ec.Exchange,
		Queue:    ec.Queue,
	})
	if err != nil {
		slog.Warn("progress events disabled", "error", err)
		return events.Nop{}
	}
	a.closers = append(a.closers, conn.Close)
	return events.NewAMQPPublisher(conn)
}

// Close releases every resource in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func learnerFile(learnerID string) string {
	if learnerID == "" || learnerID == "default" {
		return local.DefaultFileName
	}
	return "mastery-" + learnerID + ".json"
}
