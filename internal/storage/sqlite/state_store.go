package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/crucible/internal/storage"
)

// DefaultLearnerID keys the state row when a single learner uses the database
const DefaultLearnerID = "default"

// DefaultSnapshotLimit is how many prior saves are kept per learner
const DefaultSnapshotLimit = 10

// StateStore implements storage.StateStore backed by SQLite. Every save is a
// single transaction that upserts the state row and records a snapshot.
type StateStore struct {
	db            *DB
	learnerID     string
	snapshotLimit int
}

// Ensure StateStore implements the storage interfaces
var (
	_ storage.StateStore = (*StateStore)(nil)
	_ storage.Deleter    = (*StateStore)(nil)
)

// NewStateStore creates a SQLite-backed state store for one learner.
// A snapshotLimit of zero disables snapshots.
func NewStateStore(db *DB, learnerID string, snapshotLimit int) *StateStore {
	if learnerID == "" {
		learnerID = DefaultLearnerID
	}
	return &StateStore{db: db, learnerID: learnerID, snapshotLimit: snapshotLimit}
}

// Load returns the stored state blob
func (s *StateStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM mastery_state WHERE learner_id = ?", s.learnerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select mastery state: %w", err)
	}
	return data, nil
}

// Save replaces the state blob
func (s *StateStore) Save(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO mastery_state (learner_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(learner_id) DO UPDATE SET
			data=excluded.data,
			updated_at=excluded.updated_at`,
		s.learnerID, data, now)
	if err != nil {
		return fmt.Errorf("upsert mastery state: %w", err)
	}

	if s.snapshotLimit > 0 {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO mastery_snapshots (learner_id, data, saved_at) VALUES (?, ?, ?)",
			s.learnerID, data, now); err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM mastery_snapshots
			WHERE learner_id = ? AND id NOT IN (
				SELECT id FROM mastery_snapshots WHERE learner_id = ?
				ORDER BY id DESC LIMIT ?)`,
			s.learnerID, s.learnerID, s.snapshotLimit); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mastery state: %w", err)
	}
	return nil
}

// Delete removes the state row. Snapshots are kept so a reset can be undone.
func (s *StateStore) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM mastery_state WHERE learner_id = ?", s.learnerID); err != nil {
		return fmt.Errorf("delete mastery state: %w", err)
	}
	return nil
}

// Snapshot is a prior saved version of the state blob
type Snapshot struct {
	ID      int64     `json:"id"`
	SavedAt time.Time `json:"saved_at"`
	Size    int       `json:"size"`
}

// Snapshots lists retained snapshots, newest first
func (s *StateStore) Snapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, saved_at, length(data) FROM mastery_snapshots
		WHERE learner_id = ? ORDER BY id DESC`, s.learnerID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := []Snapshot{}
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.SavedAt, &snap.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// Restore makes a snapshot the current state again
func (s *StateStore) Restore(ctx context.Context, id int64) error {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM mastery_snapshots WHERE learner_id = ? AND id = ?", s.learnerID, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select snapshot: %w", err)
	}
	return s.Save(ctx, data)
}
