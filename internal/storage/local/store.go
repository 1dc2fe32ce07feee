package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/crucible/internal/storage"
)

// DefaultFileName is the state file written inside the base directory
const DefaultFileName = "mastery.json"

// Store keeps the state blob in a single JSON file on disk
type Store struct {
	basePath string
	fileName string
	mu       sync.RWMutex
}

// Ensure Store implements StateStore
var (
	_ storage.StateStore = (*Store)(nil)
	_ storage.Deleter    = (*Store)(nil)
)

// NewStore creates a file store rooted at basePath
func NewStore(basePath string) (*Store, error) {
	return NewStoreWithFile(basePath, DefaultFileName)
}

// NewStoreWithFile creates a file store with a custom state file name
func NewStoreWithFile(basePath, fileName string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Store{basePath: basePath, fileName: fileName}, nil
}

// Path returns the full path of the state file
func (s *Store) Path() string {
	return filepath.Join(s.basePath, s.fileName)
}

// Load reads the state file
func (s *Store) Load(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

// Save replaces the state file atomically: the blob is written to a temp file
// in the same directory, synced, then renamed over the old one.
func (s *Store) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.basePath, s.fileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}

// Delete removes the state file. Deleting a missing file is not an error.
func (s *Store) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// Exists checks if a state file has been written
func (s *Store) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path())
	return err == nil
}
