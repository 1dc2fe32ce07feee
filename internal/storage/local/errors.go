package local

import "github.com/felixgeelhaar/crucible/internal/storage"

var (
	// ErrNotFound is returned when no state file exists yet
	ErrNotFound = storage.ErrNotFound
)
