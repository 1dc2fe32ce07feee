// Package storage defines the persistence contract for the mastery state blob.
//
// The engine always reads and writes the whole serialized state; backends only
// need to replace it atomically. Implementations live in the local, sqlite,
// postgres and redis subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no state has been saved yet
var ErrNotFound = errors.New("state not found")

// StateStore reads and replaces a single serialized state blob
type StateStore interface {
	// Load returns the stored blob, or ErrNotFound when none exists
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the stored blob as a whole
	Save(ctx context.Context, data []byte) error
}

// Deleter is implemented by stores that can remove the blob entirely
type Deleter interface {
	Delete(ctx context.Context) error
}

// Memory is an in-process StateStore, used for tests and ephemeral sessions
type Memory struct {
	data []byte
	set  bool
}

// Ensure Memory implements StateStore
var _ StateStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the stored blob
func (m *Memory) Load(_ context.Context) ([]byte, error) {
	if !m.set {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

// Save replaces the stored blob
func (m *Memory) Save(_ context.Context, data []byte) error {
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}

// Delete forgets the stored blob
func (m *Memory) Delete(_ context.Context) error {
	m.data, m.set = nil, false
	return nil
}
