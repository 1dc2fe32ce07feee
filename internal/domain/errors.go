package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by reducers,
// stores and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Curriculum errors
var (
	ErrTopicNotFound = errors.New("topic not found")
	ErrDrillNotFound = errors.New("drill not found")
)

// Progression errors
var (
	ErrTopicLocked = errors.New("topic is locked")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
