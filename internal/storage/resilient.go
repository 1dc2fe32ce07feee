package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientStore wraps a remote StateStore with retry and a circuit breaker
type ResilientStore struct {
	store          StateStore
	circuitBreaker circuitbreaker.CircuitBreaker[[]byte]
	retrier        retry.Retry[[]byte]
	logger         *slog.Logger
	name           string
}

// Ensure ResilientStore implements StateStore
var _ StateStore = (*ResilientStore)(nil)

// ResilientConfig holds configuration for the resilient store wrapper
type ResilientConfig struct {
	// EnableCircuitBreaker enables the circuit breaker pattern
	EnableCircuitBreaker bool

	// EnableRetry enables retry with backoff
	EnableRetry bool

	// MaxAttempts per operation (default: 3)
	MaxAttempts int

	// InitialDelay before the first retry (default: 100ms)
	InitialDelay time.Duration

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns defaults suited to an interactive session
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		MaxAttempts:          3,
		InitialDelay:         100 * time.Millisecond,
	}
}

// NewResilientStore wraps a store with resilience patterns using fortify
func NewResilientStore(name string, store StateStore, cfg ResilientConfig) *ResilientStore {
	rs := &ResilientStore{
		store:  store,
		logger: cfg.Logger,
		name:   name,
	}
	if rs.logger == nil {
		rs.logger = slog.Default()
	}

	if cfg.EnableCircuitBreaker {
		rs.circuitBreaker = circuitbreaker.New[[]byte](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				rs.logger.Warn("state store circuit breaker state change",
					"store", name,
					"from", from.String(),
					"to", to.String())
			},
		})
	}

	if cfg.EnableRetry {
		attempts := cfg.MaxAttempts
		if attempts <= 0 {
			attempts = 3
		}
		delay := cfg.InitialDelay
		if delay <= 0 {
			delay = 100 * time.Millisecond
		}
		rs.retrier = retry.New[[]byte](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  delay,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		})
	}

	return rs
}

// Name returns the wrapped backend name
func (s *ResilientStore) Name() string {
	return s.name
}

// Load reads the blob through retry and the circuit breaker. Absence is not
// a failure and never trips the breaker.
func (s *ResilientStore) Load(ctx context.Context) ([]byte, error) {
	notFound := false
	data, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		data, err := s.store.Load(ctx)
		if errors.Is(err, ErrNotFound) {
			notFound = true
			return nil, nil
		}
		notFound = false
		return data, err
	})
	if err == nil && notFound {
		return nil, ErrNotFound
	}
	return data, err
}

// Save writes the blob through retry and the circuit breaker
func (s *ResilientStore) Save(ctx context.Context, data []byte) error {
	_, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, s.store.Save(ctx, data)
	})
	return err
}

// Delete removes the blob when the backend supports it
func (s *ResilientStore) Delete(ctx context.Context) error {
	d, ok := s.store.(Deleter)
	if !ok {
		return s.Save(ctx, nil)
	}
	_, err := s.execute(ctx, func(ctx context.Context) ([]byte, error) {
		return nil, d.Delete(ctx)
	})
	return err
}

// Close closes the wrapped store if it holds resources
func (s *ResilientStore) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (s *ResilientStore) execute(ctx context.Context, operation func(context.Context) ([]byte, error)) ([]byte, error) {
	if s.circuitBreaker != nil && s.retrier != nil {
		return s.circuitBreaker.Execute(ctx, func(ctx context.Context) ([]byte, error) {
			return s.retrier.Do(ctx, operation)
		})
	}
	if s.circuitBreaker != nil {
		return s.circuitBreaker.Execute(ctx, operation)
	}
	if s.retrier != nil {
		return s.retrier.Do(ctx, operation)
	}
	return operation(ctx)
}

// isRetryable treats everything except absence and cancellation as transient
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
