// Package events publishes progression milestones (first passes and badges)
// to interested consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names a progression event. It doubles as the AMQP routing key.
type Type string

const (
	TypeTopicPassed Type = "topic.passed"
	TypeBadgeEarned Type = "badge.earned"
)

// Event is a single progression milestone
type Event struct {
	ID          uuid.UUID `json:"id"`
	Type        Type      `json:"type"`
	TopicID     string    `json:"topic_id,omitempty"`
	BadgeID     string    `json:"badge_id,omitempty"`
	Score       int       `json:"score,omitempty"`
	XP          int       `json:"xp"`
	TotalPassed int       `json:"total_passed"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh ID
func NewEvent(t Type, at time.Time) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: at}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
