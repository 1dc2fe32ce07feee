// Package mastery is the application service over the progression engine.
//
// It owns the single read-modify-write gate: every mutation loads the whole
// state blob, runs a pure reducer from the progression package and writes the
// whole blob back while holding one mutex. Scoring needs no state and runs
// outside the gate.
package mastery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/crucible/internal/artifact"
	"github.com/felixgeelhaar/crucible/internal/domain"
	"github.com/felixgeelhaar/crucible/internal/evaluation"
	"github.com/felixgeelhaar/crucible/internal/events"
	"github.com/felixgeelhaar/crucible/internal/progression"
	"github.com/felixgeelhaar/crucible/internal/storage"
)

// Catalog is the curriculum the service runs against
type Catalog interface {
	progression.Catalog
	Domains() []string
}

// Options configures a Service. Store and Catalog are required.
type Options struct {
	Store     storage.StateStore
	Catalog   Catalog
	Scorer    evaluation.Scorer
	Publisher events.Publisher
	// Location decides calendar days for streaks; defaults to time.Local
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Service handles mastery business logic
type Service struct {
	store     storage.StateStore
	catalog   Catalog
	scorer    evaluation.Scorer
	publisher events.Publisher
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger

	mu sync.Mutex
}

// NewService creates a new mastery service
func NewService(opts Options) *Service {
	s := &Service{
		store:     opts.Store,
		catalog:   opts.Catalog,
		scorer:    opts.Scorer,
		publisher: opts.Publisher,
		loc:       opts.Location,
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if s.scorer == nil {
		s.scorer = evaluation.NewLexicalScorer(evaluation.DefaultThresholds())
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Catalog returns the curriculum the service runs against
func (s *Service) Catalog() Catalog {
	return s.catalog
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// EvaluateDrill scores a drill response without recording it
func (s *Service) EvaluateDrill(drill domain.Drill, response string) evaluation.DrillResult {
	return s.scorer.ScoreDrill(drill, response)
}

// EvaluateTopicChallenge scores a challenge response without recording it
func (s *Service) EvaluateTopicChallenge(topic domain.Topic, response string) evaluation.EvaluationResult {
	return s.scorer.ScoreChallenge(response, evaluation.SpecForTopic(topic))
}

// GetMasteryState returns the current state
func (s *Service) GetMasteryState(ctx context.Context) (domain.MasteryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// StartTopic marks a topic in progress and makes it current
func (s *Service) StartTopic(ctx context.Context, topicID string) (domain.MasteryState, error) {
	return s.update(ctx, func(state domain.MasteryState) (domain.MasteryState, error) {
		return progression.StartTopic(state, s.catalog, topicID)
	})
}

// SaveDrillAttempt records an already scored drill attempt
func (s *Service) SaveDrillAttempt(ctx context.Context, topicID string, attempt domain.DrillAttempt) (domain.MasteryState, error) {
	return s.update(ctx, func(state domain.MasteryState) (domain.MasteryState, error) {
		return progression.SaveDrillAttempt(state, s.catalog, topicID, attempt)
	})
}

// SaveChallengeAttempt records an already scored challenge attempt and its
// artifact, if any
func (s *Service) SaveChallengeAttempt(ctx context.Context, topicID string, attempt domain.ChallengeAttempt, a *domain.Artifact) (domain.MasteryState, error) {
	now := s.clock()
	return s.update(ctx, func(state domain.MasteryState) (domain.MasteryState, error) {
		return progression.SaveChallengeAttempt(state, s.catalog, topicID, attempt, a, now)
	})
}

// ComputeDomainMastery aggregates progress per domain
func (s *Service) ComputeDomainMastery(ctx context.Context) ([]progression.DomainMastery, error) {
	state, err := s.GetMasteryState(ctx)
	if err != nil {
		return nil, err
	}
	return progression.ComputeDomainMastery(state, s.catalog), nil
}

// ExportMasteryData returns the state as indented JSON
func (s *Service) ExportMasteryData(ctx context.Context) ([]byte, error) {
	state, err := s.GetMasteryState(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode mastery state: %w", err)
	}
	return data, nil
}

// ExportMarkdown renders the artifact portfolio
func (s *Service) ExportMarkdown(ctx context.Context) (string, error) {
	state, err := s.GetMasteryState(ctx)
	if err != nil {
		return "", err
	}
	return artifact.RenderMarkdown(state, s.catalog), nil
}

// DrillOutcome is the result of a recorded drill submission
type DrillOutcome struct {
	Result evaluation.DrillResult `json:"result"`
	State  domain.MasteryState    `json:"-"`
}

// SubmitDrill scores a drill response and records the attempt
func (s *Service) SubmitDrill(ctx context.Context, topicID, drillID, response string) (*DrillOutcome, error) {
	topic, ok := s.catalog.Topic(topicID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTopicNotFound, topicID)
	}
	drill, ok := topic.Drill(drillID)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrDrillNotFound, topicID, drillID)
	}

	result := s.EvaluateDrill(drill, response)
	attempt := result.Attempt(drillID, response, s.clock())

	state, err := s.SaveDrillAttempt(ctx, topicID, attempt)
	if err != nil {
		return nil, err
	}
	return &DrillOutcome{Result: result, State: state}, nil
}

// ChallengeOutcome is the result of a recorded challenge submission
type ChallengeOutcome struct {
	Result    evaluation.EvaluationResult `json:"result"`
	Artifact  *domain.Artifact            `json:"artifact,omitempty"`
	FirstPass bool                        `json:"first_pass"`
	NewBadges []domain.Badge              `json:"new_badges"`
	State     domain.MasteryState         `json:"-"`
}

// SubmitChallenge scores a challenge response, captures an artifact when it
// passes and records the attempt, all in one pass through the gate
func (s *Service) SubmitChallenge(ctx context.Context, topicID, response string) (*ChallengeOutcome, error) {
	topic, ok := s.catalog.Topic(topicID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTopicNotFound, topicID)
	}

	now := s.clock()
	result := s.EvaluateTopicChallenge(topic, response)
	attempt := result.Attempt(topic.Challenge.ID, response, now)
	captured := artifact.Capture(topic, attempt, now)

	var before domain.MasteryState
	state, err := s.update(ctx, func(state domain.MasteryState) (domain.MasteryState, error) {
		before = state
		return progression.SaveChallengeAttempt(state, s.catalog, topicID, attempt, captured, now)
	})
	if err != nil {
		return nil, err
	}

	return &ChallengeOutcome{
		Result:    result,
		Artifact:  captured,
		FirstPass: passedNow(before, state, topicID),
		NewBadges: newBadges(before, state),
		State:     state,
	}, nil
}

// Reset discards all progress
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.store.(storage.Deleter); ok {
		if err := d.Delete(ctx); err != nil {
			return fmt.Errorf("delete mastery state: %w", err)
		}
		s.logger.Info("mastery state reset")
		return nil
	}
	if err := s.save(ctx, progression.NewState(s.catalog)); err != nil {
		return err
	}
	s.logger.Info("mastery state reset")
	return nil
}

// update is the read-modify-write gate
func (s *Service) update(ctx context.Context, fn func(domain.MasteryState) (domain.MasteryState, error)) (domain.MasteryState, error) {
	s.mu.Lock()
	before, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return domain.MasteryState{}, err
	}
	after, err := fn(before)
	if err != nil {
		s.mu.Unlock()
		return domain.MasteryState{}, err
	}
	if err := s.save(ctx, after); err != nil {
		s.mu.Unlock()
		return domain.MasteryState{}, err
	}
	s.mu.Unlock()

	s.publish(ctx, before, after)
	return after, nil
}

// load reads and migrates the stored state. A missing or unreadable blob
// yields a fresh state; transport errors are returned.
func (s *Service) load(ctx context.Context) (domain.MasteryState, error) {
	data, err := s.store.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && len(data) == 0) {
		return progression.NewState(s.catalog), nil
	}
	if err != nil {
		return domain.MasteryState{}, fmt.Errorf("load mastery state: %w", err)
	}

	var state domain.MasteryState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("stored mastery state is corrupt, starting fresh", "error", err, "bytes", len(data))
		return progression.NewState(s.catalog), nil
	}
	if state.SchemaVersion < progression.CurrentSchemaVersion {
		s.logger.Info("migrating mastery state",
			"from", state.SchemaVersion,
			"to", progression.CurrentSchemaVersion)
	}
	return progression.Migrate(state, s.catalog), nil
}

func (s *Service) save(ctx context.Context, state domain.MasteryState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode mastery state: %w", err)
	}
	if err := s.store.Save(ctx, data); err != nil {
		return fmt.Errorf("save mastery state: %w", err)
	}
	return nil
}

// publish emits events for topics passed for the first time and badges
// earned by this update. Failures are logged and never fail the update.
func (s *Service) publish(ctx context.Context, before, after domain.MasteryState) {
	now := s.clock()
	var out []events.Event

	for _, t := range s.catalog.Topics() {
		if !passedNow(before, after, t.ID) {
			continue
		}
		e := events.NewEvent(events.TypeTopicPassed, now)
		e.TopicID = t.ID
		e.Score = after.TopicProgress[t.ID].BestScore
		out = append(out, e)
	}
	for _, b := range newBadges(before, after) {
		e := events.NewEvent(events.TypeBadgeEarned, now)
		e.BadgeID = b.ID
		out = append(out, e)
	}

	for _, e := range out {
		e.XP = after.XP
		e.TotalPassed = after.TotalPassed
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.logger.Warn("failed to publish progress event", "type", e.Type, "error", err)
		}
	}
}

func passedNow(before, after domain.MasteryState, topicID string) bool {
	return before.TopicProgress[topicID].Status != domain.StatusPassed &&
		after.TopicProgress[topicID].Status == domain.StatusPassed
}

func newBadges(before, after domain.MasteryState) []domain.Badge {
	badges := []domain.Badge{}
	for _, b := range after.Badges {
		if !before.HasBadge(b.ID) {
			badges = append(badges, b)
		}
	}
	return badges
}
