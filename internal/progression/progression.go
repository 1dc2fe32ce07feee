// Package progression owns the per-topic status lifecycle.
//
// Every operation is a pure reducer: it takes a MasteryState and returns a new
// one, leaving its input untouched. Persistence is the caller's concern.
//
// Topic statuses move locked → available → in_progress → passed. Passed is
// terminal: later attempts are still recorded and may raise the best score,
// but the status never regresses.
package progression

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/crucible/internal/achievement"
	"github.com/felixgeelhaar/crucible/internal/domain"
)

// Catalog is the read-only curriculum collaborator
type Catalog interface {
	// Topics returns all topics in curriculum order
	Topics() []domain.Topic
	Topic(id string) (domain.Topic, bool)
	// Next returns the topic after id in curriculum order
	Next(id string) (domain.Topic, bool)
}

// NewState returns a fresh state: the first topic available, the rest locked
func NewState(cat Catalog) domain.MasteryState {
	topics := cat.Topics()
	s := domain.MasteryState{
		SchemaVersion: CurrentSchemaVersion,
		TopicProgress: make(map[string]domain.TopicProgress, len(topics)),
		Artifacts:     []domain.Artifact{},
		Badges:        []domain.Badge{},
	}
	for i, t := range topics {
		status := domain.StatusLocked
		if i == 0 {
			status = domain.StatusAvailable
			s.CurrentTopicID = t.ID
		}
		s.TopicProgress[t.ID] = newProgress(t.ID, status)
	}
	return s
}

func newProgress(topicID string, status domain.TopicStatus) domain.TopicProgress {
	return domain.TopicProgress{
		TopicID:           topicID,
		Status:            status,
		DrillAttempts:     []domain.DrillAttempt{},
		ChallengeAttempts: []domain.ChallengeAttempt{},
	}
}

// StartTopic moves an available topic to in_progress and makes it current.
// Topics already in progress or passed keep their status.
func StartTopic(state domain.MasteryState, cat Catalog, topicID string) (domain.MasteryState, error) {
	if err := checkUnlocked(state, cat, topicID); err != nil {
		return state, err
	}

	next := state.Clone()
	if p := next.TopicProgress[topicID]; p.Status == domain.StatusAvailable {
		p.Status = domain.StatusInProgress
		next.TopicProgress[topicID] = p
	}
	next.CurrentTopicID = topicID
	return next, nil
}

// SaveDrillAttempt appends a drill attempt and recounts the distinct drills attempted
func SaveDrillAttempt(state domain.MasteryState, cat Catalog, topicID string, attempt domain.DrillAttempt) (domain.MasteryState, error) {
	if err := checkUnlocked(state, cat, topicID); err != nil {
		return state, err
	}

	next := state.Clone()
	p := next.TopicProgress[topicID]
	p.DrillAttempts = append(p.DrillAttempts, attempt)
	p.DrillsAttempted = distinctDrills(p.DrillAttempts)
	next.TopicProgress[topicID] = p
	return next, nil
}

// SaveChallengeAttempt appends a challenge attempt and applies its consequences.
//
// The best score only ever rises. A passing attempt marks the topic passed and
// stores the artifact, if one is given. The first pass of a topic increments
// TotalPassed, unlocks the next topic and makes it current. Every pass then
// runs the achievement engine with now as the pass time.
func SaveChallengeAttempt(state domain.MasteryState, cat Catalog, topicID string, attempt domain.ChallengeAttempt, artifact *domain.Artifact, now time.Time) (domain.MasteryState, error) {
	if err := checkUnlocked(state, cat, topicID); err != nil {
		return state, err
	}
	topic, _ := cat.Topic(topicID)

	next := state.Clone()
	p := next.TopicProgress[topicID]
	p.ChallengeAttempts = append(p.ChallengeAttempts, attempt.Clone())
	if attempt.Score > p.BestScore {
		p.BestScore = attempt.Score
	}

	if !attempt.Passed {
		next.TopicProgress[topicID] = p
		return next, nil
	}

	firstPass := p.Status != domain.StatusPassed
	p.Status = domain.StatusPassed
	if artifact != nil {
		a := *artifact
		p.Artifact = &a
		next.Artifacts = append(next.Artifacts, a)
	}
	next.TopicProgress[topicID] = p

	if firstPass {
		next.TotalPassed++
		if nt, ok := cat.Next(topicID); ok {
			np, exists := next.TopicProgress[nt.ID]
			if !exists {
				np = newProgress(nt.ID, domain.StatusLocked)
			}
			if np.Status == domain.StatusLocked {
				np.Status = domain.StatusAvailable
			}
			next.TopicProgress[nt.ID] = np
			next.CurrentTopicID = nt.ID
		}
	}

	return achievement.Apply(next, cat.Topics(), achievement.Trigger{
		TopicID:   topicID,
		XP:        topic.XP,
		FirstPass: firstPass,
		Now:       now,
	}), nil
}

// checkUnlocked verifies the topic exists and can be worked on
func checkUnlocked(state domain.MasteryState, cat Catalog, topicID string) error {
	if _, ok := cat.Topic(topicID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrTopicNotFound, topicID)
	}
	if p, ok := state.TopicProgress[topicID]; !ok || !p.Status.IsUnlocked() {
		return fmt.Errorf("%w: %s", domain.ErrTopicLocked, topicID)
	}
	return nil
}

func distinctDrills(attempts []domain.DrillAttempt) int {
	seen := make(map[string]struct{}, len(attempts))
	for _, a := range attempts {
		seen[a.DrillID] = struct{}{}
	}
	return len(seen)
}
