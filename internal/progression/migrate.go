package progression

import (
	"github.com/felixgeelhaar/crucible/internal/domain"
)

// CurrentSchemaVersion is the MasteryState layout this build writes.
//
//	0: unversioned blobs; xp, streak, last_pass_date and badges may be absent
//	1: collections always present
//	2: drills_attempted counts distinct drill IDs
const CurrentSchemaVersion = 2

// Migrate upgrades a loaded state to CurrentSchemaVersion and aligns it with
// the curriculum. Topics missing from the state are added as locked, then
// every topic whose predecessor has passed is unlocked. Migrate never moves a
// status backwards.
func Migrate(state domain.MasteryState, cat Catalog) domain.MasteryState {
	out := state.Clone()

	if out.SchemaVersion < 1 {
		if out.Artifacts == nil {
			out.Artifacts = []domain.Artifact{}
		}
		if out.Badges == nil {
			out.Badges = []domain.Badge{}
		}
		for id, p := range out.TopicProgress {
			if p.TopicID == "" {
				p.TopicID = id
			}
			if p.DrillAttempts == nil {
				p.DrillAttempts = []domain.DrillAttempt{}
			}
			if p.ChallengeAttempts == nil {
				p.ChallengeAttempts = []domain.ChallengeAttempt{}
			}
			out.TopicProgress[id] = p
		}
	}
	if out.SchemaVersion < 2 {
		for id, p := range out.TopicProgress {
			p.DrillsAttempted = distinctDrills(p.DrillAttempts)
			out.TopicProgress[id] = p
		}
	}
	out.SchemaVersion = CurrentSchemaVersion

	for id, p := range out.TopicProgress {
		if !p.Status.IsValid() {
			p.Status = domain.StatusLocked
			out.TopicProgress[id] = p
		}
	}

	topics := cat.Topics()
	for _, t := range topics {
		if _, ok := out.TopicProgress[t.ID]; !ok {
			out.TopicProgress[t.ID] = newProgress(t.ID, domain.StatusLocked)
		}
	}
	reconcileUnlocks(&out, topics)

	if _, ok := cat.Topic(out.CurrentTopicID); !ok {
		out.CurrentTopicID = firstOpenTopic(out, topics)
	}
	return out
}

func reconcileUnlocks(s *domain.MasteryState, topics []domain.Topic) {
	for i, t := range topics {
		p := s.TopicProgress[t.ID]
		if p.Status != domain.StatusLocked {
			continue
		}
		if i == 0 || s.TopicProgress[topics[i-1].ID].Status == domain.StatusPassed {
			p.Status = domain.StatusAvailable
			s.TopicProgress[t.ID] = p
		}
	}
}

// firstOpenTopic returns the first unlocked topic not yet passed, falling back
// to the first topic
func firstOpenTopic(s domain.MasteryState, topics []domain.Topic) string {
	for _, t := range topics {
		st := s.TopicProgress[t.ID].Status
		if st.IsUnlocked() && st != domain.StatusPassed {
			return t.ID
		}
	}
	if len(topics) > 0 {
		return topics[0].ID
	}
	return ""
}
