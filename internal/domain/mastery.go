package domain

import "time"

// TopicStatus is a topic's position in the progression lifecycle
type TopicStatus string

const (
	StatusLocked     TopicStatus = "locked"
	StatusAvailable  TopicStatus = "available"
	StatusInProgress TopicStatus = "in_progress"
	StatusPassed     TopicStatus = "passed"
)

// IsValid reports whether s is a known status
func (s TopicStatus) IsValid() bool {
	switch s {
	case StatusLocked, StatusAvailable, StatusInProgress, StatusPassed:
		return true
	}
	return false
}

// IsUnlocked reports whether the topic can be worked on
func (s TopicStatus) IsUnlocked() bool {
	return s == StatusAvailable || s == StatusInProgress || s == StatusPassed
}

// DrillAttempt is an immutable record of one drill submission
type DrillAttempt struct {
	DrillID   string    `json:"drill_id"`
	Response  string    `json:"response"`
	Score     int       `json:"score"`
	Feedback  string    `json:"feedback"`
	Timestamp time.Time `json:"timestamp"`
}

// CriterionScore is the per-criterion breakdown of a challenge evaluation
type CriterionScore struct {
	CriterionID string  `json:"criterion_id"`
	Dimension   string  `json:"dimension"`
	Weight      float64 `json:"weight"`
	Score       int     `json:"score"`
	Feedback    string  `json:"feedback"`
}

// ChallengeAttempt is an immutable record of one challenge submission
type ChallengeAttempt struct {
	ChallengeID           string           `json:"challenge_id"`
	Response              string           `json:"response"`
	Score                 int              `json:"score"`
	Passed                bool             `json:"passed"`
	Breakdown             []CriterionScore `json:"breakdown"`
	Weaknesses            []string         `json:"weaknesses"`
	SuggestedImprovements []string         `json:"suggested_improvements"`
	Timestamp             time.Time        `json:"timestamp"`
}

// TopicProgress is the learner's record for one topic. It is owned by the
// progression reducers; attempts are append-only.
type TopicProgress struct {
	TopicID           string             `json:"topic_id"`
	Status            TopicStatus        `json:"status"`
	DrillAttempts     []DrillAttempt     `json:"drill_attempts"`
	DrillsAttempted   int                `json:"drills_attempted"`
	ChallengeAttempts []ChallengeAttempt `json:"challenge_attempts"`
	BestScore         int                `json:"best_score"`
	Artifact          *Artifact          `json:"artifact,omitempty"`
}

// Badge is an achievement, recorded at most once per ID
type Badge struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}

// MasteryState is the complete persisted progression record for one learner
type MasteryState struct {
	SchemaVersion  int                      `json:"schema_version"`
	TopicProgress  map[string]TopicProgress `json:"topic_progress"`
	Artifacts      []Artifact               `json:"artifacts"`
	CurrentTopicID string                   `json:"current_topic_id"`
	TotalPassed    int                      `json:"total_passed"`
	XP             int                      `json:"xp"`
	Streak         int                      `json:"streak"`
	LastPassDate   string                   `json:"last_pass_date,omitempty"` // YYYY-MM-DD
	Badges         []Badge                  `json:"badges"`
}

// DateLayout is the calendar-date format used for LastPassDate
const DateLayout = "2006-01-02"

// HasBadge reports whether a badge with the given ID was already earned
func (m *MasteryState) HasBadge(id string) bool {
	for _, b := range m.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so reducers never share slices or maps with their input
func (m MasteryState) Clone() MasteryState {
	out := m
	if m.TopicProgress != nil {
		out.TopicProgress = make(map[string]TopicProgress, len(m.TopicProgress))
		for id, p := range m.TopicProgress {
			out.TopicProgress[id] = p.Clone()
		}
	} else {
		out.TopicProgress = map[string]TopicProgress{}
	}
	out.Artifacts = cloneSlice(m.Artifacts)
	out.Badges = cloneSlice(m.Badges)
	return out
}

// Clone returns a deep copy of the topic progress
func (p TopicProgress) Clone() TopicProgress {
	out := p
	out.DrillAttempts = cloneSlice(p.DrillAttempts)
	if p.ChallengeAttempts != nil {
		out.ChallengeAttempts = make([]ChallengeAttempt, len(p.ChallengeAttempts))
		for i, a := range p.ChallengeAttempts {
			out.ChallengeAttempts[i] = a.Clone()
		}
	}
	if p.Artifact != nil {
		a := *p.Artifact
		out.Artifact = &a
	}
	return out
}

// Clone returns a deep copy of the attempt
func (a ChallengeAttempt) Clone() ChallengeAttempt {
	out := a
	out.Breakdown = cloneSlice(a.Breakdown)
	out.Weaknesses = cloneSlice(a.Weaknesses)
	out.SuggestedImprovements = cloneSlice(a.SuggestedImprovements)
	return out
}

// cloneSlice copies s, keeping nil and empty distinct
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
