package achievement

import (
	"fmt"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

// Badge IDs
const (
	BadgeFirstCertification  = "first-certification"
	BadgeHalfway             = "halfway"
	BadgeCurriculumComplete  = "curriculum-complete"
	badgePhaseCompleteFormat = "phase-%d-complete"
)

// Definition is a named badge predicate
type Definition struct {
	ID          string
	Title       string
	Description string
	Earned      func(state *domain.MasteryState, topics []domain.Topic) bool
}

// Definitions returns the ordered badge predicates for a curriculum. Phase
// badges are generated per phase in curriculum order.
func Definitions(topics []domain.Topic) []Definition {
	defs := []Definition{{
		ID:          BadgeFirstCertification,
		Title:       "First Certification",
		Description: "Passed your first challenge",
		Earned: func(s *domain.MasteryState, _ []domain.Topic) bool {
			return s.TotalPassed >= 1
		},
	}}

	for _, phase := range phases(topics) {
		defs = append(defs, Definition{
			ID:          PhaseBadgeID(phase),
			Title:       fmt.Sprintf("Phase %d Complete", phase),
			Description: fmt.Sprintf("Passed every topic in phase %d", phase),
			Earned: func(s *domain.MasteryState, topics []domain.Topic) bool {
				return phaseComplete(s, topics, phase)
			},
		})
	}

	defs = append(defs, Definition{
		ID:          BadgeHalfway,
		Title:       "Halfway There",
		Description: "Passed half of the curriculum",
		Earned: func(s *domain.MasteryState, topics []domain.Topic) bool {
			return len(topics) > 0 && 2*passedCount(s, topics) >= len(topics)
		},
	})

	for _, n := range []int{5, 10, 25} {
		defs = append(defs, Definition{
			ID:          fmt.Sprintf("certifications-%d", n),
			Title:       fmt.Sprintf("%d Certifications", n),
			Description: fmt.Sprintf("Passed %d challenges", n),
			Earned: func(s *domain.MasteryState, _ []domain.Topic) bool {
				return s.TotalPassed >= n
			},
		})
	}

	for _, n := range []int{3, 7, 30} {
		defs = append(defs, Definition{
			ID:          fmt.Sprintf("streak-%d", n),
			Title:       fmt.Sprintf("%d-Day Streak", n),
			Description: fmt.Sprintf("Passed challenges on %d consecutive days", n),
			Earned: func(s *domain.MasteryState, _ []domain.Topic) bool {
				return s.Streak >= n
			},
		})
	}

	return append(defs, Definition{
		ID:          BadgeCurriculumComplete,
		Title:       "Curriculum Complete",
		Description: "Passed every topic",
		Earned: func(s *domain.MasteryState, topics []domain.Topic) bool {
			return len(topics) > 0 && passedCount(s, topics) == len(topics)
		},
	})
}

// Evaluate returns the definitions whose predicate holds for state, in order.
// Already-earned badges are included; Apply filters them.
func Evaluate(state domain.MasteryState, topics []domain.Topic) []Definition {
	var earned []Definition
	for _, def := range Definitions(topics) {
		if def.Earned(&state, topics) {
			earned = append(earned, def)
		}
	}
	return earned
}

// PhaseBadgeID returns the badge ID awarded for completing a phase
func PhaseBadgeID(phase int) string {
	return fmt.Sprintf(badgePhaseCompleteFormat, phase)
}

func phases(topics []domain.Topic) []int {
	seen := make(map[int]bool)
	var out []int
	for _, t := range topics {
		if !seen[t.Phase] {
			seen[t.Phase] = true
			out = append(out, t.Phase)
		}
	}
	return out
}

func phaseComplete(s *domain.MasteryState, topics []domain.Topic, phase int) bool {
	found := false
	for _, t := range topics {
		if t.Phase != phase {
			continue
		}
		found = true
		if s.TopicProgress[t.ID].Status != domain.StatusPassed {
			return false
		}
	}
	return found
}

func passedCount(s *domain.MasteryState, topics []domain.Topic) int {
	n := 0
	for _, t := range topics {
		if s.TopicProgress[t.ID].Status == domain.StatusPassed {
			n++
		}
	}
	return n
}
