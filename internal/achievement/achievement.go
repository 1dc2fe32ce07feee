// Package achievement derives XP, streaks and badges from a mastery state.
//
// Everything here is a pure function of its inputs. Badges are derived by
// evaluating an ordered list of predicates against the state and appending
// only the ones not yet recorded, so re-running Apply on an unchanged state
// never duplicates a badge.
package achievement

import (
	"math"
	"time"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

// Trigger describes the qualifying challenge pass that runs the engine
type Trigger struct {
	TopicID   string
	XP        int
	FirstPass bool      // XP is only granted the first time a topic passes
	Now       time.Time // calendar dates are taken in Now's location
}

// Apply returns a copy of state with XP, streak and badges updated for the pass
func Apply(state domain.MasteryState, topics []domain.Topic, tr Trigger) domain.MasteryState {
	out := state.Clone()

	if tr.FirstPass && tr.XP > 0 {
		out.XP += tr.XP
	}
	out.Streak, out.LastPassDate = NextStreak(out.Streak, out.LastPassDate, tr.Now)

	for _, def := range Evaluate(out, topics) {
		if out.HasBadge(def.ID) {
			continue
		}
		out.Badges = append(out.Badges, domain.Badge{
			ID:          def.ID,
			Title:       def.Title,
			Description: def.Description,
			EarnedAt:    tr.Now,
		})
	}
	return out
}

// NextStreak advances a streak for a pass at now. The same calendar day leaves
// it unchanged, the next day extends it and any larger gap restarts it at 1.
func NextStreak(streak int, lastPassDate string, now time.Time) (int, string) {
	today := now.Format(domain.DateLayout)
	if lastPassDate == "" {
		return 1, today
	}
	last, err := time.ParseInLocation(domain.DateLayout, lastPassDate, now.Location())
	if err != nil {
		return 1, today
	}

	days := DaysBetween(last, now)
	switch {
	case days == 0:
		if streak < 1 {
			streak = 1
		}
		return streak, lastPassDate
	case days == 1:
		return streak + 1, today
	case days < 0:
		// clock moved backwards; keep the recorded day
		return streak, lastPassDate
	default:
		return 1, today
	}
}

// DaysBetween returns the number of calendar days from a to b in b's location
func DaysBetween(a, b time.Time) int {
	loc := b.Location()
	a = a.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, loc)
	// rounding absorbs 23h and 25h days around DST changes
	return int(math.Round(db.Sub(da).Hours() / 24))
}
