// Package artifact captures passing challenge responses and renders them as
// a portfolio.
package artifact

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

// TopicLookup resolves topic metadata for rendering
type TopicLookup interface {
	Topic(id string) (domain.Topic, bool)
}

// Capture records a passing attempt as an artifact. It returns nil for
// attempts that did not pass.
func Capture(topic domain.Topic, attempt domain.ChallengeAttempt, now time.Time) *domain.Artifact {
	if !attempt.Passed {
		return nil
	}
	title := topic.Title
	if title == "" {
		title = topic.ID
	}
	return &domain.Artifact{
		ID:        uuid.New(),
		TopicID:   topic.ID,
		Domain:    topic.Domain,
		Type:      domain.ArtifactChallengeResponse,
		Title:     title,
		Content:   attempt.Response,
		Score:     attempt.Score,
		Timestamp: now,
	}
}

// RenderMarkdown renders every stored artifact, in recorded order, as a
// markdown portfolio. Artifacts whose topic left the curriculum keep their
// stored title.
func RenderMarkdown(state domain.MasteryState, topics TopicLookup) string {
	var b strings.Builder

	b.WriteString("# Portfolio\n\n")
	fmt.Fprintf(&b, "- Topics passed: %d\n", state.TotalPassed)
	fmt.Fprintf(&b, "- XP: %d\n", state.XP)
	fmt.Fprintf(&b, "- Current streak: %d\n", state.Streak)
	if len(state.Badges) > 0 {
		names := make([]string, len(state.Badges))
		for i, badge := range state.Badges {
			names[i] = badge.Title
			if names[i] == "" {
				names[i] = badge.ID
			}
		}
		fmt.Fprintf(&b, "- Badges: %s\n", strings.Join(names, ", "))
	}

	if len(state.Artifacts) == 0 {
		b.WriteString("\nNo artifacts yet. Pass a challenge to add one.\n")
		return b.String()
	}

	for _, a := range state.Artifacts {
		title := a.Title
		if t, ok := topics.Topic(a.TopicID); ok && t.Title != "" {
			title = t.Title
		}
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		if a.Domain != "" {
			fmt.Fprintf(&b, "- Domain: %s\n", a.Domain)
		}
		fmt.Fprintf(&b, "- Score: %d/100\n", a.Score)
		fmt.Fprintf(&b, "- Date: %s\n", a.Timestamp.Format(domain.DateLayout))
		fmt.Fprintf(&b, "- Words: %d\n\n", a.WordCount())
		b.WriteString(strings.TrimSpace(a.Content))
		b.WriteString("\n")
	}
	return b.String()
}
