package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactType classifies a stored artifact
type ArtifactType string

const (
	ArtifactChallengeResponse ArtifactType = "challenge_response"
)

// Artifact is a durable record of a passing challenge response, kept for
// portfolio export. The engine never mutates or deletes artifacts.
type Artifact struct {
	ID        uuid.UUID    `json:"id"`
	TopicID   string       `json:"topic_id"`
	Domain    string       `json:"domain"`
	Type      ArtifactType `json:"type"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Score     int          `json:"score"`
	Timestamp time.Time    `json:"timestamp"`
}

// WordCount returns the number of whitespace-separated words in the content
func (a *Artifact) WordCount() int {
	count := 0
	inWord := false
	for _, r := range a.Content {
		switch r {
		case ' ', '\n', '\t', '\r':
			inWord = false
		default:
			if !inWord {
				count++
				inWord = true
			}
		}
	}
	return count
}
