// Package evaluation scores free-text drill and challenge responses.
//
// The default LexicalScorer is a deterministic keyword heuristic: it checks
// whether descriptive phrases are lexically present in a response and combines
// those ratios with fixed weights. It does not understand the text. Identical
// inputs always produce identical results.
package evaluation

import "github.com/felixgeelhaar/crucible/internal/domain"

// Scorer evaluates responses. Implementations must be deterministic for
// fixed inputs so recorded attempts stay reproducible.
type Scorer interface {
	ScoreDrill(drill domain.Drill, response string) DrillResult
	ScoreChallenge(response string, spec RubricSpec) EvaluationResult
}

// LexicalScorer is the default Scorer
type LexicalScorer struct {
	t       Thresholds
	matcher Matcher
}

// Ensure LexicalScorer implements Scorer
var _ Scorer = (*LexicalScorer)(nil)

// NewLexicalScorer creates a scorer; zero-valued thresholds take their defaults
func NewLexicalScorer(t Thresholds) *LexicalScorer {
	t = t.withDefaults()
	return &LexicalScorer{t: t, matcher: NewMatcher(t)}
}

// Thresholds returns the effective scoring constants
func (s *LexicalScorer) Thresholds() Thresholds {
	return s.t
}

var defaultScorer = NewLexicalScorer(DefaultThresholds())

// EvaluateDrill scores a drill response with the default scorer
func EvaluateDrill(drill domain.Drill, response string) DrillResult {
	return defaultScorer.ScoreDrill(drill, response)
}

// EvaluateTopicChallenge scores a challenge response against the topic's own
// rubric and pass threshold with the default scorer
func EvaluateTopicChallenge(topic domain.Topic, response string) EvaluationResult {
	return defaultScorer.ScoreChallenge(response, SpecForTopic(topic))
}
