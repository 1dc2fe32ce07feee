package evaluation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

// Confidence describes how fully a response engaged with the stated shape of
// a task. It says nothing about semantic correctness.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

const emptyChallengeSuggestion = "Write a complete response that addresses the scenario and each required section."

// EvaluationResult is the outcome of scoring one challenge response
type EvaluationResult struct {
	Score                 int                     `json:"score"`
	Passed                bool                    `json:"passed"`
	Breakdown             []domain.CriterionScore `json:"breakdown"`
	Confidence            Confidence              `json:"confidence"`
	Weaknesses            []string                `json:"weaknesses"`
	SuggestedImprovements []string                `json:"suggested_improvements"`

	SectionRatio    float64  `json:"section_ratio"`
	ConstraintRatio float64  `json:"constraint_ratio"`
	JSONValid       bool     `json:"json_valid"`
	MissingSections []string `json:"missing_sections,omitempty"`
}

// Attempt converts the result into an immutable attempt record
func (r EvaluationResult) Attempt(challengeID, response string, at time.Time) domain.ChallengeAttempt {
	return domain.ChallengeAttempt{
		ChallengeID:           challengeID,
		Response:              response,
		Score:                 r.Score,
		Passed:                r.Passed,
		Breakdown:             append([]domain.CriterionScore(nil), r.Breakdown...),
		Weaknesses:            append([]string(nil), r.Weaknesses...),
		SuggestedImprovements: append([]string(nil), r.SuggestedImprovements...),
		Timestamp:             at,
	}
}

// RubricSpec is everything the challenge scorer needs besides the response
type RubricSpec struct {
	Challenge     domain.Challenge
	Rubric        domain.Rubric
	PassThreshold int
}

// SpecForTopic builds the rubric spec from a topic's own challenge, rubric and threshold
func SpecForTopic(topic domain.Topic) RubricSpec {
	return RubricSpec{
		Challenge:     topic.Challenge,
		Rubric:        topic.Rubric,
		PassThreshold: topic.PassThreshold,
	}
}

// ScoreChallenge scores a free-text response against a weighted rubric, the
// challenge's required sections and its constraints.
func (s *LexicalScorer) ScoreChallenge(response string, spec RubricSpec) EvaluationResult {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return s.emptyChallenge(spec)
	}

	var missingSections []string
	for _, sec := range spec.Challenge.RequiredSections {
		if !s.matcher.Matches(trimmed, sec) {
			missingSections = append(missingSections, sec)
		}
	}
	unmetConstraints := 0
	for _, c := range spec.Challenge.Constraints {
		if !s.matcher.CriterionMet(trimmed, c) {
			unmetConstraints++
		}
	}
	sectionRatio := coverage(len(spec.Challenge.RequiredSections), len(missingSections))
	constraintRatio := coverage(len(spec.Challenge.Constraints), unmetConstraints)

	jsonValid := true
	if spec.Challenge.HasTestCases() {
		jsonValid = jsonBlocksValid(trimmed)
	}

	length := responseLength(trimmed)
	lengthBonus := math.Min(s.t.ChallengeLengthCap, float64(length)/s.t.ChallengeLengthScale)
	structural := s.t.SectionWeight*sectionRatio + s.t.ConstraintWeight*constraintRatio + lengthBonus

	criterionScore := func(keywordRatio float64) int {
		score := toScore(structural + s.t.KeywordWeight*keywordRatio)
		if !jsonValid {
			score = clampScore(score - s.t.JSONPenalty)
		}
		return score
	}

	result := EvaluationResult{
		SectionRatio:    sectionRatio,
		ConstraintRatio: constraintRatio,
		JSONValid:       jsonValid,
		MissingSections: missingSections,
		Confidence:      s.confidence(sectionRatio, constraintRatio),
		Breakdown:       make([]domain.CriterionScore, 0, len(spec.Rubric.Criteria)),
		Weaknesses:      []string{},
	}

	for _, c := range spec.Rubric.Criteria {
		keywordRatio := s.matcher.MatchRatio(trimmed, c.Description)
		score := criterionScore(keywordRatio)
		result.Breakdown = append(result.Breakdown, domain.CriterionScore{
			CriterionID: c.ID,
			Dimension:   c.Dimension,
			Weight:      c.Weight,
			Score:       score,
			Feedback:    criterionFeedback(c, score, keywordRatio, missingSections),
		})
		if score < s.t.WeaknessThreshold {
			result.Weaknesses = append(result.Weaknesses, c.Dimension)
		}
	}

	if len(result.Breakdown) == 0 {
		// no rubric: the response is measured on structure alone
		result.Score = criterionScore(1)
	} else {
		result.Score = WeightedScore(result.Breakdown)
	}
	result.Passed = result.Score >= spec.PassThreshold
	result.SuggestedImprovements = s.suggestions(missingSections, result.Weaknesses, jsonValid, length)

	return result
}

// WeightedScore is the mean of criterion scores weighted by declared weight,
// normalized by the weight sum. Non-positive weights are ignored; if none are
// positive the plain mean is used.
func WeightedScore(breakdown []domain.CriterionScore) int {
	if len(breakdown) == 0 {
		return 0
	}
	var weighted, total, plain float64
	for _, cs := range breakdown {
		plain += float64(cs.Score)
		if cs.Weight > 0 {
			weighted += float64(cs.Score) * cs.Weight
			total += cs.Weight
		}
	}
	if total > 0 {
		return clampScore(int(math.Round(weighted / total)))
	}
	return clampScore(int(math.Round(plain / float64(len(breakdown)))))
}

func (s *LexicalScorer) emptyChallenge(spec RubricSpec) EvaluationResult {
	result := EvaluationResult{
		Score:                 0,
		Passed:                false,
		Confidence:            ConfidenceHigh,
		Breakdown:             make([]domain.CriterionScore, 0, len(spec.Rubric.Criteria)),
		Weaknesses:            make([]string, 0, len(spec.Rubric.Criteria)),
		SuggestedImprovements: []string{emptyChallengeSuggestion},
		JSONValid:             true,
		MissingSections:       append([]string(nil), spec.Challenge.RequiredSections...),
	}
	for _, c := range spec.Rubric.Criteria {
		result.Breakdown = append(result.Breakdown, domain.CriterionScore{
			CriterionID: c.ID,
			Dimension:   c.Dimension,
			Weight:      c.Weight,
			Score:       0,
			Feedback:    NoResponseFeedback,
		})
		result.Weaknesses = append(result.Weaknesses, c.Dimension)
	}
	return result
}

func (s *LexicalScorer) confidence(sectionRatio, constraintRatio float64) Confidence {
	switch {
	case sectionRatio < s.t.LowConfidenceRatio || constraintRatio < s.t.LowConfidenceRatio:
		return ConfidenceLow
	case sectionRatio < s.t.MediumConfidenceRatio || constraintRatio < s.t.MediumConfidenceRatio:
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

func (s *LexicalScorer) suggestions(missingSections, weaknesses []string, jsonValid bool, length int) []string {
	out := []string{}
	if len(missingSections) > 0 {
		out = append(out, "Add the missing sections: "+strings.Join(missingSections, ", ")+".")
	}
	for _, w := range weaknesses {
		out = append(out, "Strengthen your coverage of: "+w)
	}
	if !jsonValid {
		out = append(out, "Fix the JSON in your response so every block parses.")
	}
	if length < s.t.ShortResponseLength {
		out = append(out, fmt.Sprintf("Expand your response; it is under %d characters.", s.t.ShortResponseLength))
	}
	return out
}

func criterionFeedback(c domain.RubricCriterion, score int, keywordRatio float64, missingSections []string) string {
	var b strings.Builder
	switch {
	case score >= 80:
		fmt.Fprintf(&b, "Strong coverage of %s.", c.Dimension)
	case score >= 60:
		fmt.Fprintf(&b, "Adequate coverage of %s.", c.Dimension)
	case score >= 40:
		fmt.Fprintf(&b, "Weak coverage of %s.", c.Dimension)
	default:
		fmt.Fprintf(&b, "Insufficient coverage of %s.", c.Dimension)
	}
	if keywordRatio < 0.3 {
		fmt.Fprintf(&b, " Address this directly: %s.", strings.TrimSuffix(c.Description, "."))
	}
	if score < 70 && len(missingSections) > 0 {
		fmt.Fprintf(&b, " Missing sections: %s.", strings.Join(missingSections, ", "))
	}
	return b.String()
}
