package evaluation

import (
	"math"
	"strings"
	"time"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

// NoResponseFeedback is the fixed feedback for empty submissions
const NoResponseFeedback = "No response provided."

const drillAffirmation = "All required elements and evaluation criteria are addressed."

// DrillResult is the outcome of scoring one drill response
type DrillResult struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`

	MissingElements []string `json:"missing_elements,omitempty"`
	UnmetCriteria   []string `json:"unmet_criteria,omitempty"`
}

// Attempt converts the result into an immutable attempt record
func (r DrillResult) Attempt(drillID, response string, at time.Time) domain.DrillAttempt {
	return domain.DrillAttempt{
		DrillID:   drillID,
		Response:  response,
		Score:     r.Score,
		Feedback:  r.Feedback,
		Timestamp: at,
	}
}

// ScoreDrill scores a free-text response against a drill's required elements
// and evaluation criteria. Empty responses score zero without further work.
func (s *LexicalScorer) ScoreDrill(drill domain.Drill, response string) DrillResult {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return DrillResult{Score: 0, Feedback: NoResponseFeedback}
	}

	var missing []string
	for _, el := range drill.RequiredElements {
		if !s.matcher.Matches(trimmed, el) {
			missing = append(missing, el)
		}
	}
	var unmet []string
	for _, c := range drill.EvaluationCriteria {
		if !s.matcher.CriterionMet(trimmed, c) {
			unmet = append(unmet, c)
		}
	}

	elementRatio := coverage(len(drill.RequiredElements), len(missing))
	criteriaRatio := coverage(len(drill.EvaluationCriteria), len(unmet))
	lengthBonus := math.Min(s.t.DrillLengthCap, float64(responseLength(trimmed))/s.t.DrillLengthScale)

	composite := elementRatio*s.t.DrillElementWeight + criteriaRatio*s.t.DrillCriteriaWeight + lengthBonus

	return DrillResult{
		Score:           toScore(composite),
		Feedback:        drillFeedback(missing, unmet),
		MissingElements: missing,
		UnmetCriteria:   unmet,
	}
}

// coverage returns the matched fraction of total, 1 for an empty list
func coverage(total, misses int) float64 {
	if total == 0 {
		return 1
	}
	return clamp01(float64(total-misses) / float64(total))
}

func drillFeedback(missing, unmet []string) string {
	if len(missing) == 0 && len(unmet) == 0 {
		return drillAffirmation
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Missing required elements: "+strings.Join(missing, "; ")+".")
	}
	if len(unmet) > 0 {
		parts = append(parts, "Criteria not yet met: "+strings.Join(unmet, "; ")+".")
	}
	return strings.Join(parts, " ")
}
