package evaluation

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher decides whether short descriptive phrases are "present" in a text.
//
// It is a best-effort lexical proxy and performs no semantic understanding:
// a phrase is split on whitespace, edge punctuation is trimmed, short tokens
// are dropped as stopwords, and each surviving token is looked up as a
// case-insensitive substring of the text. Matching is deliberately permissive
// and favors false positives over false negatives.
type Matcher struct {
	MinTokenLength    int
	CriterionMetRatio float64
}

// NewMatcher creates a matcher from the lexical fields of t
func NewMatcher(t Thresholds) Matcher {
	t = t.withDefaults()
	return Matcher{
		MinTokenLength:    t.MinTokenLength,
		CriterionMetRatio: t.CriterionMetRatio,
	}
}

var defaultMatcher = NewMatcher(DefaultThresholds())

// Tokens returns the lowercased tokens of phrase longer than MinTokenLength
func (m Matcher) Tokens(phrase string) []string {
	var tokens []string
	for _, field := range strings.Fields(phrase) {
		tok := strings.ToLower(strings.TrimFunc(field, isEdgePunct))
		if utf8.RuneCountInString(tok) > m.MinTokenLength {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Matches reports whether any surviving token of phrase occurs in text.
// A phrase with no surviving tokens always matches.
func (m Matcher) Matches(text, phrase string) bool {
	tokens := m.Tokens(phrase)
	if len(tokens) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// MatchRatio returns the fraction of phrase tokens found in text, in [0,1].
// A phrase with no surviving tokens has ratio 1.
func (m Matcher) MatchRatio(text, phrase string) float64 {
	ratio, _ := m.ratio(strings.ToLower(text), phrase)
	return ratio
}

// CriterionMet applies the shared "met" rule: at least CriterionMetRatio of
// the phrase tokens appear, and never fewer than one token.
func (m Matcher) CriterionMet(text, phrase string) bool {
	ratio, n := m.ratio(strings.ToLower(text), phrase)
	if n == 0 {
		return true
	}
	return ratio >= math.Max(1/float64(n), m.CriterionMetRatio)
}

func (m Matcher) ratio(lowerText, phrase string) (float64, int) {
	tokens := m.Tokens(phrase)
	if len(tokens) == 0 {
		return 1, 0
	}
	found := 0
	for _, tok := range tokens {
		if strings.Contains(lowerText, tok) {
			found++
		}
	}
	return clamp01(float64(found) / float64(len(tokens))), len(tokens)
}

// Matches reports whether phrase is lexically present in text using the default thresholds
func Matches(text, phrase string) bool {
	return defaultMatcher.Matches(text, phrase)
}

// MatchRatio returns the fraction of phrase tokens present in text using the default thresholds
func MatchRatio(text, phrase string) float64 {
	return defaultMatcher.MatchRatio(text, phrase)
}

func isEdgePunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// toScore converts a [0,1] composite into an integer score in [0,100]
func toScore(v float64) int {
	return clampScore(int(math.Round(100 * clamp01(v))))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func responseLength(trimmed string) int {
	return utf8.RuneCountInString(trimmed)
}
