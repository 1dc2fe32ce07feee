package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher_Tokens(t *testing.T) {
	m := NewMatcher(DefaultThresholds())

	tests := []struct {
		phrase string
		want   []string
	}{
		{"specific business context", []string{"specific", "business", "context"}},
		{"Use the API, not a CLI.", nil},
		{"(Output) format!", []string{"output", "format"}},
		{"a an the of", nil},
		{"", nil},
		{"Überprüfung der Daten", []string{"überprüfung", "daten"}},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got := m.Tokens(tt.phrase)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		phrase string
		want   bool
	}{
		{"any token suffices", "Use a structured JSON schema with context fields.", "specific business context", true},
		{"case insensitive", "OUTPUT FORMAT: json", "output format", true},
		{"substring match", "contextual hints", "context", true},
		{"no token present", "hello world", "output format", false},
		{"empty phrase always matches", "anything", "", true},
		{"short tokens only always matches", "anything", "a to of", true},
		{"empty text", "", "output format", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.text, tt.phrase))
		})
	}
}

func TestMatchRatio(t *testing.T) {
	assert.InDelta(t, 1.0/3, MatchRatio("the context matters", "specific business context"), 1e-9)
	assert.InDelta(t, 1.0, MatchRatio("anything", "a b c"), 1e-9)
	assert.InDelta(t, 0.0, MatchRatio("", "business context"), 1e-9)
	assert.InDelta(t, 1.0, MatchRatio("Business CONTEXT", "business context"), 1e-9)
}

func TestMatcher_CriterionMet(t *testing.T) {
	m := NewMatcher(DefaultThresholds())

	// one of two tokens is 50%, above the 30% floor
	assert.True(t, m.CriterionMet("mentions latency only", "latency budget"))
	// one of four tokens is 25%, below the floor
	assert.False(t, m.CriterionMet("mentions latency only", "latency budget tradeoffs explained"))
	// two of four clears it
	assert.True(t, m.CriterionMet("latency and budget", "latency budget tradeoffs explained"))
	// single-token criterion needs that token
	assert.False(t, m.CriterionMet("nothing here", "throughput"))
	assert.True(t, m.CriterionMet("", "a b"))
}

func TestMatcher_ConfigurableTokenLength(t *testing.T) {
	th := DefaultThresholds()
	th.MinTokenLength = 1
	m := NewMatcher(th)

	assert.Equal(t, []string{"use", "an", "api"}, m.Tokens("use an api"))
	assert.False(t, m.Matches("nothing", "the api"))
}
