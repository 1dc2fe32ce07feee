package domain

// Topic is an immutable curriculum unit: lessons, worked examples, drills and
// one certifying challenge scored against a weighted rubric.
type Topic struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Week          int             `json:"week,omitempty"`
	Phase         int             `json:"phase"`
	Domain        string          `json:"domain"`
	Lessons       []LessonBlock   `json:"lessons,omitempty"`
	Examples      []WorkedExample `json:"examples,omitempty"`
	Drills        []Drill         `json:"drills"`
	Challenge     Challenge       `json:"challenge"`
	Rubric        Rubric          `json:"rubric"`
	PassThreshold int             `json:"pass_threshold"` // 0-100
	XP            int             `json:"xp"`
	ReviewSummary string          `json:"review_summary,omitempty"`
}

// LessonBlock is one ordered block of lesson content
type LessonBlock struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// WorkedExample pairs a prompt with an annotated solution
type WorkedExample struct {
	Title    string `json:"title"`
	Prompt   string `json:"prompt"`
	Solution string `json:"solution"`
	Notes    string `json:"notes,omitempty"`
}

// Drill is a short free-text exercise. Elements and criteria are equally weighted.
type Drill struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"prompt"`
	Hint               string   `json:"hint,omitempty"`
	RequiredElements   []string `json:"required_elements"`
	EvaluationCriteria []string `json:"evaluation_criteria"`
}

// Challenge is the capstone exercise of a topic
type Challenge struct {
	ID               string     `json:"id"`
	Scenario         string     `json:"scenario"`
	Constraints      []string   `json:"constraints"`
	RequiredSections []string   `json:"required_sections"`
	Hints            []string   `json:"hints,omitempty"`
	TestCases        []TestCase `json:"test_cases,omitempty"` // presence switches on JSON validity checking
}

// TestCase is a machine-checkable expectation attached to a challenge
type TestCase struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// Rubric defines the weighted evaluation criteria for a challenge
type Rubric struct {
	Criteria []RubricCriterion `json:"criteria"`
}

// RubricCriterion is a single weighted evaluation dimension.
// Weights are normalized by their sum and need not total 1.
type RubricCriterion struct {
	ID          string  `json:"id"`
	Dimension   string  `json:"dimension"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
}

// TotalWeight returns the sum of positive criterion weights
func (r Rubric) TotalWeight() float64 {
	var total float64
	for _, c := range r.Criteria {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	return total
}

// Drill returns the drill with the given ID
func (t *Topic) Drill(id string) (Drill, bool) {
	for _, d := range t.Drills {
		if d.ID == id {
			return d, true
		}
	}
	return Drill{}, false
}

// HasTestCases reports whether the challenge expects a structured payload
func (c *Challenge) HasTestCases() bool {
	return len(c.TestCases) > 0
}
