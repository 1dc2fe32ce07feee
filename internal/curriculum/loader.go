package curriculum

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

//go:embed default
var defaultFS embed.FS

// ManifestFile is the YAML structure of curriculum.yaml
type ManifestFile struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Topics      []string `yaml:"topics"`
}

// TopicFile is the YAML structure of a topic file
type TopicFile struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Week    int    `yaml:"week"`
	Phase   int    `yaml:"phase"`
	Domain  string `yaml:"domain"`
	XP      int    `yaml:"xp"`
	Lessons []struct {
		Heading string `yaml:"heading"`
		Body    string `yaml:"body"`
	} `yaml:"lessons"`
	Examples []struct {
		Title    string `yaml:"title"`
		Prompt   string `yaml:"prompt"`
		Solution string `yaml:"solution"`
		Notes    string `yaml:"notes"`
	} `yaml:"examples"`
	Drills []struct {
		ID                 string   `yaml:"id"`
		Prompt             string   `yaml:"prompt"`
		Hint               string   `yaml:"hint"`
		RequiredElements   []string `yaml:"required_elements"`
		EvaluationCriteria []string `yaml:"evaluation_criteria"`
	} `yaml:"drills"`
	Challenge struct {
		ID               string   `yaml:"id"`
		Scenario         string   `yaml:"scenario"`
		Constraints      []string `yaml:"constraints"`
		RequiredSections []string `yaml:"required_sections"`
		Hints            []string `yaml:"hints"`
		TestCases        []struct {
			Input    string `yaml:"input"`
			Expected string `yaml:"expected"`
		} `yaml:"test_cases"`
	} `yaml:"challenge"`
	Rubric []struct {
		ID          string  `yaml:"id"`
		Dimension   string  `yaml:"dimension"`
		Description string  `yaml:"description"`
		Weight      float64 `yaml:"weight"`
	} `yaml:"rubric"`
	PassThreshold int    `yaml:"pass_threshold"`
	ReviewSummary string `yaml:"review_summary"`
}

// Curriculum is a loaded manifest with its topics in order
type Curriculum struct {
	ID          string
	Name        string
	Version     string
	Description string
	Topics      []domain.Topic
}

// Loader reads a curriculum from a directory holding curriculum.yaml and a
// topics/ folder with one YAML file per topic
type Loader struct {
	fsys fs.FS
	name string
}

// NewLoader creates a loader over a directory on disk
func NewLoader(basePath string) *Loader {
	return &Loader{fsys: os.DirFS(basePath), name: basePath}
}

// NewFSLoader creates a loader over an arbitrary filesystem
func NewFSLoader(fsys fs.FS, name string) *Loader {
	return &Loader{fsys: fsys, name: name}
}

// DefaultLoader returns a loader for the curriculum built into the binary
func DefaultLoader() *Loader {
	sub, err := fs.Sub(defaultFS, "default")
	if err != nil {
		panic(fmt.Sprintf("embedded curriculum: %v", err))
	}
	return &Loader{fsys: sub, name: "builtin"}
}

// Source describes where the loader reads from
func (l *Loader) Source() string {
	return l.name
}

// LoadManifest reads curriculum.yaml
func (l *Loader) LoadManifest() (*ManifestFile, error) {
	data, err := fs.ReadFile(l.fsys, "curriculum.yaml")
	if err != nil {
		return nil, fmt.Errorf("read curriculum manifest: %w", err)
	}

	var m ManifestFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse curriculum manifest: %w", err)
	}
	if len(m.Topics) == 0 {
		return nil, fmt.Errorf("%w: curriculum %q lists no topics", domain.ErrInvalidInput, m.ID)
	}
	return &m, nil
}

// LoadTopic reads and validates topics/<slug>.yaml
func (l *Loader) LoadTopic(slug string) (domain.Topic, error) {
	data, err := fs.ReadFile(l.fsys, path.Join("topics", slug+".yaml"))
	if err != nil {
		return domain.Topic{}, fmt.Errorf("read topic file: %w", err)
	}

	if err := validateTopicDocument(data); err != nil {
		return domain.Topic{}, fmt.Errorf("topic %s: %w", slug, err)
	}

	var tf TopicFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return domain.Topic{}, fmt.Errorf("parse topic file: %w", err)
	}

	topic := tf.toDomain()
	if err := checkTopic(topic); err != nil {
		return domain.Topic{}, fmt.Errorf("topic %s: %w", slug, err)
	}
	return topic, nil
}

// Load reads the manifest and every topic it lists, in manifest order
func (l *Loader) Load() (*Curriculum, error) {
	m, err := l.LoadManifest()
	if err != nil {
		return nil, err
	}

	c := &Curriculum{
		ID:          m.ID,
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Topics:      make([]domain.Topic, 0, len(m.Topics)),
	}
	seen := make(map[string]bool, len(m.Topics))
	for _, slug := range m.Topics {
		topic, err := l.LoadTopic(slug)
		if err != nil {
			return nil, fmt.Errorf("load topic %s: %w", slug, err)
		}
		if seen[topic.ID] {
			return nil, fmt.Errorf("%w: duplicate topic id %q", domain.ErrInvalidInput, topic.ID)
		}
		seen[topic.ID] = true
		c.Topics = append(c.Topics, topic)
	}
	return c, nil
}

func (tf *TopicFile) toDomain() domain.Topic {
	t := domain.Topic{
		ID:            tf.ID,
		Title:         tf.Title,
		Week:          tf.Week,
		Phase:         tf.Phase,
		Domain:        tf.Domain,
		XP:            tf.XP,
		PassThreshold: tf.PassThreshold,
		ReviewSummary: tf.ReviewSummary,
		Lessons:       make([]domain.LessonBlock, len(tf.Lessons)),
		Examples:      make([]domain.WorkedExample, len(tf.Examples)),
		Drills:        make([]domain.Drill, len(tf.Drills)),
		Challenge: domain.Challenge{
			ID:               tf.Challenge.ID,
			Scenario:         tf.Challenge.Scenario,
			Constraints:      tf.Challenge.Constraints,
			RequiredSections: tf.Challenge.RequiredSections,
			Hints:            tf.Challenge.Hints,
		},
	}

	for i, b := range tf.Lessons {
		t.Lessons[i] = domain.LessonBlock{Heading: b.Heading, Body: b.Body}
	}
	for i, e := range tf.Examples {
		t.Examples[i] = domain.WorkedExample{Title: e.Title, Prompt: e.Prompt, Solution: e.Solution, Notes: e.Notes}
	}
	for i, d := range tf.Drills {
		t.Drills[i] = domain.Drill{
			ID:                 d.ID,
			Prompt:             d.Prompt,
			Hint:               d.Hint,
			RequiredElements:   d.RequiredElements,
			EvaluationCriteria: d.EvaluationCriteria,
		}
	}
	for _, tc := range tf.Challenge.TestCases {
		t.Challenge.TestCases = append(t.Challenge.TestCases, domain.TestCase{Input: tc.Input, Expected: tc.Expected})
	}

	t.Rubric.Criteria = make([]domain.RubricCriterion, len(tf.Rubric))
	for i, c := range tf.Rubric {
		t.Rubric.Criteria[i] = domain.RubricCriterion{
			ID:          c.ID,
			Dimension:   c.Dimension,
			Description: c.Description,
			Weight:      c.Weight,
		}
	}
	return t
}

// checkTopic enforces the rules a schema cannot express
func checkTopic(t domain.Topic) error {
	drills := make(map[string]bool, len(t.Drills))
	for _, d := range t.Drills {
		if drills[d.ID] {
			return fmt.Errorf("%w: duplicate drill id %q", domain.ErrInvalidInput, d.ID)
		}
		drills[d.ID] = true
	}
	criteria := make(map[string]bool, len(t.Rubric.Criteria))
	for _, c := range t.Rubric.Criteria {
		if criteria[c.ID] {
			return fmt.Errorf("%w: duplicate rubric criterion %q", domain.ErrInvalidInput, c.ID)
		}
		criteria[c.ID] = true
	}
	if len(t.Rubric.Criteria) > 0 && t.Rubric.TotalWeight() <= 0 {
		return fmt.Errorf("%w: rubric weights must be positive", domain.ErrInvalidInput)
	}
	return nil
}
