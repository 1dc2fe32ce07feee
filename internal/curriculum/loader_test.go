package curriculum

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

const manifestYAML = `id: test
name: Test Curriculum
version: "0.1.0"
topics:
  - first
  - second
`

const firstTopicYAML = `id: first
title: First Topic
week: 1
phase: 1
domain: basics
xp: 50
pass_threshold: 70
lessons:
  - heading: Intro
    body: Hello.
drills:
  - id: d1
    prompt: Say hello.
    required_elements: [greeting]
    evaluation_criteria: [uses a friendly tone]
challenge:
  id: c1
  scenario: Write a greeting.
  constraints: [under fifty words]
  required_sections: [Greeting]
  test_cases:
    - input: x
      expected: y
rubric:
  - id: tone
    dimension: tone
    description: friendly tone
    weight: 2
  - id: clarity
    dimension: clarity
    description: clear wording
    weight: 1
`

const secondTopicYAML = `id: second
title: Second Topic
phase: 2
domain: advanced
pass_threshold: 80
challenge:
  id: c2
  scenario: Do more.
rubric:
  - id: depth
    dimension: depth
    weight: 1
`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"curriculum.yaml":    {Data: []byte(manifestYAML)},
		"topics/first.yaml":  {Data: []byte(firstTopicYAML)},
		"topics/second.yaml": {Data: []byte(secondTopicYAML)},
	}
}

func TestLoader_Load(t *testing.T) {
	c, err := NewFSLoader(testFS(), "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "test", c.ID)
	assert.Equal(t, "0.1.0", c.Version)
	require.Len(t, c.Topics, 2)

	first := c.Topics[0]
	assert.Equal(t, "first", first.ID)
	assert.Equal(t, 1, first.Phase)
	assert.Equal(t, "basics", first.Domain)
	assert.Equal(t, 50, first.XP)
	assert.Equal(t, 70, first.PassThreshold)
	require.Len(t, first.Drills, 1)
	assert.Equal(t, []string{"greeting"}, first.Drills[0].RequiredElements)
	assert.Equal(t, []string{"under fifty words"}, first.Challenge.Constraints)
	assert.True(t, first.Challenge.HasTestCases())
	require.Len(t, first.Rubric.Criteria, 2)
	assert.InDelta(t, 3.0, first.Rubric.TotalWeight(), 1e-9)

	assert.Equal(t, "second", c.Topics[1].ID)
	assert.False(t, c.Topics[1].Challenge.HasTestCases())
}

func TestLoader_FromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "topics"), 0755))
	for name, f := range testFS() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), f.Data, 0644))
	}

	l := NewLoader(dir)
	c, err := l.Load()
	require.NoError(t, err)
	assert.Len(t, c.Topics, 2)
	assert.Equal(t, dir, l.Source())
}

func TestLoader_SchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		topic string
	}{
		{"missing rubric", "id: first\ntitle: T\nphase: 1\ndomain: d\npass_threshold: 70\nchallenge: {id: c, scenario: s}\n"},
		{"threshold above 100", "id: first\ntitle: T\nphase: 1\ndomain: d\npass_threshold: 150\nchallenge: {id: c, scenario: s}\nrubric: [{id: r, dimension: d, weight: 1}]\n"},
		{"non-positive weight", "id: first\ntitle: T\nphase: 1\ndomain: d\npass_threshold: 70\nchallenge: {id: c, scenario: s}\nrubric: [{id: r, dimension: d, weight: 0}]\n"},
		{"unknown field", "id: first\ntitle: T\nphase: 1\ndomain: d\npass_threshold: 70\ncolour: red\nchallenge: {id: c, scenario: s}\nrubric: [{id: r, dimension: d, weight: 1}]\n"},
		{"bad id", "id: First Topic\ntitle: T\nphase: 1\ndomain: d\npass_threshold: 70\nchallenge: {id: c, scenario: s}\nrubric: [{id: r, dimension: d, weight: 1}]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := testFS()
			fsys["topics/first.yaml"] = &fstest.MapFile{Data: []byte(tt.topic)}

			_, err := NewFSLoader(fsys, "test").Load()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestLoader_DuplicateIDs(t *testing.T) {
	fsys := testFS()
	fsys["topics/second.yaml"] = &fstest.MapFile{Data: []byte(firstTopicYAML)}

	_, err := NewFSLoader(fsys, "test").Load()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	fsys = testFS()
	fsys["topics/first.yaml"] = &fstest.MapFile{Data: []byte(firstTopicYAML + `
  - id: tone
    dimension: tone again
    weight: 1
`)}
	_, err = NewFSLoader(fsys, "test").Load()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoader_MissingFiles(t *testing.T) {
	_, err := NewFSLoader(fstest.MapFS{}, "empty").Load()
	assert.Error(t, err)

	fsys := testFS()
	delete(fsys, "topics/second.yaml")
	_, err = NewFSLoader(fsys, "test").Load()
	assert.Error(t, err)

	_, err = NewFSLoader(fstest.MapFS{"curriculum.yaml": {Data: []byte("id: x\ntopics: []\n")}}, "x").LoadManifest()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDefaultLoader(t *testing.T) {
	c, err := DefaultLoader().Load()
	require.NoError(t, err)

	require.NotEmpty(t, c.Topics)
	assert.Equal(t, "prompt-anatomy", c.Topics[0].ID)
	for _, topic := range c.Topics {
		assert.NotEmpty(t, topic.Rubric.Criteria, topic.ID)
		assert.Positive(t, topic.PassThreshold, topic.ID)
	}
}
