package curriculum_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crucible/internal/curriculum"
	"github.com/felixgeelhaar/crucible/internal/domain"
)

func setupRegistry(t *testing.T) *curriculum.Registry {
	t.Helper()

	registry := curriculum.NewRegistry(curriculum.DefaultLoader())
	require.NoError(t, registry.Load())
	return registry
}

func TestRegistry_Load(t *testing.T) {
	registry := setupRegistry(t)

	stats := registry.Stats()
	assert.Equal(t, "applied-llm-engineering", stats.CurriculumID)
	assert.Equal(t, 4, stats.TopicCount)
	assert.Positive(t, stats.DrillCount)
	assert.Equal(t, 2, stats.ByPhase[1])
}

func TestRegistry_Order(t *testing.T) {
	registry := setupRegistry(t)

	var ids []string
	for _, topic := range registry.Topics() {
		ids = append(ids, topic.ID)
	}
	assert.Equal(t, []string{"prompt-anatomy", "context-design", "structured-output", "evaluation-design"}, ids)
	assert.Equal(t, []string{"prompting", "reliability"}, registry.Domains())
}

func TestRegistry_TopicAndNext(t *testing.T) {
	registry := curriculum.NewStaticRegistry([]domain.Topic{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	topic, ok := registry.Topic("b")
	require.True(t, ok)
	assert.Equal(t, "b", topic.ID)

	next, ok := registry.Next("b")
	require.True(t, ok)
	assert.Equal(t, "c", next.ID)

	_, ok = registry.Next("c")
	assert.False(t, ok, "last topic has no successor")

	_, ok = registry.Next("missing")
	assert.False(t, ok)

	_, ok = registry.Topic("missing")
	assert.False(t, ok)
}

func TestRegistry_TopicsIsACopy(t *testing.T) {
	registry := curriculum.NewStaticRegistry([]domain.Topic{{ID: "a"}})

	topics := registry.Topics()
	topics[0].ID = "changed"

	_, ok := registry.Topic("a")
	assert.True(t, ok)
	assert.Equal(t, "a", registry.Topics()[0].ID)
}
