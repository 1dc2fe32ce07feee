package progression

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

type testCatalog []domain.Topic

func (c testCatalog) Topics() []domain.Topic { return c }

func (c testCatalog) Topic(id string) (domain.Topic, bool) {
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Topic{}, false
}

func (c testCatalog) Next(id string) (domain.Topic, bool) {
	for i, t := range c {
		if t.ID == id && i+1 < len(c) {
			return c[i+1], true
		}
	}
	return domain.Topic{}, false
}

func newCatalog() testCatalog {
	return testCatalog{
		{ID: "prompts", Phase: 1, Domain: "foundations", XP: 100, PassThreshold: 70},
		{ID: "context", Phase: 1, Domain: "foundations", XP: 100, PassThreshold: 70},
		{ID: "evals", Phase: 2, Domain: "evaluation", XP: 150, PassThreshold: 75},
	}
}

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func pass(score int, weaknesses ...string) domain.ChallengeAttempt {
	return domain.ChallengeAttempt{ChallengeID: "ch", Score: score, Passed: true, Weaknesses: weaknesses, Timestamp: t0}
}

func fail(score int, weaknesses ...string) domain.ChallengeAttempt {
	return domain.ChallengeAttempt{ChallengeID: "ch", Score: score, Passed: false, Weaknesses: weaknesses, Timestamp: t0}
}

func mustPass(t *testing.T, s domain.MasteryState, cat Catalog, id string, score int, now time.Time) domain.MasteryState {
	t.Helper()
	out, err := SaveChallengeAttempt(s, cat, id, pass(score), nil, now)
	require.NoError(t, err)
	return out
}

func TestNewState(t *testing.T) {
	s := NewState(newCatalog())

	assert.Equal(t, CurrentSchemaVersion, s.SchemaVersion)
	assert.Equal(t, "prompts", s.CurrentTopicID)
	assert.Equal(t, domain.StatusAvailable, s.TopicProgress["prompts"].Status)
	assert.Equal(t, domain.StatusLocked, s.TopicProgress["context"].Status)
	assert.Equal(t, domain.StatusLocked, s.TopicProgress["evals"].Status)
	assert.NotNil(t, s.Artifacts)
	assert.NotNil(t, s.Badges)
}

func TestStartTopic(t *testing.T) {
	cat := newCatalog()
	s := NewState(cat)

	s2, err := StartTopic(s, cat, "prompts")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, s2.TopicProgress["prompts"].Status)
	assert.Equal(t, domain.StatusAvailable, s.TopicProgress["prompts"].Status, "input must not change")

	s3, err := StartTopic(s2, cat, "prompts")
	require.NoError(t, err)
	assert.Equal(t, s2, s3)

	_, err = StartTopic(s, cat, "context")
	assert.ErrorIs(t, err, domain.ErrTopicLocked)

	_, err = StartTopic(s, cat, "nope")
	assert.ErrorIs(t, err, domain.ErrTopicNotFound)
}

func TestStartTopic_PassedKeepsStatusButMovesCurrent(t *testing.T) {
	cat := newCatalog()
	s := mustPass(t, NewState(cat), cat, "prompts", 90, t0)
	require.Equal(t, "context", s.CurrentTopicID)

	s, err := StartTopic(s, cat, "prompts")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPassed, s.TopicProgress["prompts"].Status)
	assert.Equal(t, "prompts", s.CurrentTopicID)
}

func TestSaveDrillAttempt_DistinctCount(t *testing.T) {
	cat := newCatalog()
	s := NewState(cat)

	for _, id := range []string{"d1", "d1", "d2", "d1"} {
		var err error
		s, err = SaveDrillAttempt(s, cat, "prompts", domain.DrillAttempt{DrillID: id, Score: 50, Timestamp: t0})
		require.NoError(t, err)
	}

	p := s.TopicProgress["prompts"]
	assert.Len(t, p.DrillAttempts, 4)
	assert.Equal(t, 2, p.DrillsAttempted)
	assert.Equal(t, []string{"d1", "d1", "d2", "d1"}, drillIDs(p.DrillAttempts))
	assert.Equal(t, domain.StatusAvailable, p.Status)

	_, err := SaveDrillAttempt(s, cat, "evals", domain.DrillAttempt{DrillID: "d1"})
	assert.ErrorIs(t, err, domain.ErrTopicLocked)
}

func TestSaveChallengeAttempt_FailDoesNotUnlock(t *testing.T) {
	cat := newCatalog()
	s, err := SaveChallengeAttempt(NewState(cat), cat, "prompts", fail(55, "clarity"), nil, t0)
	require.NoError(t, err)

	assert.Equal(t, 55, s.TopicProgress["prompts"].BestScore)
	assert.Equal(t, domain.StatusAvailable, s.TopicProgress["prompts"].Status)
	assert.Equal(t, domain.StatusLocked, s.TopicProgress["context"].Status)
	assert.Zero(t, s.TotalPassed)
	assert.Zero(t, s.XP)
	assert.Empty(t, s.Badges)
}

func TestSaveChallengeAttempt_FirstPass(t *testing.T) {
	cat := newCatalog()
	art := &domain.Artifact{ID: uuid.New(), TopicID: "prompts", Content: "answer", Score: 90}

	s, err := SaveChallengeAttempt(NewState(cat), cat, "prompts", pass(90), art, t0)
	require.NoError(t, err)

	p := s.TopicProgress["prompts"]
	assert.Equal(t, domain.StatusPassed, p.Status)
	assert.Equal(t, 90, p.BestScore)
	require.NotNil(t, p.Artifact)
	assert.Equal(t, art.ID, p.Artifact.ID)
	require.Len(t, s.Artifacts, 1)
	assert.Equal(t, 1, s.TotalPassed)
	assert.Equal(t, 100, s.XP)
	assert.Equal(t, 1, s.Streak)
	assert.Equal(t, "2026-06-01", s.LastPassDate)
	assert.True(t, s.HasBadge("first-certification"))
	assert.Equal(t, domain.StatusAvailable, s.TopicProgress["context"].Status)
	assert.Equal(t, "context", s.CurrentTopicID)
}

func TestSaveChallengeAttempt_Idempotence(t *testing.T) {
	cat := newCatalog()
	s := mustPass(t, NewState(cat), cat, "prompts", 80, t0)
	badges := append([]domain.Badge(nil), s.Badges...)

	s = mustPass(t, s, cat, "prompts", 80, t0)
	assert.Equal(t, 1, s.TotalPassed)
	assert.Equal(t, 100, s.XP)
	assert.Equal(t, badges, s.Badges)
	assert.Len(t, s.TopicProgress["prompts"].ChallengeAttempts, 2)
	assert.Equal(t, 80, s.TopicProgress["prompts"].BestScore)

	s = mustPass(t, s, cat, "prompts", 95, t0)
	assert.Equal(t, 95, s.TopicProgress["prompts"].BestScore)
	assert.Equal(t, 1, s.TotalPassed)
	assert.Equal(t, badges, s.Badges)
}

func TestSaveChallengeAttempt_RepassDoesNotMoveCurrent(t *testing.T) {
	cat := newCatalog()
	s := mustPass(t, NewState(cat), cat, "prompts", 80, t0)
	s, err := StartTopic(s, cat, "prompts")
	require.NoError(t, err)

	s = mustPass(t, s, cat, "prompts", 85, t0)

	assert.Equal(t, "prompts", s.CurrentTopicID)
}

func TestBestScore_Monotonic(t *testing.T) {
	cat := newCatalog()
	s := NewState(cat)
	best := 0
	for _, a := range []domain.ChallengeAttempt{fail(40), fail(65), fail(20), pass(88), fail(10), pass(71)} {
		var err error
		s, err = SaveChallengeAttempt(s, cat, "prompts", a, nil, t0)
		require.NoError(t, err)
		got := s.TopicProgress["prompts"].BestScore
		assert.GreaterOrEqual(t, got, best)
		best = got
	}
	assert.Equal(t, 88, best)
}

func TestUnlockInvariant(t *testing.T) {
	cat := newCatalog()
	check := func(s domain.MasteryState) {
		t.Helper()
		topics := cat.Topics()
		for i, topic := range topics {
			unlocked := s.TopicProgress[topic.ID].Status.IsUnlocked()
			want := i == 0 || s.TopicProgress[topics[i-1].ID].Status == domain.StatusPassed
			assert.Equal(t, want, unlocked, topic.ID)
		}
	}

	s := NewState(cat)
	check(s)
	s, _ = StartTopic(s, cat, "prompts")
	check(s)
	s, _ = SaveChallengeAttempt(s, cat, "prompts", fail(30), nil, t0)
	check(s)
	s = mustPass(t, s, cat, "prompts", 90, t0)
	check(s)
	s = mustPass(t, s, cat, "context", 90, t0.AddDate(0, 0, 1))
	check(s)
	s = mustPass(t, s, cat, "evals", 90, t0.AddDate(0, 0, 2))
	check(s)

	assert.Equal(t, 3, s.TotalPassed)
	assert.Equal(t, 350, s.XP)
	assert.Equal(t, 3, s.Streak)
	assert.Equal(t, "evals", s.CurrentTopicID)
	assert.True(t, s.HasBadge("curriculum-complete"))
	assert.True(t, s.HasBadge("streak-3"))
}

func TestStreak_Scenarios(t *testing.T) {
	cat := newCatalog()

	s := mustPass(t, NewState(cat), cat, "prompts", 90, t0)
	s = mustPass(t, s, cat, "context", 90, t0.AddDate(0, 0, 1))
	assert.Equal(t, 2, s.Streak)

	s = mustPass(t, s, cat, "context", 90, t0.AddDate(0, 0, 1).Add(3*time.Hour))
	assert.Equal(t, 2, s.Streak, "same day leaves streak unchanged")

	s = mustPass(t, s, cat, "evals", 90, t0.AddDate(0, 0, 4))
	assert.Equal(t, 1, s.Streak, "three day gap resets")
}

func TestComputeDomainMastery(t *testing.T) {
	cat := newCatalog()
	s := NewState(cat)
	s, _ = SaveChallengeAttempt(s, cat, "prompts", fail(40, "depth", "clarity"), nil, t0)
	s, _ = SaveChallengeAttempt(s, cat, "prompts", fail(50, "structure", "clarity"), nil, t0)
	s, _ = SaveChallengeAttempt(s, cat, "prompts", fail(55, "examples", "structure"), nil, t0)
	s = mustPass(t, s, cat, "prompts", 80, t0)
	// stale topic from an older curriculum
	s.TopicProgress["removed"] = domain.TopicProgress{TopicID: "removed", Status: domain.StatusPassed, BestScore: 100}

	got := ComputeDomainMastery(s, cat)

	require.Len(t, got, 2)
	assert.Equal(t, "foundations", got[0].Domain)
	assert.Equal(t, 1, got[0].TopicsPassed)
	assert.Equal(t, 2, got[0].TopicsTotal)
	assert.InDelta(t, 40.0, got[0].AverageBestScore, 1e-9)
	// clarity and structure twice, then depth before examples by encounter order
	assert.Equal(t, []string{"clarity", "structure", "depth"}, got[0].TopWeaknesses)
	assert.Equal(t, 50, got[0].Percent())

	assert.Equal(t, "evaluation", got[1].Domain)
	assert.Equal(t, 0, got[1].TopicsPassed)
	assert.Equal(t, 1, got[1].TopicsTotal)
	assert.Zero(t, got[1].AverageBestScore)
	assert.Empty(t, got[1].TopWeaknesses)
}

func TestExportRoundTrip(t *testing.T) {
	cat := newCatalog()
	s := NewState(cat)
	s, _ = SaveChallengeAttempt(s, cat, "prompts", fail(45, "depth"), nil, t0)
	s = mustPass(t, s, cat, "prompts", 82, t0)
	s, _ = SaveDrillAttempt(s, cat, "context", domain.DrillAttempt{DrillID: "d1", Score: 70, Timestamp: t0})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var loaded domain.MasteryState
	require.NoError(t, json.Unmarshal(data, &loaded))

	assert.Equal(t, ComputeDomainMastery(s, cat), ComputeDomainMastery(loaded, cat))
	assert.Equal(t, s.TotalPassed, loaded.TotalPassed)
	assert.Equal(t, s.Badges[0].ID, loaded.Badges[0].ID)
}

func drillIDs(attempts []domain.DrillAttempt) []string {
	ids := make([]string, len(attempts))
	for i, a := range attempts {
		ids[i] = a.DrillID
	}
	return ids
}
