package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crucible/internal/storage"
)

func TestStateStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(openTestDB(t), "", DefaultSnapshotLimit)

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Save(ctx, []byte(`{"xp":1}`)))
	require.NoError(t, store.Save(ctx, []byte(`{"xp":2}`)))

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"xp":2}`, string(data))
}

func TestStateStore_LearnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	alice := NewStateStore(db, "alice", 0)
	bob := NewStateStore(db, "bob", 0)

	require.NoError(t, alice.Save(ctx, []byte(`{"xp":5}`)))

	_, err := bob.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	snaps, err := alice.Snapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snaps, "snapshots disabled")
}

func TestStateStore_SnapshotsArePruned(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(openTestDB(t), "default", 3)

	for _, blob := range []string{`{"xp":1}`, `{"xp":2}`, `{"xp":3}`, `{"xp":4}`, `{"xp":5}`} {
		require.NoError(t, store.Save(ctx, []byte(blob)))
	}

	snaps, err := store.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Greater(t, snaps[0].ID, snaps[1].ID, "newest first")

	// restore the oldest retained save ({"xp":3})
	require.NoError(t, store.Restore(ctx, snaps[2].ID))
	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"xp":3}`, string(data))

	assert.ErrorIs(t, store.Restore(ctx, 9999), storage.ErrNotFound)
}

func TestStateStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewStateStore(openTestDB(t), "", 1)

	require.NoError(t, store.Save(ctx, []byte(`{}`)))
	require.NoError(t, store.Delete(ctx))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	snaps, err := store.Snapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}
