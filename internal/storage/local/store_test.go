package local

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir", "nested")

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NotNil(t, store)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(dir, DefaultFileName), store.Path())
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Exists())

	require.NoError(t, store.Save(ctx, []byte(`{"xp":10}`)))
	assert.True(t, store.Exists())

	data, err := store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"xp":10}`, string(data))

	require.NoError(t, store.Save(ctx, []byte(`{"xp":20}`)))
	data, err = store.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"xp":20}`, string(data))
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewStoreWithFile(dir, "state.json")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, []byte("{}")))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(ctx), "deleting a missing file")

	require.NoError(t, store.Save(ctx, []byte("{}")))
	require.NoError(t, store.Delete(ctx))

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Save(ctx, []byte(`{"ok":true}`)))
		}()
		go func() {
			defer wg.Done()
			data, err := store.Load(ctx)
			if err == nil {
				assert.JSONEq(t, `{"ok":true}`, string(data))
			}
		}()
	}
	wg.Wait()
}
