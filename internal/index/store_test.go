package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestIndex(t *testing.T) *VectorIndex {
	t.Helper()
	idx, err := Build(context.Background(), &fakeEmbedder{}, []string{"first chunk", "second chunk", "third"})
	require.NoError(t, err)
	return idx
}

func TestLocalStore_PersistAndReload(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	idx := buildTestIndex(t)

	require.NoError(t, store.Persist(context.Background(), idx, "session-a"))

	reloaded, err := store.Reload(context.Background(), "session-a")
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	require.Len(t, reloaded.Entries, len(idx.Entries))

	// 重载后的索引检索行为与原索引一致
	query := []float32{11, 22, 1}
	original := idx.Search(query, 2)
	restored := reloaded.Search(query, 2)
	require.Len(t, restored, len(original))
	for i := range original {
		assert.Equal(t, original[i].Ordinal, restored[i].Ordinal)
		assert.Equal(t, original[i].Text, restored[i].Text)
		assert.InDelta(t, original[i].Score, restored[i].Score, 1e-9)
	}
}

func TestLocalStore_ReloadMissingReturnsNil(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	// 不存在的缓存是(nil, nil)，不是错误
	idx, err := store.Reload(context.Background(), "never-persisted")
	require.NoError(t, err)
	assert.Nil(t, idx)
}

func TestLocalStore_ReloadCorruptFails(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	target := filepath.Join(dir, "corrupt")
	require.NoError(t, os.MkdirAll(target, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "index.json"), []byte("{not json"), 0o644))

	// 缓存存在但内容损坏必须报错，与不存在严格区分
	_, err := store.Reload(context.Background(), "corrupt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "索引文件损坏")
}

func TestLocalStore_PersistOverwrites(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	first := buildTestIndex(t)
	require.NoError(t, store.Persist(ctx, first, "same-name"))

	second, err := Build(ctx, &fakeEmbedder{}, []string{"replacement"})
	require.NoError(t, err)
	require.NoError(t, store.Persist(ctx, second, "same-name"))

	reloaded, err := store.Reload(ctx, "same-name")
	require.NoError(t, err)
	require.Len(t, reloaded.Entries, 1)
	assert.Equal(t, "replacement", reloaded.Entries[0].Text)
}

func TestLocalStore_PersistRejectsEmptyIndex(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	assert.Error(t, store.Persist(context.Background(), nil, "x"))
	assert.Error(t, store.Persist(context.Background(), &VectorIndex{}, "x"))
}

func TestLocalStore_EmptyNameUsesDefault(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	idx := buildTestIndex(t)

	require.NoError(t, store.Persist(context.Background(), idx, ""))

	reloaded, err := store.Reload(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, reloaded)

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, names)
}

func TestLocalStore_List(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	idx := buildTestIndex(t)
	ctx := context.Background()

	require.NoError(t, store.Persist(ctx, idx, "alpha"))
	require.NoError(t, store.Persist(ctx, idx, "beta"))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, names)
}

func TestLocalStore_ListEmptyBaseDir(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "does-not-exist"))
	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}
