package index

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder 确定性向量化实现，向量由文本长度派生
type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.failOn != "" && text == f.failOn {
		return nil, fmt.Errorf("embedding failed for %q", text)
	}
	n := float32(len(text))
	return []float32{n, n * 2, 1}, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

func (f *fakeEmbedder) Ready() bool { return true }

func TestBuild_PreservesChunkOrder(t *testing.T) {
	idx, err := Build(context.Background(), &fakeEmbedder{}, []string{"alpha", "beta-longer", "c"})
	require.NoError(t, err)
	require.Len(t, idx.Entries, 3)

	for i, entry := range idx.Entries {
		assert.Equal(t, i, entry.Ordinal)
		assert.Len(t, entry.Embedding, 3)
	}
	assert.Equal(t, "alpha", idx.Entries[0].Text)
}

func TestBuild_SkipsBlankChunks(t *testing.T) {
	idx, err := Build(context.Background(), &fakeEmbedder{}, []string{"alpha", "   ", "gamma"})
	require.NoError(t, err)
	require.Len(t, idx.Entries, 2)
	// 序号保持原始chunk位置，不因跳过空白而重排
	assert.Equal(t, 0, idx.Entries[0].Ordinal)
	assert.Equal(t, 2, idx.Entries[1].Ordinal)
}

func TestBuild_FailsWholeOnEmbedError(t *testing.T) {
	// 单个chunk向量化失败不允许产生部分索引
	_, err := Build(context.Background(), &fakeEmbedder{failOn: "beta"}, []string{"alpha", "beta", "gamma"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed chunk 1")
}

func TestBuild_EmptyInput(t *testing.T) {
	_, err := Build(context.Background(), &fakeEmbedder{}, nil)
	assert.Error(t, err)

	_, err = Build(context.Background(), &fakeEmbedder{}, []string{"  ", ""})
	assert.Error(t, err)
}

func TestBuild_RequiresReadyEmbedder(t *testing.T) {
	_, err := Build(context.Background(), &NoopEmbedder{}, []string{"alpha"})
	assert.Error(t, err)
}

func TestSearch_RanksByCosineSimilarity(t *testing.T) {
	idx := &VectorIndex{
		Dimensions: 2,
		Entries: []Entry{
			{Ordinal: 0, Text: "east", Embedding: []float32{1, 0}},
			{Ordinal: 1, Text: "north", Embedding: []float32{0, 1}},
			{Ordinal: 2, Text: "northeast", Embedding: []float32{1, 1}},
		},
	}

	matches := idx.Search([]float32{1, 0}, 2)
	require.Len(t, matches, 2)
	assert.Equal(t, "east", matches[0].Text)
	assert.Equal(t, "northeast", matches[1].Text)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestSearch_TieBreaksOnLowerOrdinal(t *testing.T) {
	idx := &VectorIndex{
		Dimensions: 2,
		Entries: []Entry{
			{Ordinal: 2, Text: "later", Embedding: []float32{1, 0}},
			{Ordinal: 0, Text: "earlier", Embedding: []float32{1, 0}},
		},
	}

	matches := idx.Search([]float32{1, 0}, 2)
	require.Len(t, matches, 2)
	// 同分时chunk序号小的排在前面
	assert.Equal(t, 0, matches[0].Ordinal)
	assert.Equal(t, 2, matches[1].Ordinal)
}

func TestSearch_DefaultsTopK(t *testing.T) {
	idx := &VectorIndex{Dimensions: 1}
	for i := 0; i < 10; i++ {
		idx.Entries = append(idx.Entries, Entry{Ordinal: i, Embedding: []float32{float32(i + 1)}})
	}

	matches := idx.Search([]float32{1}, 0)
	assert.Len(t, matches, DefaultTopK)

	matches = idx.Search([]float32{1}, 100)
	assert.Len(t, matches, 10)
}

func TestSearch_EmptyQuery(t *testing.T) {
	idx := &VectorIndex{Entries: []Entry{{Ordinal: 0, Embedding: []float32{1}}}}
	assert.Nil(t, idx.Search(nil, 3))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	// 维度不匹配或零向量返回0
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}
