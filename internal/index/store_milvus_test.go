package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilvusStore_CollectionName(t *testing.T) {
	s := &MilvusStore{collectionPrefix: "docchat", vectorSize: 8}

	assert.Equal(t, "docchat_report", s.collectionName("report"))
	// 非法字符统一替换为下划线
	assert.Equal(t, "docchat_my_cache_v2", s.collectionName("my-cache.v2"))
}

func TestMilvusStore_PersistRejectsDimensionMismatch(t *testing.T) {
	s := &MilvusStore{collectionPrefix: "docchat", vectorSize: 8}

	idx := &VectorIndex{
		Dimensions: 3,
		Entries: []Entry{
			{Ordinal: 0, Text: "chunk one", Embedding: []float32{1, 2, 1}},
		},
	}

	// 维度校验发生在任何Milvus调用之前
	err := s.Persist(context.Background(), idx, "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "向量维度不匹配")
}

func TestMilvusStore_PersistRejectsEmptyIndex(t *testing.T) {
	s := &MilvusStore{collectionPrefix: "docchat", vectorSize: 8}

	err := s.Persist(context.Background(), &VectorIndex{}, "report")
	require.Error(t, err)

	err = s.Persist(context.Background(), nil, "report")
	require.Error(t, err)
}
