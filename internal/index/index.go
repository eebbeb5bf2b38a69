package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultTopK 检索默认返回数量
const DefaultTopK = 6

// Entry 索引中的一条记录：chunk文本及其向量，Ordinal为chunk在原文中的序号
type Entry struct {
	Ordinal   int       `json:"ordinal"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// VectorIndex 可检索的向量索引。Entries按chunk顺序排列，
// 该顺序决定了同分结果的稳定排序。
type VectorIndex struct {
	Model      string  `json:"model"`
	Dimensions int     `json:"dimensions"`
	Entries    []Entry `json:"entries"`
}

// Match 检索命中结果
type Match struct {
	Ordinal int     `json:"ordinal"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
}

// Build 将chunk序列向量化并构建索引。任何一个chunk向量化失败都会
// 使整个构建失败，不返回部分索引。
func Build(ctx context.Context, embedder Embedder, chunks []string) (*VectorIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to index")
	}
	if embedder == nil || !embedder.Ready() {
		return nil, fmt.Errorf("embedding provider not ready")
	}

	idx := &VectorIndex{
		Dimensions: embedder.Dimensions(),
		Entries:    make([]Entry, 0, len(chunks)),
	}

	// 顺序向量化，保证索引内chunk顺序与原文一致，检索排序可复现
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		embedding, err := embedder.Embed(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		idx.Entries = append(idx.Entries, Entry{
			Ordinal:   i,
			Text:      chunk,
			Embedding: embedding,
		})
	}

	if len(idx.Entries) == 0 {
		return nil, fmt.Errorf("no chunks to index")
	}
	return idx, nil
}

// Search 返回与查询向量最相似的k个chunk，按相似度降序，
// 同分时序号小的在前。k<=0时使用DefaultTopK。
func (idx *VectorIndex) Search(queryEmbedding []float32, k int) []Match {
	if len(queryEmbedding) == 0 || len(idx.Entries) == 0 {
		return nil
	}
	if k <= 0 {
		k = DefaultTopK
	}

	matches := make([]Match, 0, len(idx.Entries))
	for _, entry := range idx.Entries {
		matches = append(matches, Match{
			Ordinal: entry.Ordinal,
			Text:    entry.Text,
			Score:   cosineSimilarity(queryEmbedding, entry.Embedding),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Ordinal < matches[j].Ordinal
		}
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// cosineSimilarity 计算余弦相似度，维度不匹配或零向量返回0
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
