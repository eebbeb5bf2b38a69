package index

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Embedder 定义文本向量化接口
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Ready() bool
}

// NoopEmbedder 默认占位实现，未配置API Key时使用
type NoopEmbedder struct{}

func (n *NoopEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding provider not configured")
}

func (n *NoopEmbedder) Dimensions() int {
	return 0
}

func (n *NoopEmbedder) Ready() bool {
	return false
}

// EmbedderOptions 向量化服务配置，来自config的ai段
type EmbedderOptions struct {
	APIKey string
	Model  string
	// Dimensions 显式指定输出维度，0表示使用模型默认维度。
	// 显式维度必须与索引存储的向量维度一致。
	Dimensions int
}

// OpenAIEmbedder 使用OpenAI Embedding API生成chunk向量。
// Build按chunk顺序同步调用Embed，这里不做并发限流。
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	reduced    bool
}

// NewOpenAIEmbedder 创建向量化服务，API Key为空时退化为Noop
func NewOpenAIEmbedder(opts EmbedderOptions) Embedder {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return &NoopEmbedder{}
	}

	model := opts.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	dims := opts.Dimensions
	reduced := dims > 0 && dims != modelDimensions(model)
	if dims <= 0 {
		dims = modelDimensions(model)
	}

	return &OpenAIEmbedder{
		client:     openai.NewClient(apiKey),
		model:      model,
		dimensions: dims,
		reduced:    reduced,
	}
}

// modelDimensions 返回模型的默认输出维度。
// 目前只有large档是3072维，其余embedding模型均为1536维。
func modelDimensions(model string) int {
	if strings.HasSuffix(model, "-large") {
		return 3072
	}
	return 1536
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}

	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	}
	// 仅v3系列支持服务端降维
	if e.reduced && strings.HasPrefix(e.model, "text-embedding-3") {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response empty")
	}

	embedding := resp.Data[0].Embedding
	result := make([]float32, len(embedding))
	copy(result, embedding)
	return result, nil
}

func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

func (e *OpenAIEmbedder) Ready() bool {
	return e.client != nil
}
