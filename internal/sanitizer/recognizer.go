package sanitizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// EntityCategory 命名实体类别
type EntityCategory string

const (
	CategoryOrg    EntityCategory = "ORG"
	CategoryPerson EntityCategory = "PERSON"
	CategoryGPE    EntityCategory = "GPE"
	CategoryLoc    EntityCategory = "LOC"
)

// Entity 识别出的实体片段
type Entity struct {
	Text     string         `json:"text"`
	Category EntityCategory `json:"label"`
}

// EntityRecognizer 定义命名实体识别能力。EnsureReady是显式的资源
// 准备步骤，启动时调用一次，避免首次使用时隐式安装资源。
type EntityRecognizer interface {
	EnsureReady(ctx context.Context) error
	Recognize(ctx context.Context, text string) ([]Entity, error)
	Ready() bool
}

// NoopRecognizer 默认占位实现
type NoopRecognizer struct{}

func (n *NoopRecognizer) EnsureReady(ctx context.Context) error {
	return errors.New("entity recognizer not configured")
}

func (n *NoopRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	return nil, errors.New("entity recognizer not configured")
}

func (n *NoopRecognizer) Ready() bool {
	return false
}

const recognizerPrompt = `You are a named entity recognizer. Extract every organization, person, geopolitical location and other location mentioned in the text. Respond with a JSON array only, no prose. Each element: {"text": "<exact span as it appears>", "label": "ORG"|"PERSON"|"GPE"|"LOC"}. Ignore anything already wrapped in square brackets.`

// OpenAIRecognizer 基于Chat Completion的命名实体识别器
type OpenAIRecognizer struct {
	client *openai.Client
	model  string

	mu    sync.Mutex
	ready bool
}

// NewOpenAIRecognizer 创建OpenAI实体识别器
func NewOpenAIRecognizer(apiKey, model string) *OpenAIRecognizer {
	apiKey = strings.TrimSpace(apiKey)
	if model == "" {
		model = "gpt-4o-mini"
	}

	var client *openai.Client
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}

	return &OpenAIRecognizer{
		client: client,
		model:  model,
	}
}

// EnsureReady 探测模型可用性，作为一次性的资源准备步骤
func (r *OpenAIRecognizer) EnsureReady(ctx context.Context) error {
	if r.client == nil {
		return errors.New("openai client not initialized")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}

	if _, err := r.client.GetModel(ctx, r.model); err != nil {
		return fmt.Errorf("recognizer model %s unavailable: %w", r.model, err)
	}

	r.ready = true
	return nil
}

func (r *OpenAIRecognizer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Recognize 识别文本中的命名实体
func (r *OpenAIRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if r.client == nil {
		return nil, errors.New("openai client not initialized")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: recognizerPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("recognizer response empty")
	}

	return parseEntities(resp.Choices[0].Message.Content)
}

// parseEntities 解析模型返回的JSON实体列表，容忍围绕数组的多余文本
func parseEntities(content string) ([]Entity, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("recognizer output is not a JSON array: %q", content)
	}

	var raw []Entity
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode recognizer output: %w", err)
	}

	entities := make([]Entity, 0, len(raw))
	for _, ent := range raw {
		switch ent.Category {
		case CategoryOrg, CategoryPerson, CategoryGPE, CategoryLoc:
		default:
			continue
		}
		if strings.TrimSpace(ent.Text) == "" {
			continue
		}
		entities = append(entities, ent)
	}
	return entities, nil
}
