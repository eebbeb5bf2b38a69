package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aihub/docchat-go/internal/index"
)

// Policy 控制上下文外问题的回答策略
type Policy string

const (
	// PolicyStrict 上下文中没有答案时回答 "I don't know."
	PolicyStrict Policy = "strict"
	// PolicyPermissive 基于上下文推理，从不拒绝回答
	PolicyPermissive Policy = "permissive"
)

// DefaultPreviewLength 证据摘录的展示长度上限
const DefaultPreviewLength = 300

// SourceExcerpt 支撑答案的证据摘录。Excerpt仅为展示用途的截断文本，
// 生成时使用的是完整chunk。
type SourceExcerpt struct {
	Ordinal int     `json:"ordinal"`
	Excerpt string  `json:"excerpt"`
	Score   float64 `json:"score"`
}

// AnswerRecord 单次问答记录，创建后不再修改
type AnswerRecord struct {
	Question  string          `json:"question"`
	Answer    string          `json:"answer"`
	Sources   []SourceExcerpt `json:"sources"`
	CreatedAt time.Time       `json:"created_at"`
}

// Retriever 检索能力接口，由索引层提供实现
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]index.Match, error)
}

// Engine 检索增强问答引擎
type Engine struct {
	generator     Generator
	policy        Policy
	topK          int
	previewLength int
}

// NewEngine 创建问答引擎
func NewEngine(generator Generator, policy Policy, topK, previewLength int) *Engine {
	if generator == nil {
		generator = &NoopGenerator{}
	}
	if policy != PolicyStrict {
		policy = PolicyPermissive
	}
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	if previewLength <= 0 {
		previewLength = DefaultPreviewLength
	}
	return &Engine{
		generator:     generator,
		policy:        policy,
		topK:          topK,
		previewLength: previewLength,
	}
}

// Answer 检索top-k相关chunk并生成有依据的答案。
// 生成失败直接向调用方返回错误，不产生问答记录。
func (e *Engine) Answer(ctx context.Context, retriever Retriever, question string) (*AnswerRecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	matches, err := retriever.Retrieve(ctx, question, e.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no relevant context found")
	}

	prompt := e.buildPrompt(question, matches)
	answerText, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	sources := make([]SourceExcerpt, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, SourceExcerpt{
			Ordinal: match.Ordinal,
			Excerpt: truncate(match.Text, e.previewLength),
			Score:   match.Score,
		})
	}

	return &AnswerRecord{
		Question:  question,
		Answer:    answerText,
		Sources:   sources,
		CreatedAt: time.Now(),
	}, nil
}

// buildPrompt 将检索到的完整chunk拼接为生成提示
func (e *Engine) buildPrompt(question string, matches []index.Match) string {
	var contextBuilder strings.Builder
	for i, match := range matches {
		if i > 0 {
			contextBuilder.WriteString("\n\n")
		}
		contextBuilder.WriteString(match.Text)
	}

	instruction := `Use the following context to answer the question.
Reason from the context to give the most helpful answer you can. Never refuse to answer.`
	if e.policy == PolicyStrict {
		instruction = `Use the following context to answer the question.
If the answer is not in the document, say "I don't know."`
	}

	return fmt.Sprintf(`%s

Context:
%s

Question: %s
Answer:`, instruction, contextBuilder.String(), question)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
