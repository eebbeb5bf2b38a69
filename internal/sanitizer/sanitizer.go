package sanitizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// 占位符本身不包含任何可再次匹配的模式，保证脱敏幂等
const (
	PlaceholderEmail  = "[EMAIL]"
	PlaceholderDomain = "[DOMAIN]"
	PlaceholderPhone  = "[PHONE]"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// URL或裸域名（常见顶级域）
	domainPattern = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+|\b[A-Za-z0-9][A-Za-z0-9-]*(?:\.[A-Za-z0-9][A-Za-z0-9-]*)*\.(?:com|net|org|io|co|ai|edu|gov|info|biz)\b`)
	// 电话号码：3-4位前缀，可选分隔符，6-10位主体
	phonePattern = regexp.MustCompile(`\b\d{3,4}[-.\s]?\d{6,10}\b`)
)

// Sanitizer 对提取文本做两阶段脱敏：先做确定性的模式替换，
// 再用实体识别器替换组织、人名、地理位置等片段。
type Sanitizer struct {
	recognizer EntityRecognizer
}

// New 创建脱敏器
func New(recognizer EntityRecognizer) *Sanitizer {
	if recognizer == nil {
		recognizer = &NoopRecognizer{}
	}
	return &Sanitizer{recognizer: recognizer}
}

// SanitizePatterns 第一阶段：邮箱、域名、电话的确定性替换。
// 邮箱必须先于域名替换，否则邮箱中的域名部分会被单独命中。
func SanitizePatterns(text string) string {
	text = emailPattern.ReplaceAllString(text, PlaceholderEmail)
	text = domainPattern.ReplaceAllString(text, PlaceholderDomain)
	text = phonePattern.ReplaceAllString(text, PlaceholderPhone)
	return text
}

// Sanitize 执行完整脱敏。识别器失败时做一次资源准备并重试一次，
// 再次失败则向调用方返回错误，不降级为未脱敏文本。
//
// 已知限制：实体替换是对实体字面文本的全串替换，短实体若是其他
// 词语的子串会被过度替换，这是召回优先的取舍。
func (s *Sanitizer) Sanitize(ctx context.Context, text string) (string, error) {
	text = SanitizePatterns(text)

	entities, err := s.recognizer.Recognize(ctx, text)
	if err != nil {
		if readyErr := s.recognizer.EnsureReady(ctx); readyErr != nil {
			return "", fmt.Errorf("实体识别资源不可用: %w", readyErr)
		}
		entities, err = s.recognizer.Recognize(ctx, text)
		if err != nil {
			return "", fmt.Errorf("实体识别失败: %w", err)
		}
	}

	for _, entity := range entities {
		span := strings.TrimSpace(entity.Text)
		if span == "" || strings.ContainsAny(span, "[]") {
			continue
		}
		text = strings.ReplaceAll(text, span, "["+string(entity.Category)+"]")
	}

	return text, nil
}
