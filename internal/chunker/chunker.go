package chunker

import (
	"fmt"
	"strings"
)

// 默认分块参数
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// 边界优先级：段落 > 换行 > 句子 > 单词，最后退化为按字符硬切
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker 文本分块器。切分时优先在语义边界断开，仅当片段仍然
// 超长时才逐级收窄边界粒度。
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New 创建分块器。overlap >= size 属于配置错误，直接拒绝。
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: overlap,
	}, nil
}

// Split 将文本切分为有序的chunk序列。短于chunkSize的输入返回单个chunk。
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	if runeLen(text) <= c.chunkSize {
		return []string{text}
	}

	pieces := c.splitPieces(text, separators)
	return c.merge(pieces)
}

// splitPieces 递归切分文本，保证每个片段不超过chunkSize。
// 分隔符保留在前一个片段尾部，直接拼接即可还原原文。
func (c *Chunker) splitPieces(text string, seps []string) []string {
	if runeLen(text) <= c.chunkSize {
		return []string{text}
	}

	for i, sep := range seps {
		if !strings.Contains(text, sep) {
			continue
		}
		parts := strings.SplitAfter(text, sep)
		var pieces []string
		for _, part := range parts {
			if part == "" {
				continue
			}
			if runeLen(part) > c.chunkSize {
				pieces = append(pieces, c.splitPieces(part, seps[i+1:])...)
			} else {
				pieces = append(pieces, part)
			}
		}
		return pieces
	}

	return c.windowPieces(text)
}

// windowPieces 无自然边界时按字符硬切。片段长度取overlap，
// 这样merge阶段的重叠搬运能精确覆盖overlap个字符。
func (c *Chunker) windowPieces(text string) []string {
	window := c.chunkOverlap
	if window <= 0 {
		window = c.chunkSize
	}

	runes := []rune(text)
	pieces := make([]string, 0, len(runes)/window+1)
	for start := 0; start < len(runes); start += window {
		end := start + window
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

// merge 将片段贪心合并为chunk，每个chunk结束后把尾部不超过
// overlap长度的片段搬运到下一个chunk开头。
func (c *Chunker) merge(pieces []string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		chunk := strings.Join(current, "")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		var carry []string
		carryLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			pieceLen := runeLen(current[i])
			if carryLen+pieceLen > c.chunkOverlap {
				break
			}
			carry = append([]string{current[i]}, carry...)
			carryLen += pieceLen
		}
		// 没有完整片段能放进重叠窗口时，截取chunk尾部字符保证相邻chunk至少有重叠
		if carryLen == 0 && c.chunkOverlap > 0 && runeLen(chunk) > c.chunkOverlap {
			runes := []rune(chunk)
			tail := string(runes[len(runes)-c.chunkOverlap:])
			carry = []string{tail}
			carryLen = c.chunkOverlap
		}
		current = carry
		currentLen = carryLen
	}

	for _, piece := range pieces {
		pieceLen := runeLen(piece)
		if currentLen+pieceLen > c.chunkSize && currentLen > 0 {
			flush()
			// 重叠加上新片段仍会超长时收缩重叠
			for currentLen > 0 && currentLen+pieceLen > c.chunkSize {
				currentLen -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		currentLen += pieceLen
	}
	if currentLen > 0 {
		chunk := strings.Join(current, "")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}
