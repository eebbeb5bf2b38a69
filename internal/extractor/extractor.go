package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// FileKind 文件类型变体，按扩展名识别
type FileKind int

const (
	KindUnknown FileKind = iota
	KindPDF
	KindDOCX
	KindSpreadsheet
	KindArchive
)

// DetectKind 根据文件名识别文件类型（扩展名不区分大小写）
func DetectKind(filename string) FileKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".xls", ".xlsx":
		return KindSpreadsheet
	case ".zip":
		return KindArchive
	default:
		return KindUnknown
	}
}

// EntryFailure 压缩包内单个条目的解析失败记录
type EntryFailure struct {
	Name string `json:"name"`
	Err  string `json:"error"`
}

// Result 提取结果，FailedEntries记录被跳过的压缩包条目
type Result struct {
	Text          string
	FailedEntries []EntryFailure
}

// parseFunc 单一格式的字节到文本解析
type parseFunc func(data []byte) (string, error)

// Extractor 文档文本提取器
type Extractor struct {
	maxArchiveDepth int
	parsers         map[FileKind]parseFunc
}

// New 创建提取器，maxArchiveDepth限制压缩包递归深度
func New(maxArchiveDepth int) *Extractor {
	if maxArchiveDepth <= 0 {
		maxArchiveDepth = 10
	}
	return &Extractor{
		maxArchiveDepth: maxArchiveDepth,
		parsers: map[FileKind]parseFunc{
			KindPDF:         extractPDF,
			KindDOCX:        extractDOCX,
			KindSpreadsheet: extractSpreadsheet,
		},
	}
}

// Extract 将原始字节提取为纯文本。未知扩展名返回空字符串而非错误，
// 调用方把空文本当作独立的失败信号处理。
func (e *Extractor) Extract(data []byte, filename string) (string, error) {
	result, err := e.ExtractDetailed(data, filename)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// ExtractDetailed 提取文本并返回压缩包条目级别的失败明细
func (e *Extractor) ExtractDetailed(data []byte, filename string) (Result, error) {
	var result Result
	text, err := e.extractAtDepth(data, filename, 0, &result.FailedEntries)
	if err != nil {
		return Result{}, err
	}
	result.Text = text
	return result, nil
}

func (e *Extractor) extractAtDepth(data []byte, filename string, depth int, failures *[]EntryFailure) (string, error) {
	kind := DetectKind(filename)
	if kind == KindArchive {
		return e.extractArchive(data, depth, failures)
	}
	parse, ok := e.parsers[kind]
	if !ok {
		return "", nil
	}
	return parse(data)
}

// extractArchive 按压缩包条目顺序递归提取。单个条目失败只记录并跳过，
// 不影响其余条目。
func (e *Extractor) extractArchive(data []byte, depth int, failures *[]EntryFailure) (string, error) {
	if depth >= e.maxArchiveDepth {
		return "", fmt.Errorf("压缩包嵌套超过最大深度 %d", e.maxArchiveDepth)
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析ZIP失败: %w", err)
	}

	var textBuilder strings.Builder
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		entryData, err := readArchiveEntry(entry)
		if err != nil {
			*failures = append(*failures, EntryFailure{Name: entry.Name, Err: err.Error()})
			continue
		}

		text, err := e.extractAtDepth(entryData, entry.Name, depth+1, failures)
		if err != nil {
			*failures = append(*failures, EntryFailure{Name: entry.Name, Err: err.Error()})
			continue
		}
		textBuilder.WriteString(text)
	}

	return textBuilder.String(), nil
}

func readArchiveEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("打开条目失败: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("读取条目失败: %w", err)
	}
	return buf.Bytes(), nil
}
