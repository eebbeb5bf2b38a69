package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/spreadsheet"
	pdfextractor "github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"
)

// extractPDF 按页序提取PDF文本，单页提取失败贡献空字符串，不中断整个文档
func extractPDF(data []byte) (string, error) {
	pdfReader, err := pdfmodel.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("解析PDF失败: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("获取PDF页数失败: %w", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}

		ex, err := pdfextractor.New(page)
		if err != nil {
			continue
		}

		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		textBuilder.WriteString(text)
	}

	return textBuilder.String(), nil
}

// extractDOCX 按文档顺序提取段落文本，每段一行
func extractDOCX(data []byte) (string, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析Word文档失败: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			textBuilder.WriteString(run.Text())
		}
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// extractSpreadsheet 提取表格数据。第一行为表头，数据行从1开始编号，
// 每行输出 "Row <i>: <列>: <值>. <列>: <值>"，行号与拼接格式是对外契约。
func extractSpreadsheet(data []byte) (string, error) {
	ss, err := spreadsheet.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("解析Excel文档失败: %w", err)
	}
	defer ss.Close()

	sheets := ss.Sheets()
	if len(sheets) == 0 {
		return "", nil
	}

	rows := sheets[0].Rows()
	if len(rows) == 0 {
		return "", nil
	}

	// 表头顺序决定列顺序
	var headers []string
	for _, cell := range rows[0].Cells() {
		headers = append(headers, cell.GetString())
	}

	var textBuilder strings.Builder
	for i, row := range rows[1:] {
		var cells []string
		for _, cell := range row.Cells() {
			cells = append(cells, cell.GetString())
		}
		textBuilder.WriteString(formatSheetRow(i+1, headers, cells))
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

// formatSheetRow 将一行数据渲染为 "Row <i>: <列>: <值>. <列>: <值>"，
// 缺失的单元格渲染为空值，多余的单元格忽略
func formatSheetRow(rowNum int, headers, cells []string) string {
	pairs := make([]string, 0, len(headers))
	for col, header := range headers {
		value := ""
		if col < len(cells) {
			value = cells[col]
		}
		pairs = append(pairs, fmt.Sprintf("%s: %s", header, value))
	}
	return fmt.Sprintf("Row %d: %s", rowNum, strings.Join(pairs, ". "))
}
