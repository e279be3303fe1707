package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// DocxExtractor pulls text out of Word documents. Body paragraphs come
// first in document order, then table cell texts row by row, each on
// its own line.
type DocxExtractor struct{}

func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

func (e *DocxExtractor) Name() string {
	return "docx"
}

func (e *DocxExtractor) Extract(_ context.Context, data []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx: parse document: %w", err)
	}

	var lines []string
	var tables []*docx.Table
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			lines = append(lines, it.String())
		case *docx.Table:
			tables = append(tables, it)
		}
	}

	for _, table := range tables {
		for _, row := range table.TableRows {
			for _, cell := range row.TableCells {
				var parts []string
				for _, p := range cell.Paragraphs {
					parts = append(parts, p.String())
				}
				lines = append(lines, strings.Join(parts, "\n"))
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
