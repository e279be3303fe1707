package extraction

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFLibEngine is the second PDF engine in the chain. It uses a pure-Go
// parser that recovers text from some documents MuPDF renders blank,
// at the cost of weaker layout handling.
type PDFLibEngine struct{}

func NewPDFLibEngine() *PDFLibEngine {
	return &PDFLibEngine{}
}

func (e *PDFLibEngine) Name() string {
	return "pdflib"
}

func (e *PDFLibEngine) ExtractPages(_ context.Context, data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdflib: open document: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
