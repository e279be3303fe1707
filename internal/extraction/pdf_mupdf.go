package extraction

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// MuPDFEngine extracts PDF text through MuPDF. It handles the widest
// range of real-world resumes, so the chain runs it first.
type MuPDFEngine struct{}

func NewMuPDFEngine() *MuPDFEngine {
	return &MuPDFEngine{}
}

func (e *MuPDFEngine) Name() string {
	return "mupdf"
}

func (e *MuPDFEngine) ExtractPages(_ context.Context, data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("mupdf: open document: %w", err)
	}
	defer doc.Close()

	pages := make([]string, 0, doc.NumPage())
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			// Broken pages contribute nothing, the rest of
			// the document still counts.
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
