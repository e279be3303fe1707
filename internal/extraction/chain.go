package extraction

import (
	"context"
	"strings"

	"github.com/careerpath/careerpath-backend/internal/document/domain"
	apperrors "github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
)

// OCRFallback rasterizes a PDF and recognizes its pages when no text
// layer yields anything. It never fails; total recognition failure is
// an empty string.
type OCRFallback interface {
	Recognize(ctx context.Context, pdfData []byte) string
}

// MethodOCR is recorded as the extraction method when the escalation
// path produced the text.
const MethodOCR = "ocr"

// Result is the outcome of a successful extraction.
type Result struct {
	Text   string
	Method string
}

// Chain runs PDF engines in order and falls back to OCR when every
// engine produces a blank document. Word documents bypass the chain
// and go straight to the DOCX extractor.
type Chain struct {
	engines []Engine
	docx    *DocxExtractor
	ocr     OCRFallback
	log     *logger.Logger
}

func NewChain(engines []Engine, docx *DocxExtractor, ocr OCRFallback, log *logger.Logger) *Chain {
	return &Chain{
		engines: engines,
		docx:    docx,
		ocr:     ocr,
		log:     log.WithComponent("extraction"),
	}
}

// Extract dispatches on the declared file type and returns the first
// non-blank text any engine produces.
func (c *Chain) Extract(ctx context.Context, data []byte, fileType string) (Result, error) {
	normalized := domain.NormalizeFileType(fileType)
	switch {
	case normalized == domain.FileTypePDF:
		return c.extractPDF(ctx, data)
	case domain.IsWordProcessor(normalized):
		text, err := c.docx.Extract(ctx, data)
		if err != nil {
			c.log.Warn().Err(err).Msg("docx extraction failed")
			return Result{}, apperrors.UnreadableDocument()
		}
		if strings.TrimSpace(text) == "" {
			return Result{}, apperrors.NoTextInDocument()
		}
		return Result{Text: text, Method: c.docx.Name()}, nil
	default:
		return Result{}, apperrors.UnsupportedFileType(fileType)
	}
}

func (c *Chain) extractPDF(ctx context.Context, data []byte) (Result, error) {
	anySucceeded := false
	for _, engine := range c.engines {
		pages, err := engine.ExtractPages(ctx, data)
		if err != nil {
			c.log.Warn().Err(err).Str("engine", engine.Name()).Msg("pdf engine failed, trying next")
			continue
		}
		anySucceeded = true

		text := strings.Join(pages, "\n")
		if strings.TrimSpace(text) == "" {
			c.log.Debug().Str("engine", engine.Name()).Msg("pdf engine produced no text, trying next")
			continue
		}
		return Result{Text: text, Method: engine.Name()}, nil
	}

	if !anySucceeded {
		// Every engine refused to open the document.
		return Result{}, apperrors.UnreadableDocument()
	}

	// The document opened but carries no text layer, likely a scan.
	c.log.Info().Msg("no text layer found, escalating to ocr")
	if c.ocr != nil {
		if text := c.ocr.Recognize(ctx, data); strings.TrimSpace(text) != "" {
			return Result{Text: text, Method: MethodOCR}, nil
		}
	}
	return Result{}, apperrors.NoTextInDocument()
}
