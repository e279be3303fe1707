package ocr

import (
	"context"
	"strings"

	"github.com/careerpath/careerpath-backend/pkg/logger"
)

// Escalator is the OCR fallback for scanned PDFs. It renders each page
// and runs the recognizers in order until one of them reads something.
// Recognition never fails the caller; when nothing can be read the
// result is an empty string.
type Escalator struct {
	recognizers []Recognizer
	dpi         float64
	maxPages    int
	log         *logger.Logger
}

func NewEscalator(recognizers []Recognizer, dpi float64, maxPages int, log *logger.Logger) *Escalator {
	if dpi <= 0 {
		dpi = 300
	}
	return &Escalator{
		recognizers: recognizers,
		dpi:         dpi,
		maxPages:    maxPages,
		log:         log.WithComponent("ocr"),
	}
}

// Recognize OCRs every page of the PDF and joins the page texts with a
// blank line. Pages no recognizer could read are skipped.
func (e *Escalator) Recognize(ctx context.Context, pdfData []byte) string {
	pages, err := RenderPages(pdfData, e.dpi, e.maxPages)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to rasterize pdf")
		return ""
	}
	if len(pages) == 0 {
		e.log.Error().Msg("no pages rendered from pdf")
		return ""
	}

	var texts []string
	for i, page := range pages {
		text := e.recognizePage(ctx, i+1, page)
		if strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
	}

	combined := strings.Join(texts, "\n\n")
	e.log.Info().
		Int("pages", len(pages)).
		Int("chars", len(combined)).
		Msg("ocr escalation finished")
	return combined
}

func (e *Escalator) recognizePage(ctx context.Context, pageNum int, pagePNG []byte) string {
	for _, rec := range e.recognizers {
		text, err := rec.RecognizePage(ctx, pagePNG)
		if err != nil {
			e.log.Warn().Err(err).
				Str("recognizer", rec.Name()).
				Int("page", pageNum).
				Msg("page recognition failed, trying next")
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text
		}
	}
	return ""
}
