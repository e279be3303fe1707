package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/careerpath/careerpath-backend/internal/extraction"
)

// TesseractRecognizer shells out to the tesseract CLI. It is the
// primary recognizer because it runs locally and costs nothing.
type TesseractRecognizer struct {
	runner extraction.Runner
	binary string
	lang   string
}

func NewTesseractRecognizer(runner extraction.Runner, binary, lang string) *TesseractRecognizer {
	if binary == "" {
		binary = "tesseract"
	}
	if lang == "" {
		lang = "jpn+eng"
	}
	return &TesseractRecognizer{runner: runner, binary: binary, lang: lang}
}

func (r *TesseractRecognizer) Name() string {
	return "tesseract"
}

func (r *TesseractRecognizer) RecognizePage(ctx context.Context, pagePNG []byte) (string, error) {
	tmp, err := os.CreateTemp("", "ocr-page-*.png")
	if err != nil {
		return "", fmt.Errorf("tesseract: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pagePNG); err != nil {
		tmp.Close()
		return "", fmt.Errorf("tesseract: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("tesseract: close temp file: %w", err)
	}

	stdout, stderr, err := r.runner.Run(ctx, r.binary, tmp.Name(), "stdout", "-l", r.lang)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(string(stderr)))
	}
	return string(stdout), nil
}
