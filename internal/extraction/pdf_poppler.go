package extraction

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// PopplerEngine shells out to pdftotext as the last text-layer engine
// in the chain. pdftotext separates pages with a form feed, which is
// how the output is split back into pages.
type PopplerEngine struct {
	runner Runner
	binary string
}

func NewPopplerEngine(runner Runner) *PopplerEngine {
	return &PopplerEngine{runner: runner, binary: "pdftotext"}
}

func (e *PopplerEngine) Name() string {
	return "poppler"
}

func (e *PopplerEngine) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "extract-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("poppler: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("poppler: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("poppler: close temp file: %w", err)
	}

	stdout, stderr, err := e.runner.Run(ctx, e.binary, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("poppler: pdftotext: %w: %s", err, strings.TrimSpace(string(stderr)))
	}

	pages := strings.Split(string(stdout), "\f")
	// pdftotext emits a trailing form feed after the last page.
	if len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages, nil
}
