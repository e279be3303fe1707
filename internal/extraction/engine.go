package extraction

import "context"

// Engine extracts text from a document, one string per page.
//
// A per-page failure is reported as an empty string for that page so
// that the remaining pages still contribute; an engine-level error
// means the engine could not open the document at all.
type Engine interface {
	// Name identifies the engine in logs and in the recorded
	// extraction method.
	Name() string

	// ExtractPages returns the text of each page in order.
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}
