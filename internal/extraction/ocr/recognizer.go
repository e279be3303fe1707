package ocr

import "context"

// Recognizer turns a rendered page image into text. An empty result
// means the recognizer saw nothing usable on the page.
type Recognizer interface {
	Name() string
	RecognizePage(ctx context.Context, pagePNG []byte) (string, error)
}
