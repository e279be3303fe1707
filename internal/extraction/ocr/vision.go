package ocr

import (
	"context"

	"github.com/careerpath/careerpath-backend/internal/llm"
)

// visionPrompt asks the model for a verbatim transcription of a
// scanned Japanese resume page, keeping the original layout.
const visionPrompt = `この画像は日本語の職務経歴書または履歴書のスキャンです。
画像内のすべてのテキストを正確に読み取って、元のフォーマットを保持しながらテキストとして出力してください。
表形式のデータは適切に整形してください。`

// ChatCompleter is the slice of the llm client the vision recognizer
// needs.
type ChatCompleter interface {
	Complete(ctx context.Context, model string, messages []llm.Message) (string, error)
}

// VisionRecognizer transcribes a page through a vision-capable chat
// model. It backs up tesseract when local OCR finds nothing.
type VisionRecognizer struct {
	client ChatCompleter
	model  string
}

func NewVisionRecognizer(client ChatCompleter, model string) *VisionRecognizer {
	return &VisionRecognizer{client: client, model: model}
}

func (r *VisionRecognizer) Name() string {
	return "vision"
}

func (r *VisionRecognizer) RecognizePage(ctx context.Context, pagePNG []byte) (string, error) {
	return r.client.Complete(ctx, r.model, []llm.Message{
		{
			Role:      "user",
			Content:   visionPrompt,
			ImagePNGs: [][]byte{pagePNG},
		},
	})
}
