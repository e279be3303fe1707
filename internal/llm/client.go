package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/careerpath/careerpath-backend/pkg/config"
	apperrors "github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
)

// Client talks to an OpenAI-compatible chat completions endpoint. The
// analysis orchestrator uses it for text completions and the OCR
// fallback for vision transcription.
type Client struct {
	baseURL     string
	apiKey      string
	temperature float64
	httpClient  *http.Client
	log         *logger.Logger
}

func NewClient(cfg config.AnalysisConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		log:         log.WithComponent("llm"),
	}
}

// Message is a single chat turn. Images are attached alongside Content
// and marshalled as multi-part content when present.
type Message struct {
	Role      string
	Content   string
	ImagePNGs [][]byte
}

// Complete sends the messages to the given model and returns the text
// of the first choice. Network failures and retryable upstream status
// codes come back as a transient backend error.
func (c *Client) Complete(ctx context.Context, model string, messages []Message) (string, error) {
	start := time.Now()

	payload := map[string]any{
		"model":       model,
		"temperature": c.temperature,
		"messages":    encodeMessages(messages),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("model", model).Msg("chat request failed")
		return "", apperrors.TransientBackend(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.TransientBackend(err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.log.Warn().Int("status", resp.StatusCode).Str("model", model).Msg("retryable upstream status")
		return "", apperrors.TransientBackend(fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(string(raw), 512)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response")
	}

	c.log.Debug().
		Str("model", model).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("chat completion ok")
	return cc.Choices[0].Message.Content, nil
}

func encodeMessages(messages []Message) []map[string]any {
	out := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		if len(m.ImagePNGs) == 0 {
			out = append(out, map[string]any{"role": m.Role, "content": m.Content})
			continue
		}
		parts := []map[string]any{{"type": "text", "text": m.Content}}
		for _, img := range m.ImagePNGs {
			parts = append(parts, map[string]any{
				"type": "image_url",
				"image_url": map[string]any{
					"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
				},
			})
		}
		out = append(out, map[string]any{"role": m.Role, "content": parts})
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
