package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/careerpath/careerpath-backend/internal/analysis/domain"
	"github.com/careerpath/careerpath-backend/internal/llm"
	apperrors "github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/retry"
)

// ChatCompleter is the slice of the llm client the orchestrator needs.
type ChatCompleter interface {
	Complete(ctx context.Context, model string, messages []llm.Message) (string, error)
}

// Orchestrator runs one full model call per analysis: build the
// prompt, call the model, carve the JSON out of the answer. The whole
// call is retried as a unit so a malformed answer gets a fresh
// completion, not a re-parse.
type Orchestrator struct {
	client ChatCompleter
	model  string
	policy retry.Policy
	log    *logger.Logger
}

func New(client ChatCompleter, model string, policy retry.Policy, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		client: client,
		model:  model,
		policy: policy,
		log:    log.WithComponent("orchestrator"),
	}
}

// Analyze sends the document text to the model and returns the parsed
// result together with the raw JSON the model produced.
func (o *Orchestrator) Analyze(ctx context.Context, resumeText, documentType string) (*domain.AnalysisResult, []byte, error) {
	prompt := buildAnalysisPrompt(resumeText, documentType)

	var result *domain.AnalysisResult
	var raw []byte

	err := retry.Do(ctx, o.policy, o.log, "analyze", func() error {
		answer, err := o.client.Complete(ctx, o.model, []llm.Message{
			{Role: "user", Content: prompt},
		})
		if err != nil {
			return err
		}
		if strings.TrimSpace(answer) == "" {
			return apperrors.MalformedResponse(fmt.Errorf("empty model response"))
		}

		parsed, rawJSON, err := parseAnalysisResponse(answer)
		if err != nil {
			o.log.Warn().Err(err).Int("answer_len", len(answer)).Msg("unparseable model response")
			return err
		}
		result = parsed
		raw = rawJSON
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, raw, nil
}

// parseAnalysisResponse extracts the JSON object from the model's
// answer. Models wrap JSON in prose or code fences often enough that
// it is carved out positionally, from the first '{' to the last '}'.
func parseAnalysisResponse(answer string) (*domain.AnalysisResult, []byte, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start == -1 || end == -1 || end < start {
		return nil, nil, apperrors.MalformedResponse(fmt.Errorf("no JSON object in response"))
	}

	rawJSON := []byte(answer[start : end+1])
	var result domain.AnalysisResult
	if err := json.Unmarshal(rawJSON, &result); err != nil {
		return nil, nil, apperrors.MalformedResponse(fmt.Errorf("invalid JSON: %w", err))
	}
	return &result, rawJSON, nil
}
