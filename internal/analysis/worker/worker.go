package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/careerpath/careerpath-backend/internal/analysis/domain"
	docdomain "github.com/careerpath/careerpath-backend/internal/document/domain"
	apperrors "github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/messaging"
)

// AnalysisStore is the repository surface the worker drives the job
// state machine through.
type AnalysisStore interface {
	GetByID(ctx context.Context, id string) (*domain.AnalysisJob, error)
	ClaimForProcessing(ctx context.Context, id string) error
	CompleteWithRecommendations(ctx context.Context, job *domain.AnalysisJob, recs []*domain.CareerRecommendation) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
}

// DocumentStore resolves the document a job analyzes.
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (*docdomain.Document, error)
}

// Analyzer produces the career analysis for a document's text.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, documentType string) (*domain.AnalysisResult, []byte, error)
}

// EventPublisher emits lifecycle events after state transitions.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// Worker processes analysis jobs delivered over the message queue.
// Delivery is at-least-once, so every step tolerates seeing the same
// job twice: the claim is a conditional update and completion replaces
// earlier results instead of appending to them.
type Worker struct {
	jobs      AnalysisStore
	documents DocumentStore
	analyzer  Analyzer
	events    EventPublisher
	logger    *logger.Logger
}

func New(jobs AnalysisStore, documents DocumentStore, analyzer Analyzer, events EventPublisher, log *logger.Logger) *Worker {
	return &Worker{
		jobs:      jobs,
		documents: documents,
		analyzer:  analyzer,
		events:    events,
		logger:    log.WithComponent("analysis-worker"),
	}
}

// Process runs one job end to end. A nil return acknowledges the
// delivery; an error hands the decision back to the consumer's retry
// budget.
func (w *Worker) Process(ctx context.Context, analysisID string) error {
	log := w.logger.WithAnalysisID(analysisID)

	if err := w.jobs.ClaimForProcessing(ctx, analysisID); err != nil {
		if errors.Is(err, apperrors.ErrPersistenceConflict) {
			log.Info().Msg("job already claimed or finished, dropping delivery")
			return nil
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Msg("job no longer exists, dropping delivery")
			return nil
		}
		return fmt.Errorf("claim job: %w", err)
	}

	start := time.Now()

	job, err := w.jobs.GetByID(ctx, analysisID)
	if err != nil {
		return w.fail(ctx, analysisID, fmt.Errorf("load job: %w", err))
	}

	doc, err := w.documents.GetByID(ctx, job.DocumentID)
	if err != nil {
		return w.fail(ctx, analysisID, fmt.Errorf("load document %s: %w", job.DocumentID, err))
	}
	if doc.RawText == nil || strings.TrimSpace(*doc.RawText) == "" {
		return w.fail(ctx, analysisID, fmt.Errorf("document %s has no extracted text", doc.ID))
	}

	result, raw, err := w.analyzer.Analyze(ctx, *doc.RawText, string(doc.DocumentType))
	if err != nil {
		return w.fail(ctx, analysisID, fmt.Errorf("analyze document: %w", err))
	}

	recs, skillGaps := buildRecommendations(log, analysisID, result)

	elapsed := time.Since(start).Seconds()
	job.ProcessingTime = &elapsed
	job.SkillGaps = skillGaps
	job.RawResponse = raw

	if err := w.jobs.CompleteWithRecommendations(ctx, job, recs); err != nil {
		return w.fail(ctx, analysisID, fmt.Errorf("persist results: %w", err))
	}

	log.Info().
		Float64("processing_time", elapsed).
		Int("recommendations", len(recs)).
		Msg("analysis completed")

	w.publish(ctx, messaging.EventAnalysisCompleted, messaging.AnalysisCompletedEvent{
		AnalysisID:            analysisID,
		DocumentID:            job.DocumentID,
		ProcessingTimeSeconds: elapsed,
		RecommendationCount:   len(recs),
	})
	return nil
}

// fail records the error on the job and reports it so the consumer's
// retry budget decides whether the delivery comes back.
func (w *Worker) fail(ctx context.Context, analysisID string, cause error) error {
	w.logger.WithAnalysisID(analysisID).Error().Err(cause).Msg("analysis failed")

	if err := w.jobs.MarkFailed(ctx, analysisID, cause.Error()); err != nil {
		w.logger.WithAnalysisID(analysisID).Error().Err(err).Msg("failed to record job failure")
	}

	w.publish(ctx, messaging.EventAnalysisFailed, messaging.AnalysisFailedEvent{
		AnalysisID: analysisID,
		Error:      cause.Error(),
	})
	return cause
}

func (w *Worker) publish(ctx context.Context, eventType string, data interface{}) {
	if w.events == nil {
		return
	}
	if err := w.events.Publish(ctx, eventType, data); err != nil {
		w.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

// buildRecommendations turns the model's career paths into persistable
// recommendations and unions the skill gaps across every path. Paths
// with an unknown type are skipped rather than failing the job.
func buildRecommendations(log *logger.Logger, analysisID string, result *domain.AnalysisResult) ([]*domain.CareerRecommendation, domain.StringList) {
	gapSet := make(map[string]struct{})
	recs := make([]*domain.CareerRecommendation, 0, len(result.CareerPaths))

	for _, path := range result.CareerPaths {
		for _, gap := range path.SkillGaps {
			gapSet[gap] = struct{}{}
		}

		if !domain.ValidCareerType(path.Type) {
			log.Warn().Str("career_type", path.Type).Msg("skipping path with unknown career type")
			continue
		}

		rec := &domain.CareerRecommendation{
			AnalysisID:           analysisID,
			CareerType:           domain.CareerType(path.Type),
			Title:                path.Title,
			Description:          path.Description,
			RequiredSkills:       path.RequiredSkills,
			SkillMatchPercentage: path.MatchPercentage(),
			SkillGaps:            path.SkillGaps,
			NextSteps:            path.NextSteps,
			ConfidenceScore:      path.Confidence(),
		}
		if path.SalaryRange != nil {
			rec.SalaryRangeMin = path.SalaryRange.Min
			rec.SalaryRangeMax = path.SalaryRange.Max
		}
		if path.MarketDemand != "" {
			demand := path.MarketDemand
			rec.MarketDemand = &demand
		}
		recs = append(recs, rec)
	}

	gaps := make(domain.StringList, 0, len(gapSet))
	for gap := range gapSet {
		gaps = append(gaps, gap)
	}
	sort.Strings(gaps)
	return recs, gaps
}
