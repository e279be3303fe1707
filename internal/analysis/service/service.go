package service

import (
	"context"
	"strings"

	"github.com/careerpath/careerpath-backend/internal/analysis/domain"
	docdomain "github.com/careerpath/careerpath-backend/internal/document/domain"
	"github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/messaging"
)

// AnalysisStore is the persistence surface the service needs.
type AnalysisStore interface {
	Create(ctx context.Context, job *domain.AnalysisJob) error
	GetByID(ctx context.Context, id string) (*domain.AnalysisJob, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]*domain.AnalysisJob, int64, error)
	GetRecommendations(ctx context.Context, analysisID string) ([]*domain.CareerRecommendation, error)
}

// DocumentStore resolves documents for ownership and text checks.
type DocumentStore interface {
	GetByID(ctx context.Context, id string) (*docdomain.Document, error)
}

// EventPublisher queues work for the analysis worker.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// AnalysisService owns the request-side lifecycle of analysis jobs:
// creation, reads, and explicit retries. Processing itself happens in
// the worker.
type AnalysisService struct {
	jobs      AnalysisStore
	documents DocumentStore
	events    EventPublisher
	logger    *logger.Logger
}

func NewAnalysisService(jobs AnalysisStore, documents DocumentStore, events EventPublisher, log *logger.Logger) *AnalysisService {
	return &AnalysisService{
		jobs:      jobs,
		documents: documents,
		events:    events,
		logger:    log.WithComponent("analysis-service"),
	}
}

// AnalysisDetail is a job together with its recommendations.
type AnalysisDetail struct {
	*domain.AnalysisJob
	Recommendations []*domain.CareerRecommendation `json:"recommendations,omitempty"`
}

// Create validates the document and enqueues a new pending job.
func (s *AnalysisService) Create(ctx context.Context, userID, documentID string) (*domain.AnalysisJob, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		// Do not leak other users' document IDs.
		return nil, errors.NotFound("document")
	}
	if doc.RawText == nil || strings.TrimSpace(*doc.RawText) == "" {
		return nil, errors.BadRequest("document has no extracted text")
	}

	job := &domain.AnalysisJob{
		UserID:     userID,
		DocumentID: documentID,
		Status:     domain.StatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.events.Publish(ctx, messaging.EventAnalysisRequested, messaging.AnalysisRequestedEvent{
		AnalysisID: job.ID,
		DocumentID: documentID,
		UserID:     userID,
	}); err != nil {
		// The job row exists; a failed enqueue is recoverable via retry.
		s.logger.WithAnalysisID(job.ID).Error().Err(err).Msg("failed to enqueue analysis job")
	}

	s.logger.WithAnalysisID(job.ID).Info().
		Str("document_id", documentID).
		Msg("analysis job created")
	return job, nil
}

// Get returns a job, with recommendations once it completed.
func (s *AnalysisService) Get(ctx context.Context, userID, analysisID string) (*AnalysisDetail, error) {
	job, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}

	detail := &AnalysisDetail{AnalysisJob: job}
	if job.Status == domain.StatusCompleted {
		recs, err := s.jobs.GetRecommendations(ctx, analysisID)
		if err != nil {
			return nil, err
		}
		detail.Recommendations = recs
	}
	return detail, nil
}

// List returns a page of the user's jobs, newest first.
func (s *AnalysisService) List(ctx context.Context, userID string, page, perPage int) ([]*domain.AnalysisJob, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.jobs.ListByUser(ctx, userID, page, perPage)
}

// GetRecommendations returns the career paths of a completed job.
func (s *AnalysisService) GetRecommendations(ctx context.Context, userID, analysisID string) ([]*domain.CareerRecommendation, error) {
	job, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.StatusCompleted {
		return nil, errors.BadRequest("analysis is not completed yet")
	}
	return s.jobs.GetRecommendations(ctx, analysisID)
}

// Retry re-enqueues a failed job. The job stays failed until a worker
// claims it again; only failed jobs can be retried by hand.
func (s *AnalysisService) Retry(ctx context.Context, userID, analysisID string) (*domain.AnalysisJob, error) {
	job, err := s.getOwned(ctx, userID, analysisID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.StatusFailed {
		return nil, errors.Conflict("only failed analyses can be retried")
	}

	if err := s.events.Publish(ctx, messaging.EventAnalysisRetried, messaging.AnalysisRetriedEvent{
		AnalysisID: job.ID,
		Attempt:    job.RetryCount + 1,
	}); err != nil {
		return nil, errors.Internal("failed to enqueue retry")
	}

	s.logger.WithAnalysisID(job.ID).Info().
		Int("attempt", job.RetryCount+1).
		Msg("analysis retry requested")
	return job, nil
}

func (s *AnalysisService) getOwned(ctx context.Context, userID, analysisID string) (*domain.AnalysisJob, error) {
	job, err := s.jobs.GetByID(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, errors.NotFound("analysis")
	}
	return job, nil
}
