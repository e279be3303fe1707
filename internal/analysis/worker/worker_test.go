package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerpath/careerpath-backend/internal/analysis/domain"
	docdomain "github.com/careerpath/careerpath-backend/internal/document/domain"
	apperrors "github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/messaging"
	"github.com/careerpath/careerpath-backend/pkg/testutil"
)

type fakeStore struct {
	job          *domain.AnalysisJob
	claimErr     error
	completeErr  error
	claimed      bool
	completed    *domain.AnalysisJob
	completedRec []*domain.CareerRecommendation
	failedMsg    string
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.AnalysisJob, error) {
	if s.job == nil {
		return nil, apperrors.NotFound("analysis")
	}
	return s.job, nil
}

func (s *fakeStore) ClaimForProcessing(_ context.Context, id string) error {
	if s.claimErr != nil {
		return s.claimErr
	}
	s.claimed = true
	return nil
}

func (s *fakeStore) CompleteWithRecommendations(_ context.Context, job *domain.AnalysisJob, recs []*domain.CareerRecommendation) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed = job
	s.completedRec = recs
	return nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id, msg string) error {
	s.failedMsg = msg
	return nil
}

type fakeDocs struct {
	doc *docdomain.Document
}

func (d *fakeDocs) GetByID(_ context.Context, id string) (*docdomain.Document, error) {
	if d.doc == nil {
		return nil, apperrors.NotFound("document")
	}
	return d.doc, nil
}

type fakeAnalyzer struct {
	result *domain.AnalysisResult
	raw    []byte
	err    error
	calls  int
}

func (a *fakeAnalyzer) Analyze(_ context.Context, resumeText, documentType string) (*domain.AnalysisResult, []byte, error) {
	a.calls++
	if a.err != nil {
		return nil, nil, a.err
	}
	return a.result, a.raw, nil
}

func ptr[T any](v T) *T { return &v }

func testDocument() *docdomain.Document {
	return &docdomain.Document{
		ID:           "doc-1",
		DocumentType: docdomain.DocumentTypeCV,
		RawText:      ptr("職務経歴書の本文"),
	}
}

func testResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ExtractedSkills: []string{"Go"},
		CareerPaths: []domain.CareerPath{
			{
				Type:                 "corporate",
				Title:                "バックエンドエンジニア",
				Description:          "説明",
				SkillGaps:            []string{"Kubernetes", "AWS"},
				SkillMatchPercentage: ptr(80.0),
				ConfidenceScore:      ptr(0.9),
			},
			{
				Type:        "freelance",
				Title:       "受託開発",
				Description: "説明",
				SkillGaps:   []string{"営業", "AWS"},
			},
		},
	}
}

func TestWorker_Process_HappyPath(t *testing.T) {
	store := &fakeStore{job: &domain.AnalysisJob{ID: "analysis-1", DocumentID: "doc-1", UserID: "user-1"}}
	docs := &fakeDocs{doc: testDocument()}
	analyzer := &fakeAnalyzer{result: testResult(), raw: []byte(`{"career_paths":[]}`)}
	pub := testutil.NewMockPublisher()

	w := New(store, docs, analyzer, pub, logger.Nop())
	err := w.Process(context.Background(), "analysis-1")

	require.NoError(t, err)
	assert.True(t, store.claimed)
	require.NotNil(t, store.completed)
	require.Len(t, store.completedRec, 2)

	// Gap union is deduplicated and sorted.
	assert.Equal(t, domain.StringList{"AWS", "Kubernetes", "営業"}, store.completed.SkillGaps)
	require.NotNil(t, store.completed.ProcessingTime)
	assert.GreaterOrEqual(t, *store.completed.ProcessingTime, 0.0)

	// Defaults applied where the model omitted scores.
	assert.Equal(t, 80.0, store.completedRec[0].SkillMatchPercentage)
	assert.Equal(t, 0.0, store.completedRec[1].SkillMatchPercentage)
	assert.Equal(t, 0.5, store.completedRec[1].ConfidenceScore)

	pub.AssertEventPublished(t, messaging.EventAnalysisCompleted)
}

func TestWorker_Process_AlreadyClaimedIsNoOp(t *testing.T) {
	store := &fakeStore{claimErr: apperrors.PersistenceConflict("analysis-1")}
	analyzer := &fakeAnalyzer{}

	w := New(store, &fakeDocs{}, analyzer, testutil.NewMockPublisher(), logger.Nop())
	err := w.Process(context.Background(), "analysis-1")

	require.NoError(t, err)
	assert.Equal(t, 0, analyzer.calls)
}

func TestWorker_Process_MissingJobIsNoOp(t *testing.T) {
	store := &fakeStore{claimErr: apperrors.NotFound("analysis")}
	analyzer := &fakeAnalyzer{}

	w := New(store, &fakeDocs{}, analyzer, testutil.NewMockPublisher(), logger.Nop())
	err := w.Process(context.Background(), "analysis-1")

	require.NoError(t, err)
	assert.Equal(t, 0, analyzer.calls)
}

func TestWorker_Process_AnalyzerFailureMarksFailed(t *testing.T) {
	store := &fakeStore{job: &domain.AnalysisJob{ID: "analysis-1", DocumentID: "doc-1"}}
	docs := &fakeDocs{doc: testDocument()}
	analyzer := &fakeAnalyzer{err: apperrors.TransientBackend(errors.New("status 503"))}
	pub := testutil.NewMockPublisher()

	w := New(store, docs, analyzer, pub, logger.Nop())
	err := w.Process(context.Background(), "analysis-1")

	require.Error(t, err)
	assert.Contains(t, store.failedMsg, "analyze document")
	pub.AssertEventPublished(t, messaging.EventAnalysisFailed)
}

func TestWorker_Process_DocumentWithoutTextFails(t *testing.T) {
	store := &fakeStore{job: &domain.AnalysisJob{ID: "analysis-1", DocumentID: "doc-1"}}
	docs := &fakeDocs{doc: &docdomain.Document{ID: "doc-1", RawText: ptr("   ")}}
	analyzer := &fakeAnalyzer{}

	w := New(store, docs, analyzer, testutil.NewMockPublisher(), logger.Nop())
	err := w.Process(context.Background(), "analysis-1")

	require.Error(t, err)
	assert.Equal(t, 0, analyzer.calls)
	assert.Contains(t, store.failedMsg, "no extracted text")
}

func TestWorker_Process_PersistFailureMarksFailed(t *testing.T) {
	store := &fakeStore{
		job:         &domain.AnalysisJob{ID: "analysis-1", DocumentID: "doc-1"},
		completeErr: errors.New("connection reset"),
	}
	docs := &fakeDocs{doc: testDocument()}
	analyzer := &fakeAnalyzer{result: testResult(), raw: []byte(`{}`)}

	w := New(store, docs, analyzer, testutil.NewMockPublisher(), logger.Nop())
	err := w.Process(context.Background(), "analysis-1")

	require.Error(t, err)
	assert.Contains(t, store.failedMsg, "persist results")
}

func TestBuildRecommendations_SkipsUnknownCareerType(t *testing.T) {
	result := &domain.AnalysisResult{
		CareerPaths: []domain.CareerPath{
			{Type: "corporate", Title: "t", Description: "d", SkillGaps: []string{"A"}},
			{Type: "consultant", Title: "t2", Description: "d2", SkillGaps: []string{"B"}},
		},
	}

	recs, gaps := buildRecommendations(logger.Nop(), "analysis-1", result)

	require.Len(t, recs, 1)
	assert.Equal(t, domain.CareerTypeCorporate, recs[0].CareerType)
	// Gaps from skipped paths still count toward the union.
	assert.Equal(t, domain.StringList{"A", "B"}, gaps)
}

func TestBuildRecommendations_SalaryAndDemand(t *testing.T) {
	result := &domain.AnalysisResult{
		CareerPaths: []domain.CareerPath{
			{
				Type:         "entrepreneurship",
				Title:        "起業",
				Description:  "d",
				SalaryRange:  &domain.SalaryRange{Min: ptr(4000000), Max: ptr(12000000)},
				MarketDemand: "medium",
			},
		},
	}

	recs, _ := buildRecommendations(logger.Nop(), "analysis-1", result)

	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].SalaryRangeMin)
	assert.Equal(t, 4000000, *recs[0].SalaryRangeMin)
	require.NotNil(t, recs[0].MarketDemand)
	assert.Equal(t, "medium", *recs[0].MarketDemand)
}
