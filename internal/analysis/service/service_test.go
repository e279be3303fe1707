package service

import (
	"context"
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

type fakeJobs struct {
	jobs map[string]*domain.AnalysisJob
	recs []*domain.CareerRecommendation
}

func (f *fakeJobs) Create(_ context.Context, job *domain.AnalysisJob) error {
	if job.ID == "" {
		job.ID = "generated-id"
	}
	if f.jobs == nil {
		f.jobs = map[string]*domain.AnalysisJob{}
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id string) (*domain.AnalysisJob, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, apperrors.NotFound("analysis")
	}
	return job, nil
}

func (f *fakeJobs) ListByUser(_ context.Context, userID string, page, perPage int) ([]*domain.AnalysisJob, int64, error) {
	var out []*domain.AnalysisJob
	for _, job := range f.jobs {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeJobs) GetRecommendations(_ context.Context, analysisID string) ([]*domain.CareerRecommendation, error) {
	return f.recs, nil
}

type fakeDocs struct {
	docs map[string]*docdomain.Document
}

func (f *fakeDocs) GetByID(_ context.Context, id string) (*docdomain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, apperrors.NotFound("document")
	}
	return doc, nil
}

func ptr[T any](v T) *T { return &v }

func newService(jobs *fakeJobs, docs *fakeDocs, pub *testutil.MockPublisher) *AnalysisService {
	return NewAnalysisService(jobs, docs, pub, logger.Nop())
}

func TestAnalysisService_Create(t *testing.T) {
	jobs := &fakeJobs{}
	docs := &fakeDocs{docs: map[string]*docdomain.Document{
		"doc-1": {ID: "doc-1", UserID: "user-1", RawText: ptr("本文")},
	}}
	pub := testutil.NewMockPublisher()

	svc := newService(jobs, docs, pub)
	job, err := svc.Create(context.Background(), "user-1", "doc-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, job.Status)
	pub.AssertEventPublished(t, messaging.EventAnalysisRequested)
}

func TestAnalysisService_Create_ForeignDocumentHidden(t *testing.T) {
	jobs := &fakeJobs{}
	docs := &fakeDocs{docs: map[string]*docdomain.Document{
		"doc-1": {ID: "doc-1", UserID: "someone-else", RawText: ptr("本文")},
	}}

	svc := newService(jobs, docs, testutil.NewMockPublisher())
	_, err := svc.Create(context.Background(), "user-1", "doc-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAnalysisService_Create_DocumentWithoutText(t *testing.T) {
	jobs := &fakeJobs{}
	docs := &fakeDocs{docs: map[string]*docdomain.Document{
		"doc-1": {ID: "doc-1", UserID: "user-1"},
	}}

	svc := newService(jobs, docs, testutil.NewMockPublisher())
	_, err := svc.Create(context.Background(), "user-1", "doc-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
}

func TestAnalysisService_Get_IncludesRecommendationsWhenCompleted(t *testing.T) {
	jobs := &fakeJobs{
		jobs: map[string]*domain.AnalysisJob{
			"a-1": {ID: "a-1", UserID: "user-1", Status: domain.StatusCompleted},
		},
		recs: []*domain.CareerRecommendation{{ID: "r-1", CareerType: domain.CareerTypeCorporate}},
	}

	svc := newService(jobs, &fakeDocs{}, testutil.NewMockPublisher())
	detail, err := svc.Get(context.Background(), "user-1", "a-1")

	require.NoError(t, err)
	require.Len(t, detail.Recommendations, 1)
}

func TestAnalysisService_Get_PendingHasNoRecommendations(t *testing.T) {
	jobs := &fakeJobs{
		jobs: map[string]*domain.AnalysisJob{
			"a-1": {ID: "a-1", UserID: "user-1", Status: domain.StatusPending},
		},
		recs: []*domain.CareerRecommendation{{ID: "r-1"}},
	}

	svc := newService(jobs, &fakeDocs{}, testutil.NewMockPublisher())
	detail, err := svc.Get(context.Background(), "user-1", "a-1")

	require.NoError(t, err)
	assert.Empty(t, detail.Recommendations)
}

func TestAnalysisService_Get_ForeignJobHidden(t *testing.T) {
	jobs := &fakeJobs{
		jobs: map[string]*domain.AnalysisJob{
			"a-1": {ID: "a-1", UserID: "someone-else"},
		},
	}

	svc := newService(jobs, &fakeDocs{}, testutil.NewMockPublisher())
	_, err := svc.Get(context.Background(), "user-1", "a-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAnalysisService_Retry_OnlyFailedJobs(t *testing.T) {
	for _, tc := range []struct {
		status  domain.AnalysisStatus
		wantErr bool
	}{
		{domain.StatusFailed, false},
		{domain.StatusPending, true},
		{domain.StatusProcessing, true},
		{domain.StatusCompleted, true},
	} {
		t.Run(string(tc.status), func(t *testing.T) {
			jobs := &fakeJobs{
				jobs: map[string]*domain.AnalysisJob{
					"a-1": {ID: "a-1", UserID: "user-1", Status: tc.status, RetryCount: 1},
				},
			}
			pub := testutil.NewMockPublisher()

			svc := newService(jobs, &fakeDocs{}, pub)
			_, err := svc.Retry(context.Background(), "user-1", "a-1")

			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
				assert.Empty(t, pub.PublishedEvents)
			} else {
				require.NoError(t, err)
				pub.AssertEventPublished(t, messaging.EventAnalysisRetried)
			}
		})
	}
}
