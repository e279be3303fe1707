package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerpath/careerpath-backend/internal/analysis/domain"
	"github.com/careerpath/careerpath-backend/internal/analysis/repository"
	apperrors "github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/testutil"
)

func TestAnalysisRepository_Create(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("INSERT INTO analyses").
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(now, now))

	repo := repository.NewAnalysisRepository(mockDB.DB)
	job := &domain.AnalysisJob{UserID: "user-1", DocumentID: "doc-1"}

	err := repo.Create(context.Background(), job)
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, now, job.CreatedAt)
	mockDB.ExpectationsWereMet(t)
}

func TestAnalysisRepository_ClaimForProcessing(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := repository.NewAnalysisRepository(mockDB.DB)
	err := repo.ClaimForProcessing(context.Background(), "analysis-1")

	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestAnalysisRepository_ClaimForProcessing_AlreadyClaimed(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT status FROM analyses").
		WillReturnRows(testutil.MockRows("status").AddRow("completed"))

	repo := repository.NewAnalysisRepository(mockDB.DB)
	err := repo.ClaimForProcessing(context.Background(), "analysis-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistenceConflict))
	mockDB.ExpectationsWereMet(t)
}

func TestAnalysisRepository_ClaimForProcessing_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("SELECT status FROM analyses").
		WillReturnRows(testutil.MockRows("status"))

	repo := repository.NewAnalysisRepository(mockDB.DB)
	err := repo.ClaimForProcessing(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestAnalysisRepository_CompleteWithRecommendations_ReplacesPriorRows(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM career_recommendations").
		WithArgs("analysis-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mockDB.ExpectExec("INSERT INTO career_recommendations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO career_recommendations").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	repo := repository.NewAnalysisRepository(mockDB.DB)
	processingTime := 12.5
	job := &domain.AnalysisJob{
		ID:             "analysis-1",
		ProcessingTime: &processingTime,
		SkillGaps:      domain.StringList{"Kubernetes"},
		RawResponse:    []byte(`{}`),
	}
	recs := []*domain.CareerRecommendation{
		{CareerType: domain.CareerTypeCorporate, Title: "エンジニア", Description: "説明", SkillMatchPercentage: 75, ConfidenceScore: 0.8},
		{CareerType: domain.CareerTypeFreelance, Title: "受託開発", Description: "説明", SkillMatchPercentage: 60, ConfidenceScore: 0.7},
	}

	err := repo.CompleteWithRecommendations(context.Background(), job, recs)
	require.NoError(t, err)

	assert.Equal(t, "analysis-1", recs[0].AnalysisID)
	assert.NotEmpty(t, recs[0].ID)
	mockDB.ExpectationsWereMet(t)
}

func TestAnalysisRepository_CompleteWithRecommendations_RollsBackOnFailure(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM career_recommendations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectExec("INSERT INTO career_recommendations").
		WillReturnError(errors.New("connection reset"))
	mockDB.ExpectRollback()

	repo := repository.NewAnalysisRepository(mockDB.DB)
	job := &domain.AnalysisJob{ID: "analysis-1"}
	recs := []*domain.CareerRecommendation{
		{CareerType: domain.CareerTypeCorporate, Title: "t", Description: "d"},
	}

	err := repo.CompleteWithRecommendations(context.Background(), job, recs)
	require.Error(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestAnalysisRepository_MarkFailed(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := repository.NewAnalysisRepository(mockDB.DB)
	err := repo.MarkFailed(context.Background(), "analysis-1", "model unavailable")

	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestAnalysisRepository_GetByID_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("SELECT").
		WillReturnRows(testutil.MockRows("id"))

	repo := repository.NewAnalysisRepository(mockDB.DB)
	_, err := repo.GetByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAnalysisRepository_MarkFailed_DriverErrorPassesThrough(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	cause := errors.New("driver: bad connection")
	mockDB.ExpectExec("UPDATE analyses").
		WillReturnError(cause)

	repo := repository.NewAnalysisRepository(mockDB.DB)
	err := repo.MarkFailed(context.Background(), "analysis-1", "model unavailable")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "driver: bad connection", err.Error())

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
}
