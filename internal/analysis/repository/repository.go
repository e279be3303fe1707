package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerpath/careerpath-backend/internal/analysis/domain"
	"github.com/careerpath/careerpath-backend/pkg/database"
	"github.com/careerpath/careerpath-backend/pkg/errors"
)

// AnalysisRepository handles analysis job and recommendation persistence
type AnalysisRepository struct {
	db *database.DB
}

func NewAnalysisRepository(db *database.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// Create inserts a new analysis job in pending state.
func (r *AnalysisRepository) Create(ctx context.Context, job *domain.AnalysisJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = domain.StatusPending
	}

	query := `
		INSERT INTO analyses (id, user_id, document_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		job.ID, job.UserID, job.DocumentID, job.Status,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// GetByID gets an analysis job by ID.
func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*domain.AnalysisJob, error) {
	var job domain.AnalysisJob
	query := `
		SELECT id, user_id, document_id, status, error_message, processing_time,
		       retry_count, skill_gaps, raw_response, created_at, updated_at, completed_at
		FROM analyses
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &job, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("analysis")
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByUser lists a user's analysis jobs, newest first.
func (r *AnalysisRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]*domain.AnalysisJob, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM analyses WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	var jobs []*domain.AnalysisJob
	query := `
		SELECT id, user_id, document_id, status, error_message, processing_time,
		       retry_count, skill_gaps, raw_response, created_at, updated_at, completed_at
		FROM analyses
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &jobs, query, userID, perPage, offset); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// ClaimForProcessing moves a pending or failed job to processing. The
// status check lives in the UPDATE itself so two workers racing for
// the same delivery cannot both claim it. A lost race is reported as
// a conflict the caller treats as a no-op.
func (r *AnalysisRepository) ClaimForProcessing(ctx context.Context, id string) error {
	query := `
		UPDATE analyses
		SET status = $1, error_message = NULL, retry_count = retry_count + 1, updated_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
	`
	result, err := r.db.ExecContext(ctx, query,
		domain.StatusProcessing, id, domain.StatusPending, domain.StatusFailed,
	)
	if err != nil {
		return database.MapPQError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either the job does not exist or its status already moved on.
		var status domain.AnalysisStatus
		err := r.db.GetContext(ctx, &status, `SELECT status FROM analyses WHERE id = $1`, id)
		if err == sql.ErrNoRows {
			return errors.NotFound("analysis")
		}
		if err != nil {
			return err
		}
		return errors.PersistenceConflict(id)
	}
	return nil
}

// CompleteWithRecommendations finishes a job in one transaction:
// recommendations from any earlier run are replaced, never appended,
// so a redelivered job converges to a single result set.
func (r *AnalysisRepository) CompleteWithRecommendations(ctx context.Context, job *domain.AnalysisJob, recs []*domain.CareerRecommendation) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM career_recommendations WHERE analysis_id = $1`, job.ID,
		); err != nil {
			return err
		}

		insertQuery := `
			INSERT INTO career_recommendations (
				id, analysis_id, career_type, title, description,
				required_skills, skill_match_percentage, skill_gaps,
				salary_range_min, salary_range_max, market_demand,
				next_steps, confidence_score
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		for _, rec := range recs {
			if rec.ID == "" {
				rec.ID = uuid.New().String()
			}
			rec.AnalysisID = job.ID
			if _, err := tx.ExecContext(ctx, insertQuery,
				rec.ID, rec.AnalysisID, rec.CareerType, rec.Title, rec.Description,
				rec.RequiredSkills, rec.SkillMatchPercentage, rec.SkillGaps,
				rec.SalaryRangeMin, rec.SalaryRangeMax, rec.MarketDemand,
				rec.NextSteps, rec.ConfidenceScore,
			); err != nil {
				return database.MapPQError(err)
			}
		}

		updateQuery := `
			UPDATE analyses
			SET status = $1, processing_time = $2, skill_gaps = $3, raw_response = $4,
			    error_message = NULL, completed_at = NOW(), updated_at = NOW()
			WHERE id = $5
		`
		result, err := tx.ExecContext(ctx, updateQuery,
			domain.StatusCompleted, job.ProcessingTime, job.SkillGaps, job.RawResponse, job.ID,
		)
		if err != nil {
			return database.MapPQError(err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("analysis")
		}
		return nil
	})
}

// MarkFailed records the failure reason and releases the job for a
// later retry.
func (r *AnalysisRepository) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE analyses
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, domain.StatusFailed, errorMessage, id)
	if err != nil {
		return database.MapPQError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("analysis")
	}
	return nil
}

// GetRecommendations lists the recommendations of a completed job.
func (r *AnalysisRepository) GetRecommendations(ctx context.Context, analysisID string) ([]*domain.CareerRecommendation, error) {
	var recs []*domain.CareerRecommendation
	query := `
		SELECT id, analysis_id, career_type, title, description,
		       required_skills, skill_match_percentage, skill_gaps,
		       salary_range_min, salary_range_max, market_demand,
		       next_steps, confidence_score, created_at
		FROM career_recommendations
		WHERE analysis_id = $1
		ORDER BY skill_match_percentage DESC, career_type
	`
	if err := r.db.SelectContext(ctx, &recs, query, analysisID); err != nil {
		return nil, err
	}
	return recs, nil
}
