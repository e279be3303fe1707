package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/careerpath/careerpath-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL constraint violation to an AppError
// with meaningful messages. Any other error, driver failures and
// cancellations included, passes through unchanged so the original
// cause survives.
func MapPQError(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return err
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict("a record with these values already exists")

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return err
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: pending, processing, completed, failed",
		})

	case strings.Contains(constraint, "career_type_valid"):
		return errors.Validation(map[string]string{
			"career_type": "must be one of: corporate, freelance, entrepreneurship",
		})

	case strings.Contains(constraint, "skill_match_range"):
		return errors.Validation(map[string]string{
			"skill_match_percentage": "must be between 0 and 100",
		})

	case strings.Contains(constraint, "confidence_range"):
		return errors.Validation(map[string]string{
			"confidence_score": "must be between 0 and 1",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}
