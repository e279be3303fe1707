package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/careerpath/careerpath-backend/internal/document/domain"
	"github.com/careerpath/careerpath-backend/pkg/database"
	"github.com/careerpath/careerpath-backend/pkg/errors"
)

// DocumentRepository handles document persistence
type DocumentRepository struct {
	db *database.DB
}

func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts an uploaded document with its extracted content.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusUploaded
	}
	if doc.DocumentType == "" {
		doc.DocumentType = domain.DocumentTypeOther
	}

	query := `
		INSERT INTO documents (
			id, user_id, filename, file_type, document_type, file_size,
			storage_key, status, error_message, raw_text, structured_data,
			extraction_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		doc.ID, doc.UserID, doc.Filename, doc.FileType, doc.DocumentType, doc.FileSize,
		doc.StorageKey, doc.Status, doc.ErrorMessage, doc.RawText, doc.StructuredData,
		doc.ExtractionMethod,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return database.MapPQError(err)
	}
	return nil
}

// GetByID gets a document by ID.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	query := `
		SELECT id, user_id, filename, file_type, document_type, file_size,
		       storage_key, status, error_message, raw_text, structured_data,
		       extraction_method, created_at, updated_at
		FROM documents
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &doc, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("document")
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByUser lists a user's documents, newest first.
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string, page, perPage int) ([]*domain.Document, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM documents WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	var docs []*domain.Document
	query := `
		SELECT id, user_id, filename, file_type, document_type, file_size,
		       storage_key, status, error_message, raw_text, structured_data,
		       extraction_method, created_at, updated_at
		FROM documents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &docs, query, userID, perPage, offset); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Delete removes a document row. Analyses referencing it cascade in
// the schema.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return database.MapPQError(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return errors.NotFound("document")
	}
	return nil
}
