package service

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/careerpath/careerpath-backend/internal/document/domain"
	"github.com/careerpath/careerpath-backend/internal/extraction"
	"github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/messaging"
	"github.com/careerpath/careerpath-backend/pkg/objstore"
)

// DocumentStore is the persistence surface the service needs.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListByUser(ctx context.Context, userID string, page, perPage int) ([]*domain.Document, int64, error)
	Delete(ctx context.Context, id string) error
}

// Extractor runs the text extraction chain.
type Extractor interface {
	Extract(ctx context.Context, data []byte, fileType string) (extraction.Result, error)
}

// EventPublisher emits document lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// DocumentService owns the upload pipeline: validate, extract,
// classify, store the original, persist the record.
type DocumentService struct {
	documents    DocumentStore
	extractor    Extractor
	storage      objstore.Store
	events       EventPublisher
	maxFileBytes int64
	logger       *logger.Logger
}

func NewDocumentService(documents DocumentStore, extractor Extractor, storage objstore.Store, events EventPublisher, maxFileSizeMB int, log *logger.Logger) *DocumentService {
	return &DocumentService{
		documents:    documents,
		extractor:    extractor,
		storage:      storage,
		events:       events,
		maxFileBytes: int64(maxFileSizeMB) << 20,
		logger:       log.WithComponent("document-service"),
	}
}

// Upload runs the full ingestion pipeline for one file and returns the
// stored document. Extraction failures surface to the uploader, the
// file is only stored once its text is out.
func (s *DocumentService) Upload(ctx context.Context, userID, filename string, data []byte) (*domain.Document, error) {
	fileType := domain.NormalizeFileType(filepath.Ext(filename))
	if !domain.IsSupportedFileType(fileType) {
		return nil, errors.UnsupportedFileType(fileType)
	}
	if int64(len(data)) > s.maxFileBytes {
		return nil, errors.FileTooLarge(int(s.maxFileBytes >> 20))
	}
	if len(data) == 0 {
		return nil, errors.BadRequest("empty file")
	}

	result, err := s.extractor.Extract(ctx, data, fileType)
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("extraction failed")
		return nil, err
	}

	docType := extraction.ClassifyDocument(result.Text, filename)

	storageKey := fmt.Sprintf("documents/%s/%s.%s", userID, uuid.New().String(), fileType)
	contentType := mime.TypeByExtension("." + fileType)
	if err := s.storage.Put(ctx, storageKey, data, contentType); err != nil {
		return nil, fmt.Errorf("store original file: %w", err)
	}

	text := result.Text
	method := result.Method
	doc := &domain.Document{
		UserID:           userID,
		Filename:         filename,
		FileType:         fileType,
		DocumentType:     docType,
		FileSize:         int64(len(data)),
		StorageKey:       storageKey,
		Status:           domain.DocumentStatusProcessed,
		RawText:          &text,
		ExtractionMethod: &method,
	}

	if docType == domain.DocumentTypeResume {
		structured, err := json.Marshal(extraction.ParseResumeStructure(text))
		if err == nil {
			doc.StructuredData = structured
		}
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		// Roll the object back so storage does not accumulate
		// records the database never saw.
		if delErr := s.storage.Delete(ctx, storageKey); delErr != nil {
			s.logger.Error().Err(delErr).Str("storage_key", storageKey).Msg("failed to clean up stored file")
		}
		return nil, err
	}

	s.publish(ctx, messaging.EventDocumentUploaded, messaging.DocumentUploadedEvent{
		DocumentID:   doc.ID,
		UserID:       userID,
		Filename:     filename,
		FileType:     fileType,
		DocumentType: string(docType),
		TextLength:   len(text),
	})

	s.logger.WithDocumentID(doc.ID).Info().
		Str("document_type", string(docType)).
		Str("extraction_method", method).
		Int("text_length", len(text)).
		Msg("document uploaded")
	return doc, nil
}

// Get returns a document owned by the user.
func (s *DocumentService) Get(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, errors.NotFound("document")
	}
	return doc, nil
}

// List returns a page of the user's documents, newest first.
func (s *DocumentService) List(ctx context.Context, userID string, page, perPage int) ([]*domain.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.documents.ListByUser(ctx, userID, page, perPage)
}

// Delete removes the document record and its stored file. A missing
// object in storage does not block the delete.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Warn().Err(err).Str("storage_key", doc.StorageKey).Msg("failed to delete stored file")
	}
	return s.documents.Delete(ctx, documentID)
}

// Download streams back the original uploaded file.
func (s *DocumentService) Download(ctx context.Context, userID, documentID string) (*domain.Document, []byte, error) {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.storage.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch stored file: %w", err)
	}
	return doc, data, nil
}

func (s *DocumentService) publish(ctx context.Context, eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, data); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}
