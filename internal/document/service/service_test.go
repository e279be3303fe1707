package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerpath/careerpath-backend/internal/document/domain"
	"github.com/careerpath/careerpath-backend/internal/extraction"
	"github.com/careerpath/careerpath-backend/pkg/errors"
	"github.com/careerpath/careerpath-backend/pkg/logger"
	"github.com/careerpath/careerpath-backend/pkg/messaging"
	"github.com/careerpath/careerpath-backend/pkg/objstore"
	"github.com/careerpath/careerpath-backend/pkg/testutil"
)

type fakeStore struct {
	docs      map[string]*domain.Document
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*domain.Document)}
}

func (f *fakeStore) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	if doc.ID == "" {
		doc.ID = "doc-1"
	}
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.NotFound("document")
	}
	return doc, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string, _, _ int) ([]*domain.Document, int64, error) {
	var out []*domain.Document
	for _, doc := range f.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return errors.NotFound("document")
	}
	delete(f.docs, id)
	return nil
}

type fakeExtractor struct {
	result extraction.Result
	err    error
}

func (f *fakeExtractor) Extract(_ context.Context, _ []byte, _ string) (extraction.Result, error) {
	return f.result, f.err
}

func newService(store *fakeStore, ext *fakeExtractor, storage objstore.Store, events *testutil.MockPublisher) *DocumentService {
	return NewDocumentService(store, ext, storage, events, 10, logger.Nop())
}

func TestUpload_HappyPath(t *testing.T) {
	store := newFakeStore()
	ext := &fakeExtractor{result: extraction.Result{Text: "職務経歴書\nプロジェクト経験", Method: "mupdf"}}
	storage := objstore.NewMemoryStore()
	events := testutil.NewMockPublisher()
	svc := newService(store, ext, storage, events)

	doc, err := svc.Upload(context.Background(), "user-1", "keireki.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "user-1", doc.UserID)
	assert.Equal(t, "pdf", doc.FileType)
	assert.Equal(t, domain.DocumentTypeCV, doc.DocumentType)
	assert.Equal(t, domain.DocumentStatusProcessed, doc.Status)
	require.NotNil(t, doc.RawText)
	assert.Equal(t, "職務経歴書\nプロジェクト経験", *doc.RawText)
	require.NotNil(t, doc.ExtractionMethod)
	assert.Equal(t, "mupdf", *doc.ExtractionMethod)

	stored, err := storage.Get(context.Background(), doc.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), stored)

	events.AssertEventPublished(t, messaging.EventDocumentUploaded)
}

func TestUpload_UnsupportedFileType(t *testing.T) {
	svc := newService(newFakeStore(), &fakeExtractor{}, objstore.NewMemoryStore(), testutil.NewMockPublisher())

	_, err := svc.Upload(context.Background(), "user-1", "resume.txt", []byte("plain text"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedType)
}

func TestUpload_FileTooLarge(t *testing.T) {
	svc := newService(newFakeStore(), &fakeExtractor{}, objstore.NewMemoryStore(), testutil.NewMockPublisher())

	_, err := svc.Upload(context.Background(), "user-1", "big.pdf", make([]byte, 11<<20))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBadRequest)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, "errors.file_too_large", appErr.MessageKey)
	assert.Equal(t, "10", appErr.Params["max_mb"])
}

func TestUpload_EmptyFile(t *testing.T) {
	svc := newService(newFakeStore(), &fakeExtractor{}, objstore.NewMemoryStore(), testutil.NewMockPublisher())

	_, err := svc.Upload(context.Background(), "user-1", "empty.pdf", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBadRequest)
}

func TestUpload_ExtractionErrorSurfaces(t *testing.T) {
	ext := &fakeExtractor{err: errors.NoTextInDocument()}
	storage := objstore.NewMemoryStore()
	svc := newService(newFakeStore(), ext, storage, testutil.NewMockPublisher())

	_, err := svc.Upload(context.Background(), "user-1", "scan.pdf", []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrExtractionFailed)

	// Nothing gets stored when extraction never produced text.
	_, getErr := storage.Get(context.Background(), "documents/user-1")
	assert.Error(t, getErr)
}

func TestUpload_ResumeGetsStructuredData(t *testing.T) {
	text := "履歴書\n氏名: 山田太郎\n学歴\n2010年 東京大学 卒業\n職歴\n2012年 株式会社ABC 入社"
	ext := &fakeExtractor{result: extraction.Result{Text: text, Method: "pdflib"}}
	svc := newService(newFakeStore(), ext, objstore.NewMemoryStore(), testutil.NewMockPublisher())

	doc, err := svc.Upload(context.Background(), "user-1", "rirekisho.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, domain.DocumentTypeResume, doc.DocumentType)
	require.NotEmpty(t, doc.StructuredData)

	var parsed extraction.ParsedResume
	require.NoError(t, json.Unmarshal(doc.StructuredData, &parsed))
	assert.Contains(t, parsed.Education, "2010年 東京大学 卒業")
	assert.Contains(t, parsed.WorkHistory, "2012年 株式会社ABC 入社")
}

func TestUpload_StorageCleanedUpOnCreateFailure(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.Internal("database unavailable")
	ext := &fakeExtractor{result: extraction.Result{Text: "some text", Method: "mupdf"}}
	storage := objstore.NewMemoryStore()
	events := testutil.NewMockPublisher()
	svc := newService(store, ext, storage, events)

	_, err := svc.Upload(context.Background(), "user-1", "doc.pdf", []byte("%PDF-1.4"))
	require.Error(t, err)

	assert.Empty(t, events.PublishedEvents)
	assert.Equal(t, 0, storage.Len())
}

func TestGet_ForeignDocumentHidden(t *testing.T) {
	store := newFakeStore()
	store.docs["doc-1"] = &domain.Document{ID: "doc-1", UserID: "someone-else"}
	svc := newService(store, &fakeExtractor{}, objstore.NewMemoryStore(), testutil.NewMockPublisher())

	_, err := svc.Get(context.Background(), "user-1", "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestDelete_RemovesRecordAndFile(t *testing.T) {
	store := newFakeStore()
	storage := objstore.NewMemoryStore()
	require.NoError(t, storage.Put(context.Background(), "documents/user-1/a.pdf", []byte("data"), "application/pdf"))
	store.docs["doc-1"] = &domain.Document{ID: "doc-1", UserID: "user-1", StorageKey: "documents/user-1/a.pdf"}
	svc := newService(store, &fakeExtractor{}, storage, testutil.NewMockPublisher())

	require.NoError(t, svc.Delete(context.Background(), "user-1", "doc-1"))

	assert.Empty(t, store.docs)
	assert.Equal(t, 0, storage.Len())
}

func TestDownload_ReturnsOriginalBytes(t *testing.T) {
	store := newFakeStore()
	storage := objstore.NewMemoryStore()
	require.NoError(t, storage.Put(context.Background(), "documents/user-1/a.pdf", []byte("%PDF-1.4 original"), "application/pdf"))
	store.docs["doc-1"] = &domain.Document{ID: "doc-1", UserID: "user-1", Filename: "a.pdf", FileType: "pdf", StorageKey: "documents/user-1/a.pdf"}
	svc := newService(store, &fakeExtractor{}, storage, testutil.NewMockPublisher())

	doc, data, err := svc.Download(context.Background(), "user-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", doc.Filename)
	assert.Equal(t, []byte("%PDF-1.4 original"), data)
}
