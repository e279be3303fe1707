package domain

import (
	"strings"
	"time"
)

// DocumentType is the detected category of an uploaded document
type DocumentType string

const (
	DocumentTypeResume     DocumentType = "resume"      // 履歴書
	DocumentTypeCV         DocumentType = "cv"          // 職務経歴書
	DocumentTypeSkillSheet DocumentType = "skill_sheet" // スキルシート
	DocumentTypeOther      DocumentType = "other"
)

// DocumentStatus tracks the upload-time processing state of a document
type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// File types the extraction chain accepts
const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
	FileTypeDOC  = "doc"
)

// NormalizeFileType lowercases and strips a leading dot from a declared
// file type or extension.
func NormalizeFileType(fileType string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileType), "."))
}

// IsSupportedFileType reports whether the extraction chain handles the
// declared file type.
func IsSupportedFileType(fileType string) bool {
	switch NormalizeFileType(fileType) {
	case FileTypePDF, FileTypeDOCX, FileTypeDOC:
		return true
	default:
		return false
	}
}

// IsWordProcessor reports whether the declared type is a word-processor
// document (single-engine extraction, no fallback chain).
func IsWordProcessor(fileType string) bool {
	switch NormalizeFileType(fileType) {
	case FileTypeDOCX, FileTypeDOC:
		return true
	default:
		return false
	}
}

// Document is the persisted record of an uploaded document.
type Document struct {
	ID           string         `db:"id" json:"id"`
	UserID       string         `db:"user_id" json:"user_id"`
	Filename     string         `db:"filename" json:"filename"`
	FileType     string         `db:"file_type" json:"file_type"`
	DocumentType DocumentType   `db:"document_type" json:"document_type"`
	FileSize     int64          `db:"file_size" json:"file_size"`
	StorageKey   string         `db:"storage_key" json:"-"`
	Status       DocumentStatus `db:"status" json:"status"`
	ErrorMessage *string        `db:"error_message" json:"error_message,omitempty"`
	RawText      *string        `db:"raw_text" json:"-"`
	// StructuredData holds the best-effort structural parse as JSON.
	StructuredData   []byte    `db:"structured_data" json:"structured_data,omitempty"`
	ExtractionMethod *string   `db:"extraction_method" json:"extraction_method,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
