package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/careerpath/careerpath-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound   = errors.New("resource not found")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("resource conflict")
	ErrInternal   = errors.New("internal server error")
	ErrValidation = errors.New("validation error")

	// Document processing errors
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrExtractionFailed = errors.New("text extraction failed")

	// Analysis errors
	ErrMalformedResponse   = errors.New("malformed model response")
	ErrTransientBackend    = errors.New("transient backend error")
	ErrPersistenceConflict = errors.New("job already claimed or finished")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"` // Parameters for i18n interpolation
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns a localized version of the error message
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": resource},
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		MessageKey: "errors.bad_request",
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		MessageKey: "errors.conflict",
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// UnsupportedFileType reports a declared file type the extraction chain
// does not handle. Not retried, surfaced to the uploader immediately.
func UnsupportedFileType(fileType string) *AppError {
	return &AppError{
		Err:        ErrUnsupportedType,
		Code:       "UNSUPPORTED_FILE_TYPE",
		Message:    fmt.Sprintf("unsupported file type: %s", fileType),
		MessageKey: "errors.unsupported_file_type",
		Params:     map[string]string{"file_type": fileType},
		StatusCode: http.StatusBadRequest,
	}
}

// FileTooLarge reports an upload over the configured size cap.
func FileTooLarge(maxMB int) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "FILE_TOO_LARGE",
		Message:    fmt.Sprintf("file too large, maximum size is %dMB", maxMB),
		MessageKey: "errors.file_too_large",
		Params:     map[string]string{"max_mb": strconv.Itoa(maxMB)},
		StatusCode: http.StatusBadRequest,
	}
}

// NoTextInDocument is the extraction failure for documents where every
// engine and the OCR escalation came back empty: likely a scan with no
// recognizable text.
func NoTextInDocument() *AppError {
	return &AppError{
		Err:        ErrExtractionFailed,
		Code:       "NO_TEXT_IN_DOCUMENT",
		Message:    "no text could be extracted from the document; it may be a scanned image",
		MessageKey: "errors.no_text_in_document",
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// UnreadableDocument is the extraction failure for documents every
// engine rejected outright: likely corrupted or encrypted.
func UnreadableDocument() *AppError {
	return &AppError{
		Err:        ErrExtractionFailed,
		Code:       "UNREADABLE_DOCUMENT",
		Message:    "the document could not be read; it may be corrupted or encrypted",
		MessageKey: "errors.unreadable_document",
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// MalformedResponse reports an analysis backend reply that contained no
// parseable JSON object.
func MalformedResponse(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrMalformedResponse, err),
		Code:       "MALFORMED_RESPONSE",
		Message:    "analysis backend returned an unparseable response",
		StatusCode: http.StatusBadGateway,
	}
}

// TransientBackend reports a network or rate-limit failure on an
// external backend. Retried with backoff before surfacing.
func TransientBackend(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrTransientBackend, err),
		Code:       "TRANSIENT_BACKEND_ERROR",
		Message:    "external backend temporarily unavailable",
		StatusCode: http.StatusBadGateway,
	}
}

// PersistenceConflict reports that a job was already claimed or in a
// terminal state when a duplicate delivery arrived. Treated as a no-op
// by the worker.
func PersistenceConflict(jobID string) *AppError {
	return &AppError{
		Err:        ErrPersistenceConflict,
		Code:       "PERSISTENCE_CONFLICT",
		Message:    fmt.Sprintf("analysis %s is already claimed or finished", jobID),
		StatusCode: http.StatusConflict,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
