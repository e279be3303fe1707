package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Analysis job events
	EventAnalysisRequested = "analysis.requested"
	EventAnalysisRetried   = "analysis.retried"
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisFailed    = "analysis.failed"

	// Document events
	EventDocumentUploaded  = "document.uploaded"
	EventDocumentProcessed = "document.processed"
)

// Exchange names
const (
	ExchangeAnalysisEvents = "analysis.events"
	ExchangeDocumentEvents = "document.events"
)

// Queue names
const (
	QueueAnalysisWorker = "analysis.worker"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID creates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}

// AnalysisRequestedEvent is published when an analysis job is created and
// should be picked up by a worker. Delivery is at-least-once; consumers
// must tolerate duplicates.
type AnalysisRequestedEvent struct {
	AnalysisID string `json:"analysis_id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
}

// AnalysisRetriedEvent is published when a failed job is explicitly retried.
type AnalysisRetriedEvent struct {
	AnalysisID string `json:"analysis_id"`
	Attempt    int    `json:"attempt"`
}

// AnalysisCompletedEvent is published after a job reaches completed.
type AnalysisCompletedEvent struct {
	AnalysisID            string  `json:"analysis_id"`
	DocumentID            string  `json:"document_id"`
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	RecommendationCount   int     `json:"recommendation_count"`
}

// AnalysisFailedEvent is published after a job reaches failed.
type AnalysisFailedEvent struct {
	AnalysisID string `json:"analysis_id"`
	Error      string `json:"error"`
}

// DocumentUploadedEvent is published when a document upload finishes
// extraction and classification.
type DocumentUploadedEvent struct {
	DocumentID   string `json:"document_id"`
	UserID       string `json:"user_id"`
	Filename     string `json:"filename"`
	FileType     string `json:"file_type"`
	DocumentType string `json:"document_type"`
	TextLength   int    `json:"text_length"`
}
