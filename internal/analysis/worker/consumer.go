package worker

import (
	"context"

	"github.com/careerpath/careerpath-backend/pkg/messaging"
)

// RegisterHandlers binds the worker to the analysis events it consumes.
func RegisterHandlers(consumer *messaging.Consumer, w *Worker) {
	consumer.RegisterHandler(messaging.EventAnalysisRequested, w.handleRequested)
	consumer.RegisterHandler(messaging.EventAnalysisRetried, w.handleRetried)
}

func (w *Worker) handleRequested(ctx context.Context, event *messaging.Event) error {
	var payload messaging.AnalysisRequestedEvent
	if err := event.UnmarshalData(&payload); err != nil {
		// Malformed payloads never become valid on redelivery.
		w.logger.Error().Err(err).Str("event_id", event.ID).Msg("dropping malformed analysis.requested event")
		return nil
	}
	return w.Process(ctx, payload.AnalysisID)
}

func (w *Worker) handleRetried(ctx context.Context, event *messaging.Event) error {
	var payload messaging.AnalysisRetriedEvent
	if err := event.UnmarshalData(&payload); err != nil {
		w.logger.Error().Err(err).Str("event_id", event.ID).Msg("dropping malformed analysis.retried event")
		return nil
	}
	return w.Process(ctx, payload.AnalysisID)
}
