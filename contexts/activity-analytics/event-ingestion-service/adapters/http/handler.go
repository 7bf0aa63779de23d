package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pulse/contexts/activity-analytics/event-ingestion-service/application"
	"pulse/contexts/activity-analytics/event-ingestion-service/domain/entities"
	domainerrors "pulse/contexts/activity-analytics/event-ingestion-service/domain/errors"
	httptransport "pulse/contexts/activity-analytics/event-ingestion-service/transport/http"

	"github.com/google/uuid"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

// IngestHandler validates the payload batch and hands it to the writer.
// target is the optional external store connection string; callerID is the
// authenticated user attached by the boundary.
func (h Handler) IngestHandler(
	ctx context.Context,
	target string,
	callerID int64,
	payloads []httptransport.EventPayload,
) (httptransport.IngestResponse, error) {
	if len(payloads) == 0 {
		return httptransport.IngestResponse{}, domainerrors.ErrEmptyBatch
	}
	target = strings.TrimSpace(target)
	if target != "" && !strings.HasPrefix(target, "postgres://") && !strings.HasPrefix(target, "postgresql://") {
		return httptransport.IngestResponse{}, domainerrors.ErrInvalidTarget
	}

	events := make([]entities.Event, 0, len(payloads))
	for _, payload := range payloads {
		event, err := payloadToEntity(payload)
		if err != nil {
			return httptransport.IngestResponse{}, err
		}
		events = append(events, event)
	}

	result, err := h.Service.IngestBatch(ctx, target, events)
	if err != nil {
		return httptransport.IngestResponse{}, err
	}
	return httptransport.IngestResponse{
		Message:         "Successfully processed events.",
		ObjCount:        result.Submitted,
		ResponseTimeSec: roundSeconds(result.Elapsed, 4),
		UserID:          callerID,
	}, nil
}

func payloadToEntity(payload httptransport.EventPayload) (entities.Event, error) {
	eventID := strings.TrimSpace(payload.EventID)
	if _, err := uuid.Parse(eventID); err != nil {
		return entities.Event{}, domainerrors.ErrInvalidEvent
	}
	if strings.TrimSpace(payload.EventType) == "" {
		return entities.Event{}, domainerrors.ErrInvalidEvent
	}
	occurredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(payload.OccurredAt))
	if err != nil {
		return entities.Event{}, domainerrors.ErrInvalidEvent
	}
	return entities.Event{
		EventID:    eventID,
		OccurredAt: occurredAt,
		UserID:     payload.UserID,
		EventType:  strings.TrimSpace(payload.EventType),
		Properties: payload.Properties,
	}, nil
}

func roundSeconds(elapsed time.Duration, digits int) float64 {
	factor := 1.0
	for i := 0; i < digits; i++ {
		factor *= 10
	}
	seconds := elapsed.Seconds()
	return float64(int64(seconds*factor+0.5)) / factor
}
