package application

import (
	"context"
	"log/slog"
	"time"

	"pulse/contexts/activity-analytics/event-ingestion-service/domain/entities"
	domainerrors "pulse/contexts/activity-analytics/event-ingestion-service/domain/errors"
	"pulse/contexts/activity-analytics/event-ingestion-service/ports"
)

type Service struct {
	Events ports.EventRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// IngestBatch persists a validated batch in one round trip and reports the
// submitted count. Duplicate event_ids are absorbed by the store and do not
// reduce the count; a connection failure before the statement yields a
// zero-count result without an error.
func (s Service) IngestBatch(
	ctx context.Context,
	target string,
	events []entities.Event,
) (ports.IngestResult, error) {
	if len(events) == 0 {
		return ports.IngestResult{}, domainerrors.ErrEmptyBatch
	}

	started := s.now()
	submitted, err := s.Events.BulkInsert(ctx, target, events)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.logger().Error("event batch ingest failed",
			"event", "event_ingestion_batch_failed",
			"module", "activity-analytics/event-ingestion-service",
			"layer", "application",
			"batch_size", len(events),
			"error", err.Error(),
		)
		return ports.IngestResult{}, err
	}

	s.logger().Info("event batch ingested",
		"event", "event_ingestion_batch_completed",
		"module", "activity-analytics/event-ingestion-service",
		"layer", "application",
		"submitted", submitted,
		"elapsed", elapsed.String(),
	)
	return ports.IngestResult{
		Submitted: submitted,
		Elapsed:   elapsed,
	}, nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
