package ports

import (
	"context"
	"time"

	"pulse/contexts/activity-analytics/event-ingestion-service/domain/entities"
)

// EventRepository persists event batches. BulkInsert submits the whole batch
// as one statement with conflict-skip on event_id; target selects an
// external store ("" means the process default). The returned count is the
// number of rows submitted, not the number actually inserted.
type EventRepository interface {
	BulkInsert(ctx context.Context, target string, events []entities.Event) (int, error)
}

// IngestResult is what the boundary reports back to callers.
type IngestResult struct {
	Submitted int
	Elapsed   time.Duration
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
