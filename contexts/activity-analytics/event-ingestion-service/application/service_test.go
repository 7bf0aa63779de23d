package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"pulse/contexts/activity-analytics/event-ingestion-service/adapters/memory"
	"pulse/contexts/activity-analytics/event-ingestion-service/domain/entities"
	domainerrors "pulse/contexts/activity-analytics/event-ingestion-service/domain/errors"
)

func testEvent(id string, userID int64, eventType string, at time.Time) entities.Event {
	return entities.Event{
		EventID:    id,
		OccurredAt: at,
		UserID:     userID,
		EventType:  eventType,
	}
}

func TestIngestBatchRejectsEmptyBatch(t *testing.T) {
	service := Service{Events: memory.NewStore(nil)}
	if _, err := service.IngestBatch(context.Background(), "", nil); !errors.Is(err, domainerrors.ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestIngestBatchCountsSubmittedNotInserted(t *testing.T) {
	store := memory.NewStore(nil)
	service := Service{Events: store}

	day := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	batch := []entities.Event{
		testEvent("a", 1, "open", day),
		testEvent("b", 1, "view", day.Add(time.Hour)),
		testEvent("a", 9, "open", day.Add(2*time.Hour)),
	}

	result, err := service.IngestBatch(context.Background(), "", batch)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Submitted != 3 {
		t.Fatalf("expected submitted count 3, got %d", result.Submitted)
	}

	stored := store.Events()
	if len(stored) != 2 {
		t.Fatalf("expected 2 distinct stored events, got %d", len(stored))
	}
	// First submitted record for a duplicated event_id is retained untouched.
	if stored[0].EventID != "a" || stored[0].UserID != 1 {
		t.Fatalf("first submitted duplicate must survive, got %+v", stored[0])
	}
}

func TestIngestBatchManyDuplicatesKeepOne(t *testing.T) {
	store := memory.NewStore(nil)
	service := Service{Events: store}

	day := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	batch := make([]entities.Event, 0, 5)
	for i := 0; i < 5; i++ {
		batch = append(batch, testEvent("dup", int64(i), "open", day.Add(time.Duration(i)*time.Minute)))
	}

	result, err := service.IngestBatch(context.Background(), "", batch)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Submitted != 5 {
		t.Fatalf("expected submitted count 5, got %d", result.Submitted)
	}
	if len(store.Events()) != 1 {
		t.Fatalf("expected exactly one survivor, got %d", len(store.Events()))
	}
}

func TestIngestBatchElapsedComesFromClock(t *testing.T) {
	store := memory.NewStore(nil)
	service := Service{
		Events: store,
		Clock:  memory.FixedClock(time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)),
	}

	result, err := service.IngestBatch(context.Background(), "", []entities.Event{
		testEvent("a", 1, "open", time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	// A frozen clock pins the measurement to zero.
	if result.Elapsed != 0 {
		t.Fatalf("expected elapsed pinned by the clock, got %s", result.Elapsed)
	}
}

func TestIngestBatchConnectionFailureYieldsZeroCount(t *testing.T) {
	store := memory.NewStore(nil)
	store.FailConnect = true
	service := Service{Events: store}

	result, err := service.IngestBatch(context.Background(), "", []entities.Event{
		testEvent("a", 1, "open", time.Now().UTC()),
	})
	if err != nil {
		t.Fatalf("connect failure must not surface an error, got %v", err)
	}
	if result.Submitted != 0 {
		t.Fatalf("expected zero-count result, got %d", result.Submitted)
	}
}

func TestIngestBatchStatementFailurePropagates(t *testing.T) {
	store := memory.NewStore(nil)
	store.FailInsert = errors.New("statement failed")
	service := Service{Events: store}

	if _, err := service.IngestBatch(context.Background(), "", []entities.Event{
		testEvent("a", 1, "open", time.Now().UTC()),
	}); err == nil {
		t.Fatalf("expected statement failure to propagate")
	}
}
