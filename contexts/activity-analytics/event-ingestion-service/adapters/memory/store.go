package memory

import (
	"context"
	"sync"
	"time"

	"pulse/contexts/activity-analytics/event-ingestion-service/domain/entities"
	"pulse/contexts/activity-analytics/event-ingestion-service/ports"
)

// Store is an in-memory event repository for tests and local wiring. It
// mirrors the store-side contract: conflict on event_id keeps the first
// submitted record untouched.
type Store struct {
	mu     sync.Mutex
	events []entities.Event
	byID   map[string]int

	FailConnect bool
	FailInsert  error
}

func NewStore(seed []entities.Event) *Store {
	store := &Store{byID: make(map[string]int)}
	for _, event := range seed {
		store.insert(event)
	}
	return store
}

func (s *Store) BulkInsert(_ context.Context, _ string, events []entities.Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailConnect {
		return 0, nil
	}
	if s.FailInsert != nil {
		return 0, s.FailInsert
	}
	for _, event := range events {
		s.insert(event)
	}
	return len(events), nil
}

func (s *Store) insert(event entities.Event) {
	if _, exists := s.byID[event.EventID]; exists {
		return
	}
	s.byID[event.EventID] = len(s.events)
	s.events = append(s.events, event)
}

// Events returns the distinct stored records in insertion order.
func (s *Store) Events() []entities.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Event(nil), s.events...)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// FixedClock returns a ports.Clock pinned to the given instant.
func FixedClock(now time.Time) ports.Clock {
	return fixedClock{now: now}
}

var _ ports.EventRepository = (*Store)(nil)
