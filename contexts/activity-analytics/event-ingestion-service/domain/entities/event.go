package entities

import "time"

// Event is a single timestamped user-activity record. EventID is the
// caller-assigned natural key used for deduplication; the surrogate row id
// is assigned at insert time and never leaves the adapter.
type Event struct {
	EventID    string
	OccurredAt time.Time
	UserID     int64
	EventType  string
	Properties map[string]any
}
