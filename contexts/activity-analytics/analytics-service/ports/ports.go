package ports

import (
	"context"
	"time"
)

// ReplicaRow is the denormalized projection copied into the analytical
// store on every sync cycle. Properties are intentionally excluded from
// analytics.
type ReplicaRow struct {
	EventID    string
	OccurredAt time.Time
	UserID     int64
	EventType  string
}

type DAURow struct {
	Date string
	DAU  int64
}

type TopEventRow struct {
	EventType  string
	TotalCount int64
}

type RetentionRow struct {
	CohortWeek    string
	WeekNumber    int
	RetainedUsers int64
}

// ReplicaStore serves the three read-only aggregates against the current
// replica table. Dates are calendar days; both range bounds are inclusive.
type ReplicaStore interface {
	DailyActiveUsers(ctx context.Context, fromDate, toDate time.Time) ([]DAURow, error)
	TopEvents(ctx context.Context, fromDate, toDate time.Time, limit int) ([]TopEventRow, error)
	Retention(ctx context.Context, startDate time.Time, windows int) ([]RetentionRow, error)
}

// ReplicaWriter atomically replaces the replica table's contents and
// reports the resulting row count.
type ReplicaWriter interface {
	Replace(ctx context.Context, rows []ReplicaRow) (int64, error)
}

// SnapshotSource reads the full current event projection from the
// transactional store over a dedicated connection, outside the pooled
// manager.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]ReplicaRow, error)
}

// SyncReport is the outcome of one synchronization cycle.
type SyncReport struct {
	Outcome string // synced, skipped_locked, failed
	Rows    int64
}

const (
	SyncOutcomeSynced  = "synced"
	SyncOutcomeSkipped = "skipped_locked"
	SyncOutcomeFailed  = "failed"
)
