package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainerrors "pulse/contexts/activity-analytics/analytics-service/domain/errors"
	"pulse/contexts/activity-analytics/analytics-service/ports"
)

const dateLayout = "2006-01-02"

// Replica is an in-memory analytical store for tests and local wiring. It
// mirrors the SQLite adapter's semantics, including the busy-skip contract.
type Replica struct {
	mu   sync.Mutex
	rows []ports.ReplicaRow

	Busy        bool
	FailReplace error
}

func NewReplica() *Replica {
	return &Replica{}
}

func (r *Replica) Replace(_ context.Context, rows []ports.ReplicaRow) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Busy {
		return 0, fmt.Errorf("analytics store: %w", domainerrors.ErrReplicaBusy)
	}
	if r.FailReplace != nil {
		return 0, r.FailReplace
	}
	r.rows = append([]ports.ReplicaRow(nil), rows...)
	return int64(len(r.rows)), nil
}

func (r *Replica) DailyActiveUsers(_ context.Context, fromDate, toDate time.Time) ([]ports.DAURow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make(map[string]map[int64]struct{})
	for _, row := range r.rows {
		day := dayOf(row.OccurredAt)
		if day.Before(dayOf(fromDate)) || day.After(dayOf(toDate)) {
			continue
		}
		key := day.Format(dateLayout)
		if users[key] == nil {
			users[key] = make(map[int64]struct{})
		}
		users[key][row.UserID] = struct{}{}
	}

	out := make([]ports.DAURow, 0, len(users))
	for day, set := range users {
		out = append(out, ports.DAURow{Date: day, DAU: int64(len(set))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *Replica) TopEvents(_ context.Context, fromDate, toDate time.Time, limit int) ([]ports.TopEventRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int64)
	for _, row := range r.rows {
		day := dayOf(row.OccurredAt)
		if day.Before(dayOf(fromDate)) || day.After(dayOf(toDate)) {
			continue
		}
		counts[row.EventType]++
	}

	out := make([]ports.TopEventRow, 0, len(counts))
	for eventType, count := range counts {
		out = append(out, ports.TopEventRow{EventType: eventType, TotalCount: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCount != out[j].TotalCount {
			return out[i].TotalCount > out[j].TotalCount
		}
		return out[i].EventType < out[j].EventType
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *Replica) Retention(_ context.Context, startDate time.Time, windows int) ([]ports.RetentionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := dayOf(startDate)
	cohorts := make(map[int64]time.Time)
	for _, row := range r.rows {
		if row.OccurredAt.Before(start) {
			continue
		}
		week := weekStart(row.OccurredAt)
		if current, ok := cohorts[row.UserID]; !ok || week.Before(current) {
			cohorts[row.UserID] = week
		}
	}

	type bucket struct {
		cohort time.Time
		offset int
	}
	retained := make(map[bucket]map[int64]struct{})
	for _, row := range r.rows {
		if row.OccurredAt.Before(start) {
			continue
		}
		cohort, ok := cohorts[row.UserID]
		if !ok {
			continue
		}
		offset := int(weekStart(row.OccurredAt).Sub(cohort).Hours() / 24 / 7)
		if offset < 0 || offset > windows-1 {
			continue
		}
		key := bucket{cohort: cohort, offset: offset}
		if retained[key] == nil {
			retained[key] = make(map[int64]struct{})
		}
		retained[key][row.UserID] = struct{}{}
	}

	out := make([]ports.RetentionRow, 0, len(retained))
	for key, set := range retained {
		out = append(out, ports.RetentionRow{
			CohortWeek:    key.cohort.Format(dateLayout),
			WeekNumber:    key.offset,
			RetainedUsers: int64(len(set)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CohortWeek != out[j].CohortWeek {
			return out[i].CohortWeek < out[j].CohortWeek
		}
		return out[i].WeekNumber < out[j].WeekNumber
	})
	return out, nil
}

// Rows returns the current replica contents.
func (r *Replica) Rows() []ports.ReplicaRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.ReplicaRow(nil), r.rows...)
}

// Source is an in-memory snapshot source fed directly with rows.
type Source struct {
	mu      sync.Mutex
	rows    []ports.ReplicaRow
	FailErr error
}

func (s *Source) SetRows(rows []ports.ReplicaRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append([]ports.ReplicaRow(nil), rows...)
}

func (s *Source) Snapshot(_ context.Context) ([]ports.ReplicaRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailErr != nil {
		return nil, s.FailErr
	}
	return append([]ports.ReplicaRow(nil), s.rows...), nil
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart truncates to the Monday of the calendar week.
func weekStart(t time.Time) time.Time {
	day := dayOf(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

var _ ports.ReplicaStore = (*Replica)(nil)
var _ ports.ReplicaWriter = (*Replica)(nil)
var _ ports.SnapshotSource = (*Source)(nil)
