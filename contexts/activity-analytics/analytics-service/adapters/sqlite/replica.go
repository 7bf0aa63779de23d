package sqliteadapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainerrors "pulse/contexts/activity-analytics/analytics-service/domain/errors"
	"pulse/contexts/activity-analytics/analytics-service/ports"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Timestamps are stored as UTC text so SQLite's date functions and plain
// lexicographic comparison both work on the column.
const timeLayout = "2006-01-02 15:04:05"

const dateLayout = "2006-01-02"

// Readers wait briefly for an in-flight rebuild; the writer gives up fast so
// a lock held by another process becomes a skipped cycle, not a stall.
const (
	readBusyTimeoutMS  = 5000
	writeBusyTimeoutMS = 500
)

// Replica is the embedded analytical store. Reads go through a long-lived
// handle; each Replace opens its own short-lived writer so a concurrent
// process holding the file lock surfaces as a busy skip, never a stall.
type Replica struct {
	path   string
	reads  *sql.DB
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) (*Replica, error) {
	if path == "" {
		return nil, errors.New("analytics store path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	reads, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, readBusyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("open analytics store: %w", err)
	}
	return &Replica{
		path:   path,
		reads:  reads,
		logger: logger,
	}, nil
}

func (r *Replica) Close() error {
	return r.reads.Close()
}

// Replace rebuilds synced_events inside one transaction: fill a staging
// table, drop the old table, rename. Readers observe either the previous
// table or the new one, never a partial rebuild.
func (r *Replica) Replace(ctx context.Context, rows []ports.ReplicaRow) (int64, error) {
	writer, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(%d)", r.path, writeBusyTimeoutMS))
	if err != nil {
		return 0, fmt.Errorf("open analytics store for writing: %w", err)
	}
	defer writer.Close()
	writer.SetMaxOpenConns(1)

	tx, err := writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, r.classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`DROP TABLE IF EXISTS synced_events_staging`,
		`CREATE TABLE synced_events_staging (
			event_id TEXT NOT NULL,
			occurred_at TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			event_type TEXT NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			return 0, r.classify(err)
		}
	}

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO synced_events_staging (event_id, occurred_at, user_id, event_type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, r.classify(err)
	}
	defer insert.Close()

	for _, row := range rows {
		if _, err := insert.ExecContext(ctx,
			row.EventID,
			row.OccurredAt.UTC().Format(timeLayout),
			row.UserID,
			row.EventType,
		); err != nil {
			return 0, r.classify(err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS synced_events`); err != nil {
		return 0, r.classify(err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE synced_events_staging RENAME TO synced_events`); err != nil {
		return 0, r.classify(err)
	}
	if err := tx.Commit(); err != nil {
		return 0, r.classify(err)
	}

	var count int64
	if err := writer.QueryRowContext(ctx, `SELECT COUNT(*) FROM synced_events`).Scan(&count); err != nil {
		return 0, r.classify(err)
	}
	return count, nil
}

func (r *Replica) DailyActiveUsers(ctx context.Context, fromDate, toDate time.Time) ([]ports.DAURow, error) {
	rows, err := r.reads.QueryContext(ctx, `
		SELECT date(occurred_at) AS day, COUNT(DISTINCT user_id) AS dau
		FROM synced_events
		WHERE occurred_at >= ?
		  AND occurred_at < date(?, '+1 day')
		GROUP BY 1
		ORDER BY 1`,
		fromDate.Format(dateLayout),
		toDate.Format(dateLayout),
	)
	if err != nil {
		return nil, r.classify(err)
	}
	defer rows.Close()

	var out []ports.DAURow
	for rows.Next() {
		var row ports.DAURow
		if err := rows.Scan(&row.Date, &row.DAU); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Replica) TopEvents(ctx context.Context, fromDate, toDate time.Time, limit int) ([]ports.TopEventRow, error) {
	rows, err := r.reads.QueryContext(ctx, `
		SELECT event_type, COUNT(*) AS total_count
		FROM synced_events
		WHERE occurred_at >= ?
		  AND occurred_at < date(?, '+1 day')
		GROUP BY 1
		ORDER BY 2 DESC
		LIMIT ?`,
		fromDate.Format(dateLayout),
		toDate.Format(dateLayout),
		limit,
	)
	if err != nil {
		return nil, r.classify(err)
	}
	defer rows.Close()

	var out []ports.TopEventRow
	for rows.Next() {
		var row ports.TopEventRow
		if err := rows.Scan(&row.EventType, &row.TotalCount); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Retention partitions users into cohorts by the Monday of the week holding
// their first event at or after startDate, then counts distinct cohort
// users active in each week offset within the window.
func (r *Replica) Retention(ctx context.Context, startDate time.Time, windows int) ([]ports.RetentionRow, error) {
	rows, err := r.reads.QueryContext(ctx, `
		WITH first_activity AS (
			SELECT user_id, MIN(date(occurred_at, 'weekday 0', '-6 days')) AS cohort_week
			FROM synced_events
			WHERE occurred_at >= ?
			GROUP BY user_id
		),
		weekly_activity AS (
			SELECT fa.cohort_week,
			       date(se.occurred_at, 'weekday 0', '-6 days') AS activity_week,
			       se.user_id
			FROM synced_events se
			JOIN first_activity fa ON se.user_id = fa.user_id
			WHERE se.occurred_at >= ?
			GROUP BY 1, 2, 3
		)
		SELECT cohort_week, week_number, COUNT(DISTINCT user_id) AS retained_users
		FROM (
			SELECT cohort_week,
			       CAST((julianday(activity_week) - julianday(cohort_week)) / 7 AS INTEGER) AS week_number,
			       user_id
			FROM weekly_activity
		)
		WHERE week_number BETWEEN 0 AND ?
		GROUP BY 1, 2
		ORDER BY 1, 2`,
		startDate.Format(dateLayout),
		startDate.Format(dateLayout),
		windows-1,
	)
	if err != nil {
		return nil, r.classify(err)
	}
	defer rows.Close()

	var out []ports.RetentionRow
	for rows.Next() {
		var row ports.RetentionRow
		if err := rows.Scan(&row.CohortWeek, &row.WeekNumber, &row.RetainedUsers); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *Replica) classify(err error) error {
	if isLocked(err) {
		return fmt.Errorf("analytics store: %w", domainerrors.ErrReplicaBusy)
	}
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		// Missing table before the first sync, corruption, disk faults: the
		// replica cannot serve until the next successful rebuild.
		return fmt.Errorf("%w: %v", domainerrors.ErrReplicaUnavailable, err)
	}
	return err
}

func isLocked(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

var _ ports.ReplicaStore = (*Replica)(nil)
var _ ports.ReplicaWriter = (*Replica)(nil)
