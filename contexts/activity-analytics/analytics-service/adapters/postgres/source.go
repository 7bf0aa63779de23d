package postgresadapter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pulse/contexts/activity-analytics/analytics-service/ports"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// SnapshotSource reads the full event projection over its own short-lived
// connection. The sync path deliberately bypasses the pooled connection
// manager: the snapshot is a bulk sequential read, not request traffic.
type SnapshotSource struct {
	DSN string
}

func (s SnapshotSource) Snapshot(ctx context.Context) ([]ports.ReplicaRow, error) {
	conn, err := sql.Open("pgx", s.DSN)
	if err != nil {
		return nil, fmt.Errorf("open snapshot connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `
		SELECT event_id, occurred_at, CAST(user_id AS BIGINT), event_type
		FROM events`)
	if err != nil {
		return nil, fmt.Errorf("read event snapshot: %w", err)
	}
	defer rows.Close()

	var out []ports.ReplicaRow
	for rows.Next() {
		var (
			row        ports.ReplicaRow
			occurredAt time.Time
		)
		if err := rows.Scan(&row.EventID, &occurredAt, &row.UserID, &row.EventType); err != nil {
			return nil, fmt.Errorf("scan event snapshot row: %w", err)
		}
		row.OccurredAt = occurredAt.UTC()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read event snapshot: %w", err)
	}
	return out, nil
}

var _ ports.SnapshotSource = SnapshotSource{}
