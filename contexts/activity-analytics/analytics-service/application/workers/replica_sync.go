package workers

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "pulse/contexts/activity-analytics/analytics-service/domain/errors"
	"pulse/contexts/activity-analytics/analytics-service/ports"
)

// ReplicaSync rebuilds the analytical replica from a point-in-time snapshot
// of the transactional event table. It is fire-and-forget: every failure is
// logged and absorbed so the schedule never stops, and a lock held by a
// concurrent process is an expected skip, not an error.
type ReplicaSync struct {
	Source  ports.SnapshotSource
	Replica ports.ReplicaWriter
	Logger  *slog.Logger
}

func (s ReplicaSync) RunOnce(ctx context.Context) ports.SyncReport {
	logger := s.logger()
	logger.Info("replica sync starting",
		"event", "analytics_sync_started",
		"module", "activity-analytics/analytics-service",
		"layer", "worker",
	)

	rows, err := s.Source.Snapshot(ctx)
	if err != nil {
		logger.Error("replica sync snapshot failed",
			"event", "analytics_sync_snapshot_failed",
			"module", "activity-analytics/analytics-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return ports.SyncReport{Outcome: ports.SyncOutcomeFailed}
	}

	count, err := s.Replica.Replace(ctx, rows)
	if err != nil {
		if errors.Is(err, domainerrors.ErrReplicaBusy) {
			logger.Warn("replica sync skipped, store locked by another process",
				"event", "analytics_sync_skipped",
				"module", "activity-analytics/analytics-service",
				"layer", "worker",
			)
			return ports.SyncReport{Outcome: ports.SyncOutcomeSkipped}
		}
		logger.Error("replica sync failed",
			"event", "analytics_sync_failed",
			"module", "activity-analytics/analytics-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return ports.SyncReport{Outcome: ports.SyncOutcomeFailed}
	}

	logger.Info("replica sync completed",
		"event", "analytics_sync_completed",
		"module", "activity-analytics/analytics-service",
		"layer", "worker",
		"row_count", count,
	)
	return ports.SyncReport{Outcome: ports.SyncOutcomeSynced, Rows: count}
}

func (s ReplicaSync) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
