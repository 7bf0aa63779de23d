package application

import (
	"context"
	"log/slog"
	"time"

	domainerrors "pulse/contexts/activity-analytics/analytics-service/domain/errors"
	"pulse/contexts/activity-analytics/analytics-service/ports"
)

// QueryService computes the three replica aggregates. It is stateless
// between calls and tolerates the replica being stale by definition.
type QueryService struct {
	Replica ports.ReplicaStore
	Logger  *slog.Logger
}

type DAUResult struct {
	Rows    []ports.DAURow
	Elapsed time.Duration
}

type TopEventsResult struct {
	Rows    []ports.TopEventRow
	Elapsed time.Duration
}

type RetentionResult struct {
	Rows    []ports.RetentionRow
	Elapsed time.Duration
}

func (s QueryService) DailyActiveUsers(ctx context.Context, fromDate, toDate time.Time) (DAUResult, error) {
	if fromDate.After(toDate) {
		return DAUResult{}, domainerrors.ErrInvalidDateRange
	}
	started := time.Now()
	rows, err := s.Replica.DailyActiveUsers(ctx, fromDate, toDate)
	if err != nil {
		return DAUResult{}, s.logQueryError("dau", err)
	}
	return DAUResult{Rows: rows, Elapsed: time.Since(started)}, nil
}

func (s QueryService) TopEvents(ctx context.Context, fromDate, toDate time.Time, limit int) (TopEventsResult, error) {
	if fromDate.After(toDate) {
		return TopEventsResult{}, domainerrors.ErrInvalidDateRange
	}
	if limit <= 0 {
		return TopEventsResult{}, domainerrors.ErrInvalidLimit
	}
	started := time.Now()
	rows, err := s.Replica.TopEvents(ctx, fromDate, toDate, limit)
	if err != nil {
		return TopEventsResult{}, s.logQueryError("top_events", err)
	}
	return TopEventsResult{Rows: rows, Elapsed: time.Since(started)}, nil
}

func (s QueryService) Retention(ctx context.Context, startDate time.Time, windows int) (RetentionResult, error) {
	if windows < 2 {
		return RetentionResult{}, domainerrors.ErrInvalidWindows
	}
	started := time.Now()
	rows, err := s.Replica.Retention(ctx, startDate, windows)
	if err != nil {
		return RetentionResult{}, s.logQueryError("retention", err)
	}
	return RetentionResult{Rows: rows, Elapsed: time.Since(started)}, nil
}

func (s QueryService) logQueryError(kind string, err error) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("analytics query failed",
		"event", "analytics_query_failed",
		"module", "activity-analytics/analytics-service",
		"layer", "application",
		"kind", kind,
		"error", err.Error(),
	)
	return err
}
