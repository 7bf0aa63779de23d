package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pulse/contexts/activity-analytics/analytics-service/application"
	domainerrors "pulse/contexts/activity-analytics/analytics-service/domain/errors"
	httptransport "pulse/contexts/activity-analytics/analytics-service/transport/http"
)

const dateLayout = "2006-01-02"

type Handler struct {
	Service application.QueryService
	Logger  *slog.Logger
}

func (h Handler) DAUHandler(ctx context.Context, query httptransport.StatsQuery) (httptransport.DAUResponse, error) {
	fromDate, toDate, err := parseRange(query.FromDate, query.ToDate)
	if err != nil {
		return httptransport.DAUResponse{}, err
	}
	result, err := h.Service.DailyActiveUsers(ctx, fromDate, toDate)
	if err != nil {
		return httptransport.DAUResponse{}, err
	}
	rows := make([]httptransport.DAURow, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, httptransport.DAURow{Date: row.Date, DAU: row.DAU})
	}
	return httptransport.DAUResponse{
		Data:            rows,
		ResponseTimeSec: roundSeconds(result.Elapsed, 3),
	}, nil
}

func (h Handler) TopEventsHandler(ctx context.Context, query httptransport.StatsQuery) (httptransport.TopEventsResponse, error) {
	fromDate, toDate, err := parseRange(query.FromDate, query.ToDate)
	if err != nil {
		return httptransport.TopEventsResponse{}, err
	}
	result, err := h.Service.TopEvents(ctx, fromDate, toDate, query.Limit)
	if err != nil {
		return httptransport.TopEventsResponse{}, err
	}
	rows := make([]httptransport.TopEventRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, httptransport.TopEventRow{EventType: row.EventType, TotalCount: row.TotalCount})
	}
	return httptransport.TopEventsResponse{
		Data:            rows,
		ResponseTimeSec: roundSeconds(result.Elapsed, 3),
	}, nil
}

func (h Handler) RetentionHandler(ctx context.Context, query httptransport.StatsQuery) (httptransport.RetentionResponse, error) {
	startDate, err := parseDate(query.StartDate)
	if err != nil {
		return httptransport.RetentionResponse{}, err
	}
	result, err := h.Service.Retention(ctx, startDate, query.Windows)
	if err != nil {
		return httptransport.RetentionResponse{}, err
	}
	rows := make([]httptransport.RetentionRow, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, httptransport.RetentionRow{
			CohortWeek:    row.CohortWeek,
			WeekNumber:    row.WeekNumber,
			RetainedUsers: row.RetainedUsers,
		})
	}
	return httptransport.RetentionResponse{
		Data:            rows,
		ResponseTimeSec: roundSeconds(result.Elapsed, 3),
	}, nil
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	fromDate, err := parseDate(fromRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	toDate, err := parseDate(toRaw)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return fromDate, toDate, nil
}

func parseDate(raw string) (time.Time, error) {
	value, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidRequest
	}
	return value.UTC(), nil
}

func roundSeconds(elapsed time.Duration, digits int) float64 {
	factor := 1.0
	for i := 0; i < digits; i++ {
		factor *= 10
	}
	return float64(int64(elapsed.Seconds()*factor+0.5)) / factor
}
