package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatsQuery is the raw query surface shared by the stats endpoints; the
// boundary fills defaults before the handler validates.
type StatsQuery struct {
	FromDate  string
	ToDate    string
	StartDate string
	Limit     int
	Windows   int
}

type DAURow struct {
	Date string `json:"date"`
	DAU  int64  `json:"dau"`
}

type DAUResponse struct {
	Data            []DAURow `json:"data"`
	ResponseTimeSec float64  `json:"response_time_sec"`
}

type TopEventRow struct {
	EventType  string `json:"event_type"`
	TotalCount int64  `json:"total_count"`
}

type TopEventsResponse struct {
	Data            []TopEventRow `json:"data"`
	ResponseTimeSec float64       `json:"response_time_sec"`
}

type RetentionRow struct {
	CohortWeek    string `json:"cohort_week"`
	WeekNumber    int    `json:"week_number"`
	RetainedUsers int64  `json:"retained_users"`
}

type RetentionResponse struct {
	Data            []RetentionRow `json:"data"`
	ResponseTimeSec float64        `json:"response_time_sec"`
}
