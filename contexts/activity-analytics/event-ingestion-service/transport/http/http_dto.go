package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EventPayload is one element of the ingestion batch body.
type EventPayload struct {
	EventID    string         `json:"event_id"`
	OccurredAt string         `json:"occurred_at"`
	UserID     int64          `json:"user_id"`
	EventType  string         `json:"event_type"`
	Properties map[string]any `json:"properties_json,omitempty"`
}

type IngestResponse struct {
	Message         string  `json:"message"`
	ObjCount        int     `json:"obj_count"`
	ResponseTimeSec float64 `json:"response_time_sec"`
	UserID          int64   `json:"user_id"`
}
