package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	analytics "pulse/contexts/activity-analytics/analytics-service"
	"pulse/contexts/activity-analytics/analytics-service/ports"
	"pulse/internal/platform/auth"
)

func TestStatsDAURequiresAuthorization(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/dau?from_date=2026-03-02&to_date=2026-03-08", nil)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsDAURejectsMalformedDates(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/dau?from_date=yesterday&to_date=2026-03-08", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.TokenTypeAccess, 1))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsDAURejectsInvertedRange(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/dau?from_date=2026-03-08&to_date=2026-03-02", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.TokenTypeAccess, 1))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsTopEventsRejectsNonPositiveLimit(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/top-events?from_date=2026-03-02&to_date=2026-03-08&limit=0", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.TokenTypeAccess, 1))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsRetentionRejectsSingleWindow(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/retention?start_date=2026-03-02&windows=1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.TokenTypeAccess, 1))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsDAUReturnsCanonicalResponse(t *testing.T) {
	analyticsModule := analytics.NewInMemoryModule(slog.Default())
	occurred := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	_, err := analyticsModule.Replica.Replace(context.Background(), []ports.ReplicaRow{
		{EventID: "a", OccurredAt: occurred, UserID: 1, EventType: "open"},
		{EventID: "b", OccurredAt: occurred.Add(time.Hour), UserID: 2, EventType: "view"},
	})
	if err != nil {
		t.Fatalf("seed replica: %v", err)
	}
	server := newTestServerWith(analyticsModule)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/dau?from_date=2026-03-02&to_date=2026-03-02", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.TokenTypeAccess, 1))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	data, ok := payload["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("expected one dau row, got %#v", payload["data"])
	}
	row, ok := data[0].(map[string]any)
	if !ok {
		t.Fatalf("expected object row, got %#v", data[0])
	}
	if row["date"] != "2026-03-02" || row["dau"] != float64(2) {
		t.Fatalf("unexpected dau row: %#v", row)
	}
}

func TestStatsTopEventsAppliesDefaultLimit(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/top-events?from_date=2026-03-02&to_date=2026-03-08", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.TokenTypeAccess, 1))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with default limit, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestStatsRetentionAppliesDefaultWindows(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/stats/retention?start_date=2026-03-02", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, auth.TokenTypeAccess, 1))

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with default windows, got %d body=%s", rr.Code, rr.Body.String())
	}
}
