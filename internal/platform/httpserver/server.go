package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	analytics "pulse/contexts/activity-analytics/analytics-service"
	analyticserrors "pulse/contexts/activity-analytics/analytics-service/domain/errors"
	analyticshttp "pulse/contexts/activity-analytics/analytics-service/transport/http"
	eventingestion "pulse/contexts/activity-analytics/event-ingestion-service"
	ingestionerrors "pulse/contexts/activity-analytics/event-ingestion-service/domain/errors"
	ingestionhttp "pulse/contexts/activity-analytics/event-ingestion-service/transport/http"
	"pulse/internal/platform/auth"
	"pulse/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "pulse/internal/platform/httpserver/docs"
)

const (
	defaultTopEventsLimit   = 10
	defaultRetentionWindows = 4
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	server    *http.Server
	verifier  *auth.Verifier
	ingestion eventingestion.Module
	analytics analytics.Module
}

func New(
	ingestionModule eventingestion.Module,
	analyticsModule analytics.Module,
	verifier *auth.Verifier,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		verifier:  verifier,
		ingestion: ingestionModule,
		analytics: analyticsModule,
	}
	s.server = &http.Server{Addr: addr, Handler: s.mux}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.server.Addr,
	)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", metrics.Handler())

	s.mux.HandleFunc("POST /api/events", s.handleIngestEvents)
	s.mux.HandleFunc("GET /api/stats/dau", s.handleDAU)
	s.mux.HandleFunc("GET /api/stats/top-events", s.handleTopEvents)
	s.mux.HandleFunc("GET /api/stats/retention", s.handleRetention)
}

func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var payloads []ingestionhttp.EventPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		writeIngestionError(w, http.StatusBadRequest, "invalid_json", "request body must be a JSON array of events")
		return
	}

	target := r.Header.Get("X-Database-Url")
	resp, err := s.ingestion.Handler.IngestHandler(r.Context(), target, identity.UserID, payloads)
	if err != nil {
		metrics.IngestBatches.WithLabelValues("rejected").Inc()
		writeIngestionDomainError(w, err)
		return
	}
	metrics.IngestBatches.WithLabelValues("accepted").Inc()
	metrics.EventsSubmitted.Add(float64(resp.ObjCount))
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleDAU(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	query := r.URL.Query()
	resp, err := s.analytics.Handler.DAUHandler(r.Context(), analyticshttp.StatsQuery{
		FromDate: query.Get("from_date"),
		ToDate:   query.Get("to_date"),
	})
	if err != nil {
		writeAnalyticsDomainError(w, err)
		return
	}
	metrics.AnalyticsQueries.WithLabelValues("dau").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	query := r.URL.Query()
	limit := defaultTopEventsLimit
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeAnalyticsError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.analytics.Handler.TopEventsHandler(r.Context(), analyticshttp.StatsQuery{
		FromDate: query.Get("from_date"),
		ToDate:   query.Get("to_date"),
		Limit:    limit,
	})
	if err != nil {
		writeAnalyticsDomainError(w, err)
		return
	}
	metrics.AnalyticsQueries.WithLabelValues("top_events").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(w, r); !ok {
		return
	}

	query := r.URL.Query()
	windows := defaultRetentionWindows
	if windowsRaw := query.Get("windows"); windowsRaw != "" {
		parsed, err := strconv.Atoi(windowsRaw)
		if err != nil {
			writeAnalyticsError(w, http.StatusBadRequest, "invalid_windows", "windows must be an integer")
			return
		}
		windows = parsed
	}

	resp, err := s.analytics.Handler.RetentionHandler(r.Context(), analyticshttp.StatsQuery{
		StartDate: query.Get("start_date"),
		Windows:   windows,
	})
	if err != nil {
		writeAnalyticsDomainError(w, err)
		return
	}
	metrics.AnalyticsQueries.WithLabelValues("retention").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		writeIngestionError(w, http.StatusUnauthorized, "missing_token", "Authorization bearer token is required")
		return auth.Identity{}, false
	}
	identity, err := s.verifier.VerifyAccessToken(strings.TrimSpace(token))
	if err != nil {
		writeIngestionError(w, http.StatusUnauthorized, "invalid_token", err.Error())
		return auth.Identity{}, false
	}
	return identity, true
}

func writeIngestionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingestionerrors.ErrEmptyBatch):
		writeIngestionError(w, http.StatusBadRequest, "empty_batch", err.Error())
	case errors.Is(err, ingestionerrors.ErrInvalidEvent):
		writeIngestionError(w, http.StatusBadRequest, "invalid_event", err.Error())
	case errors.Is(err, ingestionerrors.ErrInvalidTarget):
		writeIngestionError(w, http.StatusBadRequest, "invalid_target", err.Error())
	case errors.Is(err, ingestionerrors.ErrStoreUnavailable):
		writeIngestionError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	default:
		writeIngestionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAnalyticsDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analyticserrors.ErrInvalidDateRange),
		errors.Is(err, analyticserrors.ErrInvalidLimit),
		errors.Is(err, analyticserrors.ErrInvalidWindows),
		errors.Is(err, analyticserrors.ErrInvalidRequest):
		writeAnalyticsError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, analyticserrors.ErrReplicaBusy),
		errors.Is(err, analyticserrors.ErrReplicaUnavailable):
		writeAnalyticsError(w, http.StatusServiceUnavailable, "replica_unavailable", err.Error())
	default:
		writeAnalyticsError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeIngestionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ingestionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeAnalyticsError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, analyticshttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
