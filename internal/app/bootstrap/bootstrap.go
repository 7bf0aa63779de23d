package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	analytics "pulse/contexts/activity-analytics/analytics-service"
	analyticspostgres "pulse/contexts/activity-analytics/analytics-service/adapters/postgres"
	sqliteadapter "pulse/contexts/activity-analytics/analytics-service/adapters/sqlite"
	"pulse/contexts/activity-analytics/analytics-service/ports"
	eventingestion "pulse/contexts/activity-analytics/event-ingestion-service"
	ingestionpostgres "pulse/contexts/activity-analytics/event-ingestion-service/adapters/postgres"
	"pulse/internal/platform/auth"
	"pulse/internal/platform/config"
	"pulse/internal/platform/db"
	"pulse/internal/platform/httpserver"
	"pulse/internal/platform/metrics"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server       *httpserver.Server
	manager      *db.Manager
	replica      *sqliteadapter.Replica
	sync         func(ctx context.Context) ports.SyncReport
	syncInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	manager      *db.Manager
	replica      *sqliteadapter.Replica
	sync         func(ctx context.Context) ports.SyncReport
	syncInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("APP_POSTGRES_DSN is required")
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	manager, err := db.NewManager(db.Options{
		DSN:          cfg.PostgresDSN,
		PoolSize:     cfg.DBPoolSize,
		MaxOverflow:  cfg.DBMaxOverflow,
		Echo:         cfg.DBEcho,
		TempPoolTTL:  cfg.TempPoolTTL,
		ReapInterval: cfg.ReapInterval,
	}, nil, logger)
	if err != nil {
		return nil, err
	}
	metrics.RegisterTempPoolGauge(func() float64 {
		return float64(manager.TempPoolCount())
	})

	if err := ingestionpostgres.AutoMigrate(context.Background(), manager); err != nil {
		_ = manager.Shutdown(context.Background())
		return nil, err
	}

	replica, err := sqliteadapter.New(cfg.AnalyticsPath, logger)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return nil, err
	}

	ingestionModule := eventingestion.NewModule(eventingestion.Dependencies{
		Events: ingestionpostgres.NewRepository(manager, ingestionpostgres.UUIDGenerator{}, logger),
		Clock:  ingestionpostgres.SystemClock{},
		Logger: logger,
	})
	analyticsModule := analytics.NewModule(analytics.Dependencies{
		Replica: replica,
		Writer:  replica,
		Source:  analyticspostgres.SnapshotSource{DSN: cfg.PostgresDSN},
		Logger:  logger,
	})

	server := httpserver.New(ingestionModule, analyticsModule, verifier, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:       server,
		manager:      manager,
		replica:      replica,
		sync:         analyticsModule.Sync.RunOnce,
		syncInterval: cfg.SyncInterval,
		logger:       logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("APP_POSTGRES_DSN is required")
	}

	manager, err := db.NewManager(db.Options{
		DSN:          cfg.PostgresDSN,
		PoolSize:     cfg.DBPoolSize,
		MaxOverflow:  cfg.DBMaxOverflow,
		Echo:         cfg.DBEcho,
		TempPoolTTL:  cfg.TempPoolTTL,
		ReapInterval: cfg.ReapInterval,
	}, nil, logger)
	if err != nil {
		return nil, err
	}

	if err := ingestionpostgres.AutoMigrate(context.Background(), manager); err != nil {
		_ = manager.Shutdown(context.Background())
		return nil, err
	}

	replica, err := sqliteadapter.New(cfg.AnalyticsPath, logger)
	if err != nil {
		_ = manager.Shutdown(context.Background())
		return nil, err
	}

	analyticsModule := analytics.NewModule(analytics.Dependencies{
		Replica: replica,
		Writer:  replica,
		Source:  analyticspostgres.SnapshotSource{DSN: cfg.PostgresDSN},
		Logger:  logger,
	})

	return &WorkerApp{
		manager:      manager,
		replica:      replica,
		sync:         analyticsModule.Sync.RunOnce,
		syncInterval: cfg.SyncInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sync_interval", a.syncInterval.String(),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		runSyncLoop(groupCtx, a.sync, a.syncInterval, a.logger)
		return nil
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.manager.Shutdown(shutdownCtx)
	if closeErr := a.replica.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sync_interval", w.syncInterval.String(),
	)
	runSyncLoop(ctx, w.sync, w.syncInterval, w.logger)
	return nil
}

func (w *WorkerApp) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := w.manager.Shutdown(shutdownCtx)
	if closeErr := w.replica.Close(); err == nil {
		err = closeErr
	}
	return err
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

// runSyncLoop drives the replica refresh at a fixed cadence. A cycle never
// terminates the loop: failed and skipped outcomes are recorded and the
// ticker carries on.
func runSyncLoop(ctx context.Context, sync func(ctx context.Context) ports.SyncReport, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		report := sync(ctx)
		metrics.SyncCycles.WithLabelValues(report.Outcome).Inc()
		if report.Outcome == ports.SyncOutcomeSynced {
			metrics.ReplicaRows.Set(float64(report.Rows))
		}

		select {
		case <-ctx.Done():
			logger.Info("sync loop stopping",
				"event", "sync_loop_stopped",
				"module", "internal/app/bootstrap",
				"layer", "platform",
			)
			return
		case <-ticker.C:
		}
	}
}
