package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrManagerClosed is returned by Acquire after Shutdown.
var ErrManagerClosed = errors.New("connection manager is closed")

// Pool is one connection pool owned by the manager.
type Pool interface {
	DB() *gorm.DB
	Close() error
}

// PoolOpener creates pools. The production opener dials Postgres through
// gorm; tests substitute stubs so registry semantics can be exercised
// without a database.
type PoolOpener interface {
	Open(dsn string) (Pool, error)
}

// Options mirror the configuration surface: every temporary pool is opened
// with the same tuning as the default one.
type Options struct {
	DSN          string
	PoolSize     int
	MaxOverflow  int
	Echo         bool
	TempPoolTTL  time.Duration
	ReapInterval time.Duration
}

// Manager owns the long-lived default pool plus a registry of temporary
// pools keyed by connection string. Temporary pools are created lazily on
// first use and reclaimed by the reaper once idle beyond TempPoolTTL; the
// default pool is exempt and lives for the process lifetime.
type Manager struct {
	opts   Options
	opener PoolOpener
	logger *slog.Logger
	now    func() time.Time

	defaultPool Pool

	mu     sync.Mutex
	temp   map[string]*poolEntry
	closed bool

	reaperCancel context.CancelFunc
	reaperDone   chan struct{}
}

type poolEntry struct {
	pool     Pool
	lastUsed time.Time
}

func NewManager(opts Options, opener PoolOpener, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opener == nil {
		opener = GormOpener{
			PoolSize:    opts.PoolSize,
			MaxOverflow: opts.MaxOverflow,
			Echo:        opts.Echo,
		}
	}

	defaultPool, err := opener.Open(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("open default pool: %w", err)
	}

	m := &Manager{
		opts:        opts,
		opener:      opener,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		defaultPool: defaultPool,
		temp:        make(map[string]*poolEntry),
		reaperDone:  make(chan struct{}),
	}

	reaperCtx, cancel := context.WithCancel(context.Background())
	m.reaperCancel = cancel
	go m.reapLoop(reaperCtx)

	logger.Info("connection manager started",
		"event", "db_manager_started",
		"module", "internal/platform/db",
		"layer", "platform",
		"pool_size", opts.PoolSize,
		"max_overflow", opts.MaxOverflow,
		"temp_pool_ttl", opts.TempPoolTTL.String(),
		"reap_interval", opts.ReapInterval.String(),
	)
	return m, nil
}

// Acquire returns a session handle bound to the requested target. An empty
// target selects the default pool. Every lookup of a temporary target, hit
// or miss, refreshes the entry's last-used timestamp.
func (m *Manager) Acquire(ctx context.Context, target string) (*gorm.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}
	if target == "" {
		return m.defaultPool.DB().WithContext(ctx), nil
	}

	if entry, ok := m.temp[target]; ok {
		entry.lastUsed = m.now()
		return entry.pool.DB().WithContext(ctx), nil
	}

	pool, err := m.opener.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open pool for target: %w", err)
	}
	m.temp[target] = &poolEntry{pool: pool, lastUsed: m.now()}
	m.logger.Info("temporary pool created",
		"event", "db_manager_temp_pool_created",
		"module", "internal/platform/db",
		"layer", "platform",
		"active_temp_pools", len(m.temp),
	)
	return pool.DB().WithContext(ctx), nil
}

// Scoped runs fn inside a transaction on the target's pool. The transaction
// is rolled back when fn returns an error and committed otherwise; the
// session returns to its pool on every path.
func (m *Manager) Scoped(ctx context.Context, target string, fn func(tx *gorm.DB) error) error {
	handle, err := m.Acquire(ctx, target)
	if err != nil {
		return err
	}
	return handle.Transaction(fn)
}

// Reap closes and removes every temporary pool idle for at least the
// configured TTL. Exposed for tests; the reaper loop calls it on a fixed
// interval.
func (m *Manager) Reap(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0
	}

	reaped := 0
	for target, entry := range m.temp {
		if now.Sub(entry.lastUsed) < m.opts.TempPoolTTL {
			continue
		}
		if err := entry.pool.Close(); err != nil {
			m.logger.Error("temporary pool close failed",
				"event", "db_manager_temp_pool_close_failed",
				"module", "internal/platform/db",
				"layer", "platform",
				"error", err.Error(),
			)
		}
		delete(m.temp, target)
		reaped++
	}
	if reaped > 0 {
		m.logger.Info("temporary pools reaped",
			"event", "db_manager_temp_pools_reaped",
			"module", "internal/platform/db",
			"layer", "platform",
			"reaped", reaped,
			"active_temp_pools", len(m.temp),
		)
	}
	return reaped
}

// TempPoolCount reports the number of live temporary pools.
func (m *Manager) TempPoolCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.temp)
}

// Shutdown cancels the reaper, waits for it to observe cancellation, then
// closes every temporary pool and finally the default pool. Safe to call
// more than once.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.reaperCancel()
	select {
	case <-m.reaperDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for target, entry := range m.temp {
		if err := entry.pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.temp, target)
	}
	if err := m.defaultPool.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	m.logger.Info("connection manager stopped",
		"event", "db_manager_stopped",
		"module", "internal/platform/db",
		"layer", "platform",
	)
	return firstErr
}

func (m *Manager) reapLoop(ctx context.Context) {
	defer close(m.reaperDone)

	ticker := time.NewTicker(m.reapInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(m.now())
		}
	}
}

func (m *Manager) reapInterval() time.Duration {
	if m.opts.ReapInterval <= 0 {
		return time.Minute
	}
	return m.opts.ReapInterval
}

// GormOpener dials Postgres through gorm and verifies connectivity before
// handing the pool to the manager.
type GormOpener struct {
	PoolSize    int
	MaxOverflow int
	Echo        bool
}

func (o GormOpener) Open(dsn string) (Pool, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	logMode := gormlogger.Silent
	if o.Echo {
		logMode = gormlogger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(o.PoolSize + o.MaxOverflow)
	sqlDB.SetMaxIdleConns(o.PoolSize)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return gormPool{db: db}, nil
}

type gormPool struct {
	db *gorm.DB
}

func (p gormPool) DB() *gorm.DB { return p.db }

func (p gormPool) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
