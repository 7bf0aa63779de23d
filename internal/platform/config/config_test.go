package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "pulse" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.DBPoolSize != 50 || cfg.DBMaxOverflow != 10 {
		t.Fatalf("unexpected pool tuning: size=%d overflow=%d", cfg.DBPoolSize, cfg.DBMaxOverflow)
	}
	if cfg.TempPoolTTL != 30*time.Minute {
		t.Fatalf("expected 30m temp pool ttl, got %s", cfg.TempPoolTTL)
	}
	if cfg.ReapInterval != time.Minute {
		t.Fatalf("expected 1m reap interval, got %s", cfg.ReapInterval)
	}
	if cfg.SyncInterval != time.Hour {
		t.Fatalf("expected 1h sync interval, got %s", cfg.SyncInterval)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_DB_POOL_SIZE", "5")
	t.Setenv("APP_TEMP_POOL_TTL", "120")
	t.Setenv("APP_DB_ECHO", "yes")
	t.Setenv("APP_HTTP_PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBPoolSize != 5 {
		t.Fatalf("expected pool size 5, got %d", cfg.DBPoolSize)
	}
	if cfg.TempPoolTTL != 2*time.Minute {
		t.Fatalf("expected 2m ttl, got %s", cfg.TempPoolTTL)
	}
	if !cfg.DBEcho {
		t.Fatalf("expected echo enabled")
	}
	if cfg.HTTPPort != "9000" {
		t.Fatalf("expected port 9000, got %q", cfg.HTTPPort)
	}
}

func TestEnvIntRejectsGarbage(t *testing.T) {
	t.Setenv("APP_DB_POOL_SIZE", "not-a-number")
	t.Setenv("APP_DB_MAX_OVERFLOW", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBPoolSize != 50 || cfg.DBMaxOverflow != 10 {
		t.Fatalf("expected fallbacks, got size=%d overflow=%d", cfg.DBPoolSize, cfg.DBMaxOverflow)
	}
}
