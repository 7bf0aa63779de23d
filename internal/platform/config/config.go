package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string

	PostgresDSN   string
	DBPoolSize    int
	DBMaxOverflow int
	DBEcho        bool

	TempPoolTTL  time.Duration
	ReapInterval time.Duration

	AnalyticsPath string
	SyncInterval  time.Duration

	JWTSecret string
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "pulse"
	}

	port := os.Getenv("APP_HTTP_PORT")
	if port == "" {
		port = "8000"
	}

	analyticsPath := os.Getenv("APP_ANALYTICS_PATH")
	if analyticsPath == "" {
		analyticsPath = "analytics.db"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,

		PostgresDSN:   os.Getenv("APP_POSTGRES_DSN"),
		DBPoolSize:    envInt("APP_DB_POOL_SIZE", 50),
		DBMaxOverflow: envInt("APP_DB_MAX_OVERFLOW", 10),
		DBEcho:        envBool("APP_DB_ECHO", false),

		TempPoolTTL:  envSeconds("APP_TEMP_POOL_TTL", 1800),
		ReapInterval: envSeconds("APP_REAP_INTERVAL", 60),

		AnalyticsPath: analyticsPath,
		SyncInterval:  envSeconds("APP_SYNC_INTERVAL", 3600),

		JWTSecret: os.Getenv("APP_JWT_SECRET"),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envSeconds(name string, fallback int) time.Duration {
	return time.Duration(envInt(name, fallback)) * time.Second
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
