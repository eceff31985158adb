package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Environment    string        `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelName   string        `env:"LOG_LEVEL" envDefault:"info"`
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"file"`
	DataDir        string        `env:"DATA_DIR" envDefault:"./data"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"./data/content.db"`
	RedisURL       string        `env:"REDIS_URL"`
	DraftTTL       time.Duration `env:"DRAFT_TTL" envDefault:"24h"`

	LogLevel slog.Level `env:"-"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	switch cfg.StorageBackend {
	case BackendFile, BackendSQLite:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q (want %s or %s)", cfg.StorageBackend, BackendFile, BackendSQLite)
	}
	if cfg.DraftTTL <= 0 {
		return nil, fmt.Errorf("DRAFT_TTL must be positive, got %s", cfg.DraftTTL)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg, nil
}

// DraftsEnabled reports whether a Redis URL was configured.
func (c *Config) DraftsEnabled() bool {
	return c.RedisURL != ""
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
