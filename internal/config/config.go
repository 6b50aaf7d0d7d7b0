// Package config loads and validates the process configuration from the
// environment, with optional .env support for local development.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`

	StoreBackend string `env:"STORE_BACKEND" default:"memory"`
	RedisURL     string `env:"REDIS_URL"`
	DatabaseURL  string `env:"DATABASE_URL"`
	KVNamespace  string `env:"KV_NAMESPACE" default:"hotaru"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" default:"5m"`
	ArchiveWeekday int           `env:"ARCHIVE_WEEKDAY" default:"0"` // 0 = Sunday
	ArchiveHourUTC int           `env:"ARCHIVE_HOUR_UTC" default:"20"`

	VoteRatePerSecond float64 `env:"VOTE_RATE_PER_SECOND" default:"5"`
	VoteRateBurst     int     `env:"VOTE_RATE_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_BACKEND=%s", BackendRedis)
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of %s, %s, %s", BackendMemory, BackendRedis, BackendPostgres)
	}

	if cfg.KVNamespace == "" {
		return fmt.Errorf("KV_NAMESPACE must not be empty")
	}
	if cfg.ArchiveWeekday < 0 || cfg.ArchiveWeekday > 6 {
		return fmt.Errorf("ARCHIVE_WEEKDAY must be 0 (Sunday) through 6 (Saturday), got %d", cfg.ArchiveWeekday)
	}
	if cfg.ArchiveHourUTC < 0 || cfg.ArchiveHourUTC > 23 {
		return fmt.Errorf("ARCHIVE_HOUR_UTC must be 0 through 23, got %d", cfg.ArchiveHourUTC)
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.SweepInterval)
	}
	return nil
}
