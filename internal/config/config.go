// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/adapters/repository"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/internal/domain/scoring"
	"github.com/Shaiyko/FinalExaminationScoreAssessment/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the autosave queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of autosave workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps remembered Idempotency-Keys; 0 keeps all of them.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver is memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`

	// StoreDSN is passed to the SQL driver. Empty selects the driver default.
	StoreDSN string `koanf:"store_dsn"`

	// StoreTimeout bounds each SQL statement.
	StoreTimeout time.Duration `koanf:"store_timeout"`

	// ScorePolicy is strict (0 = unscored) or zero_inclusive.
	ScorePolicy string `koanf:"score_policy"`

	// MaxImportBytes caps request bodies carrying a document.
	MaxImportBytes int64 `koanf:"max_import_bytes"`

	// CORSOrigins lists origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       logger.FormatText,
		Addr:            ":9080",
		QueueSize:       1024,
		WorkerCount:     2,
		DedupeSize:      10_000,
		StoreDriver:     repository.DriverMemory,
		StoreTimeout:    5 * time.Second,
		ScorePolicy:     string(scoring.DefaultPolicy),
		MaxImportBytes:  1 << 20,
		CORSOrigins:     []string{"*"},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate reports the first invalid field. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return invalid("addr must not be empty")
	case c.QueueSize < 1:
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	case c.WorkerCount < 1:
		return invalid("worker_count must be positive, got %d", c.WorkerCount)
	case c.DedupeSize < 0:
		return invalid("dedupe_size must not be negative, got %d", c.DedupeSize)
	case c.MaxImportBytes < 1:
		return invalid("max_import_bytes must be positive, got %d", c.MaxImportBytes)
	case c.StoreTimeout <= 0:
		return invalid("store_timeout must be positive, got %s", c.StoreTimeout)
	case c.ShutdownTimeout <= 0:
		return invalid("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}

	switch c.StoreDriver {
	case repository.DriverMemory, repository.DriverSQLite, repository.DriverPostgres:
	default:
		return invalid("store_driver %q is not one of memory, sqlite, postgres", c.StoreDriver)
	}
	switch strings.ToLower(c.LogFormat) {
	case logger.FormatText, logger.FormatJSON:
	default:
		return invalid("log_format %q is not one of text, json", c.LogFormat)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if _, err := scoring.ParsePolicy(c.ScorePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Policy returns the parsed score policy. Call Validate first.
func (c *Config) Policy() scoring.Policy {
	p, err := scoring.ParsePolicy(c.ScorePolicy)
	if err != nil {
		return scoring.DefaultPolicy
	}
	return p
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
