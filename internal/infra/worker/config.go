// Package worker provides the configuration, health endpoints and metrics of
// the long-running feed regeneration worker.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"oricon-feed/internal/pkg/config"
)

// Bounds for the run timeout. A run with every relay timing out takes about
// DirectTimeout + len(relays) * (RelayTimeout + RelayDelay).
const (
	minRunTimeout = 1 * time.Minute
	maxRunTimeout = 1 * time.Hour
)

// WorkerConfig holds the configuration of the regeneration worker.
type WorkerConfig struct {
	// CronSchedule is a five-field cron expression or descriptor.
	// Env: CRON_SCHEDULE, default "0 * * * *" (hourly)
	CronSchedule string

	// Timezone the schedule is evaluated in.
	// Env: WORKER_TIMEZONE, default "Asia/Tokyo"
	Timezone string

	// RunTimeout bounds one generation run.
	// Env: WORKER_RUN_TIMEOUT, default 10m
	RunTimeout time.Duration

	// HealthPort serves /health and /health/ready.
	// Env: WORKER_HEALTH_PORT, default 9091
	HealthPort int

	// RunOnStart triggers a generation immediately instead of waiting for
	// the first scheduled time.
	// Env: WORKER_RUN_ON_START, default true
	RunOnStart bool

	// ConfigPath is the optional generator YAML file.
	// Env: WORKER_CONFIG, default "" (built-in defaults)
	ConfigPath string
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule: "0 * * * *",
		Timezone:     "Asia/Tokyo",
		RunTimeout:   10 * time.Minute,
		HealthPort:   9091,
		RunOnStart:   true,
	}
}

// Location returns the schedule's time zone, UTC when it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the configuration and reports every invalid field.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, minRunTimeout, maxRunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	return errors.Join(errs...)
}

// LoadConfigFromEnv loads the worker configuration from environment
// variables. Loading is fail-open: an invalid value is replaced by its
// default, logged at warn level and recorded in metrics, and the worker
// keeps running.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()

	cfg.CronSchedule = resolve(logger, metrics, "cron_schedule",
		config.LoadEnvString("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule))

	cfg.Timezone = resolve(logger, metrics, "timezone",
		config.LoadEnvString("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))

	cfg.RunTimeout = resolve(logger, metrics, "run_timeout",
		config.LoadEnvDuration("WORKER_RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, minRunTimeout, maxRunTimeout)
		}))

	cfg.HealthPort = resolve(logger, metrics, "health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}))

	cfg.RunOnStart = resolve(logger, metrics, "run_on_start",
		config.LoadEnvBool("WORKER_RUN_ON_START", cfg.RunOnStart))

	cfg.ConfigPath = resolve(logger, metrics, "config_path",
		config.LoadEnvString("WORKER_CONFIG", cfg.ConfigPath, nil))

	metrics.RecordLoadTimestamp()
	return &cfg
}

// resolve logs and records the outcome of loading one field.
func resolve[T any](logger *slog.Logger, metrics *WorkerMetrics, field string, result config.LoadResult[T]) T {
	metrics.RecordFallback(field, result.FallbackApplied)
	if result.FallbackApplied {
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", result.Warning))
	}
	return result.Value
}
