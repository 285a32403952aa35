package worker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clearWorkerEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CRON_SCHEDULE", "WORKER_TIMEZONE", "WORKER_RUN_TIMEOUT",
		"WORKER_HEALTH_PORT", "WORKER_RUN_ON_START", "WORKER_CONFIG",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0 * * * *", cfg.CronSchedule)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.True(t, cfg.RunOnStart)
	assert.Empty(t, cfg.ConfigPath)
	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WorkerConfig)
		wantErr string
	}{
		{name: "descriptor schedule", mutate: func(c *WorkerConfig) { c.CronSchedule = "@every 30m" }},
		{name: "bad schedule", mutate: func(c *WorkerConfig) { c.CronSchedule = "every hour" }, wantErr: "cron schedule"},
		{name: "bad timezone", mutate: func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "timeout too short", mutate: func(c *WorkerConfig) { c.RunTimeout = 30 * time.Second }, wantErr: "run timeout"},
		{name: "timeout too long", mutate: func(c *WorkerConfig) { c.RunTimeout = 2 * time.Hour }, wantErr: "run timeout"},
		{name: "privileged port", mutate: func(c *WorkerConfig) { c.HealthPort = 80 }, wantErr: "health port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWorkerConfig_Location(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())

	cfg.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	clearWorkerEnv(t)
	metrics := NewWorkerMetrics(prometheus.NewRegistry())

	cfg := LoadConfigFromEnv(discardLogger(), metrics)

	want := DefaultConfig()
	assert.Equal(t, &want, cfg)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive.WithLabelValues("cron_schedule")))
	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
}

func TestLoadConfigFromEnv_AllValid(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CRON_SCHEDULE", "*/15 * * * *")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("WORKER_RUN_TIMEOUT", "5m")
	t.Setenv("WORKER_HEALTH_PORT", "18080")
	t.Setenv("WORKER_RUN_ON_START", "false")
	t.Setenv("WORKER_CONFIG", "/etc/oricon-feed/generator.yaml")

	cfg := LoadConfigFromEnv(discardLogger(), NewWorkerMetrics(prometheus.NewRegistry()))

	assert.Equal(t, &WorkerConfig{
		CronSchedule: "*/15 * * * *",
		Timezone:     "UTC",
		RunTimeout:   5 * time.Minute,
		HealthPort:   18080,
		RunOnStart:   false,
		ConfigPath:   "/etc/oricon-feed/generator.yaml",
	}, cfg)
}

func TestLoadConfigFromEnv_InvalidFallsBack(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CRON_SCHEDULE", "not a schedule")
	t.Setenv("WORKER_TIMEZONE", "Invalid/Zone")
	t.Setenv("WORKER_RUN_TIMEOUT", "10s")
	t.Setenv("WORKER_HEALTH_PORT", "abc")
	t.Setenv("WORKER_RUN_ON_START", "maybe")
	metrics := NewWorkerMetrics(prometheus.NewRegistry())

	cfg := LoadConfigFromEnv(discardLogger(), metrics)

	want := DefaultConfig()
	assert.Equal(t, &want, cfg)
	for _, field := range []string{"cron_schedule", "timezone", "run_timeout", "health_port", "run_on_start"} {
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(field)), field)
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive.WithLabelValues(field)), field)
	}
}

func TestLoadConfigFromEnv_PartiallyValid(t *testing.T) {
	clearWorkerEnv(t)
	t.Setenv("CRON_SCHEDULE", "30 * * * *")
	t.Setenv("WORKER_TIMEZONE", "Invalid/Zone")
	metrics := NewWorkerMetrics(prometheus.NewRegistry())

	cfg := LoadConfigFromEnv(discardLogger(), metrics)

	assert.Equal(t, "30 * * * *", cfg.CronSchedule)
	assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive.WithLabelValues("timezone")))
}
