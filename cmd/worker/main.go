// Package main provides the long-running feed worker: it regenerates the
// feed on a cron schedule and serves health and metrics endpoints.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"oricon-feed/internal/config"
	"oricon-feed/internal/infra/feed"
	"oricon-feed/internal/infra/fetcher"
	"oricon-feed/internal/infra/scraper"
	workerPkg "oricon-feed/internal/infra/worker"
	"oricon-feed/internal/observability/logging"
	pkgconfig "oricon-feed/internal/pkg/config"
	"oricon-feed/internal/usecase/generate"
)

func main() {
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("worker stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Worker configuration is fail-open; the generator configuration is not.
	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Bool("run_on_start", workerConfig.RunOnStart))

	genConfig, err := config.LoadGeneratorConfig(workerConfig.ConfigPath)
	if err != nil {
		return err
	}
	if err := pkgconfig.ValidateOutputPath(genConfig.Output); err != nil {
		return fmt.Errorf("output (ORICON_OUTPUT or config file): %w", err)
	}

	pageFetcher := fetcher.NewFetcher(genConfig.Fetcher, nil)
	extractor, err := scraper.NewExtractor(genConfig.Extractor, genConfig.Source.BaseURL, genConfig.Source.URL, time.Now)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}
	svc := generate.NewService(genConfig.Source.URL, pageFetcher, extractor, feed.NewRenderer(genConfig.Feed, time.Now))

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	healthServer.Handle("GET /health/strategies", strategyHealthHandler(pageFetcher))

	metricsPort := pkgconfig.LoadEnvInt("METRICS_PORT", 9090, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1024, 65535)
	})
	workerMetrics.RecordFallback("metrics_port", metricsPort.FallbackApplied)
	if metricsPort.FallbackApplied {
		logger.Warn("configuration fallback applied",
			slog.String("field", "metrics_port"),
			slog.String("warning", metricsPort.Warning))
	}

	job := &generationJob{
		svc:     svc,
		output:  genConfig.Output,
		timeout: workerConfig.RunTimeout,
		metrics: workerMetrics,
		logger:  logger,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return healthServer.Start(gctx)
	})
	g.Go(func() error {
		return serveMetrics(gctx, logger, metricsPort.Value)
	})
	g.Go(func() error {
		return schedule(gctx, logger, workerConfig, job, healthServer)
	})

	return g.Wait()
}

// schedule runs job on the configured cron schedule until ctx ends, then
// waits for a run in progress to finish.
func schedule(ctx context.Context, logger *slog.Logger, cfg *workerPkg.WorkerConfig, job *generationJob, healthServer *workerPkg.HealthServer) error {
	job.ctx = ctx

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger)).Then(job)

	c := cron.New(cron.WithLocation(cfg.Location()), cron.WithLogger(cronLogger))
	if _, err := c.AddJob(cfg.CronSchedule, wrapped); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	if cfg.RunOnStart {
		go wrapped.Run()
	}

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("worker shutting down, waiting for running generation")
	<-c.Stop().Done()
	return nil
}
