package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	workerPkg "oricon-feed/internal/infra/worker"
	"oricon-feed/internal/observability/logging"
	"oricon-feed/internal/usecase/generate"
)

// generator is the part of generate.Service the worker depends on.
type generator interface {
	Generate(ctx context.Context, output string) (*generate.GenerateStats, error)
}

// generationJob is the cron job regenerating the feed.
type generationJob struct {
	svc     generator
	output  string
	timeout time.Duration
	metrics *workerPkg.WorkerMetrics
	logger  *slog.Logger

	// ctx is the worker's lifetime; runs are canceled when it ends.
	ctx context.Context
}

// Run implements cron.Job.
func (j *generationJob) Run() {
	parent := j.ctx
	if parent == nil {
		parent = context.Background()
	}
	if parent.Err() != nil {
		j.metrics.RecordJobRun("skipped")
		return
	}

	start := time.Now()
	j.metrics.RecordJobRun("started")
	j.logger.Info("generation started", slog.String("output", j.output))

	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, j.logger)

	stats, err := j.svc.Generate(ctx, j.output)
	j.metrics.RecordJobDuration(time.Since(start).Seconds())
	if err != nil {
		j.metrics.RecordJobRun("failure")
		j.logger.Error("generation failed",
			slog.Any("error", err),
			slog.Bool("aborted", errors.Is(err, generate.ErrAborted)))
		return
	}

	j.metrics.RecordJobRun("success")
	j.metrics.RecordLastSuccess()
	j.logger.Info("generation completed",
		slog.String("run_id", stats.RunID),
		slog.String("strategy", stats.Strategy),
		slog.Int("records", stats.Records),
		slog.Bool("placeholder", stats.Placeholder),
		slog.Duration("duration", stats.Duration))
}
