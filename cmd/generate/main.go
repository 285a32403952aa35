// Package main provides the one-shot feed generator.
// Usage: generate -o <path> [-config <yaml>]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"oricon-feed/internal/config"
	"oricon-feed/internal/infra/feed"
	"oricon-feed/internal/infra/fetcher"
	"oricon-feed/internal/infra/scraper"
	"oricon-feed/internal/observability/logging"
	"oricon-feed/internal/usecase/generate"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns 0 whenever a feed document was written, placeholder-only
// feeds included, and 1 otherwise.
func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var output, configPath string
	fs.StringVar(&output, "o", "", "Path of the RSS file to write (required)")
	fs.StringVar(&output, "output", "", "Alias for -o")
	fs.StringVar(&configPath, "config", "", "Optional YAML configuration file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: generate -o <path> [-config <yaml>]")
		fmt.Fprintln(stderr, "")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if output == "" {
		fmt.Fprintln(stderr, "Error: output path is required")
		fs.Usage()
		return 1
	}

	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	cfg, err := config.LoadGeneratorConfig(configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		return 1
	}

	svc, err := newService(cfg)
	if err != nil {
		logger.Error("failed to initialize generator", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	stats, err := svc.Generate(ctx, output)
	if err != nil {
		logger.Error("feed generation failed",
			slog.Any("error", err),
			slog.Bool("aborted", errors.Is(err, generate.ErrAborted)))
		return 1
	}

	logger.Info("feed written",
		slog.String("output", stats.Output),
		slog.Int("records", stats.Records),
		slog.Bool("placeholder", stats.Placeholder),
		slog.Duration("duration", stats.Duration))
	return 0
}

// newService wires the generation pipeline from cfg.
func newService(cfg *config.GeneratorConfig) (*generate.Service, error) {
	f := fetcher.NewFetcher(cfg.Fetcher, nil)

	e, err := scraper.NewExtractor(cfg.Extractor, cfg.Source.BaseURL, cfg.Source.URL, time.Now)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	r := feed.NewRenderer(cfg.Feed, time.Now)
	return generate.NewService(cfg.Source.URL, f, e, r), nil
}
