package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"oricon-feed/internal/domain/entity"
	"oricon-feed/internal/infra/feed"
	"oricon-feed/internal/infra/fetcher"
	"oricon-feed/internal/infra/scraper"
	"oricon-feed/internal/observability/logging"
	"oricon-feed/internal/observability/metrics"
	"oricon-feed/internal/observability/tracing"
)

// PageFetcher obtains the markup of the listing page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
}

// Extractor turns markup into records. It always returns at least one.
type Extractor interface {
	Extract(ctx context.Context, markup []byte) scraper.Result
}

// Renderer serializes records into a feed document.
type Renderer interface {
	Render(articles []entity.Article) ([]byte, error)
}

// Service runs feed generation. It keeps no state between runs.
type Service struct {
	SourceURL string
	Fetcher   PageFetcher
	Extractor Extractor
	Renderer  Renderer

	// Verify checks the rendered document; defaults to feed.Verify.
	Verify func(doc []byte, items int) error

	// Write stores the document; defaults to an atomic file replace.
	Write func(path string, doc []byte) error
}

// NewService creates a generation Service with the default verifier and
// atomic file writer.
func NewService(sourceURL string, f PageFetcher, e Extractor, r Renderer) *Service {
	return &Service{
		SourceURL: sourceURL,
		Fetcher:   f,
		Extractor: e,
		Renderer:  r,
	}
}

// GenerateStats describes one generation run.
type GenerateStats struct {
	RunID string

	// Strategy is the fetch strategy that produced the page, empty when
	// every strategy failed.
	Strategy  string
	Attempts  int
	BodyBytes int

	Selector   string
	Candidates int
	Records    int
	Skips      map[scraper.SkipReason]int

	Placeholder bool
	Output      string
	Bytes       int
	Duration    time.Duration
}

// Generate runs fetch, extract, render, verify and write for output.
//
// Failing to fetch the page is not an error: the feed then carries the
// placeholder record. Errors are returned only when no feed was written:
// ErrRenderFailed, ErrWriteFailed, ErrAborted when ctx ends first, or a
// fetcher validation error for a malformed source URL.
func (s *Service) Generate(ctx context.Context, output string) (stats *GenerateStats, err error) {
	start := time.Now()
	ctx, runID := logging.WithRunID(ctx, logging.FromContext(ctx))
	logger := logging.FromContext(ctx)

	ctx, span := tracing.StartSpan(ctx, "generate")
	defer span.End()

	stats = &GenerateStats{RunID: runID, Output: output}
	defer func() {
		stats.Duration = time.Since(start)
		metrics.RecordGeneration(err == nil, stats.Duration, stats.Records, stats.Placeholder)
		tracing.RecordError(span, err)
		span.SetAttributes(
			attribute.String("generate.strategy", stats.Strategy),
			attribute.Int("generate.records", stats.Records),
			attribute.Bool("generate.placeholder", stats.Placeholder),
		)
	}()

	logger.Info("feed generation started",
		slog.String("source", s.SourceURL),
		slog.String("output", output))

	markup, err := s.fetch(ctx, stats)
	if err != nil {
		return stats, err
	}

	result := s.extract(ctx, markup)
	stats.Selector = result.Selector
	stats.Candidates = result.Candidates
	stats.Records = len(result.Articles)
	stats.Skips = result.SkipCounts()
	stats.Placeholder = result.Placeholder

	doc, err := s.render(ctx, result.Articles)
	if err != nil {
		return stats, err
	}

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrAborted, err)
	}
	if err := s.write(ctx, output, doc); err != nil {
		return stats, err
	}
	stats.Bytes = len(doc)

	logger.Info("feed generated",
		slog.String("output", output),
		slog.String("strategy", stats.Strategy),
		slog.Int("attempts", stats.Attempts),
		slog.String("selector", stats.Selector),
		slog.Int("candidates", stats.Candidates),
		slog.Int("records", stats.Records),
		slog.Any("skips", stats.Skips),
		slog.Bool("placeholder", stats.Placeholder),
		slog.Int("bytes", stats.Bytes),
		slog.Duration("duration", time.Since(start)))

	return stats, nil
}

// fetch returns the page markup, or nil when every strategy failed.
func (s *Service) fetch(ctx context.Context, stats *GenerateStats) ([]byte, error) {
	ctx, span := tracing.StartSpan(ctx, "generate.fetch")
	defer span.End()

	page, err := s.Fetcher.Fetch(ctx, s.SourceURL)
	if err == nil {
		stats.Strategy = page.Strategy
		stats.Attempts = len(page.Attempts)
		stats.BodyBytes = len(page.Body)
		span.SetAttributes(attribute.String("fetch.strategy", page.Strategy))
		return page.Body, nil
	}

	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		stats.Attempts = len(fetchErr.Attempts)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("%w: %w", ErrAborted, ctxErr)
	}
	if !errors.Is(err, fetcher.ErrAllStrategiesFailed) {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("fetch %s: %w", s.SourceURL, err)
	}

	logging.FromContext(ctx).Warn("listing page unavailable, continuing without markup",
		slog.Int("attempts", stats.Attempts),
		slog.Any("error", err))
	span.SetAttributes(attribute.Bool("fetch.absent", true))
	return nil, nil
}

func (s *Service) extract(ctx context.Context, markup []byte) scraper.Result {
	ctx, span := tracing.StartSpan(ctx, "generate.extract")
	defer span.End()

	result := s.Extractor.Extract(ctx, markup)
	span.SetAttributes(
		attribute.String("extract.selector", result.Selector),
		attribute.Int("extract.candidates", result.Candidates),
		attribute.Int("extract.records", len(result.Articles)),
	)
	return result
}

func (s *Service) render(ctx context.Context, articles []entity.Article) ([]byte, error) {
	_, span := tracing.StartSpan(ctx, "generate.render")
	defer span.End()

	doc, err := s.Renderer.Render(articles)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}

	verify := s.Verify
	if verify == nil {
		verify = func(doc []byte, items int) error {
			_, err := feed.Verify(doc, items)
			return err
		}
	}
	if err := verify(doc, len(articles)); err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return doc, nil
}

func (s *Service) write(ctx context.Context, output string, doc []byte) error {
	_, span := tracing.StartSpan(ctx, "generate.write")
	defer span.End()

	write := s.Write
	if write == nil {
		write = writeAtomic
	}
	if err := write(output, doc); err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("%w: %s: %w", ErrWriteFailed, output, err)
	}
	return nil
}
