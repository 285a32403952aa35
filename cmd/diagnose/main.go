// Package main provides a diagnostic report for the feed pipeline: which
// fetch strategies work, how many elements each selector matches and why
// candidates are skipped. It can also inspect a previously written feed.
//
// Usage:
//
//	diagnose [-config <yaml>] [-html <file>] [-format text|json]
//	diagnose -feed <path> [-format text|json]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/joho/godotenv"
	"github.com/mmcdole/gofeed"

	"oricon-feed/internal/config"
	"oricon-feed/internal/infra/fetcher"
	"oricon-feed/internal/infra/scraper"
	"oricon-feed/internal/observability/logging"
)

// PageReport describes one diagnosis of the listing page.
type PageReport struct {
	URL         string            `json:"url"`
	Strategy    string            `json:"strategy,omitempty"`
	Attempts    []AttemptReport   `json:"attempts"`
	BodyBytes   int               `json:"body_bytes"`
	Selectors   []SelectorReport  `json:"selectors"`
	Selector    string            `json:"selector"`
	Records     int               `json:"records"`
	Placeholder bool              `json:"placeholder"`
	Skipped     []CandidateReport `json:"skipped,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// AttemptReport is one fetch attempt.
type AttemptReport struct {
	Strategy   string `json:"strategy"`
	Outcome    string `json:"outcome"`
	StatusCode int    `json:"status_code,omitempty"`
	Bytes      int    `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// SelectorReport is how many elements one configured selector matches.
type SelectorReport struct {
	Selector string `json:"selector"`
	Matches  int    `json:"matches"`
}

// CandidateReport is one skipped candidate.
type CandidateReport struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// FeedReport describes a feed file on disk.
type FeedReport struct {
	Path       string `json:"path"`
	FeedType   string `json:"feed_type,omitempty"`
	Version    string `json:"version,omitempty"`
	Title      string `json:"title,omitempty"`
	Items      int    `json:"items"`
	LatestDate string `json:"latest_date,omitempty"`
	Bytes      int    `json:"bytes"`
	Error      string `json:"error,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("diagnose", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var configPath, htmlPath, feedPath, format string
	fs.StringVar(&configPath, "config", "", "Optional YAML configuration file")
	fs.StringVar(&htmlPath, "html", "", "Diagnose a saved HTML page instead of fetching")
	fs.StringVar(&feedPath, "feed", "", "Inspect a written feed file instead of the page")
	fs.StringVar(&format, "format", "text", "Output format: text or json")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if format != "text" && format != "json" {
		fmt.Fprintf(stderr, "Error: unknown format %q\n", format)
		return 1
	}

	if feedPath != "" {
		report := diagnoseFeedFile(feedPath)
		if err := writeReport(stdout, format, report, func(w io.Writer) { printFeedReport(w, report) }); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if report.Error != "" {
			return 1
		}
		return 0
	}

	_ = godotenv.Load()
	cfg, err := config.LoadGeneratorConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logging.NewTextLogger())

	report, err := diagnosePage(ctx, cfg, htmlPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := writeReport(stdout, format, report, func(w io.Writer) { printPageReport(w, report) }); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// diagnosePage fetches the listing page (or reads htmlPath) and runs the
// extractor over it.
func diagnosePage(ctx context.Context, cfg *config.GeneratorConfig, htmlPath string) (*PageReport, error) {
	report := &PageReport{URL: cfg.Source.URL}

	var markup []byte
	if htmlPath != "" {
		data, err := os.ReadFile(htmlPath)
		if err != nil {
			return nil, fmt.Errorf("read html: %w", err)
		}
		report.URL = htmlPath
		markup = data
	} else {
		page, err := fetcher.NewFetcher(cfg.Fetcher, nil).Fetch(ctx, cfg.Source.URL)
		report.Attempts = attemptReports(page, err)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Strategy = page.Strategy
			markup = page.Body
		}
	}
	report.BodyBytes = len(markup)

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup)); err == nil {
		for _, sel := range cfg.Extractor.Selectors {
			report.Selectors = append(report.Selectors, SelectorReport{
				Selector: sel,
				Matches:  doc.Find(sel).Length(),
			})
		}
	}

	extractor, err := scraper.NewExtractor(cfg.Extractor, cfg.Source.BaseURL, cfg.Source.URL, time.Now)
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}
	result := extractor.Extract(ctx, markup)

	report.Selector = result.Selector
	report.Records = len(result.Articles)
	report.Placeholder = result.Placeholder
	for _, o := range result.Outcomes {
		if o.Accepted() {
			continue
		}
		report.Skipped = append(report.Skipped, CandidateReport{
			Index:  o.Index,
			Reason: string(o.Skip),
			Detail: o.Detail,
		})
	}
	return report, nil
}

// attemptReports collects the attempts from a successful page or a
// *fetcher.FetchError.
func attemptReports(page *fetcher.Page, err error) []AttemptReport {
	var attempts []fetcher.Attempt
	if page != nil {
		attempts = page.Attempts
	}
	var fetchErr *fetcher.FetchError
	if err != nil && errors.As(err, &fetchErr) {
		attempts = fetchErr.Attempts
	}

	reports := make([]AttemptReport, 0, len(attempts))
	for _, a := range attempts {
		r := AttemptReport{
			Strategy:   a.Strategy,
			Outcome:    a.Outcome(),
			StatusCode: a.StatusCode,
			Bytes:      a.Bytes,
			DurationMS: a.Duration.Milliseconds(),
		}
		if a.Err != nil {
			r.Error = a.Err.Error()
		}
		reports = append(reports, r)
	}
	return reports
}

// diagnoseFeedFile parses a written feed with gofeed.
func diagnoseFeedFile(path string) *FeedReport {
	report := &FeedReport{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Bytes = len(data)

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		report.Error = fmt.Sprintf("parse feed: %v", err)
		return report
	}

	report.FeedType = parsed.FeedType
	report.Version = parsed.FeedVersion
	report.Title = parsed.Title
	report.Items = len(parsed.Items)

	var latest time.Time
	for _, item := range parsed.Items {
		if item.PublishedParsed != nil && item.PublishedParsed.After(latest) {
			latest = *item.PublishedParsed
		}
	}
	if !latest.IsZero() {
		report.LatestDate = latest.Format(time.RFC3339)
	}
	return report
}

func writeReport(w io.Writer, format string, report any, text func(io.Writer)) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}
	text(w)
	return nil
}

func printPageReport(w io.Writer, r *PageReport) {
	fmt.Fprintf(w, "Source: %s\n", r.URL)
	if len(r.Attempts) > 0 {
		fmt.Fprintln(w, "\nFetch attempts:")
		for _, a := range r.Attempts {
			fmt.Fprintf(w, "  %-12s %-12s status=%d bytes=%d %dms", a.Strategy, a.Outcome, a.StatusCode, a.Bytes, a.DurationMS)
			if a.Error != "" {
				fmt.Fprintf(w, " error=%s", a.Error)
			}
			fmt.Fprintln(w)
		}
	}
	if r.Error != "" {
		fmt.Fprintf(w, "\nFetch failed: %s\n", r.Error)
	}

	fmt.Fprintf(w, "\nBody: %d bytes\n", r.BodyBytes)
	if len(r.Selectors) > 0 {
		fmt.Fprintln(w, "\nSelectors:")
		for _, s := range r.Selectors {
			marker := " "
			if s.Selector == r.Selector {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %-40s %d\n", marker, s.Selector, s.Matches)
		}
	}

	fmt.Fprintf(w, "\nRecords: %d", r.Records)
	if r.Placeholder {
		fmt.Fprint(w, " (placeholder)")
	}
	fmt.Fprintln(w)

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w, "\nSkipped candidates:")
		for _, c := range r.Skipped {
			fmt.Fprintf(w, "  #%d %s %s\n", c.Index, c.Reason, c.Detail)
		}
	}
}

func printFeedReport(w io.Writer, r *FeedReport) {
	fmt.Fprintf(w, "Feed: %s (%d bytes)\n", r.Path, r.Bytes)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		return
	}
	fmt.Fprintf(w, "Type: %s %s\n", r.FeedType, r.Version)
	fmt.Fprintf(w, "Title: %s\n", r.Title)
	fmt.Fprintf(w, "Items: %d\n", r.Items)
	if r.LatestDate != "" {
		fmt.Fprintf(w, "Latest: %s\n", r.LatestDate)
	}
}
