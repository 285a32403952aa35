// Package scraper extracts article records from the markup of a news
// listing page using prioritized CSS selector strategies.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"oricon-feed/internal/domain/entity"
	"oricon-feed/internal/observability/logging"
	"oricon-feed/internal/observability/metrics"
	"oricon-feed/internal/utils/text"
)

// dateLayouts are tried in order after the leading YYYY-MM-DD form.
var dateLayouts = []string{
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
}

// rejectedHrefPrefixes mark links that never lead to an article.
var rejectedHrefPrefixes = []string{"#", "javascript:", "mailto:"}

// Extractor turns listing page markup into article records.
//
// Thread safety: Extractor is safe for concurrent use.
type Extractor struct {
	config    Config
	baseURL   *url.URL
	sourceURL string
	now       func() time.Time
}

// NewExtractor creates an Extractor. Relative links and images resolve
// against baseURL; sourceURL is the link of the placeholder record.
// A nil now uses time.Now.
func NewExtractor(config Config, baseURL, sourceURL string, now func() time.Time) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("base URL must be absolute, got %q", baseURL)
	}
	if now == nil {
		now = time.Now
	}

	return &Extractor{
		config:    config,
		baseURL:   base,
		sourceURL: sourceURL,
		now:       now,
	}, nil
}

// Extract parses markup and returns between 1 and MaxRecords records.
// Empty or unparsable markup, no matching selector, or every candidate
// being skipped all yield a single placeholder record.
func (e *Extractor) Extract(ctx context.Context, markup []byte) Result {
	logger := logging.FromContext(ctx)
	now := e.now()

	var result Result
	if len(bytes.TrimSpace(markup)) > 0 {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
		if err != nil {
			logger.Warn("failed to parse markup", slog.Any("error", err))
		} else {
			result = e.extract(doc, now, logger)
		}
	}

	metrics.RecordSelectorChosen(result.Selector)
	for reason, n := range result.SkipCounts() {
		metrics.RecordCandidatesSkipped(string(reason), n)
	}

	if len(result.Articles) == 0 {
		result.Articles = []entity.Article{entity.NewPlaceholderArticle(e.sourceURL, now)}
		result.Placeholder = true
		logger.Warn("no articles extracted, using placeholder",
			slog.String("selector", result.Selector),
			slog.Int("candidates", result.Candidates))
	}

	return result
}

// extract runs the selector search and processes the candidates.
func (e *Extractor) extract(doc *goquery.Document, now time.Time, logger *slog.Logger) Result {
	var result Result

	selector, matches := e.selectCandidates(doc)
	if selector == "" {
		logger.Info("no selector matched the listing page")
		return result
	}

	result.Selector = selector
	result.Matches = matches.Length()
	pool := matches
	if pool.Length() > e.config.MaxCandidates {
		pool = pool.Slice(0, e.config.MaxCandidates)
	}
	result.Candidates = pool.Length()

	seen := make(map[string]bool)
	pool.EachWithBreak(func(i int, el *goquery.Selection) bool {
		outcome := e.process(el, seen, now)
		outcome.Index = i
		result.Outcomes = append(result.Outcomes, outcome)

		if !outcome.Accepted() {
			logger.Debug("candidate skipped",
				slog.Int("index", i),
				slog.String("reason", string(outcome.Skip)),
				slog.String("detail", outcome.Detail))
			return true
		}

		result.Articles = append(result.Articles, *outcome.Article)
		return len(result.Articles) < e.config.MaxRecords
	})

	logger.Info("articles extracted",
		slog.String("selector", selector),
		slog.Int("matches", result.Matches),
		slog.Int("candidates", result.Candidates),
		slog.Int("records", len(result.Articles)))

	return result
}

// selectCandidates returns the first selector matching at least MinMatches
// elements, with its matches.
func (e *Extractor) selectCandidates(doc *goquery.Document) (string, *goquery.Selection) {
	for _, selector := range e.config.Selectors {
		matches := doc.Find(selector)
		if matches.Length() >= e.config.MinMatches {
			return selector, matches
		}
	}
	return "", nil
}

// process turns one candidate element into an Outcome.
func (e *Extractor) process(el *goquery.Selection, seen map[string]bool, now time.Time) Outcome {
	title := extractTitle(el)
	if text.CountRunes(title) < e.config.MinTitleLength {
		return Outcome{Skip: SkipShortTitle, Detail: title}
	}

	href, ok := extractHref(el)
	if !ok {
		return Outcome{Skip: SkipMissingLink, Detail: title}
	}
	link, err := e.resolve(href)
	if err != nil {
		return Outcome{Skip: SkipInvalidLink, Detail: href}
	}
	if seen[link] {
		return Outcome{Skip: SkipDuplicateLink, Detail: link}
	}

	description := text.CollapseSpace(el.Find("p").First().Text())
	if description == "" {
		description = title
	}
	description, _ = text.Truncate(description, e.config.MaxDescriptionLength)

	article := entity.Article{
		Title:       title,
		Link:        link,
		Description: description,
		PublishedAt: extractDate(el, now),
		Image:       e.extractImage(el),
	}
	if err := article.Validate(); err != nil {
		return Outcome{Skip: SkipInvalidRecord, Detail: err.Error()}
	}

	seen[link] = true
	return Outcome{Article: &article}
}

// extractTitle returns the first heading's text, falling back to the
// element's own text.
func extractTitle(el *goquery.Selection) string {
	if title := text.CollapseSpace(el.Find("h1, h2, h3").First().Text()); title != "" {
		return title
	}
	return text.CollapseSpace(el.Text())
}

// extractHref returns the href of the element itself when it is an anchor,
// otherwise of its first anchor.
func extractHref(el *goquery.Selection) (string, bool) {
	anchor := el
	if goquery.NodeName(el) != "a" {
		anchor = el.Find("a").First()
	}
	href, ok := anchor.Attr("href")
	href = strings.TrimSpace(href)
	return href, ok && href != ""
}

// resolve makes href absolute against the base URL. Fragment-only,
// javascript: and mailto: links and non-http(s) results are rejected.
func (e *Extractor) resolve(href string) (string, error) {
	lower := strings.ToLower(href)
	for _, prefix := range rejectedHrefPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "", fmt.Errorf("rejected link %q", href)
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse link %q: %w", href, err)
	}

	abs := e.baseURL.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme in %q", href)
	}
	if abs.Host == "" {
		return "", fmt.Errorf("no host in %q", href)
	}
	return abs.String(), nil
}

// extractImage returns the absolute URL of the first image, preferring src
// over the lazy-loading data-src. An unusable image yields "".
func (e *Extractor) extractImage(el *goquery.Selection) string {
	img := el.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"src", "data-src"} {
		src := strings.TrimSpace(img.AttrOr(attr, ""))
		if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			continue
		}
		if abs, err := e.resolve(src); err == nil {
			return abs
		}
	}
	return ""
}

// extractDate reads the first <time> element, preferring its datetime
// attribute over its text. now is returned when there is no usable date.
func extractDate(el *goquery.Selection, now time.Time) time.Time {
	timeEl := el.Find("time").First()
	if timeEl.Length() == 0 {
		return now
	}

	value := strings.TrimSpace(timeEl.AttrOr("datetime", ""))
	if value == "" {
		value = text.CollapseSpace(timeEl.Text())
	}
	if t, ok := parseDate(value); ok {
		return t
	}
	return now
}

// parseDate tries the leading YYYY-MM-DD form, then the full layouts.
func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if len(value) >= 10 {
		if t, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
