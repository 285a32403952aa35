package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"oricon-feed/internal/observability/logging"
	"oricon-feed/internal/observability/metrics"
	"oricon-feed/internal/resilience/circuitbreaker"
)

// DirectStrategy names the request made straight to the source page.
// Relay strategies are named after their Relay.Name.
const DirectStrategy = "direct"

// Attempt outcome labels, used for metrics and logs.
const (
	OutcomeAccepted    = "accepted"
	OutcomeTooSmall    = "too_small"
	OutcomeTooLarge    = "too_large"
	OutcomeHTTPError   = "http_error"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeTimeout     = "timeout"
	OutcomeCanceled    = "canceled"
	OutcomeError       = "error"
)

// Attempt records the outcome of one strategy.
type Attempt struct {
	Strategy   string
	URL        string
	StatusCode int
	Bytes      int
	Duration   time.Duration
	Err        error
}

// Accepted reports whether the attempt produced a usable page.
func (a Attempt) Accepted() bool {
	return a.Err == nil
}

// Outcome classifies the attempt into one of the Outcome* labels.
func (a Attempt) Outcome() string {
	var httpErr *HTTPError
	switch {
	case a.Err == nil:
		return OutcomeAccepted
	case errors.Is(a.Err, ErrBodyTooSmall):
		return OutcomeTooSmall
	case errors.Is(a.Err, ErrBodyTooLarge):
		return OutcomeTooLarge
	case errors.As(a.Err, &httpErr):
		return OutcomeHTTPError
	case errors.Is(a.Err, gobreaker.ErrOpenState), errors.Is(a.Err, gobreaker.ErrTooManyRequests):
		return OutcomeBreakerOpen
	case errors.Is(a.Err, ErrTimeout):
		return OutcomeTimeout
	case errors.Is(a.Err, context.Canceled), errors.Is(a.Err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// Page is an accepted response body.
type Page struct {
	Body       []byte
	Strategy   string
	URL        string
	StatusCode int
	// Attempts lists every attempt made, the accepted one last.
	Attempts []Attempt
}

// Fetcher obtains the markup of a page, trying a direct request and then
// each configured relay in order until one response is accepted.
//
// Each strategy has its own circuit breaker. Breakers outlive a single Fetch
// call, so a long-running worker skips a strategy that keeps failing; the
// skipped strategy is recorded as a failed attempt.
//
// Thread safety: Fetcher is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	config Config

	mu       sync.Mutex
	breakers map[string]*circuitbreaker.CircuitBreaker
}

// NewFetcher creates a Fetcher. A nil client gets a default one with TLS 1.2+
// and redirect validation; per-attempt timeouts come from config either way.
func NewFetcher(config Config, client *http.Client) *Fetcher {
	f := &Fetcher{
		config:   config,
		breakers: make(map[string]*circuitbreaker.CircuitBreaker, len(config.Relays)+1),
	}

	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
			CheckRedirect: f.checkRedirect,
		}
	}
	f.client = client

	return f
}

// checkRedirect limits the redirect chain and validates every target.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= f.config.MaxRedirects {
		return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
	}
	if err := validateURL(req.Context(), req.URL.String(), f.config.DenyPrivateIPs); err != nil {
		return fmt.Errorf("redirect target validation failed: %w", err)
	}
	return nil
}

// Fetch returns the first accepted page for target.
//
// The target must be an absolute http(s) URL; otherwise the returned error
// wraps ErrInvalidURL and no strategy is tried. Resolving the host and the
// private address check belong to the direct attempt, so a DNS failure falls
// through to the relays like any other transport failure.
//
// When every strategy is rejected the error is a *FetchError matching
// ErrAllStrategiesFailed. Context cancellation stops the search early with
// the same error type, its Cause set to the context error.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	if err := validateURL(ctx, target, false); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	attempts := make([]Attempt, 0, len(f.config.Relays)+1)

	page, attempt := f.try(ctx, DirectStrategy, target, f.config.DirectTimeout)
	attempts = append(attempts, attempt)
	f.logAttempt(logger, attempt)
	if page != nil {
		page.Attempts = attempts
		return page, nil
	}

	limiter := newRelayLimiter(f.config.RelayDelay)
	for _, relay := range f.config.Relays {
		if ctx.Err() != nil {
			return nil, &FetchError{Attempts: attempts, Cause: ctx.Err()}
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Attempts: attempts, Cause: err}
		}

		page, attempt = f.try(ctx, relay.Name, relay.BuildURL(target), f.config.RelayTimeout)
		attempts = append(attempts, attempt)
		f.logAttempt(logger, attempt)
		if page != nil {
			page.Attempts = attempts
			return page, nil
		}
	}

	return nil, &FetchError{Attempts: attempts, Cause: ctx.Err()}
}

// newRelayLimiter spaces relay requests delay apart. The first relay starts
// immediately.
func newRelayLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// try runs one strategy through its circuit breaker.
func (f *Fetcher) try(ctx context.Context, strategy, requestURL string, timeout time.Duration) (*Page, Attempt) {
	start := time.Now()
	attempt := Attempt{Strategy: strategy, URL: requestURL}

	page, err := circuitbreaker.Do(f.breaker(strategy), func() (*Page, error) {
		page, err := f.get(ctx, strategy, requestURL, timeout, &attempt)
		if err != nil && ctx.Err() != nil {
			// The caller gave up; the breaker must not blame the strategy.
			return nil, fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return page, err
	})

	attempt.Duration = time.Since(start)
	attempt.Err = err
	metrics.RecordFetchAttempt(strategy, attempt.Outcome(), attempt.Duration, attempt.Bytes)

	if err != nil {
		return nil, attempt
	}
	return page, attempt
}

// get performs the request and applies the acceptance check. Status code and
// body size are written to attempt as soon as they are known.
func (f *Fetcher) get(ctx context.Context, strategy, requestURL string, timeout time.Duration, attempt *Attempt) (*Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := validateURL(reqCtx, requestURL, f.config.DenyPrivateIPs); err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: host not resolved within %v", ErrTimeout, timeout)
		}
		return nil, err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	attempt.StatusCode = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	// Read one byte past the limit to detect oversized bodies.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: body not read within %v", ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}
	attempt.Bytes = len(body)

	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}
	if len(body) <= f.config.MinBodyBytes {
		return nil, fmt.Errorf("%w: %d bytes, need more than %d", ErrBodyTooSmall, len(body), f.config.MinBodyBytes)
	}

	return &Page{
		Body:       body,
		Strategy:   strategy,
		URL:        requestURL,
		StatusCode: resp.StatusCode,
	}, nil
}

// breaker returns the circuit breaker for strategy, creating it on first use.
func (f *Fetcher) breaker(strategy string) *circuitbreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb, ok := f.breakers[strategy]
	if !ok {
		cfg := circuitbreaker.RelayFetchConfig(strategy)
		if strategy == DirectStrategy {
			cfg = circuitbreaker.DirectFetchConfig(strategy)
		}
		cb = circuitbreaker.New(cfg)
		f.breakers[strategy] = cb
	}
	return cb
}

// BreakerStates returns the circuit breaker state of every strategy in
// attempt order. Strategies not yet tried report "closed".
func (f *Fetcher) BreakerStates() []StrategyState {
	names := make([]string, 0, len(f.config.Relays)+1)
	names = append(names, DirectStrategy)
	for _, r := range f.config.Relays {
		names = append(names, r.Name)
	}

	states := make([]StrategyState, 0, len(names))
	for _, name := range names {
		states = append(states, StrategyState{
			Strategy: name,
			State:    f.breaker(name).State().String(),
		})
	}
	return states
}

// StrategyState pairs a strategy with its circuit breaker state.
type StrategyState struct {
	Strategy string `json:"strategy"`
	State    string `json:"state"`
}

func (f *Fetcher) logAttempt(logger *slog.Logger, a Attempt) {
	if a.Accepted() {
		logger.Info("page fetched",
			slog.String("strategy", a.Strategy),
			slog.Int("status", a.StatusCode),
			slog.Int("bytes", a.Bytes),
			slog.Duration("duration", a.Duration))
		return
	}
	logger.Warn("fetch strategy failed",
		slog.String("strategy", a.Strategy),
		slog.String("outcome", a.Outcome()),
		slog.Int("status", a.StatusCode),
		slog.Int("bytes", a.Bytes),
		slog.Duration("duration", a.Duration),
		slog.Any("error", a.Err))
}
