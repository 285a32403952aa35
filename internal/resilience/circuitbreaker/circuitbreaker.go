// Package circuitbreaker isolates fetch strategies that keep failing, using
// github.com/sony/gobreaker. One breaker guards one strategy.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"oricon-feed/internal/observability/metrics"
)

// Config holds the configuration for a circuit breaker.
type Config struct {
	// Strategy is the fetch strategy guarded by the breaker; it labels logs
	// and the fetch_breaker_state metric.
	Strategy string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval clears the counts while closed.
	Interval time.Duration

	// Timeout is how long the breaker stays open before a trial request.
	Timeout time.Duration

	// FailureThreshold is the failure ratio that trips the breaker once
	// MinRequests requests were counted.
	FailureThreshold float64
	MinRequests      uint32
}

// DirectFetchConfig returns configuration for direct requests to the source site.
// The counting window spans several scheduled runs so that a site blocking
// us for hours trips the breaker and later runs go straight to the relays.
func DirectFetchConfig(strategy string) Config {
	return Config{
		Strategy:         strategy,
		MaxRequests:      1,
		Interval:         6 * time.Hour,
		Timeout:          30 * time.Minute,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// RelayFetchConfig returns configuration for a public relay endpoint.
// A relay that fails repeatedly is rested for an hour.
func RelayFetchConfig(strategy string) Config {
	cfg := DirectFetchConfig(strategy)
	cfg.Timeout = time.Hour
	return cfg
}

// CircuitBreaker guards calls made through one fetch strategy.
type CircuitBreaker struct {
	breaker  *gobreaker.CircuitBreaker
	strategy string
}

// New creates a closed circuit breaker.
//
// Errors wrapping context.Canceled or context.DeadlineExceeded are not
// counted as failures. Callers wrap them only when their own context ended;
// a strategy's own timeout must be reported with a different error.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        "fetch-" + cfg.Strategy,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("strategy", cfg.Strategy),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.RecordBreakerState(cfg.Strategy, to.String())
		},
	}

	metrics.RecordBreakerState(cfg.Strategy, gobreaker.StateClosed.String())
	return &CircuitBreaker{
		breaker:  gobreaker.NewCircuitBreaker(settings),
		strategy: cfg.Strategy,
	}
}

// Do runs fn through the breaker. While the breaker is open it returns
// gobreaker.ErrOpenState without calling fn.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := result.(T)
	return v, nil
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Strategy returns the guarded strategy.
func (cb *CircuitBreaker) Strategy() string {
	return cb.strategy
}
