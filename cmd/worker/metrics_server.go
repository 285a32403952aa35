package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"

	"oricon-feed/internal/infra/fetcher"
)

// StrategyHealthResponse reports the circuit breaker of every fetch strategy.
type StrategyHealthResponse struct {
	Healthy    bool                    `json:"healthy"`
	Strategies []fetcher.StrategyState `json:"strategies"`
}

// breakerReporter is implemented by *fetcher.Fetcher.
type breakerReporter interface {
	BreakerStates() []fetcher.StrategyState
}

// serveMetrics serves GET /metrics on port until ctx ends.
//
// Graceful shutdown:
//   - When ctx is canceled, the server shuts down within 5 seconds
//   - In-flight scrapes are allowed to complete
func serveMetrics(ctx context.Context, logger *slog.Logger, port int) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
			return err
		}
		logger.Info("metrics server stopped")
		return nil

	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}

// strategyHealthHandler handles GET /health/strategies.
// Returns 503 Service Unavailable when every strategy's breaker is open,
// since the next run can then only produce the placeholder feed.
func strategyHealthHandler(f breakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := f.BreakerStates()

		healthy := false
		for _, s := range states {
			if s.State != gobreaker.StateOpen.String() {
				healthy = true
				break
			}
		}

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(StrategyHealthResponse{
			Healthy:    healthy,
			Strategies: states,
		})
	}
}
