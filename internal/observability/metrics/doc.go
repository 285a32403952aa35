// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the metrics of a generation run:
//   - Fetch attempts per strategy (direct or relay), their outcome and the
//     circuit breaker state of each strategy
//   - Selector choice and per-candidate skip reasons during extraction
//   - Generation runs, duration, emitted items and placeholder substitutions
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed by the worker via the /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	// ... fetch page ...
//	metrics.RecordFetchAttempt("direct", "accepted", time.Since(start), len(body))
package metrics
