// Package observability groups the logging, metrics and tracing support
// shared by the generate command and the worker.
//
// Subpackages:
//   - logging: slog loggers, context propagation and run IDs
//   - metrics: Prometheus collectors for fetch, extraction and generation
//   - tracing: OpenTelemetry spans around the generation stages
//
// Example usage:
//
//	import (
//	    "oricon-feed/internal/observability/logging"
//	    "oricon-feed/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("generation started")
//
//	    metrics.RecordSelectorChosen("article.post")
//	}
package observability
