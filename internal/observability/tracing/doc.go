// Package tracing provides OpenTelemetry tracing integration.
//
// Spans cover one generation run and its stages (fetch, extract, render,
// write). Without a configured TracerProvider the global no-op provider is
// used, so tracing costs nothing unless an exporter is installed.
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "generate.fetch")
//	defer span.End()
package tracing
