// Package logging builds the slog loggers of the commands and carries them
// through contexts.
//
// The worker logs JSON to stdout; the generate and diagnose commands log
// text to stderr. LOG_LEVEL selects debug, info, warn or error.
//
// Every generation run gets a run ID that appears on each of its log lines:
//
//	ctx, runID := logging.WithRunID(ctx, logger)
//	logging.FromContext(ctx).Info("generation started")
package logging
