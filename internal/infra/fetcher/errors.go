package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for page fetching. They classify why a single strategy
// was rejected; the caller normally only checks ErrAllStrategiesFailed.
var (
	// ErrAllStrategiesFailed indicates neither the direct request nor any relay
	// produced an acceptable page. This is an expected outcome, not a fault:
	// callers continue with empty markup.
	ErrAllStrategiesFailed = errors.New("all fetch strategies failed")

	// ErrInvalidURL indicates the URL format is invalid or uses an unsupported scheme.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a private IP address (SSRF prevention).
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	// ErrTooManyRedirects indicates the redirect chain exceeded the configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooSmall indicates the body did not exceed the minimum size,
	// which usually means an anti-bot interstitial or an error shell.
	ErrBodyTooSmall = errors.New("response body too small")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded its timeout.
	ErrTimeout = errors.New("request timeout")
)

// HTTPError represents a non-2xx HTTP response.
type HTTPError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// FetchError is returned when every strategy failed. It keeps the per-attempt
// outcomes for diagnostics and matches ErrAllStrategiesFailed with errors.Is.
type FetchError struct {
	Attempts []Attempt
	Cause    error // set when the run was cut short, e.g. by context cancellation
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Strategy, a.Err))
	}
	msg := ErrAllStrategiesFailed.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(parts) > 0 {
		msg += " [" + strings.Join(parts, "; ") + "]"
	}
	return msg
}

// Unwrap exposes the sentinel and the cause to errors.Is / errors.As.
func (e *FetchError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrAllStrategiesFailed, e.Cause}
	}
	return []error{ErrAllStrategiesFailed}
}
