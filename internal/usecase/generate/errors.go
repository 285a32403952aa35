// Package generate orchestrates one feed generation run: fetch the listing
// page, extract records, render and verify the feed, and write it to disk.
package generate

import "errors"

// Sentinel errors for generation runs. Fetch and extraction problems are not
// among them: those degrade to a placeholder feed instead of failing.
var (
	// ErrRenderFailed indicates the records could not be serialized or the
	// serialized document did not verify.
	ErrRenderFailed = errors.New("failed to render feed")

	// ErrWriteFailed indicates the document could not be written to the
	// output path.
	ErrWriteFailed = errors.New("failed to write feed")

	// ErrAborted indicates the run was canceled before a feed was written.
	ErrAborted = errors.New("generation aborted")
)
