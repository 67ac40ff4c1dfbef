// Package pipeline adapts the external PaddleOCR-VL pipeline to the
// server: it invokes the pipeline over a set of staged input files and
// collects the per-page artifacts it writes back into plain result
// records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotReady indicates the pipeline has not finished initialising (or
// failed to). Surfaced to HTTP callers as 503.
var ErrNotReady = errors.New("OCR pipeline not initialised")

// ProcessingError wraps a fault raised by the pipeline during an
// invocation. The invocation is all-or-nothing: no partial results are
// reported for inputs processed before the fault.
type ProcessingError struct {
	Stderr string
	Err    error
}

func (e *ProcessingError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("pipeline invocation failed: %v (stderr: %s)", e.Err, e.Stderr)
	}
	return fmt.Sprintf("pipeline invocation failed: %v", e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Runner is the seam between the HTTP layer and the external pipeline.
// Run processes every input path in order and writes one structured-data
// document and one markdown document per produced page into outputDir,
// named so that Collect can key them (file order, then intra-file page
// order).
type Runner interface {
	// Ready reports whether the pipeline can accept work.
	Ready() bool
	// Run invokes the pipeline once over all input paths.
	Run(ctx context.Context, inputPaths []string, outputDir string) error
}
