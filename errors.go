package roxy

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	// ErrTransform matches any *TransformError with errors.Is.
	ErrTransform = errors.New("transform failed")

	// ErrInvalidLocator indicates an input or output locator that cannot be
	// used as a path string. Reported before any I/O is attempted.
	ErrInvalidLocator = errors.New("invalid locator")

	// I/O errors at the orchestrator boundary.
	ErrReadAsset   = errors.New("failed to read asset")
	ErrWriteOutput = errors.New("failed to write output")

	// Step failures.
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrTemplate       = errors.New("template engine failure")
	ErrLayout         = errors.New("layout rendering failed")
	ErrTerminal       = errors.New("terminal rendering failed")

	// PDF step failures.
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")

	// PDF option validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")

	// Asset loading errors surfaced by the layout step.
	ErrStyleNotFound    = errors.New("style not found")
	ErrLayoutNotFound   = errors.New("layout not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)

// TransformError reports which step of a pipeline failed.
// The remaining steps were not run and the destination was not written.
type TransformError struct {
	Index int    // zero-based position of the failing step
	Step  string // step name, "" when the step does not implement Name
	Path  string // context identifier of the run
	Err   error
}

func (e *TransformError) Error() string {
	step := e.Step
	if step == "" {
		step = fmt.Sprintf("step %d", e.Index+1)
	}
	return fmt.Sprintf("%s: %s (%s): %v", ErrTransform, step, e.Path, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransform as matching so callers need not type-assert.
func (e *TransformError) Is(target error) bool {
	return target == ErrTransform
}
