package main

import (
	"context"
	"errors"
	"os"

	"github.com/alnah/go-roxy"
	"github.com/alnah/go-roxy/internal/config"
	"github.com/alnah/go-roxy/internal/dateutil"
	"github.com/alnah/go-roxy/internal/hints"
)

// Exit codes for the roxy CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every file converted
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, template or validation
	ExitIO      = 3 // File not found, permission denied, write failure
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, roxy.ErrBrowserConnect) ||
		errors.Is(err, roxy.ErrPageCreate) ||
		errors.Is(err, roxy.ErrPageLoad) ||
		errors.Is(err, roxy.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, roxy.ErrReadAsset) ||
		errors.Is(err, roxy.ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoFiles) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, errUsage) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, roxy.ErrInvalidLocator) ||
		errors.Is(err, roxy.ErrTemplate) ||
		errors.Is(err, roxy.ErrInvalidPageSize) ||
		errors.Is(err, roxy.ErrInvalidOrientation) ||
		errors.Is(err, roxy.ErrInvalidMargin) ||
		errors.Is(err, roxy.ErrStyleNotFound) ||
		errors.Is(err, roxy.ErrLayoutNotFound) ||
		errors.Is(err, roxy.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	var be *batchError
	switch {
	case err == nil, errors.As(err, &be):
		// Batch failures already carry their hints per file.
		return ""
	case errors.Is(err, roxy.ErrPageLoad), errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, roxy.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, config.ErrUnknownStep):
		return hints.ForUnknownStep(config.KnownSteps)
	case errors.Is(err, roxy.ErrStyleNotFound):
		return hints.ForAssetNotFound("style", roxy.BuiltinStyles())
	case errors.Is(err, roxy.ErrLayoutNotFound):
		return hints.ForAssetNotFound("layout", roxy.BuiltinLayouts())
	case errors.Is(err, roxy.ErrTemplate):
		return hints.ForTemplate()
	case errors.Is(err, roxy.ErrWriteOutput):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}
