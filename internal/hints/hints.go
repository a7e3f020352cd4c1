// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-roxy/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environments and suggests the relevant variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("CI") != "true" && os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set CI=true to disable the Chrome sandbox in Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing the page load timeout.
func ForTimeout() string {
	return format("for large documents, raise --timeout or pdf.timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// searched is the list of paths already tried.
func ForConfigNotFound(searched []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searched {
		if strings.Contains(filepathSlash(p), "/go-roxy/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output write errors.
func ForOutputDirectory() string {
	return format("check the output directory is writable and not a file")
}

// ForAssetNotFound returns hints listing the built-in names of an asset kind.
func ForAssetNotFound(kind string, available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("built-in " + kind + "s: " + strings.Join(available, ", ") + "; or set --assets")
}

// ForTemplate returns hints for template failures.
func ForTemplate() string {
	return format("define missing values with --set key=value or template.context, or enable template.lenient")
}

// ForUnknownStep returns hints listing the accepted step names.
func ForUnknownStep(known []string) string {
	return format("steps: " + strings.Join(known, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

func filepathSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
