package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alnah/go-roxy/internal/config"
)

// printUsage prints the command usage.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: roxy [flags] <input> [output]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run markdown files through a chain of transforms.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input     Markdown file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w, "  output    Output file or directory (same as --output)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Pipeline:")
	fmt.Fprintf(w, "  -s, --steps <list>        Steps in order: %s\n", strings.Join(config.KnownSteps, ", "))
	fmt.Fprintf(w, "                            Default: %s\n", strings.Join(config.DefaultSteps, ","))
	fmt.Fprintln(w, "      --set key=value       Template binding (repeatable)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --preview             Render the input in the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Layout:")
	fmt.Fprintln(w, "      --style <name>        CSS style name")
	fmt.Fprintln(w, "      --layout <name>       Document layout name")
	fmt.Fprintln(w, "      --lang <s>            Document language")
	fmt.Fprintln(w, "      --title <s>           Document title (\"\" = first heading)")
	fmt.Fprintln(w, "      --assets <dir>        Custom asset directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PDF:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: letter, a4, legal")
	fmt.Fprintln(w, "      --orientation <s>     Orientation: portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in inches (0.25-3.0)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Page load timeout (e.g. 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagnostics:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show per-file timing")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      text, json")
	fmt.Fprintln(w, "      --metrics-file <path> Write Prometheus metrics after the run")
	fmt.Fprintln(w, "      --print-config        Print the effective config and exit")
	fmt.Fprintln(w, "      --version             Print version and exit")
}
