package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// cliFlags holds every command-line flag. Zero values mean "not set" and
// leave the config untouched.
type cliFlags struct {
	config      string
	steps       []string
	set         map[string]string
	output      string
	workers     int
	timeout     string
	preview     bool
	version     bool
	printConfig bool
	quiet       bool
	verbose     bool
	logLevel    string
	logFormat   string
	metricsFile string
	assetPath   string
	page        pageFlags
	layout      layoutFlags
}

// pageFlags holds PDF page flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
}

// layoutFlags holds document layout flags.
type layoutFlags struct {
	style string
	name  string
	lang  string
	title string
}

func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches (0.25-3.0)")
}

func addLayoutFlags(fs *flag.FlagSet, f *layoutFlags) {
	fs.StringVar(&f.style, "style", "", "layout CSS style name")
	fs.StringVar(&f.name, "layout", "", "document layout name")
	fs.StringVar(&f.lang, "lang", "", "document language (html lang attribute)")
	fs.StringVar(&f.title, "title", "", "document title (\"\" = first heading)")
}

// parseFlags parses args (without the program name) and returns the
// positional arguments.
func parseFlags(args []string, usage io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("roxy", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &cliFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringSliceVarP(&f.steps, "steps", "s", nil, "pipeline steps, in order (e.g. markdown,template,layout,pdf)")
	fs.StringToStringVar(&f.set, "set", nil, "template binding key=value (repeatable)")
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF page load timeout (e.g. 30s, 2m)")
	fs.BoolVar(&f.preview, "preview", false, "render the input in the terminal instead of writing files")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.BoolVar(&f.printConfig, "print-config", false, "print the effective config as YAML and exit")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show per-file timing")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	fs.StringVar(&f.assetPath, "assets", "", "custom asset directory (styles/, layouts/)")
	addPageFlags(fs, &f.page)
	addLayoutFlags(fs, &f.layout)

	fs.Usage = func() { printUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
