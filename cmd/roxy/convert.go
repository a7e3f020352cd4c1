package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alnah/go-roxy"
	"github.com/alnah/go-roxy/internal/config"
	"github.com/alnah/go-roxy/internal/logging"
	"github.com/alnah/go-roxy/internal/metrics"
	flag "github.com/spf13/pflag"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrConversionFailed = errors.New("conversion failed")
	errUsage            = errors.New("usage error")
)

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		printError(env, fmt.Errorf("%w: %v", errUsage, err))
		return ExitUsage
	}

	if flags.version {
		fmt.Fprintf(env.Stdout, "roxy %s\n", Version)
		return ExitSuccess
	}

	if err := execute(ctx, flags, positional, env); err != nil {
		printError(env, err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// execute loads the config, merges flags and runs the selected mode.
func execute(ctx context.Context, flags *cliFlags, positional []string, env *Environment) error {
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(positional) > 2 {
		return fmt.Errorf("%w: expected at most 2 arguments, got %d", errUsage, len(positional))
	}

	cfg := config.DefaultConfig()
	if flags.config != "" {
		var err error
		if cfg, err = config.LoadConfig(flags.config); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if flags.printConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("printing config: %w", err)
		}
		_, err = env.Stdout.Write(data)
		return err
	}

	logger := logging.New(env.Stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	inputPath, err := resolveInputPath(positional, cfg)
	if err != nil {
		return err
	}

	if flags.preview {
		return runPreview(ctx, cfg, inputPath, env)
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.File != "" {
		recorder = metrics.New()
	}

	err = runConvert(ctx, cfg, inputPath, resolveOutput(flags, positional, cfg), flags, env, logger, recorder)

	if recorder != nil {
		if werr := recorder.WriteTextfile(cfg.Metrics.File); werr != nil {
			logger.Warn("writing metrics", "file", cfg.Metrics.File, "error", werr)
		}
	}
	return err
}

// runConvert discovers files and converts them with a pool of pipelines.
func runConvert(ctx context.Context, cfg *config.Config, inputPath, output string, flags *cliFlags,
	env *Environment, logger *slog.Logger, recorder *metrics.Recorder,
) error {
	files, err := discoverFiles(inputPath, output, outputExt(cfg.Steps))
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}

	var observer roxy.StepObserver
	var assets assetObserver
	if recorder != nil {
		observer, assets = recorder, recorder
	}

	factory, err := newPipelineFactory(cfg, env.Now(), observer)
	if err != nil {
		return err
	}

	poolSize := roxy.ResolvePoolSize(flags.workers)
	if poolSize > len(files) {
		poolSize = len(files)
	}
	pool := roxy.NewPipelinePool(poolSize, factory)
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Warn("closing pipelines", "error", cerr)
		}
	}()

	logger.Debug("starting conversion", "files", len(files), "workers", poolSize, "steps", cfg.Steps)

	results := convertBatch(ctx, pool, files, assets, logger)
	failed := printResults(results, flags.quiet, flags.verbose, env)
	if failed == 0 {
		return nil
	}
	return &batchError{failed: failed, total: len(results), first: firstError(results)}
}

// batchError reports failed files after they were printed one by one.
// It unwraps to the first failure so the exit code follows its cause.
type batchError struct {
	failed, total int
	first         error
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%v: %d of %d file(s)", ErrConversionFailed, e.failed, e.total)
}

func (e *batchError) Unwrap() []error {
	return []error{ErrConversionFailed, e.first}
}

func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// runPreview renders one markdown file in the terminal. The template
// step, when configured, runs first so bindings show up in the preview.
func runPreview(ctx context.Context, cfg *config.Config, inputPath string, env *Environment) error {
	previewCfg := *cfg
	previewCfg.Steps = []string{config.StepTerminal}
	for _, s := range cfg.Steps {
		if s == config.StepTemplate {
			previewCfg.Steps = []string{config.StepTemplate, config.StepTerminal}
			break
		}
	}

	factory, err := newPipelineFactory(&previewCfg, env.Now(), nil)
	if err != nil {
		return err
	}
	p, err := factory()
	if err != nil {
		return err
	}
	defer p.Close()

	proc := roxy.Processor{
		Sink: roxy.SinkFunc(func(_ string, data []byte) error {
			_, err := env.Stdout.Write(data)
			return err
		}),
	}
	// The preview has no output file; the input locator names the run.
	return proc.Process(ctx, inputPath, inputPath, p)
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *cliFlags, cfg *config.Config) {
	if len(flags.steps) > 0 {
		cfg.Steps = flags.steps
	}
	if len(flags.set) > 0 {
		if cfg.Template.Context == nil {
			cfg.Template.Context = make(map[string]any, len(flags.set))
		}
		for k, v := range flags.set {
			cfg.Template.Context[k] = v
		}
	}
	if flags.timeout != "" {
		cfg.PDF.Timeout = flags.timeout
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if flags.verbose && flags.logLevel == "" {
		cfg.Log.Level = "debug"
	}
	if flags.metricsFile != "" {
		cfg.Metrics.File = flags.metricsFile
	}
	if flags.assetPath != "" {
		cfg.Assets.BasePath = flags.assetPath
	}

	// Page flags
	if flags.page.size != "" {
		cfg.PDF.Page.Size = flags.page.size
	}
	if flags.page.orientation != "" {
		cfg.PDF.Page.Orientation = flags.page.orientation
	}
	if flags.page.margin > 0 {
		cfg.PDF.Page.Margin = flags.page.margin
	}

	// Layout flags
	if flags.layout.style != "" {
		cfg.Layout.Style = flags.layout.style
	}
	if flags.layout.name != "" {
		cfg.Layout.Name = flags.layout.name
	}
	if flags.layout.lang != "" {
		cfg.Layout.Lang = flags.layout.lang
	}
	if flags.layout.title != "" {
		cfg.Layout.Title = flags.layout.title
	}
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutput determines the output location.
// Priority: --output > second argument > output.defaultDir.
func resolveOutput(flags *cliFlags, args []string, cfg *config.Config) string {
	if flags.output != "" {
		return flags.output
	}
	if len(args) > 1 {
		return args[1]
	}
	return cfg.Output.DefaultDir
}

// Compile-time interface implementation checks.
var (
	_ roxy.StepObserver = (*metrics.Recorder)(nil)
	_ assetObserver     = (*metrics.Recorder)(nil)
)
