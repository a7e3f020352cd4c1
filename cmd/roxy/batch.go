package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alnah/go-roxy"
)

// Pool abstracts pipeline pool operations for testability.
type Pool interface {
	Acquire() (*roxy.Pipeline, error)
	Release(*roxy.Pipeline)
	Size() int
}

// Compile-time interface implementation check.
var _ Pool = (*roxy.PipelinePool)(nil)

// assetObserver records per-file outcomes.
type assetObserver interface {
	ObserveAsset(err error, size int)
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// convertBatch processes files concurrently, one pipeline per worker.
// Results keep the order of files.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, obs assetObserver, logger *slog.Logger) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))
	results := make([]ConversionResult, len(files))
	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			p, err := pool.Acquire()
			if err != nil {
				// Pipeline creation failed, this worker fails the jobs it takes
				for idx := range jobs {
					results[idx] = failed(files[idx], fmt.Errorf("creating pipeline: %w", err))
				}
				return
			}
			defer pool.Release(p)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = failed(files[idx], ctx.Err())
					continue
				}
				results[idx] = convertFile(ctx, p, files[idx], obs)
				logResult(logger, results[idx])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile runs one file through p and writes it atomically.
func convertFile(ctx context.Context, p *roxy.Pipeline, f FileToConvert, obs assetObserver) ConversionResult {
	start := time.Now()

	var written int
	proc := roxy.Processor{
		Sink: roxy.SinkFunc(func(locator string, data []byte) error {
			written = len(data)
			return roxy.FileSink{}.Write(locator, data)
		}),
	}
	err := proc.Process(ctx, f.InputPath, f.OutputPath, p)
	if obs != nil {
		obs.ObserveAsset(err, written)
	}

	return ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
		Err:        err,
		Duration:   time.Since(start),
	}
}

func failed(f FileToConvert, err error) ConversionResult {
	return ConversionResult{InputPath: f.InputPath, OutputPath: f.OutputPath, Err: err}
}

func logResult(logger *slog.Logger, r ConversionResult) {
	if r.Err != nil {
		logger.Debug("conversion failed", "input", r.InputPath, "error", r.Err)
		return
	}
	logger.Debug("converted", "input", r.InputPath, "output", r.OutputPath, "duration", r.Duration)
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
