package roxy

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Processor loads one asset, runs it through a pipeline and writes the
// result. The zero value uses FileLoader and FileSink.
type Processor struct {
	Loader AssetLoader
	Sink   Sink
}

// Process reads input, runs p with output as the context identifier and
// writes the result to output.
//
// Both locators are checked before any I/O. Nothing is written unless every
// step succeeded. Errors wrap ErrInvalidLocator, ErrReadAsset,
// ErrWriteOutput or, for step failures, are a *TransformError.
func (pr Processor) Process(ctx context.Context, input, output string, p *Pipeline) error {
	if err := ValidateLocator(input); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := ValidateLocator(output); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	src, err := pr.read(input)
	if err != nil {
		return err
	}

	out, err := p.Render(ctx, output, src)
	if err != nil {
		return err
	}

	sink := pr.Sink
	if sink == nil {
		sink = FileSink{}
	}
	if err := sink.Write(output, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteOutput, output, err)
	}
	return nil
}

func (pr Processor) read(input string) ([]byte, error) {
	loader := pr.Loader
	if loader == nil {
		loader = FileLoader{}
	}

	asset, err := loader.Open(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadAsset, input, err)
	}
	defer asset.Close()

	data, err := io.ReadAll(asset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadAsset, input, err)
	}
	return data, nil
}

// Process runs p over the file at input and writes the file at output.
func Process(ctx context.Context, input, output string, p *Pipeline) error {
	return Processor{}.Process(ctx, input, output, p)
}

// ValidateLocator reports ErrInvalidLocator for locators that cannot name a
// file: empty, containing a NUL byte or not valid UTF-8.
func ValidateLocator(locator string) error {
	switch {
	case locator == "":
		return fmt.Errorf("%w: empty", ErrInvalidLocator)
	case strings.ContainsRune(locator, 0):
		return fmt.Errorf("%w: contains NUL byte", ErrInvalidLocator)
	case !utf8.ValidString(locator):
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidLocator)
	}
	return nil
}
