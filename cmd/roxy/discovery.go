package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-roxy"
	"github.com/alnah/go-roxy/internal/config"
	"github.com/alnah/go-roxy/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrNoFiles            = errors.New("no markdown files found")
)

// markdownExts are the input extensions picked up from directories.
var markdownExts = []string{".md", ".markdown"}

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// outputExt returns the extension of files produced by steps: the last
// step decides.
func outputExt(steps []string) string {
	if len(steps) == 0 {
		return ".html"
	}
	switch steps[len(steps)-1] {
	case config.StepPDF:
		return ".pdf"
	case config.StepTerminal:
		return ".txt"
	default:
		return ".html"
	}
}

// discoverFiles finds all markdown files under inputPath and pairs each
// with its output path.
func discoverFiles(inputPath, output, ext string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !isMarkdown(inputPath) {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(inputPath))
		}
		return []FileToConvert{{InputPath: inputPath, OutputPath: resolveOutputPath(inputPath, output, "", ext)}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !isMarkdown(path) {
			return nil
		}
		files = append(files, FileToConvert{InputPath: path, OutputPath: resolveOutputPath(path, output, inputPath, ext)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, inputPath)
	}
	return files, nil
}

// resolveOutputPath determines the output path for one input file.
// An output ending in ext names the file itself; any other output is a
// directory mirroring the input tree below baseInputDir.
func resolveOutputPath(inputPath, output, baseInputDir, ext string) string {
	if output == "" {
		return fileutil.ReplaceExt(inputPath, ext)
	}

	if strings.EqualFold(filepath.Ext(output), ext) {
		return output
	}

	name := fileutil.ReplaceExt(filepath.Base(inputPath), ext)
	if baseInputDir != "" {
		if rel, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(output, filepath.Dir(rel), name)
		}
	}
	return filepath.Join(output, name)
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range markdownExts {
		if ext == e {
			return true
		}
	}
	return false
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > roxy.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, roxy.MaxPoolSize)
	}
	return nil
}
