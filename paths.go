package roxy

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/alnah/go-roxy/internal/pipeline"
)

// PathResolver rewrites relative img src and a href values to absolute
// file:// URLs, so a document rendered from another location (the PDF step
// renders from a temporary file) still finds its images.
//
// Links are resolved against BaseDir, or against the directory of the run
// path when BaseDir is empty. References leaving that directory, URLs,
// anchors and absolute paths are left untouched.
type PathResolver struct {
	BaseDir string
}

// NewPathResolver creates a PathResolver rooted at baseDir.
func NewPathResolver(baseDir string) *PathResolver {
	return &PathResolver{BaseDir: baseDir}
}

// Name implements Namer.
func (r *PathResolver) Name() string { return "paths" }

// Apply implements Transform.
func (r *PathResolver) Apply(_ context.Context, path string, src []byte, dst *bytes.Buffer) error {
	base := r.BaseDir
	if base == "" {
		base = filepath.Dir(path)
	}

	var out bytes.Buffer
	if err := pipeline.RewriteRelativePaths(&out, src, base); err != nil {
		return fmt.Errorf("%w: rewriting paths: %v", ErrLayout, err)
	}
	dst.Write(out.Bytes())
	return nil
}
