package roxy

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alnah/go-roxy/internal/pipeline"
)

// Markdown converts CommonMark (with GFM tables, strikethrough, autolinks,
// task lists and footnotes) to an HTML fragment.
//
// Invalid UTF-8 never fails the step: each bad sequence becomes U+FFFD.
// The path argument is ignored. A Markdown is stateless and safe to share
// between pipelines.
type Markdown struct {
	converter  *pipeline.GoldmarkConverter
	preprocess bool
}

// markdownConfig collects MarkdownOption values before the engine is built.
type markdownConfig struct {
	engine     pipeline.GoldmarkOptions
	preprocess bool
}

// MarkdownOption configures a Markdown step.
type MarkdownOption func(*markdownConfig)

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps() MarkdownOption {
	return func(c *markdownConfig) { c.engine.HardWraps = true }
}

// WithXHTML renders self-closing void elements.
func WithXHTML() MarkdownOption {
	return func(c *markdownConfig) { c.engine.XHTML = true }
}

// WithUnsafeHTML keeps raw HTML blocks and inline HTML from the source.
func WithUnsafeHTML() MarkdownOption {
	return func(c *markdownConfig) { c.engine.Unsafe = true }
}

// WithHeadingIDs adds generated id attributes to headings.
func WithHeadingIDs() MarkdownOption {
	return func(c *markdownConfig) { c.engine.HeadingIDs = true }
}

// WithHighlighting enables syntax highlighting of fenced code blocks.
// An empty style emits chroma CSS classes; a named style inlines colors.
func WithHighlighting(style string) MarkdownOption {
	return func(c *markdownConfig) {
		c.engine.Highlight = true
		c.engine.HighlightStyle = style
		c.engine.InlineStyles = style != ""
	}
}

// WithPreprocessing normalizes line endings, compresses blank lines and
// turns ==text== into <mark>text</mark>.
func WithPreprocessing() MarkdownOption {
	return func(c *markdownConfig) { c.preprocess = true }
}

// NewMarkdown creates a Markdown step.
func NewMarkdown(opts ...MarkdownOption) *Markdown {
	var cfg markdownConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Markdown{
		converter:  pipeline.NewGoldmarkConverter(cfg.engine),
		preprocess: cfg.preprocess,
	}
}

// Name implements Namer.
func (m *Markdown) Name() string { return "markdown" }

// Apply implements Transform.
func (m *Markdown) Apply(_ context.Context, _ string, src []byte, dst *bytes.Buffer) error {
	if !m.preprocess {
		if err := m.converter.Convert(src, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrHTMLConversion, err)
		}
		return nil
	}

	var out bytes.Buffer
	if err := m.converter.Convert(pipeline.PreprocessMarkdown(src), &out); err != nil {
		return fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	dst.Write(pipeline.ConvertMarkPlaceholders(out.Bytes()))
	return nil
}
