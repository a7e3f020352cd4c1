package pipeline

import (
	"bytes"
	"io"
	"unicode/utf8"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// replacementChar replaces every invalid UTF-8 sequence before conversion.
var replacementChar = []byte("\uFFFD")

// GoldmarkOptions selects Goldmark features. The zero value gives
// CommonMark plus GFM and footnotes, with raw HTML omitted.
type GoldmarkOptions struct {
	HardWraps      bool   // Treat newlines as <br>
	XHTML          bool   // Self-closing tags
	Unsafe         bool   // Keep raw HTML from the source
	HeadingIDs     bool   // Generate IDs for headings
	Highlight      bool   // Syntax highlighting for fenced code blocks
	HighlightStyle string // Chroma style, used only without CSS classes
	InlineStyles   bool   // Inline colors instead of chroma CSS classes
}

// GoldmarkConverter converts Markdown to HTML using goldmark (pure Go).
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter creates a GoldmarkConverter with GFM extensions.
func NewGoldmarkConverter(opts GoldmarkOptions) *GoldmarkConverter {
	extensions := []goldmark.Extender{
		extension.GFM,      // Tables, strikethrough, autolinks, task lists
		extension.Footnote, // [^1] footnotes
	}
	if opts.Highlight {
		formatOpts := []chromahtml.Option{chromahtml.WithClasses(!opts.InlineStyles)}
		hlOpts := []highlighting.Option{highlighting.WithFormatOptions(formatOpts...)}
		if opts.HighlightStyle != "" {
			hlOpts = append(hlOpts, highlighting.WithStyle(opts.HighlightStyle))
		}
		extensions = append(extensions, highlighting.NewHighlighting(hlOpts...))
	}

	var parserOpts []parser.Option
	if opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	var rendererOpts []goldmark.Option
	var htmlOpts []renderer.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if opts.XHTML {
		htmlOpts = append(htmlOpts, html.WithXHTML())
	}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	if len(htmlOpts) > 0 {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	}

	md := goldmark.New(append(rendererOpts,
		goldmark.WithExtensions(extensions...),
		goldmark.WithParserOptions(parserOpts...),
	)...)
	return &GoldmarkConverter{md: md}
}

// Convert writes the HTML fragment for src to w.
// Invalid UTF-8 in src is replaced with U+FFFD first, so damaged input
// still converts.
func (c *GoldmarkConverter) Convert(src []byte, w io.Writer) error {
	return c.md.Convert(ValidUTF8(src), w)
}

// ValidUTF8 returns src unchanged when it is valid UTF-8, otherwise a copy
// with each run of invalid bytes replaced by U+FFFD.
func ValidUTF8(src []byte) []byte {
	if utf8.Valid(src) {
		return src
	}
	return bytes.ToValidUTF8(src, replacementChar)
}
