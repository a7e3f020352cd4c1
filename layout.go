package roxy

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/alnah/go-roxy/internal/pipeline"
)

// Layout wraps an HTML fragment in a complete HTML5 document with a title,
// a charset declaration and an inline stylesheet.
//
// The title is the text of the first <h1>, or the base name of the path
// without its extension when there is none. Input that already is a full
// document only gets the stylesheet injected.
type Layout struct {
	doc   *pipeline.DocumentLayout
	css   string
	lang  string
	title string
}

type layoutConfig struct {
	theme     Theme
	assetPath string
	style     string
	layout    string
	extraCSS  string
	lang      string
	title     string
}

// LayoutOption configures a Layout step.
type LayoutOption func(*layoutConfig)

// WithTheme sets the source of styles and layouts. It takes precedence
// over WithAssetPath.
func WithTheme(theme Theme) LayoutOption {
	return func(c *layoutConfig) { c.theme = theme }
}

// WithAssetPath loads styles and layouts from dir, falling back to the
// built-in ones.
func WithAssetPath(dir string) LayoutOption {
	return func(c *layoutConfig) { c.assetPath = dir }
}

// WithStyle selects the stylesheet by name. An empty name disables the
// built-in stylesheet.
func WithStyle(name string) LayoutOption {
	return func(c *layoutConfig) { c.style = name }
}

// WithLayoutName selects the document layout by name.
func WithLayoutName(name string) LayoutOption {
	return func(c *layoutConfig) { c.layout = name }
}

// WithCSS appends css after the selected stylesheet.
func WithCSS(css string) LayoutOption {
	return func(c *layoutConfig) { c.extraCSS = css }
}

// WithLang sets the lang attribute of the <html> element.
func WithLang(lang string) LayoutOption {
	return func(c *layoutConfig) { c.lang = lang }
}

// WithTitle fixes the document title instead of deriving it.
func WithTitle(title string) LayoutOption {
	return func(c *layoutConfig) { c.title = title }
}

// NewLayout creates a Layout step. Styles and the layout template are
// loaded and parsed once, here.
func NewLayout(opts ...LayoutOption) (*Layout, error) {
	cfg := layoutConfig{style: DefaultStyle, layout: DefaultLayout}
	for _, opt := range opts {
		opt(&cfg)
	}

	theme := cfg.theme
	if theme == nil {
		var err error
		if theme, err = NewTheme(cfg.assetPath); err != nil {
			return nil, err
		}
	}

	var css string
	if cfg.style != "" {
		style, err := theme.LoadStyle(cfg.style)
		if err != nil {
			return nil, err
		}
		css = style
	}
	if cfg.extraCSS != "" {
		css = strings.TrimSpace(css + "\n" + cfg.extraCSS)
	}

	tmpl, err := theme.LoadLayout(cfg.layout)
	if err != nil {
		return nil, err
	}
	doc, err := pipeline.NewDocumentLayout(tmpl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLayout, err)
	}

	return &Layout{doc: doc, css: css, lang: cfg.lang, title: cfg.title}, nil
}

// Name implements Namer.
func (l *Layout) Name() string { return "layout" }

// Apply implements Transform.
func (l *Layout) Apply(_ context.Context, p string, src []byte, dst *bytes.Buffer) error {
	if pipeline.IsDocument(src) {
		dst.Write(pipeline.InjectCSS(src, l.css))
		return nil
	}

	var out bytes.Buffer
	if err := l.doc.Render(&out, src, l.titleFor(p, src), l.lang, l.css); err != nil {
		return fmt.Errorf("%w: %v", ErrLayout, err)
	}
	dst.Write(out.Bytes())
	return nil
}

func (l *Layout) titleFor(p string, fragment []byte) string {
	if l.title != "" {
		return l.title
	}
	if title := pipeline.ExtractTitle(fragment); title != "" {
		return title
	}
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
