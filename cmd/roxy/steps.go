package main

import (
	"fmt"
	"time"

	"github.com/alnah/go-roxy"
	"github.com/alnah/go-roxy/internal/config"
)

// newPipelineFactory validates cfg once and returns a factory building one
// independent pipeline per call. Every pipeline gets its own Template, so
// batch workers never share a template registry.
func newPipelineFactory(cfg *config.Config, now time.Time, obs roxy.StepObserver) (roxy.PipelineFactory, error) {
	bindings, err := cfg.Bindings(now)
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.PDF.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	// Build once so configuration errors surface before any file is read.
	probe, err := buildPipeline(cfg, bindings, timeout, obs)
	if err != nil {
		return nil, err
	}
	if err := probe.Close(); err != nil {
		return nil, err
	}

	return func() (*roxy.Pipeline, error) {
		return buildPipeline(cfg, bindings, timeout, obs)
	}, nil
}

// buildPipeline creates the steps named in cfg.Steps, in order.
func buildPipeline(cfg *config.Config, bindings map[string]any, timeout time.Duration, obs roxy.StepObserver) (*roxy.Pipeline, error) {
	p := roxy.NewPipeline()
	for _, name := range cfg.Steps {
		step, err := buildStep(name, cfg, bindings, timeout)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("building %s step: %w", name, err)
		}
		p.Push(roxy.Instrumented(step, obs))
	}
	return p, nil
}

func buildStep(name string, cfg *config.Config, bindings map[string]any, timeout time.Duration) (roxy.Transform, error) {
	switch name {
	case config.StepMarkdown:
		return roxy.NewMarkdown(markdownOptions(cfg.Markdown)...), nil
	case config.StepTemplate:
		return roxy.NewTemplate(bindings, templateOptions(cfg.Template)...), nil
	case config.StepLayout:
		return roxy.NewLayout(layoutOptions(cfg)...)
	case config.StepPaths:
		return roxy.NewPathResolver(""), nil
	case config.StepPDF:
		return roxy.NewPDF(pdfOptions(cfg.PDF, timeout)...)
	case config.StepTerminal:
		return roxy.NewTerminal(cfg.Terminal.Width, cfg.Terminal.Style)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStep, name)
	}
}

func markdownOptions(c config.MarkdownConfig) []roxy.MarkdownOption {
	var opts []roxy.MarkdownOption
	if c.HardWraps {
		opts = append(opts, roxy.WithHardWraps())
	}
	if c.XHTML {
		opts = append(opts, roxy.WithXHTML())
	}
	if c.Unsafe {
		opts = append(opts, roxy.WithUnsafeHTML())
	}
	if c.HeadingIDs {
		opts = append(opts, roxy.WithHeadingIDs())
	}
	if c.Highlight {
		opts = append(opts, roxy.WithHighlighting(c.Style))
	}
	if c.Preprocess {
		opts = append(opts, roxy.WithPreprocessing())
	}
	return opts
}

func templateOptions(c config.TemplateConfig) []roxy.TemplateOption {
	var opts []roxy.TemplateOption
	if c.Autoescape != nil {
		opts = append(opts, roxy.WithAutoescape(c.Autoescape...))
	}
	if c.Lenient {
		opts = append(opts, roxy.WithLenientBindings())
	}
	return opts
}

func layoutOptions(cfg *config.Config) []roxy.LayoutOption {
	opts := []roxy.LayoutOption{roxy.WithAssetPath(cfg.Assets.BasePath)}
	if cfg.Layout.Style != "" {
		opts = append(opts, roxy.WithStyle(cfg.Layout.Style))
	}
	if cfg.Layout.Name != "" {
		opts = append(opts, roxy.WithLayoutName(cfg.Layout.Name))
	}
	if cfg.Layout.CSS != "" {
		opts = append(opts, roxy.WithCSS(cfg.Layout.CSS))
	}
	if cfg.Layout.Lang != "" {
		opts = append(opts, roxy.WithLang(cfg.Layout.Lang))
	}
	if cfg.Layout.Title != "" {
		opts = append(opts, roxy.WithTitle(cfg.Layout.Title))
	}
	return opts
}

func pdfOptions(c config.PDFConfig, timeout time.Duration) []roxy.PDFOption {
	page := roxy.DefaultPageSettings()
	if c.Page.Size != "" {
		page.Size = c.Page.Size
	}
	if c.Page.Orientation != "" {
		page.Orientation = c.Page.Orientation
	}
	if c.Page.Margin > 0 {
		page.Margin = c.Page.Margin
	}

	opts := []roxy.PDFOption{roxy.WithPage(page)}
	if c.Footer.Enabled {
		opts = append(opts, roxy.WithFooter(roxy.Footer{
			Position:       c.Footer.Position,
			ShowPageNumber: c.Footer.ShowPageNumber,
			Text:           c.Footer.Text,
		}))
	}
	if timeout > 0 {
		opts = append(opts, roxy.WithTimeout(timeout))
	}
	return opts
}
