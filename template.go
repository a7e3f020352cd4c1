package roxy

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/alnah/go-roxy/internal/pipeline"
)

// Template renders its input as a Go template against a fixed set of
// bindings.
//
// Every Apply registers the input under the run's path, replacing whatever
// was registered there before, and immediately renders it. Registered
// templates stay in the instance, so a Template is stateful and not safe
// for concurrent use; share one with Synchronized or give each pipeline its
// own.
//
// Bindings are reachable both as {{ .name }} and {{ name }}. Paths ending in
// .html, .htm or .xml are rendered with contextual HTML escaping.
type Template struct {
	registry *pipeline.TemplateRegistry
}

type templateConfig struct {
	opts pipeline.TemplateOptions
}

// TemplateOption configures a Template step.
type TemplateOption func(*templateConfig)

// WithAutoescape replaces the list of path extensions (".html" form)
// rendered with HTML escaping. Calling it with no extensions disables
// escaping for every path.
func WithAutoescape(exts ...string) TemplateOption {
	return func(c *templateConfig) {
		c.opts.Autoescape = append([]string{}, exts...)
	}
}

// WithLenientBindings renders references to missing bindings as empty
// values instead of failing.
func WithLenientBindings() TemplateOption {
	return func(c *templateConfig) { c.opts.Lenient = true }
}

// NewTemplate creates a Template step. bindings is copied; later changes to
// the map are not seen.
func NewTemplate(bindings map[string]any, opts ...TemplateOption) *Template {
	var cfg templateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Template{registry: pipeline.NewTemplateRegistry(bindings, cfg.opts)}
}

// Name implements Namer.
func (t *Template) Name() string { return "template" }

// Register parses body and stores it under name. An existing template with
// the same name is replaced. On failure the registry is left unchanged.
func (t *Template) Register(name, body string) error {
	if err := t.registry.Register(name, body); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return nil
}

// Execute renders the template registered under name into w.
func (t *Template) Execute(name string, w io.Writer) error {
	if err := t.registry.Execute(name, w); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return nil
}

// Has reports whether a template is registered under name.
func (t *Template) Has(name string) bool {
	return t.registry.Has(name)
}

// Apply implements Transform.
func (t *Template) Apply(_ context.Context, path string, src []byte, dst *bytes.Buffer) error {
	if err := t.Register(path, string(src)); err != nil {
		return err
	}
	// Rendering goes through a scratch buffer: a template that fails halfway
	// must not leave partial output behind.
	var out bytes.Buffer
	if err := t.Execute(path, &out); err != nil {
		return err
	}
	dst.Write(out.Bytes())
	return nil
}
