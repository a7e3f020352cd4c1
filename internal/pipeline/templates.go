package pipeline

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"path"
	"strings"
	texttemplate "text/template"
	"unicode"
)

// Sentinel errors for template registration and rendering.
var (
	ErrTemplateParse    = errors.New("template parsing failed")
	ErrTemplateRender   = errors.New("template rendering failed")
	ErrTemplateNotFound = errors.New("template not registered")
)

// DefaultAutoescapeExtensions are the name suffixes rendered with
// contextual HTML escaping.
var DefaultAutoescapeExtensions = []string{".html", ".htm", ".xml"}

// executor is satisfied by both *html/template.Template and
// *text/template.Template.
type executor interface {
	Execute(w io.Writer, data any) error
}

// TemplateRegistry keeps parsed templates by name and renders them against
// one fixed binding set.
//
// Registering a name that already exists replaces the previous template.
// A TemplateRegistry is not safe for concurrent use.
type TemplateRegistry struct {
	bindings   map[string]any
	funcs      map[string]any
	autoescape []string
	strict     bool
	templates  map[string]executor
}

// TemplateOptions configures a TemplateRegistry.
type TemplateOptions struct {
	// Autoescape lists name extensions rendered with html/template.
	// Nil means DefaultAutoescapeExtensions; an empty slice disables escaping.
	Autoescape []string
	// Lenient renders missing bindings as empty values instead of failing.
	Lenient bool
}

// NewTemplateRegistry creates a registry for the given bindings.
// The bindings map is copied.
func NewTemplateRegistry(bindings map[string]any, opts TemplateOptions) *TemplateRegistry {
	data := make(map[string]any, len(bindings))
	for k, v := range bindings {
		data[k] = v
	}

	autoescape := opts.Autoescape
	if autoescape == nil {
		autoescape = DefaultAutoescapeExtensions
	}

	return &TemplateRegistry{
		bindings:   data,
		funcs:      bindingFuncs(data),
		autoescape: autoescape,
		strict:     !opts.Lenient,
		templates:  make(map[string]executor),
	}
}

// Register parses body and stores it under name, replacing any template
// already registered with that name. On a parse error the registry is left
// unchanged.
func (r *TemplateRegistry) Register(name, body string) error {
	missingKey := "missingkey=error"
	if !r.strict {
		missingKey = "missingkey=zero"
	}

	var tmpl executor
	var err error
	if r.escapes(name) {
		tmpl, err = htmltemplate.New(name).Option(missingKey).Funcs(r.funcs).Parse(body)
	} else {
		tmpl, err = texttemplate.New(name).Option(missingKey).Funcs(r.funcs).Parse(body)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	r.templates[name] = tmpl
	return nil
}

// Execute renders the template registered under name into w.
func (r *TemplateRegistry) Execute(name string, w io.Writer) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if err := tmpl.Execute(w, r.bindings); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return nil
}

// Has reports whether a template is registered under name.
func (r *TemplateRegistry) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Len returns the number of registered templates.
func (r *TemplateRegistry) Len() int {
	return len(r.templates)
}

// escapes reports whether name selects contextual HTML escaping.
func (r *TemplateRegistry) escapes(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range r.autoescape {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// bindingFuncs builds the function map: helpers first, then one
// zero-argument function per binding so that {{ name }} works the same as
// {{ .name }}. Bindings shadow helpers of the same name.
func bindingFuncs(bindings map[string]any) map[string]any {
	funcs := map[string]any{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
	}
	for name, value := range bindings {
		if !isIdentifier(name) {
			continue
		}
		v := value
		funcs[name] = func() any { return v }
	}
	return funcs
}

// isIdentifier reports whether s can be used as a template function name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
