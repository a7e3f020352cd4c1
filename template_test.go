package roxy

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTemplate_Apply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bindings map[string]any
		opts     []TemplateOption
		path     string
		input    string
		want     string
		wantErr  error
	}{
		{
			name:     "bare identifier binding",
			bindings: map[string]any{"test": "fox"},
			path:     "test.html",
			input:    "<h1>{{ test }} :3</h1>\n",
			want:     "<h1>fox :3</h1>\n",
		},
		{
			name:     "dot binding",
			bindings: map[string]any{"test": "fox"},
			path:     "test.html",
			input:    "{{ .test }}",
			want:     "fox",
		},
		{
			name:     "helpers",
			bindings: map[string]any{"name": "  Fox "},
			path:     "page.txt",
			input:    "{{ .name | trim | upper }}",
			want:     "FOX",
		},
		{
			name:     "html path escapes",
			bindings: map[string]any{"v": "<b>&</b>"},
			path:     "page.html",
			input:    "<p>{{ v }}</p>",
			want:     "<p>&lt;b&gt;&amp;&lt;/b&gt;</p>",
		},
		{
			name:     "text path does not escape",
			bindings: map[string]any{"v": "<b>"},
			path:     "page.md",
			input:    "{{ v }}",
			want:     "<b>",
		},
		{
			name:     "autoescape disabled",
			bindings: map[string]any{"v": "<b>"},
			opts:     []TemplateOption{WithAutoescape()},
			path:     "page.html",
			input:    "{{ v }}",
			want:     "<b>",
		},
		{
			name:     "custom autoescape extension",
			bindings: map[string]any{"v": "<b>"},
			opts:     []TemplateOption{WithAutoescape(".svg")},
			path:     "image.svg",
			input:    "{{ v }}",
			want:     "&lt;b&gt;",
		},
		{
			name:     "nested values",
			bindings: map[string]any{"site": map[string]any{"title": "Den"}},
			path:     "index.txt",
			input:    "{{ .site.title }}",
			want:     "Den",
		},
		{
			name:    "syntax error",
			path:    "bad.html",
			input:   "{{ if }",
			wantErr: ErrTemplate,
		},
		{
			name:     "missing binding is strict by default",
			bindings: map[string]any{"test": "fox"},
			path:     "page.html",
			input:    "{{ .missing }}",
			wantErr:  ErrTemplate,
		},
		{
			name:    "undefined bare identifier",
			path:    "page.html",
			input:   "{{ missing }}",
			wantErr: ErrTemplate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := renderStep(t, NewTemplate(tt.bindings, tt.opts...), tt.path, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Apply() error = %v, want %v", err, tt.wantErr)
				}
				if got != "" {
					t.Errorf("Apply() wrote %q on failure, want nothing", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTemplate_LenientBindings(t *testing.T) {
	t.Parallel()

	tmpl := NewTemplate(map[string]any{}, WithLenientBindings())
	got, err := renderStep(t, tmpl, "page.html", "a{{ .missing }}b")
	if err != nil {
		t.Fatalf("Apply() error = %v, want nil with lenient bindings", err)
	}
	if !strings.HasPrefix(got, "a") || !strings.HasSuffix(got, "b") {
		t.Errorf("Apply() = %q, want surrounding text kept", got)
	}
}

func TestTemplate_RegistryLastWriteWins(t *testing.T) {
	t.Parallel()

	tmpl := NewTemplate(map[string]any{"x": "1"})

	first, err := renderStep(t, tmpl, "same.html", "first {{ x }}")
	if err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	second, err := renderStep(t, tmpl, "same.html", "second {{ x }}")
	if err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	if first != "first 1" || second != "second 1" {
		t.Errorf("renders = %q, %q, want %q, %q", first, second, "first 1", "second 1")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute("same.html", &buf); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if buf.String() != "second 1" {
		t.Errorf("Execute() = %q, want the second body", buf.String())
	}
}

func TestTemplate_RegistryPersistsAcrossPaths(t *testing.T) {
	t.Parallel()

	tmpl := NewTemplate(nil)
	if _, err := renderStep(t, tmpl, "a.txt", "A"); err != nil {
		t.Fatalf("Apply(a) error = %v", err)
	}
	if _, err := renderStep(t, tmpl, "b.txt", "B"); err != nil {
		t.Fatalf("Apply(b) error = %v", err)
	}
	if !tmpl.Has("a.txt") || !tmpl.Has("b.txt") {
		t.Error("registry should keep templates for every path")
	}
}

func TestTemplate_FailedRegisterKeepsPrevious(t *testing.T) {
	t.Parallel()

	tmpl := NewTemplate(nil)
	if err := tmpl.Register("p.txt", "good"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := tmpl.Register("p.txt", "{{ if }"); !errors.Is(err, ErrTemplate) {
		t.Fatalf("Register() error = %v, want ErrTemplate", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute("p.txt", &buf); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if buf.String() != "good" {
		t.Errorf("Execute() = %q, want previous body", buf.String())
	}
}

func TestTemplate_ExecuteUnknown(t *testing.T) {
	t.Parallel()

	err := NewTemplate(nil).Execute("nope.html", &bytes.Buffer{})
	if !errors.Is(err, ErrTemplate) {
		t.Errorf("Execute() error = %v, want ErrTemplate", err)
	}
}

func TestTemplate_BindingsAreCopied(t *testing.T) {
	t.Parallel()

	bindings := map[string]any{"v": "before"}
	tmpl := NewTemplate(bindings)
	bindings["v"] = "after"

	got, err := renderStep(t, tmpl, "p.txt", "{{ .v }}")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "before" {
		t.Errorf("Apply() = %q, want %q", got, "before")
	}
}

func TestMarkdownThenTemplate(t *testing.T) {
	t.Parallel()

	p := NewPipeline(NewMarkdown(), NewTemplate(map[string]any{"test": "fox"}))
	got, err := p.Render(context.Background(), "test.html", []byte("# {{ test }} :3"))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(got) != "<h1>fox :3</h1>\n" {
		t.Errorf("Render() = %q, want %q", got, "<h1>fox :3</h1>\n")
	}
}

func TestStepOrderMatters(t *testing.T) {
	t.Parallel()

	bindings := map[string]any{"test": "*fox*"}
	input := []byte("# {{ test }} :3")

	mdFirst, err := NewPipeline(NewMarkdown(), NewTemplate(bindings)).
		Render(context.Background(), "test.html", input)
	if err != nil {
		t.Fatalf("markdown first: %v", err)
	}
	tmplFirst, err := NewPipeline(NewTemplate(bindings), NewMarkdown()).
		Render(context.Background(), "test.html", input)
	if err != nil {
		t.Fatalf("template first: %v", err)
	}

	if string(mdFirst) != "<h1>*fox* :3</h1>\n" {
		t.Errorf("markdown first = %q, want substitution into rendered HTML", mdFirst)
	}
	if string(tmplFirst) != "<h1><em>fox</em> :3</h1>\n" {
		t.Errorf("template first = %q, want substitution parsed as Markdown", tmplFirst)
	}
}
