package pipeline

import (
	"bytes"
	"strings"
	"testing"
)

func convert(t *testing.T, opts GoldmarkOptions, src string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewGoldmarkConverter(opts).Convert([]byte(src), &buf); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	return buf.String()
}

func TestGoldmarkConverter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    GoldmarkOptions
		src     string
		want    []string
		exclude []string
	}{
		{"heading", GoldmarkOptions{}, "# Title", []string{"<h1>Title</h1>"}, nil},
		{"table", GoldmarkOptions{}, "| a |\n|---|\n| b |", []string{"<table>", "<td>b</td>"}, nil},
		{"strikethrough", GoldmarkOptions{}, "~~gone~~", []string{"<del>gone</del>"}, nil},
		{"footnote", GoldmarkOptions{}, "text[^1]\n\n[^1]: note", []string{"footnote"}, nil},
		{"raw html omitted", GoldmarkOptions{}, "<div>x</div>", []string{"raw HTML omitted"}, []string{"<div>x</div>"}},
		{"raw html kept", GoldmarkOptions{Unsafe: true}, "<div>x</div>", []string{"<div>x</div>"}, nil},
		{"hard wraps", GoldmarkOptions{HardWraps: true}, "a\nb", []string{"<br>"}, nil},
		{"xhtml", GoldmarkOptions{HardWraps: true, XHTML: true}, "a\nb", []string{"<br />"}, nil},
		{"heading ids", GoldmarkOptions{HeadingIDs: true}, "# Hello World", []string{`id="hello-world"`}, nil},
		{"highlight classes", GoldmarkOptions{Highlight: true}, "```go\nfunc main() {}\n```", []string{`class="chroma"`}, nil},
		{"highlight inline", GoldmarkOptions{Highlight: true, InlineStyles: true, HighlightStyle: "monokai"}, "```go\nfunc main() {}\n```", []string{`style="`}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := convert(t, tt.opts, tt.src)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Convert() = %q, want to contain %q", got, w)
				}
			}
			for _, e := range tt.exclude {
				if strings.Contains(got, e) {
					t.Errorf("Convert() = %q, should not contain %q", got, e)
				}
			}
		})
	}
}

func TestGoldmarkConverter_CombinedRendererOptions(t *testing.T) {
	t.Parallel()

	opts := GoldmarkOptions{HardWraps: true, XHTML: true, Unsafe: true}
	got := convert(t, opts, "a\nb\n\n<span>raw</span>")

	want := "<p>a<br />\nb</p>\n<p><span>raw</span></p>\n"
	if got != want {
		t.Errorf("Convert() = %q, want %q", got, want)
	}
}

func TestValidUTF8(t *testing.T) {
	t.Parallel()

	valid := []byte("caf\u00e9")
	if got := ValidUTF8(valid); &got[0] != &valid[0] {
		t.Error("ValidUTF8() copied valid input")
	}

	got := ValidUTF8([]byte("a\xff\xfeb"))
	if string(got) != "a\uFFFDb" {
		t.Errorf("ValidUTF8() = %q, want %q", got, "a\uFFFDb")
	}
}
