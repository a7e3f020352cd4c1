package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrLayoutRender indicates the document layout template failed.
var ErrLayoutRender = errors.New("layout template rendering failed")

// LayoutData is the data passed to a layout template.
type LayoutData struct {
	Title   string
	Lang    string
	Style   template.CSS
	Content template.HTML
}

// DocumentLayout wraps HTML fragments in a complete document.
type DocumentLayout struct {
	tmpl *template.Template
}

// NewDocumentLayout creates a DocumentLayout from layout template content.
// Returns error if the template cannot be parsed.
func NewDocumentLayout(tmplContent string) (*DocumentLayout, error) {
	tmpl, err := template.New("layout").Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("parsing layout template: %w", err)
	}
	return &DocumentLayout{tmpl: tmpl}, nil
}

// Render writes the document for fragment to w.
// css is sanitized before it is placed in the <style> block.
func (l *DocumentLayout) Render(w io.Writer, fragment []byte, title, lang, css string) error {
	data := LayoutData{
		Title: title,
		Lang:  lang,
		// #nosec G203 -- sanitized against </style> breakout
		Style: template.CSS(sanitizeCSS(css)),
		// #nosec G203 -- fragment is the output of earlier pipeline steps
		Content: template.HTML(fragment),
	}
	if err := l.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("%w: %v", ErrLayoutRender, err)
	}
	return nil
}

// InjectCSS inserts a <style> block into a complete HTML document.
// Tries </head> first, then <body>, then prepends to the HTML.
func InjectCSS(htmlContent []byte, cssContent string) []byte {
	if cssContent == "" {
		return htmlContent
	}

	styleBlock := []byte("<style>" + sanitizeCSS(cssContent) + "</style>")
	lower := bytes.ToLower(htmlContent)

	if idx := bytes.Index(lower, []byte("</head>")); idx != -1 {
		return splice(htmlContent, idx, styleBlock)
	}

	if idx := bytes.Index(lower, []byte("<body")); idx != -1 {
		if closeIdx := bytes.IndexByte(htmlContent[idx:], '>'); closeIdx != -1 {
			return splice(htmlContent, idx+closeIdx+1, styleBlock)
		}
	}

	return append(styleBlock, htmlContent...)
}

// IsDocument reports whether content already is a complete HTML document.
func IsDocument(content []byte) bool {
	trimmed := bytes.ToLower(bytes.TrimSpace(content))
	return bytes.HasPrefix(trimmed, []byte("<!doctype")) || bytes.HasPrefix(trimmed, []byte("<html"))
}

// ExtractTitle returns the text of the first <h1> in an HTML fragment,
// or "" when there is none.
func ExtractTitle(fragment []byte) string {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), body)
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if h1 := findElement(n, atom.H1); h1 != nil {
			return strings.TrimSpace(textContent(h1))
		}
	}
	return ""
}

// findElement returns the first element with the given atom in document order.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates the text nodes below n.
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// splice returns content with insert placed at idx.
func splice(content []byte, idx int, insert []byte) []byte {
	out := make([]byte, 0, len(content)+len(insert))
	out = append(out, content[:idx]...)
	out = append(out, insert...)
	return append(out, content[idx:]...)
}
