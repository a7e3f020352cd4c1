package pipeline

import (
	"bytes"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteRelativePaths writes htmlContent to w with relative img[src] and
// a[href] values turned into absolute file:// URLs under baseDir.
//
// URLs, anchors, absolute paths and paths escaping baseDir are left as they
// are. Full documents and fragments are both accepted; a fragment stays a
// fragment.
func RewriteRelativePaths(w *bytes.Buffer, htmlContent []byte, baseDir string) error {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return err
	}

	rewriteNode(doc, absBase)
	return renderHTML(w, doc, isFragment)
}

// parseHTML parses a full document or a body fragment.
func parseHTML(content []byte) (*html.Node, bool, error) {
	if IsDocument(content) {
		doc, err := html.Parse(bytes.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(bytes.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders doc; for fragments only the children are written so
// no <html><body> wrapper appears.
func renderHTML(w *bytes.Buffer, doc *html.Node, isFragment bool) error {
	if !isFragment {
		return html.Render(w, doc)
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

func rewriteNode(n *html.Node, baseDir string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			rewriteAttr(n, "src", baseDir)
		case atom.A:
			rewriteAttr(n, "href", baseDir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, baseDir)
	}
}

func rewriteAttr(n *html.Node, key, baseDir string) {
	for i, attr := range n.Attr {
		if attr.Key != key || !isRelativePath(attr.Val) {
			continue
		}
		target := filepath.Join(baseDir, filepath.FromSlash(attr.Val))
		if !isPathUnderDir(target, baseDir) {
			continue
		}
		n.Attr[i].Val = pathToFileURL(target)
	}
}

// isRelativePath reports whether p is a relative filesystem reference.
func isRelativePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "#") || strings.HasPrefix(p, "//") {
		return false
	}
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(p) && !strings.HasPrefix(p, "/")
}

// isPathUnderDir checks that p stays inside dir.
func isPathUnderDir(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}
