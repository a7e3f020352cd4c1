package pipeline

import (
	"bytes"
	"regexp"
)

// Highlight placeholders use Unicode Private Use Area characters.
// They pass through Goldmark unchanged (no WithUnsafe needed) and are
// turned into <mark> tags once the HTML exists.
const (
	MarkStartPlaceholder = "\uE000" // U+E000: Private Use Area start
	MarkEndPlaceholder   = "\uE001" // U+E001: Private Use Area end
)

var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
	highlightPattern   = regexp.MustCompile(`==([^=\n]+?)==`)
)

var (
	markStart  = []byte(MarkStartPlaceholder)
	markEnd    = []byte(MarkEndPlaceholder)
	markOpen   = []byte("<mark>")
	markClose  = []byte("</mark>")
	newline    = []byte("\n")
	blankLines = []byte("\n\n")
)

// PreprocessMarkdown normalizes line endings, marks ==highlight== spans with
// placeholders and limits consecutive blank lines to one.
// The result is a new slice; src is not modified.
func PreprocessMarkdown(src []byte) []byte {
	out := crlfOrCR.ReplaceAll(src, newline)
	out = highlightPattern.ReplaceAll(out, []byte(MarkStartPlaceholder+"$1"+MarkEndPlaceholder))
	return multipleBlankLines.ReplaceAll(out, blankLines)
}

// ConvertMarkPlaceholders replaces highlight placeholders with <mark> tags.
// Second half of the ==highlight== feature.
func ConvertMarkPlaceholders(html []byte) []byte {
	if !bytes.Contains(html, markStart) {
		return html
	}
	html = bytes.ReplaceAll(html, markStart, markOpen)
	return bytes.ReplaceAll(html, markEnd, markClose)
}
