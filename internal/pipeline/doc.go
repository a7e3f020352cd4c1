// Package pipeline holds the engines behind roxy's transform steps.
//
// Each engine wraps one third-party or standard library facility and works
// on byte slices and buffers so the root package can hand its two reusable
// pipeline buffers straight through:
//   - Markdown preprocessing (line normalization, ==highlight== syntax)
//   - Markdown to HTML conversion via Goldmark
//   - Template registration and rendering (html/template and text/template)
//   - Document layout (wrapping a fragment, CSS injection, title lookup)
//   - Relative path rewriting for documents rendered from a temp file
//
// Chaining, error typing and buffer ownership live in the root package.
package pipeline
