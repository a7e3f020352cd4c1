// Package roxy runs text assets through ordered chains of byte-to-byte
// transforms.
//
// # Quick Start
//
// Build a pipeline, run it over a file and write the result:
//
//	p := roxy.NewPipeline(
//	    roxy.NewMarkdown(),
//	    roxy.NewTemplate(map[string]any{"test": "fox"}),
//	)
//	defer p.Close()
//
//	err := roxy.Process(ctx, "index.md", "public/index.html", p)
//
// With "# {{ test }} :3" as input, public/index.html holds
// "<h1>fox :3</h1>\n".
//
// # Pipelines
//
// A Pipeline applies its steps in insertion order. Each step sees exactly
// the output of the previous one; two buffers owned by the pipeline are
// swapped between steps. Every step receives the same context identifier,
// the path, which by convention is the output location. When a step fails
// the run stops, the remaining steps are skipped and the destination is not
// written; the error is a *TransformError naming the step.
//
// A Pipeline reuses its buffers and is not safe for concurrent runs. Give
// each worker its own, for example through a PipelinePool.
//
// # Steps
//
//   - Markdown: CommonMark and GFM to an HTML fragment (goldmark)
//   - Template: Go templates over a fixed binding set, keyed by path
//   - Layout: wraps a fragment in a styled HTML5 document
//   - PathResolver: absolute file:// URLs for relative images and links
//   - PDF: prints an HTML document with headless Chrome (go-rod)
//   - Terminal: ANSI-styled Markdown for terminals (glamour)
//
// Any value with an Apply method is a step; TransformFunc adapts plain
// functions.
//
// # Browser Requirements
//
// The PDF step requires Chrome/Chromium. go-rod downloads a managed
// Chromium on first run (~/.cache/rod/browser/). Use ROD_BROWSER_BIN to
// select a binary; set CI=true in containers to disable the sandbox.
package roxy
