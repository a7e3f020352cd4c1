package roxy

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Terminal renders Markdown as ANSI-styled text for display in a terminal.
type Terminal struct {
	renderer *glamour.TermRenderer
}

// NewTerminal creates a Terminal step. width wraps lines at that many
// columns; 0 keeps the renderer default. style is a glamour style name
// ("dark", "light", "notty", ...); empty detects the terminal background.
func NewTerminal(width int, style string) (*Terminal, error) {
	opts := []glamour.TermRendererOption{}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTerminal, err)
	}
	return &Terminal{renderer: r}, nil
}

// Name implements Namer.
func (t *Terminal) Name() string { return "terminal" }

// Apply implements Transform.
func (t *Terminal) Apply(_ context.Context, _ string, src []byte, dst *bytes.Buffer) error {
	out, err := t.renderer.RenderBytes(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTerminal, err)
	}
	dst.Write(out)
	return nil
}
