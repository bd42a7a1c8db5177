// Package markdown renders help text with glamour.
package markdown

import (
	"github.com/charmbracelet/glamour"
)

// flat drops glamour's document margins so output lines up with pane borders.
const flat = `{
	"document": {
		"margin": 0,
		"block_prefix": "",
		"block_suffix": ""
	}
}`

// Renderer is a glamour renderer fixed to one width and style.
type Renderer struct {
	tr    *glamour.TermRenderer
	width int
}

// New returns a renderer wrapping at width. style is "dark" or "light"; empty
// means dark. A named style avoids the terminal background query that
// WithAutoStyle performs, whose reply would land in the tea input stream.
func New(width int, style string) (*Renderer, error) {
	if style == "" {
		style = "dark"
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithStylesFromJSONBytes([]byte(flat)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{tr: tr, width: width}, nil
}

// Width is the wrap width.
func (r *Renderer) Width() int { return r.width }

// Render turns markdown into styled terminal text.
func (r *Renderer) Render(md string) (string, error) {
	return r.tr.Render(md)
}
