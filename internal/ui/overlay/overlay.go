// Package overlay draws modals, toasts and the drag ghost over an already
// rendered view without clearing it.
package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Anchor says where the foreground block sits.
type Anchor int

const (
	Center Anchor = iota
	Top
	Bottom
	BottomRight
	// At uses the X and Y of Place.
	At
)

// Place is an overlay request sized to the screen.
type Place struct {
	Width, Height int
	Anchor        Anchor
	Margin        int // distance from the anchored edge
	X, Y          int // only for At
}

// Over composites fg onto bg. ANSI styling on both sides survives.
func (p Place) Over(fg, bg string) string {
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < p.Height {
		bgLines = append(bgLines, "")
	}
	fgLines := strings.Split(fg, "\n")
	x, y := p.origin(lipgloss.Width(fg), len(fgLines))

	for i, line := range fgLines {
		row := y + i
		if row < 0 || row >= len(bgLines) {
			continue
		}
		bgLines[row] = splice(bgLines[row], line, x)
	}
	return strings.Join(bgLines, "\n")
}

// splice replaces the cells of base starting at col with s.
func splice(base, s string, col int) string {
	left := ansi.Truncate(base, col, "")
	if w := ansi.StringWidth(left); w < col {
		left += strings.Repeat(" ", col-w)
	}
	end := col + ansi.StringWidth(s)
	var right string
	if end < ansi.StringWidth(base) {
		right = ansi.TruncateLeft(base, end, "")
	}
	return left + s + right
}

func (p Place) origin(w, h int) (x, y int) {
	switch p.Anchor {
	case Top:
		x, y = (p.Width-w)/2, p.Margin
	case Bottom:
		x, y = (p.Width-w)/2, p.Height-h-p.Margin
	case BottomRight:
		x, y = p.Width-w-p.Margin, p.Height-h-p.Margin
	case At:
		x, y = p.X, p.Y
		// Keep the block on screen.
		if x+w > p.Width {
			x = p.Width - w
		}
		if y+h > p.Height {
			y = p.Height - h
		}
	default:
		x, y = (p.Width-w)/2, (p.Height-h)/2
	}
	return max(x, 0), max(y, 0)
}
