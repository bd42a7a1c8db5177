package styles

import (
	"fmt"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// Truncate shortens s to fit maxWidth terminal cells. Wide characters such as
// Hangul count as two cells.
func Truncate(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, ellipsis)
}

// PadRight pads s with spaces to exactly width cells, truncating when longer.
func PadRight(s string, width int) string {
	return runewidth.FillRight(Truncate(s, width), width)
}

// PaneTitle formats "Name (n)" when counts are shown.
func PaneTitle(name string, n int, showCount bool) string {
	if !showCount {
		return name
	}
	return fmt.Sprintf("%s (%d)", name, n)
}
