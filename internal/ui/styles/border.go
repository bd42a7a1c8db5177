package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	cornerTL = "╭"
	cornerTR = "╮"
	cornerBL = "╰"
	cornerBR = "╯"
	edgeH    = "─"
	edgeV    = "│"
)

// Frame describes a bordered pane: ╭─ Title ───╮ ... ╰─ footer ─╯
type Frame struct {
	Title       string
	Footer      string
	Width       int
	Height      int
	TitleColor  lipgloss.TerminalColor
	BorderColor lipgloss.TerminalColor // zero means BorderDefaultColor
}

// Render draws content inside the frame. Lines beyond the inner height are
// dropped and short lines are padded so the right edge stays aligned.
func (f Frame) Render(content string) string {
	inner := max(f.Width-2, 1)
	rows := max(f.Height-2, 1)

	var border lipgloss.TerminalColor = BorderDefaultColor
	if f.BorderColor != nil {
		border = f.BorderColor
	}
	var titleColor lipgloss.TerminalColor = OverlayTitleColor
	if f.TitleColor != nil {
		titleColor = f.TitleColor
	}
	bs := lipgloss.NewStyle().Foreground(border)
	ts := lipgloss.NewStyle().Foreground(titleColor).Bold(true)
	fs := lipgloss.NewStyle().Foreground(TextMutedColor)

	lines := strings.Split(content, "\n")
	var b strings.Builder
	b.WriteString(edge(f.Title, inner, cornerTL, cornerTR, bs, ts))
	for i := 0; i < rows; i++ {
		var line string
		if i < len(lines) {
			line = ansi.Truncate(lines[i], inner, "")
		}
		if w := ansi.StringWidth(line); w < inner {
			line += strings.Repeat(" ", inner-w)
		}
		b.WriteString("\n")
		b.WriteString(bs.Render(edgeV) + line + bs.Render(edgeV))
	}
	b.WriteString("\n")
	b.WriteString(edge(f.Footer, inner, cornerBL, cornerBR, bs, fs))
	return b.String()
}

// edge renders a horizontal border with an optional embedded label.
func edge(label string, inner int, left, right string, bs, ls lipgloss.Style) string {
	if label == "" || inner < 5 {
		return bs.Render(left + strings.Repeat(edgeH, inner) + right)
	}
	label = Truncate(label, inner-4)
	rest := max(inner-3-ansi.StringWidth(label), 0)
	return bs.Render(left+edgeH+" ") + ls.Render(label) + bs.Render(" "+strings.Repeat(edgeH, rest)+right)
}
