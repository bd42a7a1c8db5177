// Package panes renders the three editor lists (Unclassified, Groups,
// Excluded) as bordered, scrollable panes whose rows are bubblezone zones so
// the mouse can pick up and drop names.
package panes

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/jinhealth/reconcile/internal/ui/styles"
)

// Kind says what a row stands for.
type Kind int

const (
	KindName          Kind = iota // an unclassified raw name
	KindGroup                     // a group header
	KindMember                    // a member line under a group header
	KindExcludedName              // a raw name on the exclusion list
	KindExcludedGroup             // a flagged group on the exclusion list
)

// Row is one line of a pane.
type Row struct {
	Kind  Kind
	Name  string
	Group string // owning group for members, the group itself for headers
	Index int    // member position within the group
	Count int    // member count for headers
	// Flagged marks a group header whose standard name is excluded.
	Flagged bool
}

// Key identifies a row across refreshes.
func (r Row) Key() string {
	return fmt.Sprintf("%d\x00%s\x00%s", r.Kind, r.Group, r.Name)
}

// Pane is one list. The zero value is not usable; call New.
type Pane struct {
	id      string
	title   string
	accent  lipgloss.TerminalColor
	rows    []Row
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	target  bool // highlighted as the drop target
	grabbed string
	filter  string
	total   int
}

// New returns an empty pane. id prefixes its zone ids and must be unique.
func New(id, title string, accent lipgloss.TerminalColor) Pane {
	return Pane{id: id, title: title, accent: accent}
}

// ID is the pane's zone id.
func (p Pane) ID() string { return "pane:" + p.id }

// RowID is the zone id of row i.
func (p Pane) RowID(i int) string { return fmt.Sprintf("pane:%s:%d", p.id, i) }

// SetRows replaces the rows. The cursor follows the previously selected row
// when it is still present. total is the unfiltered item count for the title.
func (p Pane) SetRows(rows []Row, total int) Pane {
	var keep string
	if sel, ok := p.Selected(); ok {
		keep = sel.Key()
	}
	p.rows = rows
	p.total = total
	if keep != "" && p.Select(keep) {
		return p
	}
	p.cursor = min(p.cursor, max(len(rows)-1, 0))
	p.scroll()
	return p
}

// Rows returns the current rows.
func (p Pane) Rows() []Row { return p.rows }

// Len is the number of visible rows.
func (p Pane) Len() int { return len(p.rows) }

// Select moves the cursor to the row with key. It reports whether it was found.
func (p *Pane) Select(key string) bool {
	for i, r := range p.rows {
		if r.Key() == key {
			p.cursor = i
			p.scroll()
			return true
		}
	}
	return false
}

// SetCursor moves the cursor to row i, clamped.
func (p Pane) SetCursor(i int) Pane {
	p.cursor = max(min(i, len(p.rows)-1), 0)
	p.scroll()
	return p
}

// Cursor is the selected row index.
func (p Pane) Cursor() int { return p.cursor }

// Selected returns the row under the cursor.
func (p Pane) Selected() (Row, bool) {
	if p.cursor < 0 || p.cursor >= len(p.rows) {
		return Row{}, false
	}
	return p.rows[p.cursor], true
}

// Move shifts the cursor by delta rows.
func (p Pane) Move(delta int) Pane { return p.SetCursor(p.cursor + delta) }

// Top and Bottom jump to the ends.
func (p Pane) Top() Pane    { return p.SetCursor(0) }
func (p Pane) Bottom() Pane { return p.SetCursor(len(p.rows) - 1) }

// SetSize sets the outer size including the border.
func (p Pane) SetSize(width, height int) Pane {
	p.width, p.height = width, height
	p.scroll()
	return p
}

// Width is the rendered width including the border.
func (p Pane) Width() int { return p.width }

// SetFocused marks the pane as having keyboard focus.
func (p Pane) SetFocused(f bool) Pane {
	p.focused = f
	return p
}

// Focused reports keyboard focus.
func (p Pane) Focused() bool { return p.focused }

// SetDropTarget highlights the pane while an item hovers over it.
func (p Pane) SetDropTarget(t bool) Pane {
	p.target = t
	return p
}

// SetGrabbed marks the row with key as being dragged. Empty clears it.
func (p Pane) SetGrabbed(key string) Pane {
	p.grabbed = key
	return p
}

// SetFilter records the active filter for the footer.
func (p Pane) SetFilter(q string) Pane {
	p.filter = q
	return p
}

// Filter returns the active filter.
func (p Pane) Filter() string { return p.filter }

func (p Pane) visibleRows() int { return max(p.height-2, 1) }

func (p *Pane) scroll() {
	n := p.visibleRows()
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+n {
		p.offset = p.cursor - n + 1
	}
	p.offset = max(min(p.offset, len(p.rows)-n), 0)
}

// View renders the pane. Each visible row and the pane itself are zone marked.
func (p Pane) View(showCount bool) string {
	inner := max(p.width-2, 1)
	n := p.visibleRows()

	lines := make([]string, 0, n)
	for i := p.offset; i < len(p.rows) && i < p.offset+n; i++ {
		lines = append(lines, zone.Mark(p.RowID(i), p.renderRow(p.rows[i], i == p.cursor, inner)))
	}
	if len(p.rows) == 0 {
		empty := "empty"
		if p.filter != "" {
			empty = "no match"
		}
		lines = append(lines, styles.HintStyle.Italic(true).Render(" "+empty))
	}

	border := lipgloss.TerminalColor(styles.BorderDefaultColor)
	switch {
	case p.target:
		border = styles.BorderDropColor
	case p.focused:
		border = styles.BorderFocusColor
	}

	var footer string
	if p.filter != "" {
		footer = fmt.Sprintf("/%s  %d of %d", p.filter, len(p.rows), p.total)
	} else if len(p.rows) > n {
		footer = fmt.Sprintf("%d/%d", p.cursor+1, len(p.rows))
	}

	frame := styles.Frame{
		Title:       styles.PaneTitle(p.title, p.total, showCount),
		Footer:      footer,
		Width:       p.width,
		Height:      p.height,
		TitleColor:  p.accent,
		BorderColor: border,
	}
	return zone.Mark(p.ID(), frame.Render(strings.Join(lines, "\n")))
}

func (p Pane) renderRow(r Row, selected bool, width int) string {
	var prefix, text, tag string
	style := styles.RowStyle
	switch r.Kind {
	case KindGroup:
		prefix, style = "▪ ", styles.GroupHeaderStyle
		tag = fmt.Sprintf(" %d", r.Count)
		if r.Flagged {
			tag += " excluded"
		}
	case KindMember:
		prefix, style = "  ├ ", styles.MemberStyle
		if r.Index == r.Count-1 {
			prefix = "  └ "
		}
	case KindExcludedGroup:
		tag = " group"
	}
	text = r.Name

	cursor := "  "
	if selected && p.focused {
		cursor = styles.SelectionIndicatorStyle.Render("> ")
	}
	avail := width - 2 - lipgloss.Width(prefix) - lipgloss.Width(tag)
	body := prefix + styles.Truncate(text, max(avail, 1))

	switch {
	case r.Key() == p.grabbed:
		body = styles.RowGrabbedStyle.Render(body)
	case selected && p.focused:
		body = styles.RowSelectedStyle.Render(body)
	default:
		body = style.Render(body)
	}
	return cursor + body + styles.TagStyle.Render(tag)
}

// HitRow returns the row index under a mouse event.
func (p Pane) HitRow(msg tea.MouseMsg) (int, bool) {
	for i := p.offset; i < len(p.rows) && i < p.offset+p.visibleRows(); i++ {
		if z := zone.Get(p.RowID(i)); z != nil && z.InBounds(msg) {
			return i, true
		}
	}
	return -1, false
}

// Contains reports whether a mouse event falls inside the pane.
func (p Pane) Contains(msg tea.MouseMsg) bool {
	z := zone.Get(p.ID())
	return z != nil && z.InBounds(msg)
}
