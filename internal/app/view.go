package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/jinhealth/reconcile/internal/dragdrop"
	"github.com/jinhealth/reconcile/internal/editor"
	"github.com/jinhealth/reconcile/internal/mode"
	"github.com/jinhealth/reconcile/internal/ui/overlay"
	"github.com/jinhealth/reconcile/internal/ui/styles"
)

var (
	tabStyle       = lipgloss.NewStyle().Foreground(styles.TextMutedColor).Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true).Underline(true).Padding(0, 1)
	tableHeadStyle = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)
	excludedMark   = lipgloss.NewStyle().Foreground(styles.ExcludedColor)
)

// View renders the application.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var body string
	switch m.mode {
	case mode.MappingTable:
		body = m.table.View()
	case mode.Changes:
		body = m.changes.View()
	case mode.Help:
		body = m.help.View()
	default:
		body = m.renderEditor()
	}

	view := lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatus())
	view = lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(m.height).Render(view)

	if m.byMouse && m.drag.State() == dragdrop.StateDragging {
		ghost := styles.RowGrabbedStyle.Render(" " + styles.Truncate(m.drag.Item().Name, 30) + " ")
		view = overlay.Place{Width: m.width, Height: m.height, Anchor: overlay.At, X: m.mouseX + 2, Y: m.mouseY}.Over(ghost, view)
	}
	if m.modal != nil {
		view = m.modal.Overlay(view, m.width, m.height)
	}
	view = m.logs.Overlay(view)
	view = m.toaster.Overlay(view, m.width, m.height)
	return zone.Scan(view)
}

func (m Model) renderHeader() string {
	var tabs []string
	for i, t := range mode.Tabs() {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if t == m.mode || (m.mode == mode.Help && t == m.prev) {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	left := strings.Join(tabs, "")

	var status string
	switch {
	case m.loading:
		status = styles.HintStyle.Render("loading…")
	case m.saving:
		status = styles.DirtyStyle.Render("saving…")
	case m.loadErr != nil && !m.loaded:
		status = lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Render("not loaded")
	case m.ed.Dirty():
		status = styles.DirtyStyle.Render("● unsaved")
	default:
		status = styles.CleanStyle.Render("saved")
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(status)-1, 1)
	return left + strings.Repeat(" ", gap) + status
}

func (m Model) renderEditor() string {
	show := m.opts.Config.UI.ShowCounts
	groups := m.panes[1].View(show)
	if m.drag.Dragging() {
		border := lipgloss.TerminalColor(styles.BorderDefaultColor)
		if m.hoverNew {
			border = styles.BorderDropColor
		}
		box := styles.Frame{
			Title:       "New group",
			Width:       m.panes[1].Width(),
			Height:      newGroupZoneHeight,
			TitleColor:  styles.GroupColor,
			BorderColor: border,
		}.Render(styles.HintStyle.Render(" drop here, or press n"))
		groups = lipgloss.JoinVertical(lipgloss.Left, groups, zone.Mark(newGroupZoneID, box))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.panes[0].View(show), groups, m.panes[2].View(show))
}

func (m Model) renderStatus() string {
	switch {
	case m.filtering:
		return m.filter.View()
	case m.drag.State() == dragdrop.StatePrompting:
		return styles.StatusBarStyle.Render("naming new group for " + m.drag.Item().Name)
	case m.drag.Dragging() && m.byMouse:
		return styles.StatusBarStyle.Render("dragging " + m.drag.Item().Name + " · release over a pane, group or the new group box")
	case m.drag.Dragging():
		return styles.StatusBarStyle.Render("moving " + m.drag.Item().Name + " · tab pane · enter drop · n new group · esc cancel")
	}

	c := m.ed.Counts()
	counts := fmt.Sprintf("%d unclassified · %d groups (%d names) · %d excluded", c.Unclassified, c.Groups, c.Members, c.Excluded)
	var hints []string
	for _, b := range m.keys.ShortHelp() {
		hints = append(hints, b.Help().Key+" "+b.Help().Desc)
	}
	line := styles.StatusBarStyle.Render(counts) + styles.HintStyle.Render(strings.Join(hints, " · "))
	return ansi.Truncate(line, m.width, "…")
}

// renderMappingTable lists every original name with its standard name.
func (m Model) renderMappingTable() string {
	rows := m.ed.MappingTable()
	if len(rows) == 0 {
		return styles.HintStyle.Render("\n  No mappings yet. Merge names into groups in the editor (press 1).")
	}

	stdW, origW := runewidth.StringWidth("Standard name"), runewidth.StringWidth("Original name")
	for _, r := range rows {
		stdW = max(stdW, runewidth.StringWidth(r.Standard))
		origW = max(origW, runewidth.StringWidth(r.Original))
	}
	limit := max((m.width-16)/2, 10)
	stdW, origW = min(stdW, limit), min(origW, limit)

	var b strings.Builder
	b.WriteString(tableHeadStyle.Render(" " + styles.PadRight("Standard name", stdW) + "  " + styles.PadRight("Original name", origW) + "  Excluded"))
	b.WriteString("\n " + styles.HintStyle.Render(strings.Repeat("─", stdW+origW+12)))
	prev := ""
	for _, r := range rows {
		std := r.Standard
		if std == prev {
			std = ""
		}
		prev = r.Standard
		line := " " + styles.PadRight(std, stdW) + "  " + styles.PadRight(r.Original, origW)
		if r.Excluded {
			line += "  " + excludedMark.Render("✕")
		}
		b.WriteString("\n" + line)
	}
	return b.String()
}

// renderChanges shows the rows a save would add or remove.
func (m Model) renderChanges() string {
	changes := m.ed.PendingChanges()
	if len(changes) == 0 {
		return styles.HintStyle.Render("\n  No pending changes.")
	}
	var b strings.Builder
	for i, c := range changes {
		if i > 0 {
			b.WriteByte('\n')
		}
		style := styles.DiffAddedStyle
		if c.Op == editor.ChangeRemoved {
			style = styles.DiffRemovedStyle
		}
		b.WriteString(" " + style.Render(c.String()))
	}
	return b.String()
}
