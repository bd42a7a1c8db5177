// Package logoverlay shows recent log lines over the editor, fed by the log
// broker, so load and save failures can be inspected without leaving the TUI.
package logoverlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/ui/overlay"
	"github.com/jinhealth/reconcile/internal/ui/styles"
)

const (
	// Capacity is how many lines are retained.
	Capacity = 500

	maxRows  = 25
	minRows  = 5
	maxWidth = 160
	minWidth = 40
)

// Model is the overlay. Lines accumulate while it is hidden.
type Model struct {
	lines    []string
	visible  bool
	minLevel log.Level
	width    int
	height   int
	viewport viewport.Model
}

// New returns a hidden overlay showing every level.
func New() Model {
	return Model{minLevel: log.LevelDebug}
}

// Append records a formatted log line, dropping the oldest past Capacity.
func (m Model) Append(line string) Model {
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return m
	}
	m.lines = append(m.lines, line)
	if over := len(m.lines) - Capacity; over > 0 {
		m.lines = append(m.lines[:0:0], m.lines[over:]...)
	}
	if m.visible {
		m.refresh(true)
	}
	return m
}

// Len is the number of retained lines.
func (m Model) Len() int { return len(m.lines) }

// Visible reports whether the overlay is open.
func (m Model) Visible() bool { return m.visible }

// Toggle opens or closes the overlay.
func (m Model) Toggle() Model {
	m.visible = !m.visible
	if m.visible {
		m.refresh(true)
	}
	return m
}

// SetSize records the screen size.
func (m Model) SetSize(width, height int) Model {
	m.width, m.height = width, height
	m.refresh(m.viewport.AtBottom())
	return m
}

// Update handles level filters, scrolling and closing.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "ctrl+x":
		m.visible = false
	case "c":
		m.lines = nil
		m.refresh(true)
	case "d":
		m.minLevel = log.LevelDebug
		m.refresh(true)
	case "i":
		m.minLevel = log.LevelInfo
		m.refresh(true)
	case "w":
		m.minLevel = log.LevelWarn
		m.refresh(true)
	case "e":
		m.minLevel = log.LevelError
		m.refresh(true)
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Filtered returns the retained lines at or above the active level.
func (m Model) Filtered() []string {
	var out []string
	for _, l := range m.lines {
		if levelOf(l) >= m.minLevel {
			out = append(out, l)
		}
	}
	return out
}

func levelOf(line string) log.Level {
	for _, lvl := range []log.Level{log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug} {
		if strings.Contains(line, "["+lvl.String()+"]") {
			return lvl
		}
	}
	return log.LevelError
}

func (m Model) boxWidth() int { return max(min(m.width-4, maxWidth), minWidth) }

func (m *Model) refresh(bottom bool) {
	if m.width == 0 || m.height == 0 {
		return
	}
	w := m.boxWidth() - 4
	rows := max(min(maxRows, m.height-6), minRows)

	lines := m.Filtered()
	body := styles.HintStyle.Italic(true).Render("No log entries")
	if len(lines) > 0 {
		rendered := make([]string, len(lines))
		for i, l := range lines {
			rendered[i] = colorize(ansi.Truncate(l, w, "…"))
		}
		body = strings.Join(rendered, "\n")
	}
	m.viewport.Width, m.viewport.Height = w, rows
	m.viewport.SetContent(body)
	if bottom {
		m.viewport.GotoBottom()
	}
}

func colorize(line string) string {
	var c lipgloss.TerminalColor
	switch levelOf(line) {
	case log.LevelError:
		c = styles.StatusErrorColor
	case log.LevelWarn:
		c = styles.StatusWarningColor
	case log.LevelInfo:
		c = styles.ToastBorderInfoColor
	default:
		c = styles.TextMutedColor
	}
	return lipgloss.NewStyle().Foreground(c).Render(line)
}

// View renders the box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	var hints []string
	for _, h := range []struct {
		key   string
		label string
		level log.Level
	}{{"d", "Debug", log.LevelDebug}, {"i", "Info", log.LevelInfo}, {"w", "Warn", log.LevelWarn}, {"e", "Error", log.LevelError}} {
		s := styles.HintStyle
		if h.level == m.minLevel {
			s = lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Bold(true)
		}
		hints = append(hints, s.Render("["+h.key+"] "+h.label))
	}
	footer := styles.HintStyle.Render("[c] Clear  ") + strings.Join(hints, "  ") + styles.HintStyle.Render("  [esc] Close")

	return styles.Frame{
		Title:       "Log",
		Width:       m.boxWidth(),
		Height:      m.viewport.Height + 4,
		BorderColor: styles.OverlayBorderColor,
	}.Render(" " + strings.ReplaceAll(m.viewport.View(), "\n", "\n ") + "\n\n " + footer)
}

// Overlay centers the box on bg when visible.
func (m Model) Overlay(bg string) string {
	if !m.visible {
		return bg
	}
	return overlay.Place{Width: m.width, Height: m.height}.Over(m.View(), bg)
}
