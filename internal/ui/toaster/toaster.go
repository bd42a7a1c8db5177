// Package toaster shows short-lived notifications such as "Saved" or a load error.
package toaster

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jinhealth/reconcile/internal/ui/overlay"
	"github.com/jinhealth/reconcile/internal/ui/styles"
)

// Level picks the border color and icon.
type Level int

const (
	Success Level = iota
	Info
	Warn
	Error
)

const (
	// DefaultDuration is how long a success or info toast stays up.
	DefaultDuration = 3 * time.Second
	// ErrorDuration keeps errors readable for longer.
	ErrorDuration = 6 * time.Second

	maxWidth = 60
)

// DismissMsg hides the toast it was scheduled for. A newer toast ignores it.
type DismissMsg struct{ ID int }

// Model is at most one visible toast.
type Model struct {
	message string
	level   Level
	id      int
	visible bool
}

// New returns a hidden toaster.
func New() Model { return Model{} }

// Show replaces any visible toast and schedules its dismissal.
func (m Model) Show(message string, level Level) (Model, tea.Cmd) {
	m.id++
	m.message = message
	m.level = level
	m.visible = true

	d := DefaultDuration
	if level == Error || level == Warn {
		d = ErrorDuration
	}
	id := m.id
	return m, tea.Tick(d, func(time.Time) tea.Msg { return DismissMsg{ID: id} })
}

// Update handles DismissMsg.
func (m Model) Update(msg tea.Msg) Model {
	if d, ok := msg.(DismissMsg); ok && d.ID == m.id {
		m.visible = false
		m.message = ""
	}
	return m
}

// Visible reports whether a toast is showing.
func (m Model) Visible() bool { return m.visible }

// Message returns the current toast text.
func (m Model) Message() string { return m.message }

// View renders the toast box, or "" when hidden.
func (m Model) View() string {
	if !m.visible || m.message == "" {
		return ""
	}
	var (
		icon  string
		color lipgloss.TerminalColor
	)
	switch m.level {
	case Info:
		icon, color = "ℹ", styles.ToastBorderInfoColor
	case Warn:
		icon, color = "!", styles.ToastBorderWarnColor
	case Error:
		icon, color = "✗", styles.ToastBorderErrorColor
	default:
		icon, color = "✓", styles.ToastBorderSuccessColor
	}
	body := wordwrap.String(icon+" "+m.message, maxWidth)
	return lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Render(body)
}

// Overlay draws the toast near the bottom of bg.
func (m Model) Overlay(bg string, width, height int) string {
	fg := m.View()
	if fg == "" {
		return bg
	}
	return overlay.Place{Width: width, Height: height, Anchor: overlay.Bottom, Margin: 1}.Over(fg, bg)
}
