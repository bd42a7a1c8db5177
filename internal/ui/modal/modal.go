// Package modal provides the prompt and confirmation dialogs of the editor:
// naming a new group, renaming, manual merge, quick exclude, and the
// confirmations before destructive actions.
package modal

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jinhealth/reconcile/internal/ui/overlay"
	"github.com/jinhealth/reconcile/internal/ui/styles"
)

// Variant styles the confirm button.
type Variant int

const (
	Primary Variant = iota
	Danger
)

// Input is one text field.
type Input struct {
	Key         string
	Label       string
	Placeholder string
	Value       string
	Limit       int // runes, 0 for none
}

// Config describes a dialog. Without Inputs it is a yes/no confirmation.
type Config struct {
	// Purpose is echoed back in SubmitMsg and CancelMsg so one handler can
	// serve every dialog.
	Purpose string
	Title   string
	Message string
	Inputs  []Input
	Variant Variant
	Confirm string // button label, default "OK" or "Save"
	Width   int    // content width, default 44
}

// SubmitMsg carries the trimmed input values keyed by Input.Key.
type SubmitMsg struct {
	Purpose string
	Values  map[string]string
}

// CancelMsg is sent on esc or the Cancel button.
type CancelMsg struct{ Purpose string }

const (
	focusConfirm = -1
	focusCancel  = -2
)

// Model is a dialog. focus is an input index or one of the button constants.
type Model struct {
	cfg    Config
	inputs []textinput.Model
	focus  int
	hint   string
	err    string
}

// New builds a dialog focused on its first input, or on the confirm button.
func New(cfg Config) Model {
	if cfg.Width <= 0 {
		cfg.Width = 44
	}
	m := Model{cfg: cfg, focus: focusConfirm}
	for i, in := range cfg.Inputs {
		ti := textinput.New()
		ti.Prompt = "› "
		ti.Placeholder = in.Placeholder
		ti.Width = cfg.Width - 6
		ti.CharLimit = in.Limit
		ti.SetValue(in.Value)
		ti.CursorEnd()
		if i == 0 {
			ti.Focus()
			m.focus = 0
		}
		m.inputs = append(m.inputs, ti)
	}
	return m
}

// Init starts the cursor blink for prompts.
func (m Model) Init() tea.Cmd {
	if len(m.inputs) > 0 {
		return textinput.Blink
	}
	return nil
}

// Purpose returns Config.Purpose.
func (m Model) Purpose() string { return m.cfg.Purpose }

// Value returns the current text of the input with key.
func (m Model) Value(key string) string {
	for i, in := range m.cfg.Inputs {
		if in.Key == key {
			return m.inputs[i].Value()
		}
	}
	return ""
}

// SetHint shows a muted line under the inputs, e.g. search candidates.
func (m Model) SetHint(hint string) Model {
	m.hint = hint
	return m
}

// SetError shows why the last submit was rejected. The dialog stays open.
func (m Model) SetError(msg string) Model {
	m.err = msg
	return m
}

// Update handles keys. Enter on the last input submits directly.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return m, m.cancel()
		case "tab", "down":
			return m.move(1), nil
		case "shift+tab", "up":
			return m.move(-1), nil
		case "left", "right":
			if m.focus < 0 {
				if m.focus == focusConfirm {
					m.focus = focusCancel
				} else {
					m.focus = focusConfirm
				}
				return m, nil
			}
		case "enter":
			switch {
			case m.focus == focusCancel:
				return m, m.cancel()
			case m.focus == focusConfirm || m.focus == len(m.inputs)-1:
				return m.submit()
			default:
				return m.move(1), nil
			}
		}
	}
	if m.focus >= 0 {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		m.err = ""
		return m, cmd
	}
	return m, nil
}

func (m Model) cancel() tea.Cmd {
	p := m.cfg.Purpose
	return func() tea.Msg { return CancelMsg{Purpose: p} }
}

func (m Model) submit() (Model, tea.Cmd) {
	values := make(map[string]string, len(m.inputs))
	for i, in := range m.cfg.Inputs {
		v := strings.TrimSpace(m.inputs[i].Value())
		if v == "" {
			m.err = in.Label + " is required"
			return m.focusOn(i), nil
		}
		values[in.Key] = v
	}
	p := m.cfg.Purpose
	return m, func() tea.Msg { return SubmitMsg{Purpose: p, Values: values} }
}

// order is the tab cycle: inputs, confirm, cancel.
func (m Model) order() []int {
	out := make([]int, 0, len(m.inputs)+2)
	for i := range m.inputs {
		out = append(out, i)
	}
	return append(out, focusConfirm, focusCancel)
}

func (m Model) move(delta int) Model {
	order := m.order()
	at := 0
	for i, f := range order {
		if f == m.focus {
			at = i
		}
	}
	next := order[(at+delta+len(order))%len(order)]
	return m.focusOn(next)
}

func (m Model) focusOn(f int) Model {
	for i := range m.inputs {
		if i == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	m.focus = f
	return m
}

// View renders the dialog box.
func (m Model) View() string {
	w := max(m.cfg.Width, lipgloss.Width(m.cfg.Title))

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(styles.OverlayTitleColor).Render(m.cfg.Title)
	b.WriteString(title + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.OverlayBorderColor).Render(strings.Repeat("─", w)))
	b.WriteString("\n\n")

	if m.cfg.Message != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.TextPrimaryColor).Render(wordwrap.String(m.cfg.Message, w)))
		b.WriteString("\n\n")
	}

	for i, in := range m.cfg.Inputs {
		label := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
		border := styles.BorderDefaultColor
		if m.focus == i {
			label = label.Foreground(styles.BorderFocusColor).Bold(true)
			border = styles.BorderFocusColor
		}
		b.WriteString(label.Render(in.Label) + "\n")
		b.WriteString(lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(border).
			Width(w).
			Render(m.inputs[i].View()))
		b.WriteString("\n\n")
	}

	if m.hint != "" {
		b.WriteString(styles.HintStyle.Render(m.hint) + "\n\n")
	}
	if m.err != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(styles.StatusErrorColor).Render(wordwrap.String(m.err, w)) + "\n\n")
	}
	b.WriteString(m.buttons())

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Padding(0, 1).
		Render(b.String())
}

func (m Model) buttons() string {
	label := m.cfg.Confirm
	if label == "" {
		label = "OK"
		if len(m.inputs) > 0 {
			label = "Save"
		}
	}
	ok, okFocused := styles.PrimaryButtonStyle, styles.PrimaryButtonFocusedStyle
	if m.cfg.Variant == Danger {
		ok, okFocused = styles.DangerButtonStyle, styles.DangerButtonFocusedStyle
	}
	if m.focus == focusConfirm {
		ok = okFocused
	}
	cancel := styles.SecondaryButtonStyle
	if m.focus == focusCancel {
		cancel = styles.SecondaryButtonFocusedStyle
	}
	return ok.Render(label) + "  " + cancel.Render("Cancel")
}

// Overlay centers the dialog on bg.
func (m Model) Overlay(bg string, width, height int) string {
	return overlay.Place{Width: width, Height: height}.Over(m.View(), bg)
}
