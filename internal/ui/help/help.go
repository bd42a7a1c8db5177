// Package help is the full-screen help view: how the three panes relate and
// every keybinding, rendered as markdown in a scrollable viewport.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jinhealth/reconcile/internal/keys"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/ui/markdown"
	"github.com/jinhealth/reconcile/internal/ui/styles"
)

const intro = `# reconcile

Company names from checkup records arrive spelled many ways. Pull every
spelling of one company into a **group**; the group name is the
*standard name* used in statistics.

- **Unclassified**: names not yet grouped or excluded.
- **Groups**: standard name with its member spellings. Dropping a name on a
  group merges it; dropping it on the new-group zone asks for a standard name.
- **Excluded**: names left out of statistics. Excluding a group excludes
  its standard name; its members stay in the group.

Nothing reaches the backend until you save. The title bar shows a ● while
there are unsaved edits.
`

// Document builds the help markdown for km.
func Document(km keys.KeyMap) string {
	var b strings.Builder
	b.WriteString(intro)
	sections := keys.Sections()
	for i, group := range km.FullHelp() {
		fmt.Fprintf(&b, "\n## %s\n\n", sections[i])
		b.WriteString("| Key | Action |\n|---|---|\n")
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", strings.ReplaceAll(h.Key, "|", `\|`), h.Desc)
		}
	}
	return b.String()
}

// Model renders the document once per width.
type Model struct {
	doc      string
	style    string
	viewport viewport.Model
	width    int
}

// New builds the help view for km. style is the glamour style name.
func New(km keys.KeyMap, style string) Model {
	return Model{doc: Document(km), style: style, viewport: viewport.New(0, 0)}
}

// SetSize re-renders when the width changes.
func (m Model) SetSize(width, height int) Model {
	m.viewport.Height = max(height-1, 1)
	if width != m.width {
		m.width = width
		m.viewport.Width = width
		m.viewport.SetContent(m.render(width))
		m.viewport.GotoTop()
	}
	return m
}

func (m Model) render(width int) string {
	r, err := markdown.New(max(width-2, 20), m.style)
	if err == nil {
		var out string
		if out, err = r.Render(m.doc); err == nil {
			return out
		}
	}
	log.ErrorErr(log.CatUI, "Help render failed, showing plain text", err)
	return m.doc
}

// Update scrolls.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View shows the document and a footer.
func (m Model) View() string {
	footer := styles.HintStyle.Render(fmt.Sprintf(" %3.f%%  ↑/↓ scroll · ? or esc to close", m.viewport.ScrollPercent()*100))
	return m.viewport.View() + "\n" + footer
}
