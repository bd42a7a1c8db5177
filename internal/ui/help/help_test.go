package help

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinhealth/reconcile/internal/keys"
)

func TestDocument_ListsEveryBinding(t *testing.T) {
	km := keys.DefaultKeyMap()
	doc := Document(km)

	for _, s := range keys.Sections() {
		assert.Contains(t, doc, "## "+s)
	}
	for _, group := range km.FullHelp() {
		for _, b := range group {
			assert.Contains(t, doc, b.Help().Desc)
		}
	}
}

func TestView_RendersAndScrolls(t *testing.T) {
	m := New(keys.DefaultKeyMap(), "dark").SetSize(80, 10)

	view := ansi.Strip(m.View())
	require.Contains(t, view, "reconcile")
	require.Len(t, strings.Split(view, "\n"), 10)

	for i := 0; i < 200; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Contains(t, ansi.Strip(m.View()), "100%")
	assert.Contains(t, ansi.Strip(m.View()), "quit")
}
