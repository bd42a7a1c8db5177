package toaster

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow_SchedulesDismiss(t *testing.T) {
	m, cmd := New().Show("Saved", Success)
	require.NotNil(t, cmd)
	assert.True(t, m.Visible())
	assert.Contains(t, m.View(), "Saved")

	m = m.Update(DismissMsg{ID: 1})
	assert.False(t, m.Visible())
	assert.Empty(t, m.View())
}

func TestDismiss_StaleIDKeepsNewerToast(t *testing.T) {
	m, _ := New().Show("first", Info)
	m, _ = m.Show("second", Error)

	m = m.Update(DismissMsg{ID: 1})
	require.True(t, m.Visible(), "the first toast's timer must not hide the second")
	assert.Equal(t, "second", m.Message())

	m = m.Update(DismissMsg{ID: 2})
	assert.False(t, m.Visible())
}

func TestView_WrapsLongMessages(t *testing.T) {
	long := strings.Repeat("connection refused ", 10)
	m, _ := New().Show(long, Error)

	for _, line := range strings.Split(m.View(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), maxWidth+4)
	}
}

func TestOverlay(t *testing.T) {
	bg := strings.Repeat(strings.Repeat(".", 40)+"\n", 9) + strings.Repeat(".", 40)

	assert.Equal(t, bg, New().Overlay(bg, 40, 10), "hidden toaster leaves the view alone")

	m, _ := New().Show("Loaded", Success)
	out := ansi.Strip(m.Overlay(bg, 40, 10))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)
	assert.Contains(t, lines[7], "Loaded")
	assert.Equal(t, strings.Repeat(".", 40), lines[9])
}
