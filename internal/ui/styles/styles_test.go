package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{name: "fits", in: "Samsung", width: 10, want: "Samsung"},
		{name: "ascii", in: "Samsung Electronics", width: 8, want: "Samsung…"},
		{name: "zero width", in: "abc", width: 0, want: ""},
		{name: "wide runes count double", in: "삼성전자", width: 8, want: "삼성전자"},
		{name: "wide runes cut", in: "삼성전자", width: 5, want: "삼성…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.width)
			require.Equal(t, tt.want, got)
			require.LessOrEqual(t, runewidth.StringWidth(got), max(tt.width, 0))
		})
	}
}

func TestPadRight(t *testing.T) {
	require.Equal(t, "ab   ", PadRight("ab", 5))
	require.Equal(t, "한  ", PadRight("한", 4))
	require.Equal(t, 4, runewidth.StringWidth(PadRight("한국어", 4)))
}

func TestPaneTitle(t *testing.T) {
	require.Equal(t, "Groups (3)", PaneTitle("Groups", 3, true))
	require.Equal(t, "Groups", PaneTitle("Groups", 3, false))
}

func TestFrame_Render(t *testing.T) {
	out := Frame{Title: "Unclassified", Footer: "2 items", Width: 20, Height: 5}.Render("A Corp\n삼성")
	lines := strings.Split(ansi.Strip(out), "\n")

	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "╭─ Unclassified "))
	require.True(t, strings.HasPrefix(lines[4], "╰─ 2 items "))
	require.Equal(t, "│A Corp            │", lines[1])
	require.Equal(t, "│삼성              │", lines[2])
	for _, l := range lines {
		require.Equal(t, 20, ansi.StringWidth(l), "line %q", l)
	}
}

func TestFrame_RenderClipsContent(t *testing.T) {
	body := strings.Repeat("x", 50) + "\n2\n3\n4\n5"
	out := Frame{Title: "A very long pane title indeed", Width: 12, Height: 4}.Render(body)
	lines := strings.Split(ansi.Strip(out), "\n")

	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "…")
	require.Equal(t, "│xxxxxxxxxx│", lines[1])
	require.Equal(t, "│2         │", lines[2])
}
