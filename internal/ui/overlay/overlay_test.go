package overlay

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bg5x5 = "AAAAA\nAAAAA\nAAAAA\nAAAAA\nAAAAA"

func TestOver_Anchors(t *testing.T) {
	tests := []struct {
		name  string
		place Place
		want  []string
	}{
		{
			name:  "center",
			place: Place{Width: 5, Height: 5},
			want:  []string{"AAAAA", "AAAAA", "AXXAA", "AAAAA", "AAAAA"},
		},
		{
			name:  "top with margin",
			place: Place{Width: 5, Height: 5, Anchor: Top, Margin: 1},
			want:  []string{"AAAAA", "AXXAA", "AAAAA", "AAAAA", "AAAAA"},
		},
		{
			name:  "bottom",
			place: Place{Width: 5, Height: 5, Anchor: Bottom},
			want:  []string{"AAAAA", "AAAAA", "AAAAA", "AAAAA", "AXXAA"},
		},
		{
			name:  "bottom right",
			place: Place{Width: 5, Height: 5, Anchor: BottomRight, Margin: 1},
			want:  []string{"AAAAA", "AAAAA", "AAAAA", "AAXXA", "AAAAA"},
		},
		{
			name:  "at clamps to screen",
			place: Place{Width: 5, Height: 5, Anchor: At, X: 4, Y: 9},
			want:  []string{"AAAAA", "AAAAA", "AAAAA", "AAAAA", "AAAXX"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Split(tt.place.Over("XX", bg5x5), "\n")
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOver_ForegroundLargerThanScreen(t *testing.T) {
	got := Place{Width: 3, Height: 2}.Over("XXXXX\nXXXXX\nXXXXX", "AAA\nAAA")
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "XXXXX", lines[0])
}

func TestOver_PadsShortBackground(t *testing.T) {
	got := Place{Width: 6, Height: 3, Anchor: Bottom}.Over("ok", "line")
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  ok", lines[2])
}

func TestOver_KeepsWideRunesAligned(t *testing.T) {
	bg := "삼성전자주식회사"
	got := Place{Width: 16, Height: 1, Anchor: At, X: 4}.Over("XXXX", bg)
	assert.Equal(t, "삼성XXXX주식회사", got)
}

func TestOver_PreservesStyledBackground(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("BBBBB")
	got := Place{Width: 5, Height: 1}.Over("X", styled)
	assert.Equal(t, "BBXBB", ansi.Strip(got))
}
