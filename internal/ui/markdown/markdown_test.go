package markdown

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	for _, style := range []string{"", "dark", "light"} {
		r, err := New(40, style)
		require.NoError(t, err)
		require.Equal(t, 40, r.Width())

		out, err := r.Render("## Sync\n\n- **ctrl+s** save")
		require.NoError(t, err)
		plain := ansi.Strip(out)
		require.Contains(t, plain, "Sync")
		require.Contains(t, plain, "ctrl+s")
	}
}
