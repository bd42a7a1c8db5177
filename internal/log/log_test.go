package log

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jinhealth/reconcile/internal/pubsub"
)

func TestFormat_FieldsAndOrphanKey(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	line := Format(ts, LevelWarn, CatSync, "save failed", []any{"maps", 3, "dangling"})

	require.Equal(t, "2026-03-01T09:30:00 [WARN] [sync] save failed maps=3 dangling=<missing>\n", line)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, LevelWarn, ParseLevel(" warning "))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelInfo, ParseLevel("bogus"))
}

func TestInitWriter_RespectsMinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(func() { std = nil })

	SetMinLevel(LevelWarn)
	Info(CatUI, "hidden")
	ErrorErr(CatDB, "query failed", errors.New("locked"), "table", "company_map")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[ERROR] [db] query failed table=company_map error=locked")
}

func TestSetEnabled_SilencesOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(func() { std = nil })

	SetEnabled(false)
	Error(CatEditor, "dropped")
	require.Empty(t, buf.String())
}

func TestInit_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	cleanup, err := Init(path)
	require.NoError(t, err)
	t.Cleanup(func() { std = nil })

	Debug(CatConfig, "loaded", "path", "/tmp/x.yaml")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "[DEBUG] [config] loaded path=/tmp/x.yaml")
}

func TestNewListener_ReceivesLines(t *testing.T) {
	require.Nil(t, NewListener(context.Background()), "no listener without a sink")

	InitWriter(&bytes.Buffer{})
	t.Cleanup(func() { std = nil })

	l := NewListener(context.Background())
	require.NotNil(t, l)

	Info(CatServer, "listening", "addr", ":8000")

	ev, ok := l.Next()().(pubsub.Event[string])
	require.True(t, ok)
	require.Equal(t, pubsub.KindLog, ev.Kind)
	require.Contains(t, ev.Data, "listening addr=:8000")
}
