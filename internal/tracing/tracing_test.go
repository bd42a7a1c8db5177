package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/jinhealth/reconcile/internal/config"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	p, err := Setup(config.TracingConfig{}, "reconcile")
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_UnknownExporter(t *testing.T) {
	_, err := Setup(config.TracingConfig{Enabled: true, Exporter: "zipkin"}, "reconcile")
	require.ErrorContains(t, err, `unsupported exporter "zipkin"`)
}

func TestFileExporter_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "out.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), "syncgw.Push")
	_, child := tracer.Start(ctx, "POST /api/config/sync")
	child.SetAttributes(attribute.Int("maps", 3))
	child.RecordError(errors.New("boom"))
	child.SetStatus(codes.Error, "boom")
	child.End()
	parent.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var spans []Span
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var s Span
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		spans = append(spans, s)
	}
	require.Len(t, spans, 2)
	require.Equal(t, "POST /api/config/sync", spans[0].Name)
	require.Equal(t, spans[1].SpanID, spans[0].ParentID)
	require.Equal(t, "boom", spans[0].Error)
	require.EqualValues(t, 3, spans[0].Attributes["maps"])

	require.Error(t, exp.ExportSpans(context.Background(), nil), "closed exporter refuses spans")
}
