package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestTraceHandlerInjectsIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&TraceHandler{Handler: newHandler(&buf, "json")})

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	SetLevel("info")
	logger.With("k", "v").InfoContext(ctx, "decoded")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, traceID.String(), rec["trace_id"])
	assert.Equal(t, spanID.String(), rec["span_id"])
	assert.Equal(t, "v", rec["k"])
	assert.Contains(t, rec, "timestamp")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, "text"))

	SetLevel("warn")
	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	SetLevel("debug")
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	SetLevel("info")
}

func TestTeeHandlerWritesAll(t *testing.T) {
	var a, b bytes.Buffer
	SetLevel("info")
	logger := slog.New(newTeeHandler(newHandler(&a, "json"), newHandler(&b, "text")))
	logger.Info("tee")
	assert.Contains(t, a.String(), "tee")
	assert.Contains(t, b.String(), "tee")
}
