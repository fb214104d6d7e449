package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

func TestContextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	ctx = correlationid.NewContext(ctx, "corr-1")

	logger.With(slog.String("service", "test")).InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["service"])
	assert.Equal(t, "corr-1", entry["correlation_id"])
	assert.Equal(t, traceID.String(), entry["trace_id"])
	assert.Equal(t, spanID.String(), entry["span_id"])
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Log{Format: config.LogFormatText, Level: slog.LevelWarn})

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestContextHandlerWithoutContextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo})

	logger.InfoContext(context.Background(), "plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "correlation_id")
	assert.NotContains(t, entry, "trace_id")
}
