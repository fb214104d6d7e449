package log

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

var _ slog.Handler = contextHandler{}

// attrsFromContext pulls request scoped attributes out of a context.
type attrsFromContext func(ctx context.Context) []slog.Attr

var defaultExtractors = []attrsFromContext{
	correlationAttrs,
	traceAttrs,
}

func correlationAttrs(ctx context.Context) []slog.Attr {
	id, ok := correlationid.FromContext(ctx)
	if !ok {
		return nil
	}
	return []slog.Attr{slog.String("correlation_id", id)}
}

func traceAttrs(ctx context.Context) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}

// contextHandler adds the attributes found in the record's context before
// delegating to next.
type contextHandler struct {
	next       slog.Handler
	extractors []attrsFromContext
}

func newContextHandler(next slog.Handler, extractors ...attrsFromContext) contextHandler {
	if len(extractors) == 0 {
		extractors = defaultExtractors
	}
	return contextHandler{next: next, extractors: extractors}
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, extract := range h.extractors {
		r.AddAttrs(extract(ctx)...)
	}
	return h.next.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{next: h.next.WithAttrs(attrs), extractors: h.extractors}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name), extractors: h.extractors}
}
