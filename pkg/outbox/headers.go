package outbox

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

// BuildHeaders creates headers map with trace context and correlation ID injected from context.
func BuildHeaders(ctx context.Context) map[string]string {
	headers := map[string]string{}

	propagator := otel.GetTextMapPropagator()
	propagator.Inject(ctx, propagation.MapCarrier(headers))

	if correlationID, ok := correlationid.FromContext(ctx); ok {
		headers[correlationid.Header] = correlationID
	}

	return headers
}

// ExtractContextFromHeaders extracts trace context and correlation ID from headers map and injects them into context.
func ExtractContextFromHeaders(ctx context.Context, headers map[string]string) context.Context {
	propagator := otel.GetTextMapPropagator()
	ctx = propagator.Extract(ctx, propagation.MapCarrier(headers))

	if correlationID, ok := headers[correlationid.Header]; ok {
		ctx = correlationid.NewContext(ctx, correlationID)
	}

	return ctx
}

// RecordHeaders returns the headers of a Kafka record as a map. A repeated
// key keeps its last value.
func RecordHeaders(rec *kgo.Record) map[string]string {
	headers := make(map[string]string, len(rec.Headers))
	for _, header := range rec.Headers {
		headers[header.Key] = string(header.Value)
	}
	return headers
}
