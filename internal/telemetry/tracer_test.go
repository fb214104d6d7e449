package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/telemetry"
)

func TestInitTracerWithoutCollector(t *testing.T) {
	ctx := context.Background()

	cleanup, err := telemetry.InitTracer(ctx, config.Otel{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
	assert.NoError(t, cleanup(ctx))
}
