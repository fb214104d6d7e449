package mq

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/storage/mq")

// kotelHooks instruments a kgo client with spans for produce and fetch.
// The global provider and propagator are read when the client is built,
// after telemetry has been initialised.
func kotelHooks() kgo.Opt {
	kt := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
		kotel.TracerPropagator(otel.GetTextMapPropagator()),
	)))
	return kgo.WithHooks(kt.Hooks()...)
}
