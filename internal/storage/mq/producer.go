package mq

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

type ProduceMsg struct {
	Topic        string
	Headers      map[string]string
	Payload      []byte
	PartitionKey *string
}

type Producer interface {
	Produce(ctx context.Context, msg ProduceMsg) error
}

var _ Producer = (*KafkaProducer)(nil)

type KafkaProducer struct {
	cl *kgo.Client
}

func NewKafkaProducer(ctx context.Context, cfg config.Kafka) (*KafkaProducer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Addresses...),
		kgo.ClientID(cfg.ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.WithContext(ctx),
		kotelHooks(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return &KafkaProducer{cl: cl}, nil
}

// Produce writes msg and waits for the broker acknowledgement.
func (p *KafkaProducer) Produce(ctx context.Context, msg ProduceMsg) error {
	ctx, span := tracer.Start(ctx, "KafkaProducer.Produce",
		trace.WithAttributes(attribute.String("topic", msg.Topic)),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
	defer span.End()

	res := p.cl.ProduceSync(ctx, buildProduceRecord(msg))
	rec, err := res.First()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to produce message")
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}

	span.SetAttributes(
		attribute.Int64("partition", int64(rec.Partition)),
		attribute.Int64("offset", rec.Offset),
	)
	return nil
}

func (p *KafkaProducer) Close() {
	p.cl.Close()
}

// buildProduceRecord maps msg to a record. Headers are sorted by key so
// records built from the same message are identical.
func buildProduceRecord(msg ProduceMsg) *kgo.Record {
	keys := slices.Sorted(maps.Keys(msg.Headers))
	headers := make([]kgo.RecordHeader, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kgo.RecordHeader{Key: k, Value: []byte(msg.Headers[k])})
	}

	r := &kgo.Record{
		Topic:   msg.Topic,
		Value:   msg.Payload,
		Headers: headers,
	}
	if msg.PartitionKey != nil {
		r.Key = []byte(*msg.PartitionKey)
	}

	return r
}
