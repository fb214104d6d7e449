package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

type CleanupFunc func()

type Consumer interface {
	RegisterHandler(topic string, handler HandlerFunc) error
	Run(ctx context.Context) (CleanupFunc, error)
}

var _ Consumer = (*KafkaConsumer)(nil)

type KafkaConsumer struct {
	cl       *kgo.Client
	handlers map[string]HandlerFunc
	log      *slog.Logger
}

func NewKafkaConsumer(ctx context.Context, cfg config.Kafka, logger *slog.Logger) (*KafkaConsumer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Addresses...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(cfg.Group),
		kgo.AllowAutoTopicCreation(),
		kgo.DisableAutoCommit(),
		kgo.WithContext(ctx),
		kotelHooks(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("failed to ping kafka: %w", err)
	}

	return &KafkaConsumer{
		cl:       cl,
		handlers: make(map[string]HandlerFunc),
		log:      logger,
	}, nil
}

func (c *KafkaConsumer) RegisterHandler(topic string, handler HandlerFunc) error {
	if _, exists := c.handlers[topic]; exists {
		return fmt.Errorf("handler for topic %s already registered", topic)
	}

	c.cl.AddConsumeTopics(topic)
	c.handlers[topic] = handler
	return nil
}

func (c *KafkaConsumer) Run(ctx context.Context) (CleanupFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	doneChan := make(chan struct{})

	go func() {
		defer close(doneChan)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				fetches := c.cl.PollFetches(ctx)
				if errs := fetches.Errors(); len(errs) > 0 {
					if errors.Is(errs[0].Err, context.Canceled) {
						// context cancelled, likely due to shutdown
						continue
					}

					c.log.ErrorContext(ctx, "error fetching messages",
						slog.Any("error", errs),
					)
					continue
				}

				fetches.EachRecord(func(rec *kgo.Record) {
					c.handleRecord(ctx, rec)
				})

				if err := c.cl.CommitUncommittedOffsets(ctx); err != nil {
					c.log.ErrorContext(ctx, "error committing offsets",
						slog.Any("error", err),
					)
				}
			}
		}
	}()

	cleanup := func() {
		cancel()
		<-doneChan
		c.cl.Close()
	}

	return cleanup, nil
}

// handleRecord dispatches rec to its topic handler inside a consumer span
// that continues the producer's trace. Handler errors and panics are logged
// and the offset is still committed.
func (c *KafkaConsumer) handleRecord(ctx context.Context, rec *kgo.Record) {
	ctx = outbox.ExtractContextFromHeaders(ctx, outbox.RecordHeaders(rec))
	ctx, span := tracer.Start(ctx, "KafkaConsumer.Handle",
		trace.WithAttributes(
			attribute.String("topic", rec.Topic),
			attribute.Int64("partition", int64(rec.Partition)),
			attribute.Int64("offset", rec.Offset),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	log := c.log.With(slog.String("topic", rec.Topic), slog.String("key", string(rec.Key)))

	defer func() {
		if rvr := recover(); rvr != nil {
			span.RecordError(fmt.Errorf("panic: %v", rvr))
			span.SetStatus(codes.Error, "panic in handler")
			log.ErrorContext(ctx, "panic in message handler",
				slog.Any("recover", rvr),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	fn, exists := c.handlers[rec.Topic]
	if !exists {
		log.WarnContext(ctx, "no handler registered for topic")
		return
	}

	if err := fn(ctx, rec.Topic, rec.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to handle message")
		log.ErrorContext(ctx, "error handling message", slog.Any("error", err))
	}
}

func (c *KafkaConsumer) Close() {
	c.cl.Close()
}
