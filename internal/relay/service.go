package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/mq"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

type Service struct {
	cfg           config.Relay
	logger        *slog.Logger
	db            ddb.DB
	outboxMsgRepo repository.OutboxMsgRepository
	mqProducer    mq.Producer

	stopChan chan struct{}
}

func NewService(
	cfg config.Relay,
	logger *slog.Logger,
	db ddb.DB,
	outboxMsgRepo repository.OutboxMsgRepository,
	mqProducer mq.Producer,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "relay")),
		db:            db,
		outboxMsgRepo: outboxMsgRepo,
		mqProducer:    mqProducer,
		stopChan:      make(chan struct{}),
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) CleanupFunc {
	ctx, cancel := context.WithCancel(ctx)

	stoppedChan := make(chan struct{})
	go func() {
		defer close(stoppedChan)
		s.run(ctx)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(s.stopChan)
			select {
			case <-stoppedChan:
			case <-time.After(5 * time.Second):
			}
			cancel()
		})
	}
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-time.After(s.cfg.Interval):
			if _, err := s.RelayOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "error relaying outbox msgs", slog.Any("error", err))
				continue
			}
		}
	}
}

// batchSize is capped by the transaction that marks the batch processed.
func (s *Service) batchSize() int32 {
	if s.cfg.BatchSize == 0 || s.cfg.BatchSize > ddb.MaxTransactItems {
		return ddb.MaxTransactItems
	}
	//nolint:gosec
	return int32(s.cfg.BatchSize)
}

func (s *Service) produceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.ProduceTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.ProduceTimeout)
}

// RelayOnce produces one batch of pending outbox messages and marks them
// processed. It returns the number of messages handled.
func (s *Service) RelayOnce(ctx context.Context) (int, error) {
	outboxMsgs, err := s.outboxMsgRepo.ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{
		BatchSize: s.batchSize(),
	})
	if err != nil {
		return 0, fmt.Errorf("list unprocessed outbox msgs: %w", err)
	}

	if len(outboxMsgs) == 0 {
		return 0, nil
	}

	s.logger.InfoContext(ctx, "relaying outbox msgs", slog.Int("count", len(outboxMsgs)))

	items := make([]repository.BulkUpdateOutboxMsgsItem, 0, len(outboxMsgs))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, msg := range outboxMsgs {
		wg.Go(func() {
			item := repository.BulkUpdateOutboxMsgsItem{ID: msg.ID}

			produceCtx, cancel := s.produceContext(ctx)
			defer cancel()

			if err := s.mqProducer.Produce(produceCtx, mq.ProduceMsg{
				Topic:        msg.Topic,
				Headers:      msg.Headers,
				Payload:      msg.Payload,
				PartitionKey: msg.PartitionKey,
			}); err != nil {
				s.logger.ErrorContext(ctx,
					"error producing message",
					slog.String("outbox_msg_id", msg.ID.String()),
					slog.String("topic", msg.Topic),
					slog.Any("error", err),
				)
				item.Error = ptr.New(fmt.Sprintf("produce message: %v", err))
			}

			mu.Lock()
			items = append(items, item)
			mu.Unlock()
		})
	}

	wg.Wait()

	if err := s.db.WithTx(ctx, func(db ddb.DB) error {
		return s.outboxMsgRepo.
			WithDB(db).
			BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
				Items: items,
			})
	}); err != nil {
		return 0, fmt.Errorf("bulk update outbox msgs: %w", err)
	}

	return len(items), nil
}
