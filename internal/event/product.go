package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

const (
	TopicProductCreated = "product.created"
	TopicProductUpdated = "product.updated"
	TopicProductDeleted = "product.deleted"
)

type ProductCreatedEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductUpdatedEvent carries only the fields that changed.
type ProductUpdatedEvent struct {
	ProductID string    `json:"product_id"`
	Name      *string   `json:"name,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProductDeletedEvent struct {
	ProductID string    `json:"product_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "handling product created event", slog.Any("event", ev))
	return nil
}

func (s *Service) handleProductUpdatedEvent(ctx context.Context, ev ProductUpdatedEvent) error {
	s.logger.InfoContext(ctx, "handling product updated event",
		slog.String("product_id", ev.ProductID),
		slog.String("name", ptr.ValueOr(ev.Name, "<unchanged>")),
		slog.Float64("price", ptr.ValueOr(ev.Price, 0)),
		slog.Time("updated_at", ev.UpdatedAt),
	)
	return nil
}

func (s *Service) handleProductDeletedEvent(ctx context.Context, ev ProductDeletedEvent) error {
	s.logger.InfoContext(ctx, "handling product deleted event", slog.Any("event", ev))
	return nil
}
