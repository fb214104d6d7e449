package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/event"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

type CreateProductParams struct {
	Name  string  `json:"name" validate:"required,notblank"`
	Price float64 `json:"price" validate:"gt=0"`
}

// UpdateProductParams holds a partial update. At least one field must be set.
type UpdateProductParams struct {
	ProductID string
	Name      *string
	Price     *float64
}

// QueryProductsParams holds the query filters. Only the first present filter
// is applied, in the order Name, Price, PriceGTE, PriceLTE.
type QueryProductsParams struct {
	Name     *string
	Price    *float64
	PriceGTE *float64
	PriceLTE *float64
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	// CreateProducts creates the valid entries of params and skips the others.
	CreateProducts(ctx context.Context, params []CreateProductParams) ([]model.Product, error)
	UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	QueryProducts(ctx context.Context, params QueryProductsParams) ([]model.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type productService struct {
	cfg           config.Products
	logger        *slog.Logger
	db            ddb.DB
	productRepo   repository.ProductRepository
	outboxMsgRepo repository.OutboxMsgRepository
	validator     validator.Validator
	now           func() time.Time
}

type Option func(*productService)

// WithClock replaces the clock used for product timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *productService) {
		s.now = now
	}
}

func NewProductService(
	cfg config.Products,
	logger *slog.Logger,
	db ddb.DB,
	productRepo repository.ProductRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	validator validator.Validator,
	opts ...Option,
) ProductService {
	s := &productService{
		cfg:           cfg,
		logger:        logger.With(slog.String("service", "product")),
		db:            db,
		productRepo:   productRepo,
		outboxMsgRepo: outboxMsgRepo,
		validator:     validator,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *productService) newProduct(params CreateProductParams) model.Product {
	now := s.now().UTC()
	return model.Product{
		ProductID: uuid.NewString(),
		Name:      params.Name,
		Price:     params.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *productService) createOutboxMsg(ctx context.Context, db ddb.DB, topic, productID string, ev any) error {
	evBytes, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := s.outboxMsgRepo.
		WithDB(db).
		CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        topic,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      evBytes,
			PartitionKey: &productID,
		}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}

func productCreatedEvent(product model.Product) event.ProductCreatedEvent {
	return event.ProductCreatedEvent{
		ProductID: product.ProductID,
		Name:      product.Name,
		Price:     product.Price,
		CreatedAt: product.CreatedAt,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, apperr.ValidationErr.WrapParent(err)
	}

	product := s.newProduct(params)

	if err := s.db.WithTx(ctx, func(db ddb.DB) error {
		if err := s.productRepo.
			WithDB(db).
			CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		return s.createOutboxMsg(ctx, db, event.TopicProductCreated, product.ProductID, productCreatedEvent(product))
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	return product, nil
}

func (s *productService) CreateProducts(ctx context.Context, params []CreateProductParams) ([]model.Product, error) {
	products := make([]model.Product, 0, len(params))
	for i, p := range params {
		if err := s.validator.Validate(p); err != nil {
			s.logger.DebugContext(ctx, "skipping invalid product",
				slog.Int("index", i), slog.Any("error", err))
			continue
		}
		products = append(products, s.newProduct(p))
	}

	if len(products) == 0 {
		return nil, apperr.ValidationErr.WithMsg("no valid product supplied")
	}

	if err := s.db.WithBatch(ctx, func(db ddb.DB) error {
		for _, product := range products {
			if err := s.productRepo.
				WithDB(db).
				CreateProduct(ctx, product); err != nil {
				return fmt.Errorf("product repository create product: %w", err)
			}

			if err := s.createOutboxMsg(ctx, db, event.TopicProductCreated, product.ProductID, productCreatedEvent(product)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("db with batch: %w", err)
	}

	return products, nil
}

func (s *productService) UpdateProduct(ctx context.Context, params UpdateProductParams) (model.Product, error) {
	if strings.TrimSpace(params.ProductID) == "" {
		return model.Product{}, apperr.ValidationErr.WithMsg("productId is required")
	}
	if params.Name == nil && params.Price == nil {
		return model.Product{}, apperr.ValidationErr.WithMsg("name or price is required")
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return model.Product{}, apperr.ValidationErr.WithMsg("name must not be blank")
	}
	if params.Price != nil && *params.Price <= 0 {
		return model.Product{}, apperr.ValidationErr.WithMsg("price must be greater than 0")
	}

	updatedAt := s.now().UTC()

	if err := s.db.WithTx(ctx, func(db ddb.DB) error {
		if err := s.productRepo.
			WithDB(db).
			UpdateProduct(ctx, repository.UpdateProductParams{
				ProductID: params.ProductID,
				Name:      params.Name,
				Price:     params.Price,
				UpdatedAt: updatedAt,
			}); err != nil {
			return fmt.Errorf("product repository update product: %w", err)
		}

		return s.createOutboxMsg(ctx, db, event.TopicProductUpdated, params.ProductID, event.ProductUpdatedEvent{
			ProductID: params.ProductID,
			Name:      params.Name,
			Price:     params.Price,
			UpdatedAt: updatedAt,
		})
	}); err != nil {
		return model.Product{}, fmt.Errorf("db with tx: %w", err)
	}

	product, err := s.productRepo.GetProduct(ctx, params.ProductID, true)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListProducts(ctx, s.cfg.EffectivePageSize())
	if err != nil {
		return nil, fmt.Errorf("product repository list products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return model.Product{}, apperr.ValidationErr.WithMsg("productId is required")
	}

	product, err := s.productRepo.GetProduct(ctx, productID, false)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *productService) QueryProducts(ctx context.Context, params QueryProductsParams) ([]model.Product, error) {
	if params.Name != nil && *params.Name != "" {
		products, err := s.productRepo.ListProductsByName(ctx, *params.Name)
		if err != nil {
			return nil, fmt.Errorf("product repository list products by name: %w", err)
		}
		return products, nil
	}

	var priceParams repository.ListProductsByPriceParams
	switch {
	case params.Price != nil:
		priceParams = repository.ListProductsByPriceParams{Comparator: repository.PriceEqual, Price: *params.Price}
	case params.PriceGTE != nil:
		priceParams = repository.ListProductsByPriceParams{Comparator: repository.PriceGreaterOrEqual, Price: *params.PriceGTE}
	case params.PriceLTE != nil:
		priceParams = repository.ListProductsByPriceParams{Comparator: repository.PriceLessOrEqual, Price: *params.PriceLTE}
	default:
		return nil, apperr.ValidationErr.WithMsg("one of name, price, price>, price< is required")
	}
	priceParams.Limit = s.cfg.EffectivePageSize()

	products, err := s.productRepo.ListProductsByPrice(ctx, priceParams)
	if err != nil {
		return nil, fmt.Errorf("product repository list products by price: %w", err)
	}

	return products, nil
}

func (s *productService) DeleteProduct(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return apperr.ValidationErr.WithMsg("productId is required")
	}

	if err := s.db.WithTx(ctx, func(db ddb.DB) error {
		if err := s.productRepo.
			WithDB(db).
			DeleteProduct(ctx, productID); err != nil {
			return fmt.Errorf("product repository delete product: %w", err)
		}

		return s.createOutboxMsg(ctx, db, event.TopicProductDeleted, productID, event.ProductDeletedEvent{
			ProductID: productID,
			DeletedAt: s.now().UTC(),
		})
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	return nil
}
