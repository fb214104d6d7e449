package service_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
)

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) WithDB(ddb.DB) repository.ProductRepository {
	return m
}

func (m *mockProductRepository) GetProduct(ctx context.Context, productID string, consistentRead bool) (model.Product, error) {
	args := m.Called(ctx, productID, consistentRead)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductRepository) ListProductsByName(ctx context.Context, name string) ([]model.Product, error) {
	args := m.Called(ctx, name)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductRepository) ListProducts(ctx context.Context, limit int32) ([]model.Product, error) {
	args := m.Called(ctx, limit)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductRepository) ListProductsByPrice(ctx context.Context, params repository.ListProductsByPriceParams) ([]model.Product, error) {
	args := m.Called(ctx, params)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductRepository) CreateProduct(ctx context.Context, product model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) UpdateProduct(ctx context.Context, params repository.UpdateProductParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

type mockOutboxMsgRepository struct {
	mock.Mock
}

func (m *mockOutboxMsgRepository) WithDB(ddb.DB) repository.OutboxMsgRepository {
	return m
}

func (m *mockOutboxMsgRepository) CreateOutboxMsg(ctx context.Context, params repository.CreateOutboxMsgParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockOutboxMsgRepository) ListUnprocessedOutboxMsgs(ctx context.Context, params repository.ListUnprocessedOutboxMsgsParams) ([]model.OutboxMsg, error) {
	args := m.Called(ctx, params)
	msgs, _ := args.Get(0).([]model.OutboxMsg)
	return msgs, args.Error(1)
}

func (m *mockOutboxMsgRepository) BulkUpdateOutboxMsgs(ctx context.Context, params repository.BulkUpdateOutboxMsgsParams) error {
	return m.Called(ctx, params).Error(0)
}
