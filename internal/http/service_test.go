package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	apphttp "github.com/tuanvumaihuynh/product-catalog/internal/http"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

type mockProductService struct {
	mock.Mock
}

func (m *mockProductService) CreateProduct(ctx context.Context, params service.CreateProductParams) (model.Product, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductService) CreateProducts(ctx context.Context, params []service.CreateProductParams) ([]model.Product, error) {
	args := m.Called(ctx, params)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductService) UpdateProduct(ctx context.Context, params service.UpdateProductParams) (model.Product, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductService) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *mockProductService) QueryProducts(ctx context.Context, params service.QueryProductsParams) ([]model.Product, error) {
	args := m.Called(ctx, params)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Error(1)
}

func (m *mockProductService) DeleteProduct(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}

type mockHealthChecker struct {
	mock.Mock
}

func (m *mockHealthChecker) IsHealthy(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

var product = model.Product{
	ProductID: "6f1c1f0e-51a4-4c59-9b6f-0a7c1c3a4d2e",
	Name:      "Widget",
	Price:     9.99,
	CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	UpdatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
}

func newHandler(t *testing.T, strict bool) (http.Handler, *mockProductService, *mockHealthChecker) {
	t.Helper()

	svc, health := new(mockProductService), new(mockHealthChecker)
	s := apphttp.New(
		config.HTTP{Swagger: true, StrictStatusCodes: strict, AllowedOrigins: []string{"*"}},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		svc,
		health,
	)
	return s.Handler(), svc, health
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) apierr.ErrorResponse {
	t.Helper()

	var res apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &res))
	return res
}

func TestCreateProduct(t *testing.T) {
	t.Run("Should create single product", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("CreateProduct", mock.Anything, service.CreateProductParams{Name: "Widget", Price: 9.99}).
			Return(product, nil).Once()

		resp := do(h, http.MethodPost, "/products", `{"name":"Widget","price":9.99}`)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{
			"productId":"6f1c1f0e-51a4-4c59-9b6f-0a7c1c3a4d2e",
			"name":"Widget",
			"price":9.99,
			"createdAt":"2024-05-01T10:00:00Z",
			"updatedAt":"2024-05-01T10:00:00Z"
		}`, resp.Body.String())
	})

	t.Run("Should create list of products", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("CreateProducts", mock.Anything, []service.CreateProductParams{
			{Name: "Widget", Price: 9.99},
			{Name: "", Price: 0},
		}).Return([]model.Product{product}, nil).Once()

		resp := do(h, http.MethodPost, "/products", `  [{"name":"Widget","price":9.99},{}]`)

		require.Equal(t, http.StatusOK, resp.Code)
		var got []model.Product
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, []model.Product{product}, got)
	})

	t.Run("Should drop list entries that do not decode", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("CreateProducts", mock.Anything, []service.CreateProductParams{
			{Name: "Widget", Price: 9.99},
		}).Return([]model.Product{product}, nil).Once()

		resp := do(h, http.MethodPost, "/products",
			`[1, {"name":"Gadget","price":"cheap"}, {"name":"Widget","price":9.99}, "x"]`)

		require.Equal(t, http.StatusOK, resp.Code)
		var got []model.Product
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, []model.Product{product}, got)
		svc.AssertExpectations(t)
	})

	t.Run("Should reject list body that is not an array", func(t *testing.T) {
		h, svc, _ := newHandler(t, true)

		resp := do(h, http.MethodPost, "/products", `[{"name":"Widget"`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.ValidationErrorCode, decodeError(t, resp).Code)
		svc.AssertNotCalled(t, "CreateProducts", mock.Anything, mock.Anything)
	})

	t.Run("Should return 400 on validation error", func(t *testing.T) {
		h, svc, _ := newHandler(t, true)
		svc.On("CreateProduct", mock.Anything, mock.Anything).Return(model.Product{}, apperr.ValidationErr).Once()

		resp := do(h, http.MethodPost, "/products", `{"name":"Widget","price":0}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.ValidationErrorCode, decodeError(t, resp).Code)
	})

	t.Run("Should return 400 on malformed body", func(t *testing.T) {
		h, svc, _ := newHandler(t, true)

		resp := do(h, http.MethodPost, "/products", `{"name":`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.ValidationErrorCode, decodeError(t, resp).Code)
		svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})
}

func TestUpdateProduct(t *testing.T) {
	t.Run("Should update product", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("UpdateProduct", mock.Anything, service.UpdateProductParams{
			ProductID: product.ProductID,
			Price:     ptr.New(12.5),
		}).Return(product, nil).Once()

		resp := do(h, http.MethodPost, "/products/"+product.ProductID, `{"price":12.5}`)

		assert.Equal(t, http.StatusOK, resp.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Should pass empty body to service", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("UpdateProduct", mock.Anything, service.UpdateProductParams{ProductID: "p1"}).
			Return(model.Product{}, apperr.ValidationErr).Once()

		resp := do(h, http.MethodPost, "/products/p1", "")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should report not found as 400 by default", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("UpdateProduct", mock.Anything, mock.Anything).Return(model.Product{}, apperr.ProductNotFoundErr).Once()

		resp := do(h, http.MethodPost, "/products/missing", `{"name":"B"}`)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, apperr.ProductNotFoundErrorCode, decodeError(t, resp).Code)
	})
}

func TestGetProduct(t *testing.T) {
	t.Run("Should return product", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("GetProduct", mock.Anything, product.ProductID).Return(product, nil).Once()

		resp := do(h, http.MethodGet, "/products/"+product.ProductID, "")

		require.Equal(t, http.StatusOK, resp.Code)
		var got model.Product
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
		assert.Equal(t, product, got)
	})

	t.Run("Should return 404 with strict status codes", func(t *testing.T) {
		h, svc, _ := newHandler(t, true)
		svc.On("GetProduct", mock.Anything, "missing").Return(model.Product{}, apperr.ProductNotFoundErr).Once()

		resp := do(h, http.MethodGet, "/products/missing", "")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Should return 502 on storage error with strict status codes", func(t *testing.T) {
		h, svc, _ := newHandler(t, true)
		svc.On("GetProduct", mock.Anything, "p1").
			Return(model.Product{}, apperr.StorageErr.WrapParent(errors.New("timeout"))).Once()

		resp := do(h, http.MethodGet, "/products/p1", "")

		assert.Equal(t, http.StatusBadGateway, resp.Code)
	})
}

func TestListProducts(t *testing.T) {
	t.Run("Should list all products without query", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("ListAllProducts", mock.Anything).Return([]model.Product{product}, nil).Once()

		resp := do(h, http.MethodGet, "/products", "")

		assert.Equal(t, http.StatusOK, resp.Code)
		svc.AssertNotCalled(t, "QueryProducts", mock.Anything, mock.Anything)
	})

	t.Run("Should bind query filters", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("QueryProducts", mock.Anything, service.QueryProductsParams{
			PriceGTE: ptr.New(10.0),
			PriceLTE: ptr.New(20.0),
		}).Return([]model.Product{}, nil).Once()

		resp := do(h, http.MethodGet, "/products?price>=10&price<=20", "")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `[]`, resp.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("Should bind name filter", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("QueryProducts", mock.Anything, service.QueryProductsParams{Name: ptr.New("Widget")}).
			Return([]model.Product{product}, nil).Once()

		resp := do(h, http.MethodGet, "/products?name=Widget", "")

		assert.Equal(t, http.StatusOK, resp.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Should ignore empty name filter", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("QueryProducts", mock.Anything, service.QueryProductsParams{Price: ptr.New(5.0)}).
			Return([]model.Product{product}, nil).Once()

		resp := do(h, http.MethodGet, "/products?name=&price=5", "")

		assert.Equal(t, http.StatusOK, resp.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Should reject non numeric price", func(t *testing.T) {
		h, svc, _ := newHandler(t, true)

		resp := do(h, http.MethodGet, "/products?price=abc", "")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, decodeError(t, resp).Message, `"price"`)
		svc.AssertNotCalled(t, "QueryProducts", mock.Anything, mock.Anything)
	})
}

func TestDeleteProduct(t *testing.T) {
	h, svc, _ := newHandler(t, false)
	svc.On("DeleteProduct", mock.Anything, "missing").Return(nil).Once()

	resp := do(h, http.MethodDelete, "/products/missing", "")

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"Done"}`, resp.Body.String())
}

func TestAmbientRoutes(t *testing.T) {
	t.Run("Should report healthy storage", func(t *testing.T) {
		h, _, health := newHandler(t, false)
		health.On("IsHealthy", mock.Anything).Return(true, nil).Once()

		resp := do(h, http.MethodGet, "/healthz", "")

		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("Should report unavailable storage", func(t *testing.T) {
		h, _, health := newHandler(t, false)
		health.On("IsHealthy", mock.Anything).Return(false, errors.New("no table")).Once()

		resp := do(h, http.MethodGet, "/healthz", "")

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	})

	t.Run("Should expose metrics", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("ListAllProducts", mock.Anything).Return([]model.Product{}, nil).Once()
		do(h, http.MethodGet, "/products", "")

		resp := do(h, http.MethodGet, "/metrics", "")

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "http_requests_total")
		assert.Contains(t, resp.Body.String(), `status="200"`)
	})

	t.Run("Should echo correlation id", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("DeleteProduct", mock.Anything, "p1").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/products/p1", nil)
		req.Header.Set(correlationid.Header, "corr-1")
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)

		assert.Equal(t, "corr-1", resp.Header().Get(correlationid.Header))
	})

	t.Run("Should recover from panics", func(t *testing.T) {
		h, svc, _ := newHandler(t, false)
		svc.On("GetProduct", mock.Anything, "p1").Run(func(mock.Arguments) { panic("boom") })

		resp := do(h, http.MethodGet, "/products/p1", "")

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}
