package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Query parameter names. The range filters are inclusive.
const (
	queryName     = "name"
	queryPrice    = "price"
	queryPriceGTE = "price>"
	queryPriceLTE = "price<"
)

type CreateProductRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type UpdateProductRequest struct {
	Name  *string  `json:"name"`
	Price *float64 `json:"price"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type productHandler struct {
	logger     *slog.Logger
	productSvc service.ProductService
}

func newProductHandler(logger *slog.Logger, productSvc service.ProductService) *productHandler {
	return &productHandler{
		logger:     logger,
		productSvc: productSvc,
	}
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	var (
		products []model.Product
		err      error
	)
	if len(query) == 0 {
		products, err = h.productSvc.ListAllProducts(r.Context())
		if err != nil {
			return fmt.Errorf("product service list all products: %w", err)
		}
	} else {
		params, bindErr := bindQueryProductsParams(query)
		if bindErr != nil {
			return bindErr
		}

		products, err = h.productSvc.QueryProducts(r.Context(), params)
		if err != nil {
			return fmt.Errorf("product service query products: %w", err)
		}
	}

	if products == nil {
		products = []model.Product{}
	}

	writeJSON(w, http.StatusOK, products)
	return nil
}

func bindQueryProductsParams(query map[string][]string) (service.QueryProductsParams, error) {
	var params service.QueryProductsParams

	bindings := []struct {
		name string
		dest any
	}{
		{name: queryName, dest: &params.Name},
		{name: queryPrice, dest: &params.Price},
		{name: queryPriceGTE, dest: &params.PriceGTE},
		{name: queryPriceLTE, dest: &params.PriceLTE},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return params, apperr.ValidationErr.
				WithMsg(fmt.Sprintf("invalid query parameter %q", b.name)).
				WrapParent(err)
		}
	}
	if params.Name != nil && *params.Name == "" {
		params.Name = nil
	}

	return params, nil
}

// CreateProduct accepts a single product or a list of products.
func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperr.ValidationErr.WithMsg("unable to read request body").WrapParent(err)
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return invalidBodyErr(err)
		}

		// entries that do not decode are dropped like entries that fail validation
		params := make([]service.CreateProductParams, 0, len(elems))
		for i, elem := range elems {
			var req CreateProductRequest
			if err := json.Unmarshal(elem, &req); err != nil {
				h.logger.DebugContext(r.Context(), "dropping undecodable product",
					slog.Int("index", i), slog.Any("error", err))
				continue
			}
			params = append(params, service.CreateProductParams(req))
		}

		products, err := h.productSvc.CreateProducts(r.Context(), params)
		if err != nil {
			return fmt.Errorf("product service create products: %w", err)
		}

		writeJSON(w, http.StatusOK, products)
		return nil
	}

	var req CreateProductRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return invalidBodyErr(err)
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams(req))
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	writeJSON(w, http.StatusOK, product)
	return nil
}

func (h *productHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	var req UpdateProductRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return invalidBodyErr(err)
	}

	product, err := h.productSvc.UpdateProduct(r.Context(), service.UpdateProductParams{
		ProductID: chi.URLParam(r, "productId"),
		Name:      req.Name,
		Price:     req.Price,
	})
	if err != nil {
		return fmt.Errorf("product service update product: %w", err)
	}

	writeJSON(w, http.StatusOK, product)
	return nil
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	product, err := h.productSvc.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		return fmt.Errorf("product service get product: %w", err)
	}

	writeJSON(w, http.StatusOK, product)
	return nil
}

func (h *productHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	if err := h.productSvc.DeleteProduct(r.Context(), chi.URLParam(r, "productId")); err != nil {
		return fmt.Errorf("product service delete product: %w", err)
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "Done"})
	return nil
}

func invalidBodyErr(err error) error {
	return apperr.ValidationErr.WithMsg("invalid request body").WrapParent(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck
	json.NewEncoder(w).Encode(v)
}
