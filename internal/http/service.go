package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/metric"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/middleware"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/swagger"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg     config.HTTP
	logger  *slog.Logger
	metrics *metric.Metrics

	productSvc    service.ProductService
	healthChecker ddb.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	productSvc service.ProductService,
	healthChecker ddb.HealthChecker,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        log.With(slog.String("service", "http")),
		metrics:       metric.New(),
		productSvc:    productSvc,
		healthChecker: healthChecker,
	}
}

// Handler builds the router with every middleware and route.
func (s *Service) Handler() *chi.Mux {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	s.RegisterHandlers(r)

	return r
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	return s.RunWithServer(ctx, s.Handler())
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.AllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	h := newProductHandler(s.logger, s.productSvc)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handle(h.ListProducts))
		r.Post("/", s.handle(h.CreateProduct))
		r.Get("/{productId}", s.handle(h.GetProduct))
		r.Post("/{productId}", s.handle(h.UpdateProduct))
		r.Delete("/{productId}", s.handle(h.DeleteProduct))
	})

	r.Get("/healthz", s.handleHealthz)

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, apierr.ErrorResponse{Code: "routeNotFound", Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, apierr.ErrorResponse{Code: "methodNotAllowed", Message: "method not allowed"})
	})
}

// handle adapts a handler returning an error to http.HandlerFunc.
func (s *Service) handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.handleResponseError(w, r, err)
		}
	}
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err, s.cfg.StrictStatusCodes)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 || res.Code == apierr.InternalServerErr.Code {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}

func (s *Service) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	healthy, err := s.healthChecker.IsHealthy(ctx)
	if err != nil || !healthy {
		if err != nil {
			s.logger.WarnContext(ctx, "health check failed", slog.Any("error", err))
		}
		writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
