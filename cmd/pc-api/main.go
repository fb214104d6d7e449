package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/http"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
	"github.com/tuanvumaihuynh/product-catalog/internal/telemetry"
	"github.com/tuanvumaihuynh/product-catalog/pkg/cmdutil"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running api application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		HTTP     config.HTTP
		DynamoDB config.DynamoDB
		Products config.Products
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	if _, err := apicontract.Load(ctx); err != nil {
		return fmt.Errorf("error loading api contract: %w", err)
	}

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	ddbClient, err := ddb.NewDynamoDBClient(ctx, cfg.DynamoDB)
	if err != nil {
		return fmt.Errorf("error creating dynamodb client: %w", err)
	}
	dbClient := ddb.NewClient(ddbClient, cfg.DynamoDB.ProductsTable, cfg.DynamoDB.OutboxTable)

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	productRepository := repository.NewProductRepository(dbClient, cfg.DynamoDB.ProductsTable)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient, cfg.DynamoDB.OutboxTable)

	productService := service.NewProductService(cfg.Products, logger, dbClient, productRepository, outboxMsgRepository, v)

	interruptChan := cmdutil.InterruptChan()

	svc := http.New(cfg.HTTP, logger, productService, dbClient)
	cleanup, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running http service: %w", err)
	}
	logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

	<-interruptChan

	logger.InfoContext(ctx, "http service is shutting down")
	if err := cleanup(ctx); err != nil {
		logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "http service is stopped")

	return nil
}
