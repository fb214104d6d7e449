package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/http"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

func main() {
	handler, err := newHandler(context.Background())
	if err != nil {
		fmt.Printf("error initializing lambda: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(handler)
}

type handlerFunc func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// newHandler builds the router once per cold start.
func newHandler(ctx context.Context) (handlerFunc, error) {
	type Config struct {
		Log      config.Log
		HTTP     config.HTTP
		DynamoDB config.DynamoDB
		Products config.Products
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	ddbClient, err := ddb.NewDynamoDBClient(ctx, cfg.DynamoDB)
	if err != nil {
		return nil, fmt.Errorf("create dynamodb client: %w", err)
	}
	dbClient := ddb.NewClient(ddbClient, cfg.DynamoDB.ProductsTable, cfg.DynamoDB.OutboxTable)

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("create validator: %w", err)
	}

	productRepository := repository.NewProductRepository(dbClient, cfg.DynamoDB.ProductsTable)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient, cfg.DynamoDB.OutboxTable)
	productService := service.NewProductService(cfg.Products, logger, dbClient, productRepository, outboxMsgRepository, v)

	chiLambda := chiadapter.NewV2(http.New(cfg.HTTP, logger, productService, dbClient).Handler())

	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		res, err := chiLambda.ProxyWithContextV2(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "error proxying request",
				slog.String("path", req.RawPath),
				slog.String("request_id", req.RequestContext.RequestID),
				slog.Any("error", err))
		}
		return res, err
	}, nil
}
