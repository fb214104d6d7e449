package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running provision: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	type Config struct {
		Log      config.Log
		DynamoDB config.DynamoDB
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	ddbClient, err := ddb.NewDynamoDBClient(ctx, cfg.DynamoDB)
	if err != nil {
		return fmt.Errorf("error creating dynamodb client: %w", err)
	}

	throughput := ddb.Throughput{
		ReadCapacityUnits:  cfg.DynamoDB.ReadCapacityUnits,
		WriteCapacityUnits: cfg.DynamoDB.WriteCapacityUnits,
	}
	if err := ddb.Provision(ctx, ddbClient, logger, 5*time.Minute,
		ddb.ProductsTable(cfg.DynamoDB.ProductsTable, throughput),
		ddb.OutboxTable(cfg.DynamoDB.OutboxTable, throughput),
	); err != nil {
		return fmt.Errorf("error provisioning tables: %w", err)
	}

	logger.InfoContext(ctx, "tables provisioned")

	return nil
}
