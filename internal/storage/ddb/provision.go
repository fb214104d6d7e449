package ddb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Provision creates every table that does not exist yet and waits until it
// is active. Existing tables are left as they are.
func Provision(ctx context.Context, api API, logger *slog.Logger, maxWait time.Duration, tables ...*dynamodb.CreateTableInput) error {
	for _, table := range tables {
		name := aws.ToString(table.TableName)

		exists, err := tableExists(ctx, api, name)
		if err != nil {
			return fmt.Errorf("check table %s: %w", name, err)
		}
		if exists {
			logger.InfoContext(ctx, "table already exists", slog.String("table", name))
			continue
		}

		logger.InfoContext(ctx, "creating table", slog.String("table", name))
		if _, err := api.CreateTable(ctx, table); err != nil {
			var inUse *types.ResourceInUseException
			if !errors.As(err, &inUse) {
				return fmt.Errorf("create table %s: %w", name, err)
			}
		}

		waiter := dynamodb.NewTableExistsWaiter(api)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: table.TableName}, maxWait); err != nil {
			return fmt.Errorf("wait for table %s: %w", name, err)
		}
		logger.InfoContext(ctx, "table created", slog.String("table", name))
	}

	return nil
}

func tableExists(ctx context.Context, api API, name string) (bool, error) {
	_, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err == nil {
		return true, nil
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}
