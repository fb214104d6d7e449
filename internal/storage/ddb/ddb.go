package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	// MaxBatchWriteItems is the DynamoDB limit of requests per BatchWriteItem call.
	MaxBatchWriteItems = 25
	// MaxTransactItems is the DynamoDB limit of actions per TransactWriteItems call.
	MaxTransactItems = 100
)

// API is the subset of the DynamoDB client used by the application.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// WriteOp is a single write. Exactly one of Put, Update and Delete is set.
//
// ConditionErr is returned instead of the storage error when the condition
// expression of the write does not hold.
type WriteOp struct {
	Put    *types.Put
	Update *types.Update
	Delete *types.Delete

	ConditionErr error
}

type DB interface {
	API

	// Write executes op, or records it when the DB is a transaction or a batch.
	Write(ctx context.Context, op WriteOp) error

	// WithTx executes a function in a new transaction. Writes recorded by
	// txFunc are committed with a single TransactWriteItems call. Reads are
	// not part of the transaction.
	WithTx(ctx context.Context, txFunc func(DB) error) error

	// WithBatch executes a function whose writes are sent with BatchWriteItem,
	// in chunks of MaxBatchWriteItems. Chunks are not atomic: a failing chunk
	// leaves the previous ones written. Conditions are not evaluated.
	WithBatch(ctx context.Context, batchFunc func(DB) error) error
}

type HealthChecker interface {
	IsHealthy(ctx context.Context) (bool, error)
}

var (
	_ DB            = (*Client)(nil)
	_ HealthChecker = (*Client)(nil)
)

type Client struct {
	API

	tables []string
}

// NewClient creates a new db client. The given tables are checked by IsHealthy.
func NewClient(api API, tables ...string) *Client {
	return &Client{API: api, tables: tables}
}

func (c *Client) Write(ctx context.Context, op WriteOp) error {
	var err error
	switch {
	case op.Put != nil:
		_, err = c.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 op.Put.TableName,
			Item:                      op.Put.Item,
			ConditionExpression:       op.Put.ConditionExpression,
			ExpressionAttributeNames:  op.Put.ExpressionAttributeNames,
			ExpressionAttributeValues: op.Put.ExpressionAttributeValues,
		})
	case op.Update != nil:
		_, err = c.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 op.Update.TableName,
			Key:                       op.Update.Key,
			UpdateExpression:          op.Update.UpdateExpression,
			ConditionExpression:       op.Update.ConditionExpression,
			ExpressionAttributeNames:  op.Update.ExpressionAttributeNames,
			ExpressionAttributeValues: op.Update.ExpressionAttributeValues,
		})
	case op.Delete != nil:
		_, err = c.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName:                 op.Delete.TableName,
			Key:                       op.Delete.Key,
			ConditionExpression:       op.Delete.ConditionExpression,
			ExpressionAttributeNames:  op.Delete.ExpressionAttributeNames,
			ExpressionAttributeValues: op.Delete.ExpressionAttributeValues,
		})
	default:
		return errors.New("empty write operation")
	}
	if err == nil {
		return nil
	}

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) && op.ConditionErr != nil {
		return op.ConditionErr
	}
	return WrapErr("write item", err)
}

func (c *Client) WithTx(ctx context.Context, txFunc func(DB) error) error {
	tx := &txWrapper{Client: c}
	if err := txFunc(tx); err != nil {
		return err
	}

	return tx.commit(ctx)
}

func (c *Client) WithBatch(ctx context.Context, batchFunc func(DB) error) error {
	b := &batchWrapper{Client: c}
	if err := batchFunc(b); err != nil {
		return err
	}

	return b.flush(ctx)
}

func (c *Client) IsHealthy(ctx context.Context) (bool, error) {
	for _, table := range c.tables {
		out, err := c.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		if err != nil {
			return false, fmt.Errorf("describe table %s: %w", table, err)
		}
		if out.Table == nil || out.Table.TableStatus != types.TableStatusActive {
			return false, nil
		}
	}
	return true, nil
}

type txWrapper struct {
	*Client

	ops []WriteOp
}

func (t *txWrapper) Write(_ context.Context, op WriteOp) error {
	if op.Put == nil && op.Update == nil && op.Delete == nil {
		return errors.New("empty write operation")
	}
	t.ops = append(t.ops, op)
	return nil
}

func (t *txWrapper) WithTx(_ context.Context, txFunc func(DB) error) error {
	return txFunc(t)
}

func (t *txWrapper) WithBatch(_ context.Context, _ func(DB) error) error {
	return errors.New("batch inside a transaction is not supported")
}

func (t *txWrapper) commit(ctx context.Context) error {
	if len(t.ops) == 0 {
		return nil
	}
	if len(t.ops) > MaxTransactItems {
		return fmt.Errorf("transaction has %d items, limit is %d", len(t.ops), MaxTransactItems)
	}

	items := make([]types.TransactWriteItem, 0, len(t.ops))
	for _, op := range t.ops {
		items = append(items, types.TransactWriteItem{
			Put:    op.Put,
			Update: op.Update,
			Delete: op.Delete,
		})
	}

	_, err := t.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err == nil {
		return nil
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, reason := range canceled.CancellationReasons {
			if i < len(t.ops) && aws.ToString(reason.Code) == "ConditionalCheckFailed" && t.ops[i].ConditionErr != nil {
				return t.ops[i].ConditionErr
			}
		}
	}
	return WrapErr("commit transaction", err)
}

type batchWrapper struct {
	*Client

	tables   []string
	requests []types.WriteRequest
}

func (b *batchWrapper) Write(_ context.Context, op WriteOp) error {
	switch {
	case op.Put != nil:
		b.tables = append(b.tables, aws.ToString(op.Put.TableName))
		b.requests = append(b.requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: op.Put.Item},
		})
	case op.Delete != nil:
		b.tables = append(b.tables, aws.ToString(op.Delete.TableName))
		b.requests = append(b.requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: op.Delete.Key},
		})
	case op.Update != nil:
		return errors.New("update is not supported in batch writes")
	default:
		return errors.New("empty write operation")
	}
	return nil
}

func (b *batchWrapper) WithTx(_ context.Context, _ func(DB) error) error {
	return errors.New("transaction inside a batch is not supported")
}

func (b *batchWrapper) WithBatch(_ context.Context, batchFunc func(DB) error) error {
	return batchFunc(b)
}

func (b *batchWrapper) flush(ctx context.Context) error {
	for start := 0; start < len(b.requests); start += MaxBatchWriteItems {
		end := min(start+MaxBatchWriteItems, len(b.requests))

		requestItems := make(map[string][]types.WriteRequest)
		for i := start; i < end; i++ {
			requestItems[b.tables[i]] = append(requestItems[b.tables[i]], b.requests[i])
		}

		out, err := b.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: requestItems})
		if err != nil {
			return WrapErr(fmt.Sprintf("batch write items %d-%d", start, end-1), err)
		}

		var unprocessed int
		for _, reqs := range out.UnprocessedItems {
			unprocessed += len(reqs)
		}
		if unprocessed > 0 {
			return WrapErr("batch write items",
				fmt.Errorf("%d of %d requests unprocessed", unprocessed, end-start))
		}
	}
	return nil
}
