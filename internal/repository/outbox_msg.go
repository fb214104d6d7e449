package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
)

// outboxTimeLayout is fixed width so that the pending index sorts by time.
const outboxTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type CreateOutboxMsgParams struct {
	Topic        string
	Headers      map[string]string
	Payload      json.RawMessage
	PartitionKey *string
}

type ListUnprocessedOutboxMsgsParams struct {
	BatchSize int32
}

type BulkUpdateOutboxMsgsItem struct {
	ID    uuid.UUID
	Error *string
}

type BulkUpdateOutboxMsgsParams struct {
	Items []BulkUpdateOutboxMsgsItem
}

type OutboxMsgRepository interface {
	WithDB(db ddb.DB) OutboxMsgRepository
	CreateOutboxMsg(ctx context.Context, params CreateOutboxMsgParams) error
	// ListUnprocessedOutboxMsgs returns pending messages, oldest first.
	ListUnprocessedOutboxMsgs(ctx context.Context, params ListUnprocessedOutboxMsgsParams) ([]model.OutboxMsg, error)
	// BulkUpdateOutboxMsgs marks the messages processed, recording the error
	// of a failed delivery.
	BulkUpdateOutboxMsgs(ctx context.Context, params BulkUpdateOutboxMsgsParams) error
}

type outboxItem struct {
	ID           string            `dynamodbav:"id"`
	Topic        string            `dynamodbav:"topic"`
	Headers      map[string]string `dynamodbav:"headers,omitempty"`
	Payload      string            `dynamodbav:"payload"`
	PartitionKey *string           `dynamodbav:"partitionKey,omitempty"`
	Pending      string            `dynamodbav:"pending,omitempty"`
	CreatedAt    string            `dynamodbav:"createdAt"`
}

type outboxMsgRepository struct {
	db    ddb.DB
	table string
}

func NewOutboxMsgRepository(db ddb.DB, table string) OutboxMsgRepository {
	return &outboxMsgRepository{
		db:    db,
		table: table,
	}
}

func (r outboxMsgRepository) WithDB(db ddb.DB) OutboxMsgRepository {
	return &outboxMsgRepository{
		db:    db,
		table: r.table,
	}
}

func (r outboxMsgRepository) CreateOutboxMsg(ctx context.Context, params CreateOutboxMsgParams) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate uuid v7: %w", err)
	}

	item, err := attributevalue.MarshalMap(outboxItem{
		ID:           id.String(),
		Topic:        params.Topic,
		Headers:      params.Headers,
		Payload:      string(params.Payload),
		PartitionKey: params.PartitionKey,
		Pending:      ddb.OutboxPendingValue,
		CreatedAt:    time.Now().UTC().Format(outboxTimeLayout),
	})
	if err != nil {
		return fmt.Errorf("marshal outbox msg: %w", err)
	}

	if err := r.db.Write(ctx, ddb.WriteOp{
		Put: &types.Put{
			TableName: aws.String(r.table),
			Item:      item,
		},
	}); err != nil {
		return fmt.Errorf("outbox msg create: %w", err)
	}

	return nil
}

func (r outboxMsgRepository) ListUnprocessedOutboxMsgs(ctx context.Context, params ListUnprocessedOutboxMsgsParams) ([]model.OutboxMsg, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(ddb.AttrOutboxPending).Equal(expression.Value(ddb.OutboxPendingValue))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	out, err := r.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(ddb.OutboxPendingIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
		Limit:                     aws.Int32(params.BatchSize),
	})
	if err != nil {
		return nil, ddb.WrapErr("outbox msg list unprocessed", err)
	}

	var items []outboxItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal outbox msgs: %w", err)
	}

	msgs := make([]model.OutboxMsg, 0, len(items))
	for _, item := range items {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, fmt.Errorf("parse outbox msg id %q: %w", item.ID, err)
		}

		createdAt, err := time.Parse(outboxTimeLayout, item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse outbox msg created at: %w", err)
		}

		headers := item.Headers
		if headers == nil {
			headers = map[string]string{}
		}

		msgs = append(msgs, model.OutboxMsg{
			ID:           id,
			Topic:        item.Topic,
			Headers:      headers,
			Payload:      json.RawMessage(item.Payload),
			PartitionKey: item.PartitionKey,
			CreatedAt:    createdAt,
		})
	}

	return msgs, nil
}

func (r outboxMsgRepository) BulkUpdateOutboxMsgs(ctx context.Context, params BulkUpdateOutboxMsgsParams) error {
	processedAt := time.Now().UTC().Format(outboxTimeLayout)

	for _, item := range params.Items {
		update := expression.Remove(expression.Name(ddb.AttrOutboxPending)).
			Set(expression.Name(ddb.AttrOutboxProcessedAt), expression.Value(processedAt))
		if item.Error != nil {
			update = update.Set(expression.Name(ddb.AttrOutboxError), expression.Value(*item.Error))
		}

		expr, err := expression.NewBuilder().WithUpdate(update).Build()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}

		if err := r.db.Write(ctx, ddb.WriteOp{
			Update: &types.Update{
				TableName: aws.String(r.table),
				Key: map[string]types.AttributeValue{
					ddb.AttrOutboxID: &types.AttributeValueMemberS{Value: item.ID.String()},
				},
				UpdateExpression:          expr.Update(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		}); err != nil {
			return fmt.Errorf("outbox msg bulk update: %w", err)
		}
	}

	return nil
}
