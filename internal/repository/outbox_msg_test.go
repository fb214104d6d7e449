package repository_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb/ddbtest"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

const outboxTable = "ProductsOutbox"

func stringAttr(item map[string]types.AttributeValue, name string) string {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return v.Value
}

func TestOutboxMsgRepositoryCreateOutboxMsg(t *testing.T) {
	ctx := context.Background()
	api := new(ddbtest.MockAPI)

	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		_, err := uuid.Parse(stringAttr(in.Item, ddb.AttrOutboxID))
		return aws.ToString(in.TableName) == outboxTable &&
			err == nil &&
			stringAttr(in.Item, "topic") == "product.created" &&
			stringAttr(in.Item, "payload") == `{"productId":"p1"}` &&
			stringAttr(in.Item, "partitionKey") == "p1" &&
			stringAttr(in.Item, ddb.AttrOutboxPending) == ddb.OutboxPendingValue &&
			strings.HasSuffix(stringAttr(in.Item, ddb.AttrOutboxCreatedAt), "Z")
	})).Return(&dynamodb.PutItemOutput{}, nil).Once()

	repo := repository.NewOutboxMsgRepository(ddb.NewClient(api), outboxTable)
	err := repo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        "product.created",
		Headers:      map[string]string{"traceparent": "00-abc"},
		Payload:      json.RawMessage(`{"productId":"p1"}`),
		PartitionKey: ptr.New("p1"),
	})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestOutboxMsgRepositoryListUnprocessedOutboxMsgs(t *testing.T) {
	ctx := context.Background()
	api := new(ddbtest.MockAPI)
	id := uuid.Must(uuid.NewV7())

	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == ddb.OutboxPendingIndex &&
			aws.ToBool(in.ScanIndexForward) &&
			aws.ToInt32(in.Limit) == 5
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		{
			ddb.AttrOutboxID:        &types.AttributeValueMemberS{Value: id.String()},
			"topic":                 &types.AttributeValueMemberS{Value: "product.deleted"},
			"payload":               &types.AttributeValueMemberS{Value: `{"productId":"p1"}`},
			ddb.AttrOutboxPending:   &types.AttributeValueMemberS{Value: ddb.OutboxPendingValue},
			ddb.AttrOutboxCreatedAt: &types.AttributeValueMemberS{Value: "2024-05-01T10:00:00.000000000Z"},
		},
	}}, nil).Once()

	repo := repository.NewOutboxMsgRepository(ddb.NewClient(api), outboxTable)
	msgs, err := repo.ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 5})

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.Equal(t, "product.deleted", msgs[0].Topic)
	assert.JSONEq(t, `{"productId":"p1"}`, string(msgs[0].Payload))
	assert.NotNil(t, msgs[0].Headers)
	assert.Nil(t, msgs[0].PartitionKey)
	assert.Equal(t, 2024, msgs[0].CreatedAt.Year())
}

func TestOutboxMsgRepositoryBulkUpdateOutboxMsgs(t *testing.T) {
	ctx := context.Background()
	api := new(ddbtest.MockAPI)
	ok, failed := uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())

	api.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
		if len(in.TransactItems) != 2 {
			return false
		}
		first, second := in.TransactItems[0].Update, in.TransactItems[1].Update
		return stringAttr(first.Key, ddb.AttrOutboxID) == ok.String() &&
			strings.Contains(aws.ToString(first.UpdateExpression), "REMOVE") &&
			len(first.ExpressionAttributeValues) == 1 &&
			stringAttr(second.Key, ddb.AttrOutboxID) == failed.String() &&
			len(second.ExpressionAttributeValues) == 2
	})).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

	db := ddb.NewClient(api)
	repo := repository.NewOutboxMsgRepository(db, outboxTable)
	err := db.WithTx(ctx, func(tx ddb.DB) error {
		return repo.WithDB(tx).BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
			Items: []repository.BulkUpdateOutboxMsgsItem{
				{ID: ok},
				{ID: failed, Error: ptr.New("broker unavailable")},
			},
		})
	})

	require.NoError(t, err)
	api.AssertExpectations(t)
}
