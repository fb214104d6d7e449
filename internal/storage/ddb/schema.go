package ddb

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Product table attributes.
const (
	AttrProductID = "productId"
	AttrName      = "name"
	AttrPrice     = "price"
	AttrCreatedAt = "createdAt"
	AttrUpdatedAt = "updatedAt"

	// ProductNameIndex looks products up by name, productId breaks ties.
	ProductNameIndex = "ProductName-index"
)

// Outbox table attributes.
const (
	AttrOutboxID          = "id"
	AttrOutboxPending     = "pending"
	AttrOutboxCreatedAt   = "createdAt"
	AttrOutboxProcessedAt = "processedAt"
	AttrOutboxError       = "error"

	// OutboxPendingIndex is sparse: only messages carrying the pending
	// attribute are indexed, ordered by creation time.
	OutboxPendingIndex = "Pending-index"

	OutboxPendingValue = "1"
)

type Throughput struct {
	ReadCapacityUnits  int64
	WriteCapacityUnits int64
}

func (t Throughput) provisioned() *types.ProvisionedThroughput {
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(max(t.ReadCapacityUnits, 1)),
		WriteCapacityUnits: aws.Int64(max(t.WriteCapacityUnits, 1)),
	}
}

// ProductsTable declares the products table.
func ProductsTable(name string, throughput Throughput) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(AttrProductID), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(AttrProductID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrName), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(ProductNameIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(AttrName), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(AttrProductID), KeyType: types.KeyTypeRange},
				},
				Projection:            &types.Projection{ProjectionType: types.ProjectionTypeAll},
				ProvisionedThroughput: throughput.provisioned(),
			},
		},
		BillingMode:           types.BillingModeProvisioned,
		ProvisionedThroughput: throughput.provisioned(),
	}
}

// OutboxTable declares the outbox table holding product events.
func OutboxTable(name string, throughput Throughput) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(AttrOutboxID), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(AttrOutboxID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrOutboxPending), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(AttrOutboxCreatedAt), AttributeType: types.ScalarAttributeTypeS},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(OutboxPendingIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(AttrOutboxPending), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(AttrOutboxCreatedAt), KeyType: types.KeyTypeRange},
				},
				Projection:            &types.Projection{ProjectionType: types.ProjectionTypeAll},
				ProvisionedThroughput: throughput.provisioned(),
			},
		},
		BillingMode:           types.BillingModeProvisioned,
		ProvisionedThroughput: throughput.provisioned(),
	}
}
