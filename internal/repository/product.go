package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/ddb"
)

var tracer = otel.Tracer("internal/repository")

// PriceComparator selects how ListProductsByPrice compares the price attribute.
type PriceComparator uint8

const (
	PriceEqual PriceComparator = iota
	PriceGreaterOrEqual
	PriceLessOrEqual
)

func (c PriceComparator) String() string {
	switch c {
	case PriceEqual:
		return "="
	case PriceGreaterOrEqual:
		return ">="
	case PriceLessOrEqual:
		return "<="
	default:
		return fmt.Sprintf("PriceComparator(%d)", c)
	}
}

func (c PriceComparator) condition(price float64) (expression.ConditionBuilder, error) {
	name, value := expression.Name(ddb.AttrPrice), expression.Value(price)
	switch c {
	case PriceEqual:
		return name.Equal(value), nil
	case PriceGreaterOrEqual:
		return name.GreaterThanEqual(value), nil
	case PriceLessOrEqual:
		return name.LessThanEqual(value), nil
	default:
		return expression.ConditionBuilder{}, fmt.Errorf("unknown price comparator %d", c)
	}
}

type ListProductsByPriceParams struct {
	Comparator PriceComparator
	Price      float64
	Limit      int32
}

// UpdateProductParams holds the fields to change. Nil fields are left as they are.
type UpdateProductParams struct {
	ProductID string
	Name      *string
	Price     *float64
	UpdatedAt time.Time
}

type ProductRepository interface {
	WithDB(db ddb.DB) ProductRepository
	// GetProduct returns apperr.ProductNotFoundErr when no product has the id.
	GetProduct(ctx context.Context, productID string, consistentRead bool) (model.Product, error)
	ListProductsByName(ctx context.Context, name string) ([]model.Product, error)
	ListProducts(ctx context.Context, limit int32) ([]model.Product, error)
	ListProductsByPrice(ctx context.Context, params ListProductsByPriceParams) ([]model.Product, error)
	CreateProduct(ctx context.Context, product model.Product) error
	UpdateProduct(ctx context.Context, params UpdateProductParams) error
	DeleteProduct(ctx context.Context, productID string) error
}

type productRepository struct {
	db    ddb.DB
	table string
}

func NewProductRepository(db ddb.DB, table string) ProductRepository {
	return &productRepository{
		db:    db,
		table: table,
	}
}

func (r productRepository) WithDB(db ddb.DB) ProductRepository {
	return &productRepository{
		db:    db,
		table: r.table,
	}
}

func (r productRepository) key(productID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		ddb.AttrProductID: &types.AttributeValueMemberS{Value: productID},
	}
}

func (r productRepository) GetProduct(ctx context.Context, productID string, consistentRead bool) (model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductRepository.GetProduct",
		trace.WithAttributes(attribute.String("product_id", productID)))
	defer span.End()

	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            r.key(productID),
		ConsistentRead: aws.Bool(consistentRead),
	})
	if err != nil {
		return model.Product{}, ddb.WrapErr("get product", err)
	}
	if len(out.Item) == 0 {
		return model.Product{}, apperr.ProductNotFoundErr
	}

	var product model.Product
	if err := attributevalue.UnmarshalMap(out.Item, &product); err != nil {
		return model.Product{}, fmt.Errorf("unmarshal product: %w", err)
	}

	return product, nil
}

func (r productRepository) ListProductsByName(ctx context.Context, name string) ([]model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductRepository.ListProductsByName")
	defer span.End()

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(ddb.AttrName).Equal(expression.Value(name))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(r.db, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(ddb.ProductNameIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	products := []model.Product{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, ddb.WrapErr("query products by name", err)
		}

		var items []model.Product
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal products: %w", err)
		}
		products = append(products, items...)
	}

	return products, nil
}

func (r productRepository) ListProducts(ctx context.Context, limit int32) ([]model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductRepository.ListProducts")
	defer span.End()

	input := &dynamodb.ScanInput{TableName: aws.String(r.table)}
	// DynamoDB rejects a zero Limit; no limit reads the whole table
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	return r.scan(ctx, input, limit)
}

func (r productRepository) ListProductsByPrice(ctx context.Context, params ListProductsByPriceParams) ([]model.Product, error) {
	ctx, span := tracer.Start(ctx, "ProductRepository.ListProductsByPrice",
		trace.WithAttributes(
			attribute.String("comparator", params.Comparator.String()),
			attribute.Float64("price", params.Price),
		))
	defer span.End()

	cond, err := params.Comparator.condition(params.Price)
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build price filter: %w", err)
	}

	return r.scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}, params.Limit)
}

// scan pages through the table until limit products are collected or the
// table is exhausted.
func (r productRepository) scan(ctx context.Context, input *dynamodb.ScanInput, limit int32) ([]model.Product, error) {
	paginator := dynamodb.NewScanPaginator(r.db, input)

	products := []model.Product{}
	for paginator.HasMorePages() && (limit <= 0 || int32(len(products)) < limit) {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, ddb.WrapErr("scan products", err)
		}

		var items []model.Product
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal products: %w", err)
		}
		products = append(products, items...)
	}

	if limit > 0 && int32(len(products)) > limit {
		products = products[:limit]
	}

	return products, nil
}

// CreateProduct writes a new product. Inside a batch the existence check is
// not evaluated.
func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(ddb.AttrProductID))).
		Build()
	if err != nil {
		return fmt.Errorf("build condition: %w", err)
	}

	if err := r.db.Write(ctx, ddb.WriteOp{
		Put: &types.Put{
			TableName:                aws.String(r.table),
			Item:                     item,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		},
		ConditionErr: apperr.ProductAlreadyExistsErr,
	}); err != nil {
		return fmt.Errorf("write product: %w", err)
	}

	return nil
}

// UpdateProduct sets the given fields and updatedAt. It returns
// apperr.ProductNotFoundErr when the product does not exist, and does nothing
// when no field is given.
func (r productRepository) UpdateProduct(ctx context.Context, params UpdateProductParams) error {
	if params.Name == nil && params.Price == nil {
		return nil
	}

	update := expression.Set(expression.Name(ddb.AttrUpdatedAt), expression.Value(params.UpdatedAt))
	if params.Name != nil {
		update = update.Set(expression.Name(ddb.AttrName), expression.Value(*params.Name))
	}
	if params.Price != nil {
		update = update.Set(expression.Name(ddb.AttrPrice), expression.Value(*params.Price))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(ddb.AttrProductID))).
		Build()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if err := r.db.Write(ctx, ddb.WriteOp{
		Update: &types.Update{
			TableName:                 aws.String(r.table),
			Key:                       r.key(params.ProductID),
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		},
		ConditionErr: apperr.ProductNotFoundErr,
	}); err != nil {
		return fmt.Errorf("write product update: %w", err)
	}

	return nil
}

// DeleteProduct removes the product. Deleting a missing product succeeds.
func (r productRepository) DeleteProduct(ctx context.Context, productID string) error {
	if err := r.db.Write(ctx, ddb.WriteOp{
		Delete: &types.Delete{
			TableName: aws.String(r.table),
			Key:       r.key(productID),
		},
	}); err != nil {
		return fmt.Errorf("write product delete: %w", err)
	}

	return nil
}
