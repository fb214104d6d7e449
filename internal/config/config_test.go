package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

func TestNew(t *testing.T) {
	type Config struct {
		Log      config.Log
		HTTP     config.HTTP
		DynamoDB config.DynamoDB
		Products config.Products
		Relay    config.Relay
	}

	t.Run("Should apply defaults", func(t *testing.T) {
		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatJSON, cfg.Log.Format)
		assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
		assert.Equal(t, uint32(8080), cfg.HTTP.Port)
		assert.False(t, cfg.HTTP.StrictStatusCodes)
		assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
		assert.Equal(t, "Products", cfg.DynamoDB.ProductsTable)
		assert.Equal(t, "ProductsOutbox", cfg.DynamoDB.OutboxTable)
		assert.Equal(t, int32(10), cfg.Products.PageSize)
		assert.Equal(t, time.Second, cfg.Relay.Interval)
		assert.Equal(t, uint32(25), cfg.Relay.BatchSize)
		assert.Equal(t, 10*time.Second, cfg.Relay.ProduceTimeout)
	})

	t.Run("Should read environment", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "text")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("HTTP_STRICT_STATUS_CODES", "true")
		t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
		t.Setenv("PRODUCTS_PAGE_SIZE", "15")

		cfg, err := config.New[Config]()
		require.NoError(t, err)

		assert.Equal(t, config.LogFormatText, cfg.Log.Format)
		assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
		assert.True(t, cfg.HTTP.StrictStatusCodes)
		assert.Equal(t, "http://localhost:8000", cfg.DynamoDB.Endpoint)
		assert.Equal(t, int32(15), cfg.Products.PageSize)
	})

	t.Run("Should fail on unknown log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")

		_, err := config.New[Config]()
		assert.Error(t, err)
	})

	t.Run("Should fail when required kafka settings are missing", func(t *testing.T) {
		type KafkaOnly struct {
			Kafka config.Kafka
		}
		_, err := config.New[KafkaOnly]()
		assert.Error(t, err)
	})

	t.Run("Should default kafka client and group", func(t *testing.T) {
		t.Setenv("KAFKA_ADDRESSES", "a:9092,b:9092")

		type KafkaOnly struct {
			Kafka config.Kafka
		}
		cfg, err := config.New[KafkaOnly]()
		require.NoError(t, err)

		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Addresses)
		assert.Equal(t, "product-catalog", cfg.Kafka.ClientID)
		assert.Equal(t, "product-catalog-events", cfg.Kafka.Group)
	})

	t.Run("Should round-trip log format text", func(t *testing.T) {
		b, err := config.LogFormatText.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, "TEXT", string(b))
		assert.Equal(t, "LogFormat(9)", config.LogFormat(9).String())
	})
}

func TestProductsEffectivePageSize(t *testing.T) {
	assert.Equal(t, int32(15), config.Products{PageSize: 15}.EffectivePageSize())
	assert.Equal(t, config.DefaultPageSize, config.Products{PageSize: 0}.EffectivePageSize())
	assert.Equal(t, config.DefaultPageSize, config.Products{PageSize: -3}.EffectivePageSize())
}
