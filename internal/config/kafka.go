package config

// Kafka is shared by the relay producer and the event consumer.
type Kafka struct {
	Addresses []string `env:"KAFKA_ADDRESSES,required" envSeparator:","`
	ClientID  string   `env:"KAFKA_CLIENT_ID" envDefault:"product-catalog"`
	// Group is only used by consumers.
	Group string `env:"KAFKA_GROUP" envDefault:"product-catalog-events"`
}
