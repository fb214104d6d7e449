package config

type DynamoDB struct {
	Region   string `env:"DYNAMODB_REGION" envDefault:"us-east-1"`
	Endpoint string `env:"DYNAMODB_ENDPOINT"`

	// Static credentials, used for DynamoDB Local. The default AWS credential
	// chain applies when AccessKeyID is empty.
	AccessKeyID     string `env:"DYNAMODB_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"DYNAMODB_SECRET_ACCESS_KEY"`

	ProductsTable string `env:"DYNAMODB_PRODUCTS_TABLE" envDefault:"Products"`
	OutboxTable   string `env:"DYNAMODB_OUTBOX_TABLE" envDefault:"ProductsOutbox"`

	ReadCapacityUnits  int64 `env:"DYNAMODB_READ_CAPACITY_UNITS" envDefault:"1"`
	WriteCapacityUnits int64 `env:"DYNAMODB_WRITE_CAPACITY_UNITS" envDefault:"1"`
}
