package config

type HTTP struct {
	Port    uint32 `env:"HTTP_PORT" envDefault:"8080"`
	Swagger bool   `env:"HTTP_SWAGGER" envDefault:"true"`

	// StrictStatusCodes maps not found to 404 and storage failures to 502.
	// When false every error is reported as 400.
	StrictStatusCodes bool     `env:"HTTP_STRICT_STATUS_CODES" envDefault:"false"`
	AllowedOrigins    []string `env:"HTTP_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}
