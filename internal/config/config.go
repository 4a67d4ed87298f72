package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string `env:"ENV" env-required:"true"`
	HTTP     HTTPConfig
	Postgres PostgresConfig
	JWT      JWTConfig
	Mail     MailConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-required:"true"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME" env-required:"true"`
	Password       string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Database       string        `env:"POSTGRES_DATABASE" env-required:"true"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

type JWTConfig struct {
	Issuer     string        `env:"JWT_ISSUER" env-default:"task-app"`
	SigningKey string        `env:"JWT_SIGNING_KEY" env-required:"true"`
	TokenTTL   time.Duration `env:"JWT_TOKEN_TTL" env-default:"168h"`
}

type MailConfig struct {
	APIKey      string `env:"SENDGRID_API_KEY" env-required:"true"`
	FromName    string `env:"MAIL_FROM_NAME" env-default:"Task App"`
	FromAddress string `env:"MAIL_FROM_ADDRESS" env-required:"true"`
	QueueSize   int    `env:"MAIL_QUEUE_SIZE" env-default:"64"`
}
