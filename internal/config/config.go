package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/anonymousminati/finly-backend/pkg/config"
	"github.com/anonymousminati/finly-backend/pkg/database"
)

// Config holds all configuration for the finly backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"finly"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"finly_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"finly_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Sessions
	SessionTTLHours      int           `env:"SESSION_TTL_HOURS" envDefault:"24"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"1h"`

	// Password hashing
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// External services
	NotificationServiceURL string        `env:"NOTIFICATION_SERVICE_URL" envDefault:"http://localhost:8090"`
	ExchangeRateServiceURL string        `env:"EXCHANGE_RATE_SERVICE_URL" envDefault:"https://api.exchangerate.host"`
	ExchangeRateCacheTTL   time.Duration `env:"EXCHANGE_RATE_CACHE_TTL" envDefault:"1h"`
	BaseCurrency           string        `env:"BASE_CURRENCY" envDefault:"USD"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.SessionTTLHours < 1 {
		return nil, fmt.Errorf("invalid session TTL: %d hours", cfg.SessionTTLHours)
	}
	if cfg.BcryptCost < 10 || cfg.BcryptCost > 16 {
		return nil, fmt.Errorf("bcrypt cost must be between 10 and 16, got %d", cfg.BcryptCost)
	}

	// Outside development the default database password must not survive.
	if cfg.Environment != "development" && cfg.PostgresPass == "finly_secret" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD must be explicitly set in %q mode", cfg.Environment)
	}

	return cfg, nil
}

// SessionTTL returns the session lifetime as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// Postgres returns the database connection configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPass,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSL,
	}
}

// Redis returns the Redis connection configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
