package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/lbksmart/storefront/pkg/config"
	"github.com/lbksmart/storefront/pkg/database"
	"github.com/lbksmart/storefront/pkg/httpclient"
)

// Order log backends.
const (
	OrderLogRedis    = "redis"
	OrderLogPostgres = "postgres"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`

	// HTTP server
	HTTPPort       int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CatalogMaxAge  int      `env:"CATALOG_CACHE_MAX_AGE_SECONDS" envDefault:"300"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Cart TTL in hours (default: 30 days)
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"720"`

	// Order log backend: redis or postgres
	OrderLogStore string `env:"ORDER_LOG_STORE" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka. Empty disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Order message
	DispatchBaseURL string `env:"DISPATCH_BASE_URL" envDefault:"https://wa.me/"`
	Timezone        string `env:"TIMEZONE" envDefault:"Africa/Lubumbashi"`
	CurrencyLabel   string `env:"CURRENCY_LABEL" envDefault:"FC"`

	// Checkout throttling per session
	CheckoutRatePerMinute float64 `env:"CHECKOUT_RATE_PER_MINUTE" envDefault:"6"`
	CheckoutRateBurst     int     `env:"CHECKOUT_RATE_BURST" envDefault:"3"`

	// Order backup webhook. Empty disables the backup.
	OrderBackupURL     string `env:"ORDER_BACKUP_URL" envDefault:""`
	OrderBackupTimeout int    `env:"ORDER_BACKUP_TIMEOUT_SECONDS" envDefault:"10"`

	// Circuit breaker around the backup webhook
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBIntervalSecs int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeoutSecs  int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTL)
	}
	switch c.OrderLogStore {
	case OrderLogRedis:
	case OrderLogPostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required")
		}
	default:
		return fmt.Errorf("ORDER_LOG_STORE must be %q or %q, got %q", OrderLogRedis, OrderLogPostgres, c.OrderLogStore)
	}
	if _, err := url.ParseRequestURI(c.DispatchBaseURL); err != nil {
		return fmt.Errorf("invalid DISPATCH_BASE_URL: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	if c.OrderBackupURL != "" {
		if _, err := url.ParseRequestURI(c.OrderBackupURL); err != nil {
			return fmt.Errorf("invalid ORDER_BACKUP_URL: %w", err)
		}
	}
	if c.CheckoutRatePerMinute < 0 {
		return fmt.Errorf("CHECKOUT_RATE_PER_MINUTE must not be negative, got %f", c.CheckoutRatePerMinute)
	}
	if c.CheckoutRatePerMinute > 0 && c.CheckoutRateBurst < 1 {
		return fmt.Errorf("CHECKOUT_RATE_BURST must be at least 1, got %d", c.CheckoutRateBurst)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1.0 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0, 1], got %f", c.CBFailureRatio)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Location returns the time zone used for order dates and expiry checks.
// It falls back to UTC, though validate has already rejected bad names.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CartTTLDuration returns the cart expiry.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:         c.RedisHost,
		Port:         c.RedisPort,
		Password:     c.RedisPass,
		DB:           c.RedisDB,
		PoolSize:     c.RedisPoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Postgres returns the PostgreSQL connection and pool settings.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// BackupHTTP returns the HTTP client settings of the backup webhook.
func (c *Config) BackupHTTP() httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = time.Duration(c.OrderBackupTimeout) * time.Second
	return hc
}

// BackupCircuitBreaker returns the breaker settings of the backup webhook.
func (c *Config) BackupCircuitBreaker() httpclient.CircuitBreakerConfig {
	cb := httpclient.DefaultCircuitBreakerConfig("order-backup")
	cb.MaxRequests = c.CBMaxRequests
	cb.Interval = time.Duration(c.CBIntervalSecs) * time.Second
	cb.Timeout = time.Duration(c.CBTimeoutSecs) * time.Second
	cb.FailureRatio = c.CBFailureRatio
	cb.MinRequests = c.CBMinRequests
	return cb
}
