package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/freshmart/review-service/pkg/config"
)

// Store backend selectors.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// Config holds all configuration for the review service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"REVIEW_HTTP_PORT" envDefault:"8007"`

	// Store backend: postgres (default) or memory (seeded, for local dev).
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"freshmart"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"freshmart_secret"`
	PostgresDB   string `env:"REVIEW_DB_NAME" envDefault:"review_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis stats cache
	RedisHost         string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	StatsCacheEnabled bool          `env:"STATS_CACHE_ENABLED" envDefault:"true"`
	StatsCacheTTL     time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`

	// Order service (purchase verification)
	OrderServiceURL string `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8004"`

	// Pprof access
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load review config: %w", err)
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
	if c.StoreBackend != StoreBackendPostgres && c.StoreBackend != StoreBackendMemory {
		return fmt.Errorf("invalid store backend: %q", c.StoreBackend)
	}
	if c.StatsCacheTTL <= 0 {
		return fmt.Errorf("stats cache TTL must be positive: %s", c.StatsCacheTTL)
	}
	return nil
}
