package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Addr     string `env:"RDAPGATE_ADDR" envDefault:":8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Cache backend. When RedisURL is empty an in-process LRU is used.
	RedisURL        string        `env:"REDIS_URL"`
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"10000"`
	DomainTTL       time.Duration `env:"CACHE_DOMAIN_TTL" envDefault:"1h"`
	IPTTL           time.Duration `env:"CACHE_IP_TTL" envDefault:"4h"`
	ASNTTL          time.Duration `env:"CACHE_ASN_TTL" envDefault:"24h"`

	// Audit backends. When DatabaseURL is empty events stay in memory;
	// KafkaBrokers additionally fans events out to the broker.
	DatabaseURL  string   `env:"DATABASE_URL"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Upstream fetch limits.
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"10s"`
	FetchMaxBody int64         `env:"FETCH_MAX_BODY_BYTES" envDefault:"1048576"` // 1MB

	// JWTSigningKey protects the admin endpoints.
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// DefaultJurisdiction applies when a request does not state one.
	DefaultJurisdiction string `env:"DEFAULT_JURISDICTION" envDefault:"EU"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
