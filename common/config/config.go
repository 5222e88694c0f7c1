// Package config loads process configuration from the environment,
// generalizing the getEnv/getEnvInt helpers repeated across
// services/*/src/database connection packages into one shared helper set,
// per this service's "avoid package-level mutable state" redesign note — the
// Config struct is built once in main and passed down explicitly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full process configuration, built once at startup and
// threaded through the Services aggregate (see cmd/priceintel/main.go).
type Config struct {
	// HTTP surface
	ServerPort      string
	Environment     string
	RateLimitPerMin int

	// Database
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBURL         string // optional full override
	DBPoolSize    int
	DBMaxOverflow int

	// Cache
	RedisURL         string
	CacheTTLSeconds  int
	CacheDisableExt  bool

	// Embedding / SQL suggester (pluggable external collaborators)
	EmbeddingAPIURL string
	EmbeddingAPIKey string
	SuggesterAPIURL string
	SuggesterAPIKey string
	EmbeddingCacheDir string

	// Price engine
	PriceUpdateIntervalSeconds int
	PriceBatchSize             int
	PriceWorkerPoolSize        int
	PriceMaxChangePercent      float64
	PriceDiscountProbability   float64
	PriceSurgeProbability      float64

	// Monitoring
	SlowQueryThresholdMS int
	SystemSampleSeconds  int
}

// DSN returns the connection string for the configured database, honoring
// the full-URL override first, same precedence as
// services/order_service/src/database/connection.go.
func (c *Config) DSN() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Load reads configuration from the environment, applying the defaults
// names as "required configuration."
func Load() *Config {
	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),

		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "postgres"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "quickdeals"),
		DBSSLMode:     getEnv("DB_SSL_MODE", "disable"),
		DBURL:         getEnv("DATABASE_URL", ""),
		DBPoolSize:    getEnvInt("DB_POOL_SIZE", 10),
		DBMaxOverflow: getEnvInt("DB_MAX_OVERFLOW", 20),

		RedisURL:        getEnv("REDIS_URL", ""),
		CacheTTLSeconds: getEnvInt("CACHE_TTL_SECONDS", 300),
		CacheDisableExt: getEnv("CACHE_DISABLE_EXTERNAL", "false") == "true",

		EmbeddingAPIURL:   getEnv("EMBEDDING_API_URL", ""),
		EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", ""),
		SuggesterAPIURL:   getEnv("SQL_SUGGESTER_API_URL", ""),
		SuggesterAPIKey:   getEnv("SQL_SUGGESTER_API_KEY", ""),
		EmbeddingCacheDir: getEnv("EMBEDDING_CACHE_DIR", "./.cache/embeddings"),

		PriceUpdateIntervalSeconds: getEnvInt("PRICE_UPDATE_INTERVAL_SECONDS", 5),
		PriceBatchSize:             getEnvInt("PRICE_UPDATE_BATCH_SIZE", 50),
		PriceWorkerPoolSize:        getEnvInt("PRICE_UPDATE_WORKERS", 5),
		PriceMaxChangePercent:      getEnvFloat("PRICE_MAX_CHANGE_PERCENT", 15.0),
		PriceDiscountProbability:   getEnvFloat("PRICE_DISCOUNT_PROBABILITY", 0.15),
		PriceSurgeProbability:      getEnvFloat("PRICE_SURGE_PROBABILITY", 0.05),

		SlowQueryThresholdMS: getEnvInt("SLOW_QUERY_THRESHOLD_MS", 1000),
		SystemSampleSeconds:  getEnvInt("SYSTEM_SAMPLE_SECONDS", 60),
	}
}

// PoolAcquireTimeout is fixed at 30s.
const PoolAcquireTimeout = 30 * time.Second

// ConnMaxLifetime is fixed at 1h.
const ConnMaxLifetime = time.Hour

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
