package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	// Redis (rate cache + scheduler lock)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Upstream rate provider
	ProviderBaseURL  string
	ProviderAPIKey   string
	ProviderTimeout  time.Duration
	BaseCurrencyCode string

	// Scheduled import
	ImportCron              string
	ImportMaxAttempts       int
	ImportRetryInitialDelay time.Duration
	ImportRetryMultiplier   float64
	ImportLockName          string
	ImportLockMaxHold       time.Duration
	ImportLockMinHold       time.Duration

	RateCacheTTL time.Duration

	// Per-client-IP rate limit in ulule formatted notation, e.g. "300-M".
	RateLimit string

	// Kafka (series lifecycle events); empty brokers disable publishing.
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("PROVIDER_BASE_URL", "https://api.stlouisfed.org/fred")
	viper.SetDefault("PROVIDER_API_KEY", "")
	viper.SetDefault("PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("BASE_CURRENCY_CODE", "USD")
	viper.SetDefault("IMPORT_CRON", "0 6 * * *")
	viper.SetDefault("IMPORT_MAX_ATTEMPTS", 3)
	viper.SetDefault("IMPORT_RETRY_INITIAL_DELAY", "1m")
	viper.SetDefault("IMPORT_RETRY_MULTIPLIER", 2.0)
	viper.SetDefault("IMPORT_LOCK_NAME", "currency-import")
	viper.SetDefault("IMPORT_LOCK_MAX_HOLD", "15m")
	viper.SetDefault("IMPORT_LOCK_MIN_HOLD", "30s")
	viper.SetDefault("RATE_CACHE_TTL", "12h")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "currency-series-events")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	cfg.RedisPassword = viper.GetString("REDIS_PASSWORD")
	cfg.RedisDB = viper.GetInt("REDIS_DB")

	cfg.ProviderBaseURL = viper.GetString("PROVIDER_BASE_URL")
	cfg.ProviderAPIKey = viper.GetString("PROVIDER_API_KEY")
	if cfg.ProviderAPIKey == "" {
		log.Println("Warning: PROVIDER_API_KEY not set. Upstream rate imports will fail.")
	}
	cfg.ProviderTimeout = parseDuration("PROVIDER_TIMEOUT", 30*time.Second)
	cfg.BaseCurrencyCode = strings.ToUpper(viper.GetString("BASE_CURRENCY_CODE"))

	cfg.ImportCron = viper.GetString("IMPORT_CRON")
	cfg.ImportMaxAttempts = viper.GetInt("IMPORT_MAX_ATTEMPTS")
	if cfg.ImportMaxAttempts < 1 {
		log.Printf("Warning: IMPORT_MAX_ATTEMPTS must be at least 1, got %d. Defaulting to 3.\n", cfg.ImportMaxAttempts)
		cfg.ImportMaxAttempts = 3
	}
	cfg.ImportRetryInitialDelay = parseDuration("IMPORT_RETRY_INITIAL_DELAY", time.Minute)
	cfg.ImportRetryMultiplier = viper.GetFloat64("IMPORT_RETRY_MULTIPLIER")
	if cfg.ImportRetryMultiplier < 1 {
		log.Printf("Warning: IMPORT_RETRY_MULTIPLIER must be at least 1, got %v. Defaulting to 2.\n", cfg.ImportRetryMultiplier)
		cfg.ImportRetryMultiplier = 2.0
	}
	cfg.ImportLockName = viper.GetString("IMPORT_LOCK_NAME")
	cfg.ImportLockMaxHold = parseDuration("IMPORT_LOCK_MAX_HOLD", 15*time.Minute)
	cfg.ImportLockMinHold = parseDuration("IMPORT_LOCK_MIN_HOLD", 30*time.Second)

	cfg.RateCacheTTL = parseDuration("RATE_CACHE_TTL", 12*time.Hour)
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = viper.GetString("KAFKA_TOPIC")

	return cfg, nil
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		return fallback
	}
	return d
}
