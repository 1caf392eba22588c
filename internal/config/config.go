package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	LogMode         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartCacheTTL  time.Duration

	MongoURI            string
	MongoDBName         string
	MongoMaxPoolSize    uint64
	MongoMinPoolSize    uint64
	MongoConnectTimeout time.Duration

	KafkaBrokers       []string
	KafkaTerminalTopic string
	KafkaGroupID       string

	TaxRate float64

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8003"),
		LogMode:            getEnv("LOG_MODE", "development"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "cartdb"),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTerminalTopic: getEnv("KAFKA_TERMINAL_TOPIC", "cart-terminal-events"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "cart-service-consumer"),
	}

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CartCacheTTL, err = getDuration("CART_CACHE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BreakerOpenTimeout, err = getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MongoConnectTimeout, err = getDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	maxPool, err := getInt("MONGO_MAX_POOL_SIZE", 50)
	if err != nil {
		return nil, err
	}
	minPool, err := getInt("MONGO_MIN_POOL_SIZE", 5)
	if err != nil {
		return nil, err
	}
	if maxPool <= 0 || minPool < 0 || minPool > maxPool {
		return nil, fmt.Errorf("invalid MONGO_MIN_POOL_SIZE/MONGO_MAX_POOL_SIZE: %d/%d", minPool, maxPool)
	}
	cfg.MongoMaxPoolSize, cfg.MongoMinPoolSize = uint64(maxPool), uint64(minPool)

	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	maxFailures, err := getInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	if maxFailures <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_MAX_FAILURES: must be positive")
	}
	cfg.BreakerMaxFailures = uint32(maxFailures)

	rate, err := strconv.ParseFloat(getEnv("TAX_RATE", "0.10"), 64)
	if err != nil || rate < 0 {
		return nil, fmt.Errorf("invalid TAX_RATE: %q", os.Getenv("TAX_RATE"))
	}
	cfg.TaxRate = rate

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
