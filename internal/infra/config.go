package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	QueueBackendRedis  = "redis"
	QueueBackendKafka  = "kafka"
	QueueBackendMemory = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	DBMaxConns         int
	MigrateOnStart     bool
	QueueBackend       string
	QueueName          string
	RedisURL           string
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaGroupID       string
	WhiskBaseURL       string
	ImageFXBaseURL     string
	ProviderTimeout    time.Duration
	WorkerConcurrency  int
	RecoveryInterval   time.Duration
	RecoveryOlderThan  time.Duration
	StoragePath        string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
	GeoIPDBPath        string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getEnvInt("DB_MAX_CONNS", 10),
		MigrateOnStart:     getEnvBool("MIGRATE_ON_START", false),
		QueueBackend:       strings.ToLower(getEnv("QUEUE_BACKEND", QueueBackendRedis)),
		QueueName:          getEnv("QUEUE_NAME", "bulkgen:jobs"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		KafkaBrokers:       splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "bulkgen.prompt-jobs"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "bulkgen-workers"),
		WhiskBaseURL:       getEnv("WHISK_BASE_URL", "https://aisandbox-pa.googleapis.com"),
		ImageFXBaseURL:     getEnv("IMAGEFX_BASE_URL", "https://aisandbox-pa.googleapis.com"),
		ProviderTimeout:    time.Second * time.Duration(getEnvInt("PROVIDER_TIMEOUT_SECONDS", 60)),
		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		RecoveryInterval:   time.Minute * time.Duration(getEnvInt("RECOVERY_INTERVAL_MINUTES", 5)),
		RecoveryOlderThan:  time.Minute * time.Duration(getEnvInt("RECOVERY_OLDER_THAN_MINUTES", 10)),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.QueueBackend {
	case QueueBackendRedis, QueueBackendKafka, QueueBackendMemory:
	default:
		return nil, fmt.Errorf("QUEUE_BACKEND %q is not supported", cfg.QueueBackend)
	}

	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
