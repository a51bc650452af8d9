package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        int
	MetricsPort int
	GinMode     string
	LogLevel    string
	Environment string

	Backend  BackendConfig
	Search   SearchConfig
	Session  SessionConfig
	UseRedis bool
	Redis    RedisConfig
	Activity ActivityConfig
	Tracing  TracingConfig

	MaxUploadBytes int64
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SearchConfig struct {
	Debounce time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ActivityConfig struct {
	LogPath string
	NATSUrl string
}

type TracingConfig struct {
	Endpoint string
}

func Load() *Config {
	useRedis, _ := strconv.ParseBool(getEnv("USE_REDIS", "false"))

	return &Config{
		Port:        getEnvInt("PORT", 8080),
		MetricsPort: getEnvInt("METRICS_PORT", 9090),
		GinMode:     getEnv("GIN_MODE", "release"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Backend: BackendConfig{
			BaseURL: getEnv("BACKEND_URL", "http://localhost:8000"),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
		},
		Search: SearchConfig{
			Debounce: getEnvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		},
		Session: SessionConfig{
			TTL:           getEnvDuration("SESSION_TTL", 30*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		},
		UseRedis: useRedis,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Activity: ActivityConfig{
			LogPath: getEnv("ACTIVITY_LOG", "data/activity.log"),
			NATSUrl: getEnv("NATS_URL", ""),
		},
		Tracing: TracingConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}
