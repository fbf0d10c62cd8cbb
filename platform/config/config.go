// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetMigrateOnStart() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig provides settings for the asynq task runtime.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// NotificationConfig provides settings for notification fanout.
type NotificationConfig interface {
	GetFanoutTimeout() time.Duration
	GetFanoutParallelism() int
}

// LeadsConfig provides settings for the leads module.
type LeadsConfig interface {
	GetPhoneDefaultRegion() string
}

// Config holds all configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	MigrateOnStart    bool
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	RateLimitRPS      float64
	RateLimitBurst    int
	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueueName    string
	AsynqConcurrency  int
	WorkerMetrics     string
	FanoutTimeout     time.Duration
	FanoutParallelism int
	PhoneRegion       string
}

// Database
func (c *Config) GetDatabaseURL() string  { return c.DatabaseURL }
func (c *Config) GetMigrateOnStart() bool { return c.MigrateOnStart }

// JWT
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTP
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// Scheduler
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string    { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int     { return c.AsynqConcurrency }
func (c *Config) GetWorkerMetricsAddr() string { return c.WorkerMetrics }
func (c *Config) IsSchedulerEnabled() bool     { return c.RedisURL != "" }

// Notifications
func (c *Config) GetFanoutTimeout() time.Duration { return c.FanoutTimeout }
func (c *Config) GetFanoutParallelism() int       { return c.FanoutParallelism }

// Leads
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneRegion }

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		MigrateOnStart:    strings.EqualFold(getEnv("DB_MIGRATE_ON_START", "true"), "true"),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RateLimitRPS:      parseFloat(getEnv("RATE_LIMIT_RPS", "20"), 20),
		RateLimitBurst:    parseInt(getEnv("RATE_LIMIT_BURST", "40"), 40),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  parseInt(getEnv("ASYNQ_CONCURRENCY", "10"), 10),
		WorkerMetrics:     getEnv("WORKER_METRICS_ADDR", ":9091"),
		FanoutTimeout:     mustDuration(getEnv("NOTIFICATION_FANOUT_TIMEOUT", "30s")),
		FanoutParallelism: parseInt(getEnv("NOTIFICATION_FANOUT_PARALLELISM", "8"), 8),
		PhoneRegion:       strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.FanoutTimeout <= 0 {
		return nil, fmt.Errorf("NOTIFICATION_FANOUT_TIMEOUT must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func parseInt(value string, fallback int) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || result <= 0 {
		return fallback
	}
	return result
}

func parseFloat(value string, fallback float64) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || result <= 0 {
		return fallback
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
