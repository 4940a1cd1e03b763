package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Store     StoreConfig
	Cache     CacheConfig
	Queue     QueueConfig
	Auth      AuthConfig
	Tree      TreeConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
	Features  FeatureFlags
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StoreConfig selects the member/user store backend
type StoreConfig struct {
	Driver     string // "postgres" or "sqlite"
	SQLitePath string
}

// CacheConfig holds cache settings
type CacheConfig struct {
	DefaultTTL time.Duration
}

// QueueConfig holds notification queue settings
type QueueConfig struct {
	Type          string // "memory" or "redis"
	ChannelPrefix string
}

// AuthConfig holds session and password settings
type AuthConfig struct {
	SessionTTL        time.Duration
	BcryptCost        int
	MinPasswordLength int
}

// TreeConfig holds family tree behaviour settings
type TreeConfig struct {
	DeletePolicy string // "block", "cascade" or "reparent"
}

// RateLimitConfig holds limits for the auth endpoints
type RateLimitConfig struct {
	Enabled       bool
	AuthPerWindow int64
	WindowSeconds int
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof   bool
	PprofPort     int
	EnableMetrics bool
	MetricsPort   int
}

// FeatureFlags toggles optional backends
type FeatureFlags struct {
	EnableDistributedCache bool
	EnableEvents           bool
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			CORSOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "familytree"),
			User:        getEnv("POSTGRES_USER", "familytree"),
			Password:    getEnv("POSTGRES_PASSWORD", "familytree"),
			SSLMode:     getEnv("POSTGRES_SSLMODE", "disable"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 10),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Store: StoreConfig{
			Driver:     getEnv("STORE_DRIVER", "postgres"),
			SQLitePath: getEnv("SQLITE_PATH", "data/familytree.db"),
		},
		Cache: CacheConfig{
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 24*time.Hour),
		},
		Queue: QueueConfig{
			Type:          getEnv("QUEUE_TYPE", "memory"),
			ChannelPrefix: getEnv("QUEUE_CHANNEL_PREFIX", "familytree"),
		},
		Auth: AuthConfig{
			SessionTTL:        getEnvDuration("SESSION_TTL", 7*24*time.Hour),
			BcryptCost:        getEnvInt("BCRYPT_COST", 10),
			MinPasswordLength: getEnvInt("MIN_PASSWORD_LENGTH", 6),
		},
		Tree: TreeConfig{
			DeletePolicy: getEnv("TREE_DELETE_POLICY", "block"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			AuthPerWindow: int64(getEnvInt("RATE_LIMIT_AUTH_PER_WINDOW", 20)),
			WindowSeconds: getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		},
		Telemetry: TelemetryConfig{
			EnablePprof:   getEnvBool("ENABLE_PPROF", false),
			PprofPort:     getEnvInt("PPROF_PORT", 6060),
			EnableMetrics: getEnvBool("ENABLE_METRICS", true),
			MetricsPort:   getEnvInt("METRICS_PORT", 9090),
		},
		Features: FeatureFlags{
			EnableDistributedCache: getEnvBool("ENABLE_DISTRIBUTED_CACHE", false),
			EnableEvents:           getEnvBool("ENABLE_EVENTS", true),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	switch c.Store.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns must be >= min_conns")
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}

	switch c.Queue.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown queue type: %s", c.Queue.Type)
	}

	switch c.Tree.DeletePolicy {
	case "block", "cascade", "reparent":
	default:
		return fmt.Errorf("unknown delete policy: %s", c.Tree.DeletePolicy)
	}

	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("min password length must be >= 1")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// NeedsRedis reports whether any enabled component talks to Redis
func (c *Config) NeedsRedis() bool {
	return c.Queue.Type == "redis" || c.Features.EnableDistributedCache || c.RateLimit.Enabled
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
