package clients

import (
	"os"
	"sync"
	"time"
)

// ClientConfig holds client configuration loaded from environment.
// Read once at startup and passed to client constructors.
type ClientConfig struct {
	BaseURL  string
	Token    string
	Language string
	Timeout  time.Duration
}

var (
	globalConfig *ClientConfig
	configOnce   sync.Once
)

// LoadClientConfig loads client configuration from environment variables.
// This should be called once at application startup.
func LoadClientConfig() *ClientConfig {
	configOnce.Do(func() {
		globalConfig = &ClientConfig{
			BaseURL:  getEnvOrDefault("FAMILYTREE_URL", "http://localhost:8080"),
			Token:    os.Getenv("FAMILYTREE_TOKEN"),
			Language: os.Getenv("FAMILYTREE_LANG"),
			Timeout:  getDurationOrDefault("FAMILYTREE_TIMEOUT", 30*time.Second),
		}
	})

	return globalConfig
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}
