package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the gateway
type Config struct {
	// Server
	Port string
	Env  string

	// Shared counter store
	RedisURL string

	// Optional Postgres request audit log
	DatabaseURL string

	// Local backend
	OllamaHost  string
	OllamaModel string

	// Cloud backend
	CloudAgentEndpoint  string
	CloudAgentAccessKey string
	UseCloudAgent       bool

	// Routing / admission
	RateLimitPerMinute int
	LocalMaxTokens     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		OllamaHost:          getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:         getEnv("OLLAMA_MODEL", "deepseek-r1:1.5b"),
		CloudAgentEndpoint:  getEnv("CLOUD_AGENT_ENDPOINT", ""),
		CloudAgentAccessKey: getEnv("CLOUD_AGENT_ACCESS_KEY", ""),
		UseCloudAgent:       getEnvBool("USE_CLOUD_AGENT", false),
		RateLimitPerMinute:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LocalMaxTokens:      getEnvInt("LOCAL_MAX_TOKENS", 500),
	}

	// Cloud routing needs both halves of the credential pair
	if cfg.UseCloudAgent && (cfg.CloudAgentEndpoint == "" || cfg.CloudAgentAccessKey == "") {
		return nil, fmt.Errorf("USE_CLOUD_AGENT is enabled but CLOUD_AGENT_ENDPOINT or CLOUD_AGENT_ACCESS_KEY is missing")
	}

	return cfg, nil
}

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
