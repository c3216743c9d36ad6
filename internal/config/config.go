// Package config loads process configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the backend configuration.
type Config struct {
	// Server
	Port       string
	AuthSecret string // bearer token for /chat; empty disables auth

	// Stores
	DatabaseURL string
	RedisURL    string // empty falls back to in-memory stores

	// LLM
	OpenAIModel string

	// Timeouts
	PolicyTimeout time.Duration
	ToolTimeout   time.Duration

	// Conversation
	SessionTTL      time.Duration
	HistoryLimit    int // max messages kept per thread
	RateLimit       int
	RateLimitWindow time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		AuthSecret:      getEnv("AUTH_SECRET", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", ""),
		PolicyTimeout:   time.Duration(getEnvInt("POLICY_TIMEOUT_MS", 30000)) * time.Millisecond,
		ToolTimeout:     time.Duration(getEnvInt("TOOL_TIMEOUT_MS", 10000)) * time.Millisecond,
		SessionTTL:      time.Duration(getEnvInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
		HistoryLimit:    getEnvInt("HISTORY_LIMIT", 40),
		RateLimit:       getEnvInt("RATE_LIMIT", 10),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_HOURS", 24)) * time.Hour,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
