package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseType string
	DatabasePath string
	DatabaseURL  string
	AuthSecret   string
	TokenPath    string
	PollInterval time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./quizzable.db"),
		DatabaseURL:  getEnv("DB_URL", ""),
		AuthSecret:   getEnv("AUTH_SECRET", "quizzable-local-secret"),
		TokenPath:    getEnv("TOKEN_PATH", "./.quizzable-user"),
		PollInterval: time.Duration(getEnvInt("POLL_INTERVAL_MS", 100)) * time.Millisecond,
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
