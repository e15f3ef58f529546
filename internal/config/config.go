package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment
// variables.
type Config struct {
	ServiceName      string
	HTTPPort         string
	DataDir          string
	LogLevel         string
	JWTSecret        string
	TokenExpiration  time.Duration
	AuthEmail        string
	AuthPasswordHash string // bcrypt hash; empty disables the login endpoint
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present (useful for development).
func Load() (*Config, error) {
	// Ignore a missing .env; production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		ServiceName:      getEnv("SERVICE_NAME", "tangent"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		DataDir:          getEnv("DATA_DIR", "data"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		AuthEmail:        getEnv("AUTH_EMAIL", ""),
		AuthPasswordHash: getEnv("AUTH_PASSWORD_HASH", ""),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	expStr := getEnv("JWT_EXPIRATION_HOURS", "24")
	expHours, err := strconv.Atoi(expStr)
	if err != nil || expHours <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS %q", expStr)
	}
	cfg.TokenExpiration = time.Duration(expHours) * time.Hour

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
