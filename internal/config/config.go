package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerPort string

	DatabaseType string // "sqlite", "postgres" or "mysql"
	DatabasePath string // SQLite file path
	DatabaseURL  string // PostgreSQL/MySQL connection string

	MigrationsPath string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	SessionDuration time.Duration

	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	AppBaseURL string

	GoogleClientID     string
	GoogleClientSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		ServerPort: getEnv("PORT", "8080"),

		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./meducare.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),

		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		SessionDuration: getEnvDuration("SESSION_DURATION", 30*24*time.Hour),

		AWSRegion:    getEnv("AWS_REGION", "eu-west-3"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Meducare"),

		AppBaseURL: getEnv("APP_BASE_URL", "http://localhost:8080"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration env var, accepting Go syntax ("15m")
// or a plain number of hours.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if hours, err := strconv.Atoi(value); err == nil {
		return time.Duration(hours) * time.Hour
	}
	return defaultValue
}
