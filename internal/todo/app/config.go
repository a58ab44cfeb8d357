package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer       string        // Issuer claim for tokens (default: tidylist)
	NumKeys      int           // Number of signing keys to generate (default: 3, min: 1, max: 10)
	AccessTTL    time.Duration // Access token lifetime (default: 24h)
	DatabaseFile string        // Path to SQLite database file (default: ./todo.db)
	PepperFile   string        // Path to file containing pepper for password hashing (default: ./pepper)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:              getEnvOrDefault("TODO_ISSUER", "tidylist"),
		NumKeys:             getEnvIntOrDefault("TODO_NUM_KEYS", 0),
		AccessTTL:           getEnvDurationOrDefault("TODO_TOKEN_TTL", 24*time.Hour),
		DatabaseFile:        getEnvOrDefault("TODO_DATABASE_FILE", "todo.db"),
		PepperFile:          getEnvOrDefault("TODO_PEPPER_FILE", "pepper"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Accept duration strings (e.g. "1h", "30m", "90s") or plain minutes.
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
