package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string
	// PlatformBaseURL is the root of the testing-platform API this gateway
	// calls on behalf of students (e.g. http://platform:8000).
	PlatformBaseURL string
	PlatformTimeout time.Duration
	// StoreDriver selects the durable store for deadline/started markers:
	// "redis", "sqlite" or "memory".
	StoreDriver string
	RedisURL    string
	SQLitePath  string
	// SessionIdleTTL is how long a mounted session may sit untouched before
	// the reaper discards its in-memory state. The persisted deadline and
	// started marker are never touched by eviction.
	SessionIdleTTL time.Duration
	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "pretty"),
		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", "http://localhost:8000"),
		PlatformTimeout: time.Duration(getEnvInt("PLATFORM_TIMEOUT_SECONDS", 15)) * time.Second,
		StoreDriver:     getEnv("STORE_DRIVER", "sqlite"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SQLitePath:      getEnv("SQLITE_PATH", "./session-gateway.db"),
		SessionIdleTTL:  time.Duration(getEnvInt("SESSION_IDLE_TTL_MINUTES", 180)) * time.Minute,
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
