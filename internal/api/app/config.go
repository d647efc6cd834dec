package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BasePath string // Optional: path prefix the API is mounted under (default: /api/v1)

	ClientTokenHeader string // Optional: header carrying the client token (default: X-Me-Client-Token)
	UserTokenHeader   string // Optional: header carrying the user token (default: X-Me-User-Token)
	ClientTokenQuery  string // Optional: query parameter carrying the client token (default: client_token)
	UserTokenQuery    string // Optional: query parameter carrying the user token (default: user_token)

	UserTokenLifetime time.Duration // Optional: lifetime of retrieved user tokens, <= 0 means no expiry (default: 24h)
	MaxItemsPerPage   int           // Optional: dataset page size cap (default: 25)
	ShowExceptions    bool          // Optional: include diagnostic detail in error envelopes (default: false)

	BootstrapUsername string // Optional: initial user created on an empty database (default: admin)
	BootstrapFullname string // Optional: full name of the initial user (default: Administrator)
	BootstrapPassword string // Optional: password of the initial user (default: generated and logged once)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./api.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		BasePath: getEnvOrDefault("API_BASE_PATH", "/api/v1"),

		ClientTokenHeader: getEnvOrDefault("API_CLIENT_TOKEN_HEADER", "X-Me-Client-Token"),
		UserTokenHeader:   getEnvOrDefault("API_USER_TOKEN_HEADER", "X-Me-User-Token"),
		ClientTokenQuery:  getEnvOrDefault("API_CLIENT_TOKEN_QUERY", "client_token"),
		UserTokenQuery:    getEnvOrDefault("API_USER_TOKEN_QUERY", "user_token"),

		UserTokenLifetime: getEnvDurationOrDefault("API_USER_TOKEN_LIFETIME", 24*time.Hour),
		MaxItemsPerPage:   getEnvIntOrDefault("API_MAX_ITEMS_PER_PAGE", 25),
		ShowExceptions:    getEnvBoolOrDefault("API_SHOW_EXCEPTIONS", false),

		BootstrapUsername: getEnvOrDefault("API_BOOTSTRAP_USERNAME", "admin"),
		BootstrapFullname: getEnvOrDefault("API_BOOTSTRAP_FULLNAME", "Administrator"),
		BootstrapPassword: os.Getenv("API_BOOTSTRAP_PASSWORD"),

		DatabaseFile:        getEnvOrDefault("API_DATABASE_FILE", "api.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer hours, matching the original lifetime setting
	if hours, err := strconv.Atoi(value); err == nil {
		return time.Duration(hours) * time.Hour
	}

	return defaultValue
}
