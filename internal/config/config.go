package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr  string
	CORSOrigins string // Comma-separated allowed origins

	// Image API
	APIBaseURL  string // host that serves dataset images, e.g. "http://localhost:8000"
	DatasetRoot string // path prefix of dataset images on APIBaseURL

	// Storage
	DatabaseURL string
	RedisURL    string // empty disables the shared fallback cache

	// Preloading
	PreloadTimeout      time.Duration
	PreloadAllowPrivate bool // allow preloading from private addresses (local dataset server)

	// Display
	RetryBudget  int
	PollInterval time.Duration

	// Fallback providers
	KeywordProviderURL     string
	CategoryProviderURL    string
	PlaceholderProviderURL string
	VerifyPlaceholder      bool

	// Jobs
	PrewarmInterval time.Duration // 0 disables the background prewarmer
	PrewarmBatch    int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),

		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8000"),
		DatasetRoot: getEnv("DATASET_ROOT", "/datasets"),

		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/placeimages?sslmode=disable"),
		RedisURL:    getEnv("REDIS_URL", ""),

		PreloadTimeout:      getEnvDuration("PRELOAD_TIMEOUT", 2*time.Second),
		PreloadAllowPrivate: getEnvBool("PRELOAD_ALLOW_PRIVATE", false),

		RetryBudget:  getEnvInt("RETRY_BUDGET", 2),
		PollInterval: getEnvDuration("POLL_INTERVAL", 250*time.Millisecond),

		KeywordProviderURL:     getEnv("KEYWORD_PROVIDER_URL", "https://source.unsplash.com"),
		CategoryProviderURL:    getEnv("CATEGORY_PROVIDER_URL", "https://loremflickr.com"),
		PlaceholderProviderURL: getEnv("PLACEHOLDER_PROVIDER_URL", "https://via.placeholder.com"),
		VerifyPlaceholder:      getEnvBool("VERIFY_PLACEHOLDER", false),

		PrewarmInterval: getEnvDuration("PREWARM_INTERVAL", 0),
		PrewarmBatch:    getEnvInt("PREWARM_BATCH", 50),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

// getEnvDuration accepts Go durations ("2s", "500ms") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// SharedCacheEnabled reports whether a Redis URL is configured.
func (c *Config) SharedCacheEnabled() bool {
	return c.RedisURL != ""
}
