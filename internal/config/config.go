// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the API server.
type Config struct {
	ServerAddress string
	Environment   string

	TableName string
	IndexName string

	JWTSecret string
	JWTIssuer string

	// AllowedOrigins is the CORS allowlist for browser clients.
	AllowedOrigins []string

	Embedding EmbeddingConfig
	Features  Features

	// CacheTTL bounds how long cached graph and list responses are served
	// before being recomputed.
	CacheTTL time.Duration

	// ArchiveSweepSchedule is a cron expression for the periodic sweep that
	// archives stale ephemeral notes.
	ArchiveSweepSchedule string
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the implementation: "openai" or "mock".
	Provider string
	BaseURL  string
	APIKey   string
	Model    string
}

// Features contains feature flags for the application
type Features struct {
	EnableCaching     bool
	EnableAutoConnect bool
}

func LoadConfig() Config {
	cfg := Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		TableName:      getEnv("TABLE_NAME", "messynotes-dev"),
		IndexName:      getEnv("INDEX_NAME", "NoteIndex"),
		JWTSecret:      getEnv("JWT_SECRET", "development-secret-change-in-production"),
		JWTIssuer:      getEnv("JWT_ISSUER", "messynotes-backend"),
		AllowedOrigins: strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		Embedding: EmbeddingConfig{
			Provider: getEnv("EMBEDDING_PROVIDER", "openai"),
			BaseURL:  getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
			APIKey:   os.Getenv("OPENAI_API_KEY"),
			Model:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Features: Features{
			EnableCaching:     os.Getenv("ENABLE_CACHING") != "false",      // Default true
			EnableAutoConnect: os.Getenv("ENABLE_AUTO_CONNECT") != "false", // Default true
		},
		CacheTTL:             getDuration("CACHE_TTL", 30*time.Second),
		ArchiveSweepSchedule: getEnv("ARCHIVE_SWEEP_SCHEDULE", "@hourly"),
	}

	// Without an API key the OpenAI client cannot work; fall back to the
	// deterministic mock so local development still functions.
	if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
		cfg.Embedding.Provider = "mock"
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
