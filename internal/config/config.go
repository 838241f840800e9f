// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// State storage
	DataDir      string // root directory for per-user site trees
	StateBackend string // "bolt" (single-file, default) or "postgres"
	BoltPath     string // bolt database file, defaults to <DataDir>/state.db

	// PostgreSQL connection (STATE_BACKEND=postgres)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis: cross-process locks and the preview cache. Optional; when
	// RedisHost is empty the service runs with in-process locks and an
	// in-memory cache only.
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// AI provider settings
	AIProvider string // "openai", "gemini", "claude", "mistral"

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	GeminiKey     string
	GeminiModel   string
	GeminiBaseURL string

	ClaudeKey     string
	ClaudeModel   string
	ClaudeBaseURL string

	MistralKey     string
	MistralModel   string
	MistralBaseURL string

	// Operation bounds
	GenTimeout time.Duration // per generation call
	LockWait   time.Duration // max wait to acquire a per-user lock
	LockTTL    time.Duration // shared-lock expiry, reclaims locks from crashed holders

	// Upload limits
	MaxUploadMB int64

	// API auth: bcrypt hash of the bearer token; empty disables auth.
	APITokenHash string

	// S3-compatible object storage for site exports. Optional.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string

	// Git publishing of the sites tree. Optional.
	PublishRemote string
	PublishBranch string
}

// Load reads configuration from environment variables, applying defaults for
// development where appropriate. A .env file in the working directory is
// loaded first if present. Returns an error if critical values are missing
// in production mode.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DataDir:      envOrDefault("DATA_DIR", "./data"),
		StateBackend: envOrDefault("STATE_BACKEND", "bolt"),
		BoltPath:     os.Getenv("BOLT_PATH"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "sitesmith"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "sitesmith"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     envOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AIProvider: envOrDefault("AI_PROVIDER", "gemini"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   envOrDefault("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   envOrDefault("GEMINI_MODEL", "gemini-3.1-pro-preview"),
		GeminiBaseURL: envOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),

		ClaudeKey:     os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:   envOrDefault("CLAUDE_MODEL", "claude-sonnet-4-6"),
		ClaudeBaseURL: envOrDefault("CLAUDE_BASE_URL", "https://api.anthropic.com"),

		MistralKey:     os.Getenv("MISTRAL_API_KEY"),
		MistralModel:   envOrDefault("MISTRAL_MODEL", "mistral-large-latest"),
		MistralBaseURL: envOrDefault("MISTRAL_BASE_URL", "https://api.mistral.ai"),

		GenTimeout: envDurationOrDefault("GEN_TIMEOUT", 90*time.Second),
		LockWait:   envDurationOrDefault("LOCK_WAIT", 10*time.Second),
		LockTTL:    envDurationOrDefault("LOCK_TTL", 3*time.Minute),

		MaxUploadMB: envInt64OrDefault("MAX_UPLOAD_MB", 10),

		APITokenHash: os.Getenv("API_TOKEN_HASH"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),

		PublishRemote: os.Getenv("PUBLISH_REMOTE"),
		PublishBranch: envOrDefault("PUBLISH_BRANCH", "main"),
	}

	if cfg.BoltPath == "" {
		cfg.BoltPath = filepath.Join(cfg.DataDir, "state.db")
	}

	switch cfg.StateBackend {
	case "bolt", "postgres":
	default:
		return nil, fmt.Errorf("STATE_BACKEND must be \"bolt\" or \"postgres\", got %q", cfg.StateBackend)
	}

	if cfg.Env == "production" && cfg.StateBackend == "postgres" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// RedisAddr returns the Redis address (host:port).
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// RedisEnabled reports whether a Redis host was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envDurationOrDefault parses a Go duration string ("30s", "2m") from the
// environment, returning a fallback if unset or invalid.
func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envInt64OrDefault parses an integer from the environment, returning a
// fallback if unset or invalid.
func envInt64OrDefault(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
