// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names accepted in CATALOG_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamo   = "dynamodb"
	BackendS3       = "s3"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Catalog backend selection
	Backend string

	// Read-through cache
	CacheTTL     time.Duration
	SnapshotFile string // optional seed snapshot, imported when the store is empty

	// PostgreSQL connection (postgres backend)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// DynamoDB (dynamodb backend)
	DynamoRegion   string
	DynamoTable    string
	DynamoEndpoint string // local-development override, usually empty

	// S3 object store (s3 backend)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Key       string

	// Valkey last-known-snapshot mirror (optional — empty host disables it)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Write rate limiting
	WriteRateLimit int
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		Backend: envOrDefault("CATALOG_BACKEND", BackendMemory),

		SnapshotFile: os.Getenv("SNAPSHOT_FILE"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "vidcatalog"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "vidcatalog"),

		DynamoRegion:   envOrDefault("DYNAMO_REGION", "ap-southeast-1"),
		DynamoTable:    envOrDefault("DYNAMO_TABLE", "videos"),
		DynamoEndpoint: os.Getenv("DYNAMO_ENDPOINT"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Key:       envOrDefault("S3_KEY", "videos.json"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
	}

	ttl, err := time.ParseDuration(envOrDefault("CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	limit := envOrDefault("WRITE_RATE_LIMIT", "60")
	cfg.WriteRateLimit, err = strconv.Atoi(limit)
	if err != nil || cfg.WriteRateLimit < 0 {
		return nil, fmt.Errorf("WRITE_RATE_LIMIT %q is not a non-negative integer", limit)
	}

	switch cfg.Backend {
	case BackendMemory, BackendPostgres, BackendDynamo, BackendS3:
	default:
		return nil, fmt.Errorf("CATALOG_BACKEND %q is not one of %s, %s, %s, %s",
			cfg.Backend, BackendMemory, BackendPostgres, BackendDynamo, BackendS3)
	}

	if cfg.Env == "production" {
		if cfg.Backend == BackendPostgres && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.Backend == BackendS3 && cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET must be set for the s3 backend")
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

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// MirrorEnabled reports whether the Valkey snapshot mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.ValkeyHost != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
