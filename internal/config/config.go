// Package config handles application configuration.
package config

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret     string
	JWTExpiry     time.Duration
	EncryptionKey []byte // 32-byte key for AES-256-GCM encryption of device tokens

	// Device vendor webhooks (svix-style signatures)
	DeviceWebhookSecret string

	// Canonical mapping registry backend: "static" (embedded YAML) or
	// "db" (metric_mappings table).
	MappingsSource string

	// Redis cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ScoreCacheTTL time.Duration

	// Object Storage (S3-compatible) for lab report documents
	StorageEnabled   bool
	StorageEndpoint  string // AWS_ENDPOINT_URL_S3
	StorageAccessKey string // AWS_ACCESS_KEY_ID
	StorageSecretKey string // AWS_SECRET_ACCESS_KEY
	StorageBucket    string
	StorageRegion    string

	// CORS
	CORSOrigins []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:halcyon.db?_journal=WAL&_timeout=5000"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTExpiry:   getEnvDuration("JWT_EXPIRY", 24*time.Hour),

		DeviceWebhookSecret: getEnv("DEVICE_WEBHOOK_SECRET", ""),

		MappingsSource: getEnv("MAPPINGS_SOURCE", "static"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		ScoreCacheTTL: getEnvDuration("SCORE_CACHE_TTL", 15*time.Minute),

		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// Enable storage if bucket is configured
	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	// Set up encryption key (derive from JWT secret if not explicitly set)
	encKeyStr := getEnv("ENCRYPTION_KEY", "")
	if encKeyStr != "" {
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	} else {
		cfg.EncryptionKey = deriveEncryptionKey(cfg.JWTSecret)
	}

	return cfg, nil
}

// CacheEnabled returns true if a Redis address is configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

// deriveEncryptionKey creates a 32-byte AES-256 key from a secret string
// using HKDF. Appropriate for high-entropy secrets like the JWT secret;
// for low-entropy passwords use Argon2 instead.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("halcyon-api-encryption-key-v1")
	info := []byte("aes-256-gcm-encryption")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
