package config

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL == "" {
		t.Error("DatabaseURL should have a default")
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.JWTExpiry)
	}
	if cfg.StorageEnabled {
		t.Error("storage should be disabled without a bucket")
	}
	if cfg.CacheEnabled() {
		t.Error("cache should be disabled without REDIS_ADDR")
	}
	if len(cfg.EncryptionKey) != 32 {
		t.Errorf("EncryptionKey length = %d, want 32", len(cfg.EncryptionKey))
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load should fail without JWT_SECRET")
	}
}

func TestLoadExplicitEncryptionKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(cfg.EncryptionKey) != string(key) {
		t.Error("explicit encryption key not used")
	}
}

func TestLoadRejectsBadEncryptionKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ENCRYPTION_KEY", "not-base64-and-not-32-bytes")

	if _, err := Load(); err == nil {
		t.Error("Load should reject a malformed encryption key")
	}
}

func TestDerivedKeyIsStable(t *testing.T) {
	a := deriveEncryptionKey("secret")
	b := deriveEncryptionKey("secret")
	if string(a) != string(b) {
		t.Error("derived key should be deterministic")
	}
	c := deriveEncryptionKey("other")
	if string(a) == string(c) {
		t.Error("different secrets should derive different keys")
	}
}

func TestStorageEnabledWhenConfigured(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("AWS_ENDPOINT_URL_S3", "https://storage.example.com")
	t.Setenv("BUCKET_NAME", "halcyon-lab-reports")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.StorageEnabled {
		t.Error("storage should be enabled with endpoint and bucket")
	}
}
