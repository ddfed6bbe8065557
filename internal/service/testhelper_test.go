package service

import (
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/halcyonhealth/halcyon-api/internal/cache"
	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/config"
	"github.com/halcyonhealth/halcyon-api/internal/crypto"
	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// setupTestDB creates an in-memory SQLite database migrated to the
// current head.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testConfig returns a config suitable for service tests.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-for-services")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// testEncryptor returns an encryptor with a random key.
func testEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	enc, err := crypto.NewEncryptor(key)
	if err != nil {
		t.Fatalf("NewEncryptor failed: %v", err)
	}
	return enc
}

// testCache returns a Redis cache backed by miniredis.
func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewWithClient(cache.Config{Prefix: "halcyon:", DefaultTTL: 15 * time.Minute}, client)
}

// testResolver returns the embedded static resolver.
func testResolver(t *testing.T) canonical.Resolver {
	t.Helper()
	resolver, err := canonical.NewStaticResolver()
	if err != nil {
		t.Fatalf("NewStaticResolver failed: %v", err)
	}
	return resolver
}

func testLogger() *slog.Logger {
	return slog.Default()
}

// insertTestUser inserts a user row directly to satisfy foreign keys.
func insertTestUser(t *testing.T, db *sql.DB, id, email string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, display_name, created_at, updated_at)
		VALUES (?, ?, 'x', 'Test User', datetime('now'), datetime('now'))
	`, id, email)
	if err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
}

// newTestRepos wires repositories over a fresh test database.
func newTestRepos(t *testing.T) (*repository.Repositories, *sql.DB) {
	t.Helper()
	db := setupTestDB(t)
	return repository.NewRepositories(db), db
}
