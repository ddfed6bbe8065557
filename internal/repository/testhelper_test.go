package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be
// cleaned up when the test completes.
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

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

// insertTestUser inserts a user directly so tests can satisfy foreign keys.
func insertTestUser(t *testing.T, db *sql.DB, id, email string) {
	t.Helper()
	query := `
		INSERT INTO users (id, email, password_hash, display_name, created_at, updated_at)
		VALUES (?, ?, 'x', 'Test User', datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, email); err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
}

// timePtr returns a pointer to t.
func timePtr(t time.Time) *time.Time {
	return &t
}
