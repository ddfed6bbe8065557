package repository

import (
	"context"
	"testing"
	"time"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

func TestAPIKeyRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repos := NewRepositories(db)

	insertTestUser(t, db, "user-1", "keys@example.com")

	key := &models.APIKey{
		UserID:    "user-1",
		Name:      "mobile app",
		KeyHash:   "abc123hash",
		KeyPrefix: "hh_AbCd",
	}
	if err := repos.APIKey.Create(ctx, key); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repos.APIKey.GetByKeyHash(ctx, "abc123hash")
	if err != nil {
		t.Fatalf("GetByKeyHash failed: %v", err)
	}
	if got == nil || got.ID != key.ID {
		t.Fatal("GetByKeyHash did not find the key")
	}
	if got.IsRevoked() {
		t.Error("new key should not be revoked")
	}

	lastUsed := time.Now().Add(-time.Minute)
	if err := repos.APIKey.UpdateLastUsed(ctx, key.ID, lastUsed); err != nil {
		t.Fatalf("UpdateLastUsed failed: %v", err)
	}

	if err := repos.APIKey.Revoke(ctx, key.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	got, err = repos.APIKey.GetByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.IsRevoked() {
		t.Error("key should be revoked")
	}
	if got.LastUsedAt == nil {
		t.Error("LastUsedAt should be set")
	}
}

func TestAPIKeyRepositoryGetByUserID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repos := NewRepositories(db)

	insertTestUser(t, db, "user-1", "a@example.com")
	insertTestUser(t, db, "user-2", "b@example.com")

	for i, hash := range []string{"h1", "h2"} {
		key := &models.APIKey{UserID: "user-1", Name: "k", KeyHash: hash, KeyPrefix: "hh_x"}
		if err := repos.APIKey.Create(ctx, key); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}
	other := &models.APIKey{UserID: "user-2", Name: "k", KeyHash: "h3", KeyPrefix: "hh_y"}
	if err := repos.APIKey.Create(ctx, other); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	keys, err := repos.APIKey.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("len(keys) = %d, want 2", len(keys))
	}
}
