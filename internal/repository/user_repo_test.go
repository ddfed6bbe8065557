package repository

import (
	"context"
	"testing"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

func TestUserRepositoryCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepos(t)

	user := &models.User{
		Email:        "alex@example.com",
		PasswordHash: "argon2-hash",
		DisplayName:  "Alex",
		DateOfBirth:  "1990-04-12",
		Sex:          "female",
		HeightCm:     172,
	}
	if err := repos.User.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if user.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	got, err := repos.User.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil")
	}
	if got.Email != "alex@example.com" || got.DisplayName != "Alex" || got.HeightCm != 172 {
		t.Errorf("GetByID returned wrong user: %+v", got)
	}

	byEmail, err := repos.User.GetByEmail(ctx, "alex@example.com")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Error("GetByEmail did not find the user")
	}
}

func TestUserRepositoryGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepos(t)

	got, err := repos.User.GetByID(ctx, "nope")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetByID of missing user = %+v, want nil", got)
	}
}

func TestUserRepositoryDuplicateEmailFails(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepos(t)

	first := &models.User{Email: "dup@example.com", PasswordHash: "x", DisplayName: "A"}
	if err := repos.User.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	second := &models.User{Email: "dup@example.com", PasswordHash: "y", DisplayName: "B"}
	if err := repos.User.Create(ctx, second); err == nil {
		t.Error("Create with duplicate email should fail")
	}
}

func TestUserRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repos := setupTestRepos(t)

	user := &models.User{Email: "u@example.com", PasswordHash: "x", DisplayName: "Before"}
	if err := repos.User.Create(ctx, user); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	user.DisplayName = "After"
	user.HeightCm = 180
	if err := repos.User.Update(ctx, user); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repos.User.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.DisplayName != "After" || got.HeightCm != 180 {
		t.Errorf("update not persisted: %+v", got)
	}

	if err := repos.User.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err = repos.User.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID after delete failed: %v", err)
	}
	if got != nil {
		t.Error("user should be gone after Delete")
	}
}
