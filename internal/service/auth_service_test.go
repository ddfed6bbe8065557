package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	svc := NewAuthService(testConfig(t), repos, testLogger())

	user, token, err := svc.Register(ctx, "jo@example.com", "hunter2hunter2", "Jo")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" || token == "" {
		t.Fatal("Register should return a user and a token")
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Fatal("password must not be stored in plaintext")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != "jo@example.com" {
		t.Errorf("claims = %+v, want user %s", claims, user.ID)
	}

	_, loginToken, err := svc.Login(ctx, "jo@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loginToken == "" {
		t.Error("Login should return a token")
	}
}

func TestAuthServiceRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	svc := NewAuthService(testConfig(t), repos, testLogger())

	if _, _, err := svc.Register(ctx, "jo@example.com", "correct-password", "Jo"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := svc.Login(ctx, "jo@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login with wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login with unknown email: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Register(ctx, "jo@example.com", "x", "Dup"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate Register: err = %v, want ErrEmailTaken", err)
	}
}

func TestAuthServiceRejectsTamperedToken(t *testing.T) {
	ctx := context.Background()
	repos, _ := newTestRepos(t)
	svc := NewAuthService(testConfig(t), repos, testLogger())

	_, token, err := svc.Register(ctx, "jo@example.com", "hunter2hunter2", "Jo")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.ValidateToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("tampered token: err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.ValidateToken("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}
}

func TestAPIKeyServiceRoundTrip(t *testing.T) {
	ctx := context.Background()
	repos, db := newTestRepos(t)
	insertTestUser(t, db, "user-1", "k@example.com")

	keySvc := NewAPIKeyService(repos, testLogger())
	authSvc := NewAuthService(testConfig(t), repos, testLogger())

	out, err := keySvc.CreateKey(ctx, "user-1", "integration")
	if err != nil {
		t.Fatalf("CreateKey failed: %v", err)
	}
	if !strings.HasPrefix(out.Key, "hh_") {
		t.Errorf("Key = %q, want hh_ prefix", out.Key)
	}
	if !strings.HasSuffix(out.KeyPrefix, "...") {
		t.Errorf("KeyPrefix = %q, want ... suffix", out.KeyPrefix)
	}

	claims, err := authSvc.ValidateAPIKey(ctx, out.Key)
	if err != nil {
		t.Fatalf("ValidateAPIKey failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("claims.UserID = %q, want user-1", claims.UserID)
	}

	if err := keySvc.RevokeKey(ctx, "user-1", out.ID); err != nil {
		t.Fatalf("RevokeKey failed: %v", err)
	}
	if _, err := authSvc.ValidateAPIKey(ctx, out.Key); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("revoked key: err = %v, want ErrInvalidToken", err)
	}
}
