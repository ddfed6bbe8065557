package service

import (
	"context"
	"testing"
	"time"
)

func TestDeviceServiceConnectEncryptsCredentials(t *testing.T) {
	ctx := context.Background()
	repos, db := newTestRepos(t)
	insertTestUser(t, db, "user-1", "d@example.com")

	enc := testEncryptor(t)
	svc := NewDeviceService(repos, enc, testResolver(t), testLogger())

	conn, err := svc.Connect(ctx, "user-1", ConnectInput{
		Vendor:         "oura",
		ExternalUserID: "oura-42",
		AccessToken:    "plain-access-token",
		RefreshToken:   "plain-refresh-token",
		WebhookSecret:  "whsec_c2VjcmV0c2VjcmV0c2VjcmV0c2VjcmV0",
		Scopes:         "daily",
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if conn.AccessTokenEncrypted == "plain-access-token" {
		t.Error("access token must not be stored in plaintext")
	}

	token, err := svc.AccessToken(conn)
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if token != "plain-access-token" {
		t.Errorf("decrypted token = %q", token)
	}
}

func TestDeviceServiceIngestResolvesCanonicalKeys(t *testing.T) {
	ctx := context.Background()
	repos, db := newTestRepos(t)
	insertTestUser(t, db, "user-1", "d@example.com")

	svc := NewDeviceService(repos, testEncryptor(t), testResolver(t), testLogger())

	conn, err := svc.Connect(ctx, "user-1", ConnectInput{Vendor: "fitbit", ExternalUserID: "f-1"})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	at := time.Date(2026, 8, 21, 6, 0, 0, 0, time.UTC)
	result, err := svc.Ingest(ctx, conn, []Reading{
		{Domain: "vitals", Name: "Resting Heart Rate", Value: 54, Unit: "bpm", RecordedAt: at},
		{Domain: "sleep", Name: "Deep Sleep", Value: 92, Unit: "min", RecordedAt: at},
		{Domain: "vitals", Name: "Galvanic Skin Response", Value: 3.1, RecordedAt: at},
		{Domain: "moods", Name: "Steps", Value: 100, RecordedAt: at},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.Stored != 4 {
		t.Errorf("Stored = %d, want 4", result.Stored)
	}
	if result.Unmapped != 2 {
		t.Errorf("Unmapped = %d, want 2 (unknown name + unknown domain)", result.Unmapped)
	}

	samples, err := repos.MetricSample.GetByUserAndDate(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("GetByUserAndDate failed: %v", err)
	}
	keys := map[string]string{}
	for _, s := range samples {
		keys[s.ExternalName] = s.CanonicalKey
	}
	if keys["Resting Heart Rate"] != "resting_hr" {
		t.Errorf("Resting Heart Rate resolved to %q", keys["Resting Heart Rate"])
	}
	if keys["Deep Sleep"] != "sleep_deep_min" {
		t.Errorf("Deep Sleep resolved to %q", keys["Deep Sleep"])
	}
	if keys["Galvanic Skin Response"] != "" {
		t.Errorf("unknown name should stay unmapped, got %q", keys["Galvanic Skin Response"])
	}

	got, err := repos.Device.GetByID(ctx, conn.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastSyncedAt == nil {
		t.Error("Ingest should update LastSyncedAt")
	}
}

func TestDeviceServiceDisconnectChecksOwnership(t *testing.T) {
	ctx := context.Background()
	repos, db := newTestRepos(t)
	insertTestUser(t, db, "user-1", "a@example.com")
	insertTestUser(t, db, "user-2", "b@example.com")

	svc := NewDeviceService(repos, testEncryptor(t), testResolver(t), testLogger())

	conn, err := svc.Connect(ctx, "user-1", ConnectInput{Vendor: "whoop", ExternalUserID: "w-1"})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := svc.Disconnect(ctx, "user-2", conn.ID); err == nil {
		t.Error("Disconnect by another user should fail")
	}
	if err := svc.Disconnect(ctx, "user-1", conn.ID); err != nil {
		t.Errorf("Disconnect by owner failed: %v", err)
	}
}
