package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	svix "github.com/svix/svix-webhooks/go"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/config"
	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
	"github.com/halcyonhealth/halcyon-api/internal/service"
)

func setupTestStack(t *testing.T) (*repository.Repositories, *service.Services, *sql.DB) {
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

	t.Setenv("JWT_SECRET", "test-secret-for-handlers")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	resolver, err := canonical.NewStaticResolver()
	if err != nil {
		t.Fatalf("NewStaticResolver failed: %v", err)
	}

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(cfg, repos, nil, resolver, slog.Default())
	if err != nil {
		t.Fatalf("NewServices failed: %v", err)
	}
	return repos, services, db
}

func insertUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO users (id, email, password_hash, display_name, created_at, updated_at)
		VALUES (?, ?, 'x', 'Test User', datetime('now'), datetime('now'))
	`, id, id+"@example.com")
	if err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	out, err := HealthCheck(context.Background(), &struct{}{})
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if out.Body.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", out.Body.Status)
	}
}

func TestReadyzReportsDatabase(t *testing.T) {
	_, _, db := setupTestStack(t)
	h := NewReadyzHandler(db)

	out, err := h.Readyz(context.Background(), &struct{}{})
	if err != nil {
		t.Fatalf("Readyz failed: %v", err)
	}
	if out.Body.Status != "ok" || out.Body.Database != "ok" {
		t.Errorf("Readyz = %+v, want ok/ok", out.Body)
	}
}

const testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func signedWebhookRequest(t *testing.T, target string, payload []byte) *http.Request {
	t.Helper()

	wh, err := svix.NewWebhook(testWebhookSecret)
	if err != nil {
		t.Fatalf("NewWebhook failed: %v", err)
	}
	msgID := "msg_test"
	ts := time.Now()
	sig, err := wh.Sign(msgID, ts, payload)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", strconv.FormatInt(ts.Unix(), 10))
	req.Header.Set("svix-signature", sig)
	return req
}

func TestVendorWebhookIngestsSignedPayload(t *testing.T) {
	repos, services, db := setupTestStack(t)
	insertUser(t, db, "user-1")

	ctx := context.Background()
	_, err := services.Device.Connect(ctx, "user-1", service.ConnectInput{
		Vendor:         "oura",
		ExternalUserID: "oura-42",
		WebhookSecret:  testWebhookSecret,
	})
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	h := NewDevicesHandler(services.Device, repos.Device, nil, slog.Default())
	router := chi.NewRouter()
	router.Post("/api/v1/webhooks/device/{vendor}", h.HandleVendorWebhook)

	payload := []byte(`{
		"external_user_id": "oura-42",
		"readings": [
			{"domain": "vitals", "name": "Resting Heart Rate", "value": 55, "unit": "bpm", "recorded_at": "2026-08-21T06:00:00Z"},
			{"domain": "sleep", "name": "Deep Sleep", "value": 88, "unit": "min", "recorded_at": "2026-08-21T06:00:00Z"}
		]
	}`)

	req := signedWebhookRequest(t, "/api/v1/webhooks/device/oura", payload)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	samples, err := repos.MetricSample.GetByUserAndDate(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("GetByUserAndDate failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("stored %d samples, want 2", len(samples))
	}
}

func TestVendorWebhookRejectsBadSignature(t *testing.T) {
	repos, services, db := setupTestStack(t)
	insertUser(t, db, "user-1")

	ctx := context.Background()
	if _, err := services.Device.Connect(ctx, "user-1", service.ConnectInput{
		Vendor:         "oura",
		ExternalUserID: "oura-42",
		WebhookSecret:  testWebhookSecret,
	}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	h := NewDevicesHandler(services.Device, repos.Device, nil, slog.Default())
	router := chi.NewRouter()
	router.Post("/api/v1/webhooks/device/{vendor}", h.HandleVendorWebhook)

	payload := []byte(`{"external_user_id": "oura-42", "readings": []}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/device/oura", bytes.NewReader(payload))
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("svix-signature", "v1,dGhpcy1pcy1ub3QtYS1zaWduYXR1cmU=")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestVendorWebhookUnknownConnectionIsAccepted(t *testing.T) {
	repos, services, _ := setupTestStack(t)

	h := NewDevicesHandler(services.Device, repos.Device, nil, slog.Default())
	router := chi.NewRouter()
	router.Post("/api/v1/webhooks/device/{vendor}", h.HandleVendorWebhook)

	payload := []byte(`{"external_user_id": "ghost", "readings": []}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/device/oura", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// 200 without ingest so the vendor stops retrying.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
