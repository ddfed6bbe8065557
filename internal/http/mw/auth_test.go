package mw

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/halcyonhealth/halcyon-api/internal/config"
	"github.com/halcyonhealth/halcyon-api/internal/database/migrations"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
	"github.com/halcyonhealth/halcyon-api/internal/service"
)

func setupAuthService(t *testing.T) *service.AuthService {
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

	t.Setenv("JWT_SECRET", "test-secret-for-mw")
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	return service.NewAuthService(cfg, repository.NewRepositories(db), slog.Default())
}

func echoClaims(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserClaims(r.Context())
		if claims == nil {
			t.Error("claims missing from context inside protected handler")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(claims.UserID))
	})
}

func TestAuthMiddlewareAcceptsValidJWT(t *testing.T) {
	authSvc := setupAuthService(t)

	user, token, err := authSvc.Register(context.Background(), "mw@example.com", "hunter2hunter2", "MW")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	handler := Auth(authSvc)(echoClaims(t))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != user.ID {
		t.Errorf("body = %q, want user ID %q", rec.Body.String(), user.ID)
	}
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	authSvc := setupAuthService(t)
	handler := Auth(authSvc)(echoClaims(t))

	for name, header := range map[string]string{
		"missing header": "",
		"garbage token":  "Bearer not-a-jwt",
		"bad api key":    "Bearer hh_definitely-not-issued",
	} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}
