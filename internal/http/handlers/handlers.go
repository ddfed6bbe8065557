// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/halcyonhealth/halcyon-api/internal/http/mw"
	"github.com/halcyonhealth/halcyon-api/internal/version"
)

// HealthCheckOutput represents health check response.
type HealthCheckOutput struct {
	Body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}
}

// HealthCheck returns the health status of the API.
func HealthCheck(ctx context.Context, input *struct{}) (*HealthCheckOutput, error) {
	out := &HealthCheckOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Get().Version
	return out, nil
}

// LivezOutput represents the liveness probe response.
type LivezOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// Livez is the Kubernetes liveness probe.
func Livez(ctx context.Context, input *struct{}) (*LivezOutput, error) {
	out := &LivezOutput{}
	out.Body.Status = "ok"
	return out, nil
}

// ReadyzHandler checks downstream dependencies for the readiness probe.
type ReadyzHandler struct {
	db *sql.DB
}

// NewReadyzHandler creates a readiness probe handler.
func NewReadyzHandler(db *sql.DB) *ReadyzHandler {
	return &ReadyzHandler{db: db}
}

// ReadyzOutput represents the readiness probe response.
type ReadyzOutput struct {
	Body struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
}

// Readyz reports readiness, pinging the database.
func (h *ReadyzHandler) Readyz(ctx context.Context, input *struct{}) (*ReadyzOutput, error) {
	out := &ReadyzOutput{}
	out.Body.Status = "ok"
	out.Body.Database = "ok"

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(pingCtx); err != nil {
		out.Body.Status = "degraded"
		out.Body.Database = "unreachable"
	}
	return out, nil
}

// getUserID extracts the authenticated user ID from context.
func getUserID(ctx context.Context) string {
	claims := mw.GetUserClaims(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// formatTime renders t as RFC3339, or "" for nil.
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// parseTime parses an optional RFC3339 string.
func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
