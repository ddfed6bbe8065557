package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/halcyonhealth/halcyon-api/internal/http/mw"
	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// DevicesHandler handles device connection endpoints and the vendor
// push webhook.
type DevicesHandler struct {
	svc     *service.DeviceService
	devices repository.DeviceRepository
	metrics *mw.MetricsCollector
	logger  *slog.Logger
}

// NewDevicesHandler creates a new devices handler.
func NewDevicesHandler(svc *service.DeviceService, devices repository.DeviceRepository, metrics *mw.MetricsCollector, logger *slog.Logger) *DevicesHandler {
	return &DevicesHandler{
		svc:     svc,
		devices: devices,
		metrics: metrics,
		logger:  logger,
	}
}

// DeviceConnectionResponse represents a connection in responses.
// Tokens and secrets never leave the service layer.
type DeviceConnectionResponse struct {
	ID             string `json:"id"`
	Vendor         string `json:"vendor"`
	ExternalUserID string `json:"external_user_id"`
	Scopes         string `json:"scopes,omitempty"`
	Status         string `json:"status"`
	LastSyncedAt   string `json:"last_synced_at,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toConnectionResponse(c *models.DeviceConnection) DeviceConnectionResponse {
	return DeviceConnectionResponse{
		ID:             c.ID,
		Vendor:         c.Vendor,
		ExternalUserID: c.ExternalUserID,
		Scopes:         c.Scopes,
		Status:         c.Status,
		LastSyncedAt:   formatTime(c.LastSyncedAt),
		CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ConnectDeviceInput represents a device connect request.
type ConnectDeviceInput struct {
	Body struct {
		Vendor         string `json:"vendor" minLength:"1" doc:"Vendor slug, e.g. oura, fitbit, whoop"`
		ExternalUserID string `json:"external_user_id" minLength:"1" doc:"User ID on the vendor's side"`
		AccessToken    string `json:"access_token,omitempty" doc:"Vendor OAuth access token"`
		RefreshToken   string `json:"refresh_token,omitempty" doc:"Vendor OAuth refresh token"`
		WebhookSecret  string `json:"webhook_secret,omitempty" doc:"Vendor webhook signing secret (whsec_...)"`
		Scopes         string `json:"scopes,omitempty"`
	}
}

// ConnectionOutput represents a single connection response.
type ConnectionOutput struct {
	Body DeviceConnectionResponse
}

// ConnectDevice links a vendor account. Tokens are encrypted at rest.
func (h *DevicesHandler) ConnectDevice(ctx context.Context, input *ConnectDeviceInput) (*ConnectionOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	conn, err := h.svc.Connect(ctx, userID, service.ConnectInput{
		Vendor:         input.Body.Vendor,
		ExternalUserID: input.Body.ExternalUserID,
		AccessToken:    input.Body.AccessToken,
		RefreshToken:   input.Body.RefreshToken,
		WebhookSecret:  input.Body.WebhookSecret,
		Scopes:         input.Body.Scopes,
	})
	if err != nil {
		return nil, huma.Error409Conflict("vendor already connected")
	}
	return &ConnectionOutput{Body: toConnectionResponse(conn)}, nil
}

// ListDevicesOutput represents the connection list response.
type ListDevicesOutput struct {
	Body struct {
		Connections []DeviceConnectionResponse `json:"connections"`
	}
}

// ListDevices lists the user's device connections.
func (h *DevicesHandler) ListDevices(ctx context.Context, input *struct{}) (*ListDevicesOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	conns, err := h.svc.List(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list connections")
	}

	out := &ListDevicesOutput{}
	for _, c := range conns {
		out.Body.Connections = append(out.Body.Connections, toConnectionResponse(c))
	}
	return out, nil
}

// DisconnectDeviceInput represents a disconnect request.
type DisconnectDeviceInput struct {
	ID string `path:"id"`
}

// DisconnectDeviceOutput represents a disconnect response.
type DisconnectDeviceOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DisconnectDevice removes a vendor connection.
func (h *DevicesHandler) DisconnectDevice(ctx context.Context, input *DisconnectDeviceInput) (*DisconnectDeviceOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.svc.Disconnect(ctx, userID, input.ID); err != nil {
		return nil, huma.Error404NotFound("connection not found")
	}

	out := &DisconnectDeviceOutput{}
	out.Body.Success = true
	return out, nil
}

// vendorWebhookEvent is the push payload vendors deliver.
type vendorWebhookEvent struct {
	ExternalUserID string            `json:"external_user_id"`
	Readings       []service.Reading `json:"readings"`
}

// maxWebhookBody bounds vendor payload size (1MB).
const maxWebhookBody = 1 << 20

// HandleVendorWebhook receives pushed readings from a device vendor.
// The signature is verified against the connection's stored secret
// (svix scheme) before anything is ingested. This is a raw chi handler:
// signature verification needs the exact request body bytes.
func (h *DevicesHandler) HandleVendorWebhook(w http.ResponseWriter, r *http.Request) {
	vendor := chi.URLParam(r, "vendor")

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	var event vendorWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.ExternalUserID == "" {
		h.countWebhook(vendor, "malformed")
		http.Error(w, `{"error":"malformed payload"}`, http.StatusBadRequest)
		return
	}

	conn, err := h.devices.GetByVendorAndExternalID(r.Context(), vendor, event.ExternalUserID)
	if err != nil {
		http.Error(w, `{"error":"lookup failed"}`, http.StatusInternalServerError)
		return
	}
	if conn == nil {
		h.countWebhook(vendor, "unknown_connection")
		// 200 so the vendor does not retry deliveries for users who
		// disconnected.
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.svc.VerifyWebhook(conn, payload, r.Header); err != nil {
		h.countWebhook(vendor, "bad_signature")
		h.logger.Warn("webhook signature verification failed",
			"vendor", vendor,
			"connection_id", conn.ID,
			"error", err,
		)
		http.Error(w, `{"error":"invalid signature"}`, http.StatusUnauthorized)
		return
	}

	result, err := h.svc.Ingest(r.Context(), conn, event.Readings)
	if err != nil {
		h.countWebhook(vendor, "ingest_failed")
		h.logger.Error("webhook ingest failed", "vendor", vendor, "error", err)
		http.Error(w, `{"error":"ingest failed"}`, http.StatusInternalServerError)
		return
	}

	h.countWebhook(vendor, "ok")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

func (h *DevicesHandler) countWebhook(vendor, outcome string) {
	if h.metrics != nil {
		h.metrics.WebhookDeliveries.WithLabelValues(vendor, outcome).Inc()
	}
}
