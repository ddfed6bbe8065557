package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/crypto"
	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// DeviceService manages wearable vendor connections and ingests their
// metric payloads. OAuth tokens and webhook secrets are encrypted
// before they reach the repository.
type DeviceService struct {
	repos     *repository.Repositories
	encryptor *crypto.Encryptor
	resolver  canonical.Resolver
	logger    *slog.Logger
}

// NewDeviceService creates a new device service.
func NewDeviceService(repos *repository.Repositories, encryptor *crypto.Encryptor, resolver canonical.Resolver, logger *slog.Logger) *DeviceService {
	return &DeviceService{
		repos:     repos,
		encryptor: encryptor,
		resolver:  resolver,
		logger:    logger,
	}
}

// ConnectInput carries the vendor OAuth exchange result.
type ConnectInput struct {
	Vendor         string
	ExternalUserID string
	AccessToken    string
	RefreshToken   string
	WebhookSecret  string
	Scopes         string
}

// Connect stores a new vendor connection with encrypted credentials.
func (s *DeviceService) Connect(ctx context.Context, userID string, input ConnectInput) (*models.DeviceConnection, error) {
	accessEnc, err := s.encryptor.Encrypt(input.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshEnc, err := s.encryptor.Encrypt(input.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	secretEnc, err := s.encryptor.Encrypt(input.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt webhook secret: %w", err)
	}

	conn := &models.DeviceConnection{
		UserID:                 userID,
		Vendor:                 input.Vendor,
		ExternalUserID:         input.ExternalUserID,
		AccessTokenEncrypted:   accessEnc,
		RefreshTokenEncrypted:  refreshEnc,
		WebhookSecretEncrypted: secretEnc,
		Scopes:                 input.Scopes,
	}
	if err := s.repos.Device.Create(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create connection: %w", err)
	}

	s.logger.Info("device connected", "user_id", userID, "vendor", input.Vendor)
	return conn, nil
}

// List returns a user's device connections.
func (s *DeviceService) List(ctx context.Context, userID string) ([]*models.DeviceConnection, error) {
	return s.repos.Device.GetByUserID(ctx, userID)
}

// Disconnect removes a connection after verifying ownership. Ingested
// samples are kept; their connection_id is nulled by the schema.
func (s *DeviceService) Disconnect(ctx context.Context, userID, connectionID string) error {
	conn, err := s.repos.Device.GetByID(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	if conn == nil || conn.UserID != userID {
		return fmt.Errorf("connection not found")
	}

	return s.repos.Device.Delete(ctx, connectionID)
}

// AccessToken decrypts and returns the connection's access token.
func (s *DeviceService) AccessToken(conn *models.DeviceConnection) (string, error) {
	return s.encryptor.Decrypt(conn.AccessTokenEncrypted)
}

// VerifyWebhook checks a vendor webhook signature (svix scheme) against
// the connection's stored secret.
func (s *DeviceService) VerifyWebhook(conn *models.DeviceConnection, payload []byte, headers http.Header) error {
	secret, err := s.encryptor.Decrypt(conn.WebhookSecretEncrypted)
	if err != nil {
		return fmt.Errorf("failed to decrypt webhook secret: %w", err)
	}
	if secret == "" {
		return fmt.Errorf("connection has no webhook secret")
	}

	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return fmt.Errorf("failed to init webhook verifier: %w", err)
	}
	return wh.Verify(payload, headers)
}

// Reading is one measurement in a vendor payload, in the vendor's own
// vocabulary.
type Reading struct {
	Domain     string    `json:"domain"`
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// IngestResult summarizes one ingest batch.
type IngestResult struct {
	Stored   int `json:"stored"`
	Unmapped int `json:"unmapped"`
}

// Ingest resolves readings against the canonical registry and stores
// them as metric samples. Readings without a mapping are stored with an
// empty canonical key and counted; they never fail the batch.
func (s *DeviceService) Ingest(ctx context.Context, conn *models.DeviceConnection, readings []Reading) (*IngestResult, error) {
	samples := make([]*models.MetricSample, 0, len(readings))
	result := &IngestResult{}

	for _, reading := range readings {
		domain := canonical.Domain(reading.Domain)
		key := canonical.Key("")
		if domain.Valid() {
			if resolved, ok := s.resolver.Resolve(domain, reading.Name); ok {
				key = resolved
			}
		}
		if key == "" {
			result.Unmapped++
		}

		samples = append(samples, &models.MetricSample{
			UserID:       conn.UserID,
			ConnectionID: conn.ID,
			Domain:       reading.Domain,
			ExternalName: reading.Name,
			CanonicalKey: string(key),
			Value:        reading.Value,
			Unit:         reading.Unit,
			RecordedAt:   reading.RecordedAt,
		})
	}

	if err := s.repos.MetricSample.CreateBatch(ctx, samples); err != nil {
		return nil, fmt.Errorf("failed to store samples: %w", err)
	}
	if err := s.repos.Device.UpdateLastSynced(ctx, conn.ID, time.Now()); err != nil {
		s.logger.Warn("failed to update last synced", "connection_id", conn.ID, "error", err)
	}

	result.Stored = len(samples)
	s.logger.Info("ingested device readings",
		"connection_id", conn.ID,
		"stored", result.Stored,
		"unmapped", result.Unmapped,
	)
	return result, nil
}
