package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// APIKeyService handles API key operations.
type APIKeyService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(repos *repository.Repositories, logger *slog.Logger) *APIKeyService {
	return &APIKeyService{
		repos:  repos,
		logger: logger,
	}
}

// CreateKeyOutput is returned from key creation; Key is only returned
// here, afterwards only the hash exists.
type CreateKeyOutput struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	KeyPrefix string    `json:"key_prefix"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateKey generates a new API key for the user.
func (s *APIKeyService) CreateKey(ctx context.Context, userID, name string) (*CreateKeyOutput, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	key := "hh_" + base64.RawURLEncoding.EncodeToString(keyBytes)
	keyPrefix := key[:11] + "..."

	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])

	apiKey := &models.APIKey{
		UserID:    userID,
		Name:      name,
		KeyHash:   keyHash,
		KeyPrefix: keyPrefix,
	}

	if err := s.repos.APIKey.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}

	return &CreateKeyOutput{
		ID:        apiKey.ID,
		Name:      apiKey.Name,
		Key:       key,
		KeyPrefix: keyPrefix,
		CreatedAt: apiKey.CreatedAt,
	}, nil
}

// ListKeys lists API keys for a user (without the actual key).
func (s *APIKeyService) ListKeys(ctx context.Context, userID string) ([]*models.APIKey, error) {
	return s.repos.APIKey.GetByUserID(ctx, userID)
}

// RevokeKey revokes an API key after verifying ownership.
func (s *APIKeyService) RevokeKey(ctx context.Context, userID, keyID string) error {
	key, err := s.repos.APIKey.GetByID(ctx, keyID)
	if err != nil {
		return fmt.Errorf("failed to get key: %w", err)
	}
	if key == nil || key.UserID != userID {
		return fmt.Errorf("key not found")
	}

	return s.repos.APIKey.Revoke(ctx, keyID)
}
