package service

import (
	"fmt"
	"log/slog"

	"github.com/halcyonhealth/halcyon-api/internal/cache"
	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/config"
	"github.com/halcyonhealth/halcyon-api/internal/crypto"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Auth      *AuthService
	APIKey    *APIKeyService
	Device    *DeviceService
	LabReport *LabReportService
	Score     *ScoreService
	Reminder  *ReminderService
	Chat      *ChatService
	Storage   *StorageService
}

// NewServices creates all service instances. The cache may be nil when
// Redis is not configured; the score service then computes on every
// request.
func NewServices(cfg *config.Config, repos *repository.Repositories, c *cache.Cache, resolver canonical.Resolver, logger *slog.Logger) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	return &Services{
		Auth:      NewAuthService(cfg, repos, logger),
		APIKey:    NewAPIKeyService(repos, logger),
		Device:    NewDeviceService(repos, encryptor, resolver, logger),
		LabReport: NewLabReportService(repos, storageSvc, resolver, logger),
		Score:     NewScoreService(repos, c, resolver, logger),
		Reminder:  NewReminderService(repos, logger),
		Chat:      NewChatService(repos, nil, logger),
		Storage:   storageSvc,
	}, nil
}
