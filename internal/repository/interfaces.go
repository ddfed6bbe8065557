// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// UserRepository defines methods for user account data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// APIKeyRepository defines methods for API key data access.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	GetByID(ctx context.Context, id string) (*models.APIKey, error)
	GetByKeyHash(ctx context.Context, hash string) (*models.APIKey, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.APIKey, error)
	UpdateLastUsed(ctx context.Context, id string, lastUsed time.Time) error
	Revoke(ctx context.Context, id string) error
}

// DoctorRepository defines methods for the provider directory.
type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	Update(ctx context.Context, doctor *models.Doctor) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, specialty string) ([]*models.Doctor, error)
}

// ReminderRepository defines methods for reminder data access.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, id string) error
	// Snooze sets snoozed_until; a nil until clears the snooze.
	Snooze(ctx context.Context, id string, until *time.Time) error
	// GetDue returns active reminders due at or before now, skipping
	// reminders snoozed past now.
	GetDue(ctx context.Context, userID string, now time.Time) ([]*models.Reminder, error)
}

// ChatRepository defines methods for chat session and message data access.
type ChatRepository interface {
	CreateSession(ctx context.Context, session *models.ChatSession) error
	GetSession(ctx context.Context, id string) (*models.ChatSession, error)
	GetSessionsByUserID(ctx context.Context, userID string) ([]*models.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	CreateMessage(ctx context.Context, msg *models.ChatMessage) error
	GetMessages(ctx context.Context, sessionID string) ([]*models.ChatMessage, error)
}

// LabReportRepository defines methods for lab report and result data access.
type LabReportRepository interface {
	Create(ctx context.Context, report *models.LabReport) error
	GetByID(ctx context.Context, id string) (*models.LabReport, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.LabReport, error)
	Update(ctx context.Context, report *models.LabReport) error
	Delete(ctx context.Context, id string) error
	CreateResult(ctx context.Context, result *models.LabResult) error
	GetResults(ctx context.Context, reportID string) ([]*models.LabResult, error)
	// GetResultsByUserAndDate returns results whose report was reported
	// on the given date (YYYY-MM-DD).
	GetResultsByUserAndDate(ctx context.Context, userID, date string) ([]*models.LabResult, error)
}

// NutritionRepository defines methods for nutrition log data access.
type NutritionRepository interface {
	Create(ctx context.Context, log *models.NutritionLog) error
	GetByID(ctx context.Context, id string) (*models.NutritionLog, error)
	GetByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]*models.NutritionLog, error)
	Delete(ctx context.Context, id string) error
}

// PharmacyRepository defines methods for pharmacy order data access.
type PharmacyRepository interface {
	Create(ctx context.Context, order *models.PharmacyOrder) error
	GetByID(ctx context.Context, id string) (*models.PharmacyOrder, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.PharmacyOrder, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// DeviceRepository defines methods for device connection data access.
type DeviceRepository interface {
	Create(ctx context.Context, conn *models.DeviceConnection) error
	GetByID(ctx context.Context, id string) (*models.DeviceConnection, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.DeviceConnection, error)
	GetByUserAndVendor(ctx context.Context, userID, vendor string) (*models.DeviceConnection, error)
	GetByVendorAndExternalID(ctx context.Context, vendor, externalUserID string) (*models.DeviceConnection, error)
	Update(ctx context.Context, conn *models.DeviceConnection) error
	Delete(ctx context.Context, id string) error
	UpdateLastSynced(ctx context.Context, id string, at time.Time) error
}

// MetricSampleRepository defines methods for ingested metric samples.
type MetricSampleRepository interface {
	Create(ctx context.Context, sample *models.MetricSample) error
	CreateBatch(ctx context.Context, samples []*models.MetricSample) error
	// GetByUserAndDate returns samples recorded on the given date (YYYY-MM-DD).
	GetByUserAndDate(ctx context.Context, userID, date string) ([]*models.MetricSample, error)
	GetByUserAndKey(ctx context.Context, userID, canonicalKey string, from, to time.Time) ([]*models.MetricSample, error)
	// CountUnmapped returns how many of a user's samples have no canonical key.
	CountUnmapped(ctx context.Context, userID string) (int, error)
}

// ScoreRepository defines methods for computed daily health scores.
type ScoreRepository interface {
	Upsert(ctx context.Context, score *models.HealthScore) error
	GetByUserAndDate(ctx context.Context, userID, date string) (*models.HealthScore, error)
	GetByUserAndRange(ctx context.Context, userID, fromDate, toDate string) ([]*models.HealthScore, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	User         UserRepository
	APIKey       APIKeyRepository
	Doctor       DoctorRepository
	Reminder     ReminderRepository
	Chat         ChatRepository
	LabReport    LabReportRepository
	Nutrition    NutritionRepository
	Pharmacy     PharmacyRepository
	Device       DeviceRepository
	MetricSample MetricSampleRepository
	Score        ScoreRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		User:         NewSQLiteUserRepository(db),
		APIKey:       NewSQLiteAPIKeyRepository(db),
		Doctor:       NewSQLiteDoctorRepository(db),
		Reminder:     NewSQLiteReminderRepository(db),
		Chat:         NewSQLiteChatRepository(db),
		LabReport:    NewSQLiteLabReportRepository(db),
		Nutrition:    NewSQLiteNutritionRepository(db),
		Pharmacy:     NewSQLitePharmacyRepository(db),
		Device:       NewSQLiteDeviceRepository(db),
		MetricSample: NewSQLiteMetricSampleRepository(db),
		Score:        NewSQLiteScoreRepository(db),
	}
}
