// Package models contains the domain entities persisted by the
// repository layer. All timestamps are stored as RFC3339 TEXT.
package models

import "time"

// User is an account holder.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	DateOfBirth  string
	Sex          string
	HeightCm     float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// APIKey is a hashed programmatic access credential.
type APIKey struct {
	ID         string
	UserID     string
	Name       string
	KeyHash    string
	KeyPrefix  string
	LastUsedAt *time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
}

// IsRevoked reports whether the key has been revoked.
func (k *APIKey) IsRevoked() bool { return k.RevokedAt != nil }

// Doctor is an entry in the provider directory.
type Doctor struct {
	ID        string
	FullName  string
	Specialty string
	Clinic    string
	Email     string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReminderKind enumerates reminder categories.
type ReminderKind string

const (
	ReminderMedication  ReminderKind = "medication"
	ReminderAppointment ReminderKind = "appointment"
	ReminderMeasurement ReminderKind = "measurement"
)

// Valid reports whether k is a known reminder kind.
func (k ReminderKind) Valid() bool {
	switch k {
	case ReminderMedication, ReminderAppointment, ReminderMeasurement:
		return true
	}
	return false
}

// Reminder is a scheduled prompt for the user.
type Reminder struct {
	ID           string
	UserID       string
	Kind         ReminderKind
	Title        string
	Notes        string
	Schedule     string
	NextDueAt    *time.Time
	SnoozedUntil *time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChatSession groups a conversation's messages.
type ChatSession struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChatMessage is one turn in a chat session. Role is "user" or
// "assistant".
type ChatMessage struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// LabReport is an uploaded laboratory report. FileKey points at the
// original document in object storage when one was uploaded.
type LabReport struct {
	ID         string
	UserID     string
	Title      string
	LabName    string
	FileKey    string
	Status     string
	ReportedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LabResult is a single LOINC-coded measurement within a report.
type LabResult struct {
	ID            string
	ReportID      string
	LoincCode     string
	Name          string
	Value         float64
	Unit          string
	ReferenceLow  *float64
	ReferenceHigh *float64
	CreatedAt     time.Time
}

// NutritionLog is one logged meal.
type NutritionLog struct {
	ID           string
	UserID       string
	LoggedAt     time.Time
	Meal         string
	Description  string
	CaloriesKcal float64
	ProteinG     float64
	CarbsG       float64
	FatG         float64
	CreatedAt    time.Time
}

// PharmacyOrder is a medication order.
type PharmacyOrder struct {
	ID         string
	UserID     string
	Medication string
	Dosage     string
	Quantity   int
	Status     string
	OrderedAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DeviceConnection links a user to a wearable/device vendor account.
// Tokens and the per-connection webhook secret are encrypted at rest.
type DeviceConnection struct {
	ID                     string
	UserID                 string
	Vendor                 string
	ExternalUserID         string
	AccessTokenEncrypted   string
	RefreshTokenEncrypted  string
	WebhookSecretEncrypted string
	Scopes                 string
	Status                 string
	LastSyncedAt           *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// MetricSample is one ingested measurement. ExternalName carries the
// vendor's vocabulary; CanonicalKey is resolved at ingest and empty when
// the registry had no mapping.
type MetricSample struct {
	ID           string
	UserID       string
	ConnectionID string
	Domain       string
	ExternalName string
	CanonicalKey string
	Value        float64
	Unit         string
	RecordedAt   time.Time
	CreatedAt    time.Time
}

// HealthScore is a computed per-day score. Sub-scores are nil when the
// day had no data in that domain.
type HealthScore struct {
	ID              string
	UserID          string
	Date            string
	Total           int
	Vitals          *int
	Sleep           *int
	Activity        *int
	Biomarker       *int
	UnmappedMetrics int
	CreatedAt       time.Time
}
