package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// ReminderService manages medication, appointment and measurement
// reminders.
type ReminderService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewReminderService creates a new reminder service.
func NewReminderService(repos *repository.Repositories, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		repos:  repos,
		logger: logger,
	}
}

// Create validates and stores a reminder.
func (s *ReminderService) Create(ctx context.Context, reminder *models.Reminder) error {
	if !reminder.Kind.Valid() {
		return fmt.Errorf("unknown reminder kind %q", reminder.Kind)
	}
	return s.repos.Reminder.Create(ctx, reminder)
}

// List returns a user's reminders.
func (s *ReminderService) List(ctx context.Context, userID string) ([]*models.Reminder, error) {
	return s.repos.Reminder.GetByUserID(ctx, userID)
}

// Get returns a reminder after verifying ownership; nil when not found.
func (s *ReminderService) Get(ctx context.Context, userID, id string) (*models.Reminder, error) {
	reminder, err := s.repos.Reminder.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reminder == nil || reminder.UserID != userID {
		return nil, nil
	}
	return reminder, nil
}

// Update applies changes to an owned reminder.
func (s *ReminderService) Update(ctx context.Context, userID string, reminder *models.Reminder) error {
	existing, err := s.Get(ctx, userID, reminder.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("reminder not found")
	}
	if !reminder.Kind.Valid() {
		return fmt.Errorf("unknown reminder kind %q", reminder.Kind)
	}
	return s.repos.Reminder.Update(ctx, reminder)
}

// Delete removes an owned reminder.
func (s *ReminderService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("reminder not found")
	}
	return s.repos.Reminder.Delete(ctx, id)
}

// Snooze postpones an owned reminder until the given time; a nil until
// clears the snooze.
func (s *ReminderService) Snooze(ctx context.Context, userID, id string, until *time.Time) error {
	existing, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("reminder not found")
	}
	return s.repos.Reminder.Snooze(ctx, id, until)
}

// Due returns the user's currently due reminders.
func (s *ReminderService) Due(ctx context.Context, userID string) ([]*models.Reminder, error) {
	return s.repos.Reminder.GetDue(ctx, userID, time.Now())
}
