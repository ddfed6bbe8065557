package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteReminderRepository implements ReminderRepository for SQLite/libsql.
type SQLiteReminderRepository struct {
	db *sql.DB
}

// NewSQLiteReminderRepository creates a new SQLite reminder repository.
func NewSQLiteReminderRepository(db *sql.DB) *SQLiteReminderRepository {
	return &SQLiteReminderRepository{db: db}
}

// Create creates a new reminder.
func (r *SQLiteReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	now := time.Now()
	if reminder.ID == "" {
		reminder.ID = ulid.Make().String()
	}
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (
			id, user_id, kind, title, notes, schedule, next_due_at,
			snoozed_until, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reminder.ID,
		reminder.UserID,
		string(reminder.Kind),
		reminder.Title,
		reminder.Notes,
		reminder.Schedule,
		formatTimePtr(reminder.NextDueAt),
		formatTimePtr(reminder.SnoozedUntil),
		boolToInt(reminder.IsActive),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves a reminder by ID.
func (r *SQLiteReminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, title, notes, schedule, next_due_at,
			   snoozed_until, is_active, created_at, updated_at
		FROM reminders
		WHERE id = ?
	`, id)

	reminder, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return reminder, err
}

// GetByUserID returns all reminders for a user.
func (r *SQLiteReminderRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, title, notes, schedule, next_due_at,
			   snoozed_until, is_active, created_at, updated_at
		FROM reminders
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// Update updates an existing reminder.
func (r *SQLiteReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	reminder.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET
			kind = ?,
			title = ?,
			notes = ?,
			schedule = ?,
			next_due_at = ?,
			snoozed_until = ?,
			is_active = ?,
			updated_at = ?
		WHERE id = ?
	`,
		string(reminder.Kind),
		reminder.Title,
		reminder.Notes,
		reminder.Schedule,
		formatTimePtr(reminder.NextDueAt),
		formatTimePtr(reminder.SnoozedUntil),
		boolToInt(reminder.IsActive),
		reminder.UpdatedAt.Format(time.RFC3339),
		reminder.ID,
	)

	return err
}

// Delete removes a reminder by ID.
func (r *SQLiteReminderRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ?`, id)
	return err
}

// Snooze sets snoozed_until; a nil until clears the snooze.
func (r *SQLiteReminderRepository) Snooze(ctx context.Context, id string, until *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET snoozed_until = ?, updated_at = ? WHERE id = ?
	`, formatTimePtr(until), time.Now().Format(time.RFC3339), id)
	return err
}

// GetDue returns active reminders due at or before now, skipping
// reminders snoozed past now.
func (r *SQLiteReminderRepository) GetDue(ctx context.Context, userID string, now time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, title, notes, schedule, next_due_at,
			   snoozed_until, is_active, created_at, updated_at
		FROM reminders
		WHERE user_id = ?
		  AND is_active = 1
		  AND next_due_at IS NOT NULL
		  AND next_due_at <= ?
		  AND (snoozed_until IS NULL OR snoozed_until <= ?)
		ORDER BY next_due_at
	`, userID, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(s scanner) (*models.Reminder, error) {
	var reminder models.Reminder
	var kind string
	var notes, nextDueAt, snoozedUntil sql.NullString
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(
		&reminder.ID,
		&reminder.UserID,
		&kind,
		&reminder.Title,
		&notes,
		&reminder.Schedule,
		&nextDueAt,
		&snoozedUntil,
		&isActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	reminder.Kind = models.ReminderKind(kind)
	reminder.Notes = notes.String
	reminder.IsActive = isActive != 0
	reminder.NextDueAt = parseTimePtr(nextDueAt)
	reminder.SnoozedUntil = parseTimePtr(snoozedUntil)
	reminder.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	reminder.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &reminder, nil
}

func scanReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
