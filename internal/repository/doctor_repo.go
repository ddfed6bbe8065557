package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteDoctorRepository implements DoctorRepository for SQLite/libsql.
type SQLiteDoctorRepository struct {
	db *sql.DB
}

// NewSQLiteDoctorRepository creates a new SQLite doctor repository.
func NewSQLiteDoctorRepository(db *sql.DB) *SQLiteDoctorRepository {
	return &SQLiteDoctorRepository{db: db}
}

// Create adds a doctor to the directory.
func (r *SQLiteDoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	now := time.Now()
	if doctor.ID == "" {
		doctor.ID = ulid.Make().String()
	}
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO doctors (id, full_name, specialty, clinic, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		doctor.ID,
		doctor.FullName,
		doctor.Specialty,
		doctor.Clinic,
		doctor.Email,
		doctor.Phone,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves a doctor by ID.
func (r *SQLiteDoctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, full_name, specialty, clinic, email, phone, created_at, updated_at
		FROM doctors
		WHERE id = ?
	`, id)

	var doctor models.Doctor
	var clinic, email, phone sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&doctor.ID,
		&doctor.FullName,
		&doctor.Specialty,
		&clinic,
		&email,
		&phone,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	doctor.Clinic = clinic.String
	doctor.Email = email.String
	doctor.Phone = phone.String
	doctor.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	doctor.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &doctor, nil
}

// Update updates an existing doctor.
func (r *SQLiteDoctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	doctor.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE doctors SET
			full_name = ?,
			specialty = ?,
			clinic = ?,
			email = ?,
			phone = ?,
			updated_at = ?
		WHERE id = ?
	`,
		doctor.FullName,
		doctor.Specialty,
		doctor.Clinic,
		doctor.Email,
		doctor.Phone,
		doctor.UpdatedAt.Format(time.RFC3339),
		doctor.ID,
	)

	return err
}

// Delete removes a doctor by ID.
func (r *SQLiteDoctorRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = ?`, id)
	return err
}

// List returns all doctors, optionally filtered by specialty.
func (r *SQLiteDoctorRepository) List(ctx context.Context, specialty string) ([]*models.Doctor, error) {
	query := `
		SELECT id, full_name, specialty, clinic, email, phone, created_at, updated_at
		FROM doctors
	`
	args := []any{}
	if specialty != "" {
		query += ` WHERE specialty = ?`
		args = append(args, specialty)
	}
	query += ` ORDER BY full_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []*models.Doctor
	for rows.Next() {
		var doctor models.Doctor
		var clinic, email, phone sql.NullString
		var createdAt, updatedAt string

		err := rows.Scan(
			&doctor.ID,
			&doctor.FullName,
			&doctor.Specialty,
			&clinic,
			&email,
			&phone,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		doctor.Clinic = clinic.String
		doctor.Email = email.String
		doctor.Phone = phone.String
		doctor.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		doctor.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		doctors = append(doctors, &doctor)
	}

	return doctors, rows.Err()
}
