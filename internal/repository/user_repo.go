package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteUserRepository implements UserRepository for SQLite/libsql.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Create creates a new user.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.ID == "" {
		user.ID = ulid.Make().String()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, email, password_hash, display_name, date_of_birth, sex,
			height_cm, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.DateOfBirth,
		user.Sex,
		user.HeightCm,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves a user by ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, date_of_birth, sex,
			   height_cm, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id)

	return r.scanUser(row)
}

// GetByEmail retrieves a user by email.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, display_name, date_of_birth, sex,
			   height_cm, created_at, updated_at
		FROM users
		WHERE email = ?
	`, email)

	return r.scanUser(row)
}

// Update updates an existing user.
func (r *SQLiteUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?,
			password_hash = ?,
			display_name = ?,
			date_of_birth = ?,
			sex = ?,
			height_cm = ?,
			updated_at = ?
		WHERE id = ?
	`,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.DateOfBirth,
		user.Sex,
		user.HeightCm,
		user.UpdatedAt.Format(time.RFC3339),
		user.ID,
	)

	return err
}

// Delete removes a user and, via foreign keys, all their data.
func (r *SQLiteUserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// scanUser scans a single row into a User.
func (r *SQLiteUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var dateOfBirth, sex sql.NullString
	var heightCm sql.NullFloat64
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&dateOfBirth,
		&sex,
		&heightCm,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if dateOfBirth.Valid {
		user.DateOfBirth = dateOfBirth.String
	}
	if sex.Valid {
		user.Sex = sex.String
	}
	if heightCm.Valid {
		user.HeightCm = heightCm.Float64
	}

	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	user.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &user, nil
}
