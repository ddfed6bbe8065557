package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteDeviceRepository implements DeviceRepository for SQLite/libsql.
// Token and webhook secret columns hold AES-256-GCM ciphertext; the
// repository never sees plaintext.
type SQLiteDeviceRepository struct {
	db *sql.DB
}

// NewSQLiteDeviceRepository creates a new SQLite device repository.
func NewSQLiteDeviceRepository(db *sql.DB) *SQLiteDeviceRepository {
	return &SQLiteDeviceRepository{db: db}
}

// Create creates a new device connection.
func (r *SQLiteDeviceRepository) Create(ctx context.Context, conn *models.DeviceConnection) error {
	now := time.Now()
	if conn.ID == "" {
		conn.ID = ulid.Make().String()
	}
	if conn.Status == "" {
		conn.Status = "connected"
	}
	conn.CreatedAt = now
	conn.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO device_connections (
			id, user_id, vendor, external_user_id,
			access_token_encrypted, refresh_token_encrypted, webhook_secret_encrypted,
			scopes, status, last_synced_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		conn.ID,
		conn.UserID,
		conn.Vendor,
		conn.ExternalUserID,
		conn.AccessTokenEncrypted,
		conn.RefreshTokenEncrypted,
		conn.WebhookSecretEncrypted,
		conn.Scopes,
		conn.Status,
		formatTimePtr(conn.LastSyncedAt),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves a device connection by ID.
func (r *SQLiteDeviceRepository) GetByID(ctx context.Context, id string) (*models.DeviceConnection, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

// GetByUserID returns all device connections for a user.
func (r *SQLiteDeviceRepository) GetByUserID(ctx context.Context, userID string) ([]*models.DeviceConnection, error) {
	rows, err := r.db.QueryContext(ctx, deviceSelect+`
		WHERE user_id = ?
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*models.DeviceConnection
	for rows.Next() {
		conn, err := scanDeviceConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}

	return conns, rows.Err()
}

// GetByUserAndVendor retrieves a user's connection for a vendor.
func (r *SQLiteDeviceRepository) GetByUserAndVendor(ctx context.Context, userID, vendor string) (*models.DeviceConnection, error) {
	return r.getOne(ctx, `WHERE user_id = ? AND vendor = ?`, userID, vendor)
}

// GetByVendorAndExternalID retrieves the connection a vendor webhook
// refers to.
func (r *SQLiteDeviceRepository) GetByVendorAndExternalID(ctx context.Context, vendor, externalUserID string) (*models.DeviceConnection, error) {
	return r.getOne(ctx, `WHERE vendor = ? AND external_user_id = ?`, vendor, externalUserID)
}

// Update updates an existing device connection.
func (r *SQLiteDeviceRepository) Update(ctx context.Context, conn *models.DeviceConnection) error {
	conn.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE device_connections SET
			external_user_id = ?,
			access_token_encrypted = ?,
			refresh_token_encrypted = ?,
			webhook_secret_encrypted = ?,
			scopes = ?,
			status = ?,
			last_synced_at = ?,
			updated_at = ?
		WHERE id = ?
	`,
		conn.ExternalUserID,
		conn.AccessTokenEncrypted,
		conn.RefreshTokenEncrypted,
		conn.WebhookSecretEncrypted,
		conn.Scopes,
		conn.Status,
		formatTimePtr(conn.LastSyncedAt),
		conn.UpdatedAt.Format(time.RFC3339),
		conn.ID,
	)

	return err
}

// Delete removes a device connection by ID.
func (r *SQLiteDeviceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM device_connections WHERE id = ?`, id)
	return err
}

// UpdateLastSynced records a successful sync.
func (r *SQLiteDeviceRepository) UpdateLastSynced(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE device_connections SET last_synced_at = ?, updated_at = ? WHERE id = ?
	`, at.Format(time.RFC3339), time.Now().Format(time.RFC3339), id)
	return err
}

const deviceSelect = `
	SELECT id, user_id, vendor, external_user_id,
		   access_token_encrypted, refresh_token_encrypted, webhook_secret_encrypted,
		   scopes, status, last_synced_at, created_at, updated_at
	FROM device_connections
`

func (r *SQLiteDeviceRepository) getOne(ctx context.Context, where string, args ...any) (*models.DeviceConnection, error) {
	row := r.db.QueryRowContext(ctx, deviceSelect+where, args...)

	conn, err := scanDeviceConnection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return conn, err
}

func scanDeviceConnection(s scanner) (*models.DeviceConnection, error) {
	var conn models.DeviceConnection
	var accessToken, refreshToken, webhookSecret, scopes, lastSyncedAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&conn.ID,
		&conn.UserID,
		&conn.Vendor,
		&conn.ExternalUserID,
		&accessToken,
		&refreshToken,
		&webhookSecret,
		&scopes,
		&conn.Status,
		&lastSyncedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	conn.AccessTokenEncrypted = accessToken.String
	conn.RefreshTokenEncrypted = refreshToken.String
	conn.WebhookSecretEncrypted = webhookSecret.String
	conn.Scopes = scopes.String
	conn.LastSyncedAt = parseTimePtr(lastSyncedAt)
	conn.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	conn.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &conn, nil
}
