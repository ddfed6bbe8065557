package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteAPIKeyRepository implements APIKeyRepository for SQLite/libsql.
type SQLiteAPIKeyRepository struct {
	db *sql.DB
}

// NewSQLiteAPIKeyRepository creates a new SQLite API key repository.
func NewSQLiteAPIKeyRepository(db *sql.DB) *SQLiteAPIKeyRepository {
	return &SQLiteAPIKeyRepository{db: db}
}

// Create creates a new API key record. Only the hash is stored; the
// plaintext key is shown to the user once at creation.
func (r *SQLiteAPIKeyRepository) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == "" {
		key.ID = ulid.Make().String()
	}
	key.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		key.ID,
		key.UserID,
		key.Name,
		key.KeyHash,
		key.KeyPrefix,
		key.CreatedAt.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves an API key by ID.
func (r *SQLiteAPIKeyRepository) GetByID(ctx context.Context, id string) (*models.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, last_used_at, created_at, revoked_at
		FROM api_keys
		WHERE id = ?
	`, id)

	return r.scanKey(row)
}

// GetByKeyHash retrieves an API key by its SHA-256 hash.
func (r *SQLiteAPIKeyRepository) GetByKeyHash(ctx context.Context, hash string) (*models.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, last_used_at, created_at, revoked_at
		FROM api_keys
		WHERE key_hash = ?
	`, hash)

	return r.scanKey(row)
}

// GetByUserID returns all API keys for a user, newest first.
func (r *SQLiteAPIKeyRepository) GetByUserID(ctx context.Context, userID string) ([]*models.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, key_hash, key_prefix, last_used_at, created_at, revoked_at
		FROM api_keys
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		key, err := r.scanKeyRow(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// UpdateLastUsed records when the key was last used for auth.
func (r *SQLiteAPIKeyRepository) UpdateLastUsed(ctx context.Context, id string, lastUsed time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE api_keys SET last_used_at = ? WHERE id = ?
	`, lastUsed.Format(time.RFC3339), id)
	return err
}

// Revoke marks the key revoked. Revoked keys fail auth but remain
// listed for audit.
func (r *SQLiteAPIKeyRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE api_keys SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteAPIKeyRepository) scanKey(row *sql.Row) (*models.APIKey, error) {
	var key models.APIKey
	var lastUsedAt, revokedAt sql.NullString
	var createdAt string

	err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.Name,
		&key.KeyHash,
		&key.KeyPrefix,
		&lastUsedAt,
		&createdAt,
		&revokedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastUsedAt.Valid {
		if t, err := time.Parse(time.RFC3339, lastUsedAt.String); err == nil {
			key.LastUsedAt = &t
		}
	}
	if revokedAt.Valid {
		if t, err := time.Parse(time.RFC3339, revokedAt.String); err == nil {
			key.RevokedAt = &t
		}
	}

	return &key, nil
}

func (r *SQLiteAPIKeyRepository) scanKeyRow(rows *sql.Rows) (*models.APIKey, error) {
	var key models.APIKey
	var lastUsedAt, revokedAt sql.NullString
	var createdAt string

	err := rows.Scan(
		&key.ID,
		&key.UserID,
		&key.Name,
		&key.KeyHash,
		&key.KeyPrefix,
		&lastUsedAt,
		&createdAt,
		&revokedAt,
	)
	if err != nil {
		return nil, err
	}

	key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if lastUsedAt.Valid {
		if t, err := time.Parse(time.RFC3339, lastUsedAt.String); err == nil {
			key.LastUsedAt = &t
		}
	}
	if revokedAt.Valid {
		if t, err := time.Parse(time.RFC3339, revokedAt.String); err == nil {
			key.RevokedAt = &t
		}
	}

	return &key, nil
}
