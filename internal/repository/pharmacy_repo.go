package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLitePharmacyRepository implements PharmacyRepository for SQLite/libsql.
type SQLitePharmacyRepository struct {
	db *sql.DB
}

// NewSQLitePharmacyRepository creates a new SQLite pharmacy repository.
func NewSQLitePharmacyRepository(db *sql.DB) *SQLitePharmacyRepository {
	return &SQLitePharmacyRepository{db: db}
}

// Create places a new pharmacy order.
func (r *SQLitePharmacyRepository) Create(ctx context.Context, order *models.PharmacyOrder) error {
	now := time.Now()
	if order.ID == "" {
		order.ID = ulid.Make().String()
	}
	if order.Status == "" {
		order.Status = "placed"
	}
	if order.OrderedAt.IsZero() {
		order.OrderedAt = now
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pharmacy_orders (
			id, user_id, medication, dosage, quantity, status,
			ordered_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		order.ID,
		order.UserID,
		order.Medication,
		order.Dosage,
		order.Quantity,
		order.Status,
		order.OrderedAt.Format(time.RFC3339),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves an order by ID.
func (r *SQLitePharmacyRepository) GetByID(ctx context.Context, id string) (*models.PharmacyOrder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, medication, dosage, quantity, status,
			   ordered_at, created_at, updated_at
		FROM pharmacy_orders
		WHERE id = ?
	`, id)

	order, err := scanPharmacyOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return order, err
}

// GetByUserID returns a user's orders, newest first.
func (r *SQLitePharmacyRepository) GetByUserID(ctx context.Context, userID string) ([]*models.PharmacyOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, medication, dosage, quantity, status,
			   ordered_at, created_at, updated_at
		FROM pharmacy_orders
		WHERE user_id = ?
		ORDER BY ordered_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.PharmacyOrder
	for rows.Next() {
		order, err := scanPharmacyOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// UpdateStatus advances an order's status.
func (r *SQLitePharmacyRepository) UpdateStatus(ctx context.Context, id, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE pharmacy_orders SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().Format(time.RFC3339), id)
	return err
}

func scanPharmacyOrder(s scanner) (*models.PharmacyOrder, error) {
	var order models.PharmacyOrder
	var dosage sql.NullString
	var orderedAt, createdAt, updatedAt string

	err := s.Scan(
		&order.ID,
		&order.UserID,
		&order.Medication,
		&dosage,
		&order.Quantity,
		&order.Status,
		&orderedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Dosage = dosage.String
	order.OrderedAt, _ = time.Parse(time.RFC3339, orderedAt)
	order.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	order.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &order, nil
}
