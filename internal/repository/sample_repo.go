package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteMetricSampleRepository implements MetricSampleRepository for
// SQLite/libsql.
type SQLiteMetricSampleRepository struct {
	db *sql.DB
}

// NewSQLiteMetricSampleRepository creates a new SQLite metric sample repository.
func NewSQLiteMetricSampleRepository(db *sql.DB) *SQLiteMetricSampleRepository {
	return &SQLiteMetricSampleRepository{db: db}
}

// Create stores one sample.
func (r *SQLiteMetricSampleRepository) Create(ctx context.Context, sample *models.MetricSample) error {
	if sample.ID == "" {
		sample.ID = ulid.Make().String()
	}
	sample.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metric_samples (
			id, user_id, connection_id, domain, external_name, canonical_key,
			value, unit, recorded_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sample.ID,
		sample.UserID,
		nullIfEmpty(sample.ConnectionID),
		sample.Domain,
		sample.ExternalName,
		sample.CanonicalKey,
		sample.Value,
		sample.Unit,
		sample.RecordedAt.Format(time.RFC3339),
		sample.CreatedAt.Format(time.RFC3339),
	)

	return err
}

// CreateBatch stores samples in a single transaction. Webhook payloads
// carry dozens of readings; all-or-nothing keeps partial batches out of
// the scoring input.
func (r *SQLiteMetricSampleRepository) CreateBatch(ctx context.Context, samples []*models.MetricSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metric_samples (
			id, user_id, connection_id, domain, external_name, canonical_key,
			value, unit, recorded_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, sample := range samples {
		if sample.ID == "" {
			sample.ID = ulid.Make().String()
		}
		sample.CreatedAt = now

		_, err := stmt.ExecContext(ctx,
			sample.ID,
			sample.UserID,
			nullIfEmpty(sample.ConnectionID),
			sample.Domain,
			sample.ExternalName,
			sample.CanonicalKey,
			sample.Value,
			sample.Unit,
			sample.RecordedAt.Format(time.RFC3339),
			now.Format(time.RFC3339),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByUserAndDate returns samples recorded on the given date (YYYY-MM-DD).
func (r *SQLiteMetricSampleRepository) GetByUserAndDate(ctx context.Context, userID, date string) ([]*models.MetricSample, error) {
	rows, err := r.db.QueryContext(ctx, sampleSelect+`
		WHERE user_id = ? AND substr(recorded_at, 1, 10) = ?
		ORDER BY recorded_at
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// GetByUserAndKey returns a user's samples for one canonical key within
// [from, to).
func (r *SQLiteMetricSampleRepository) GetByUserAndKey(ctx context.Context, userID, canonicalKey string, from, to time.Time) ([]*models.MetricSample, error) {
	rows, err := r.db.QueryContext(ctx, sampleSelect+`
		WHERE user_id = ? AND canonical_key = ? AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at
	`, userID, canonicalKey, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSamples(rows)
}

// CountUnmapped returns how many of a user's samples have no canonical key.
func (r *SQLiteMetricSampleRepository) CountUnmapped(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM metric_samples WHERE user_id = ? AND canonical_key = ''
	`, userID).Scan(&count)
	return count, err
}

const sampleSelect = `
	SELECT id, user_id, connection_id, domain, external_name, canonical_key,
		   value, unit, recorded_at, created_at
	FROM metric_samples
`

func scanSamples(rows *sql.Rows) ([]*models.MetricSample, error) {
	var samples []*models.MetricSample
	for rows.Next() {
		var sample models.MetricSample
		var connectionID, unit sql.NullString
		var recordedAt, createdAt string

		err := rows.Scan(
			&sample.ID,
			&sample.UserID,
			&connectionID,
			&sample.Domain,
			&sample.ExternalName,
			&sample.CanonicalKey,
			&sample.Value,
			&unit,
			&recordedAt,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		sample.ConnectionID = connectionID.String
		sample.Unit = unit.String
		sample.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		sample.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		samples = append(samples, &sample)
	}
	return samples, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
