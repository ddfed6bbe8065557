package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteScoreRepository implements ScoreRepository for SQLite/libsql.
type SQLiteScoreRepository struct {
	db *sql.DB
}

// NewSQLiteScoreRepository creates a new SQLite score repository.
func NewSQLiteScoreRepository(db *sql.DB) *SQLiteScoreRepository {
	return &SQLiteScoreRepository{db: db}
}

// Upsert stores the score for (user, date), replacing any previous
// computation for that day.
func (r *SQLiteScoreRepository) Upsert(ctx context.Context, score *models.HealthScore) error {
	if score.ID == "" {
		score.ID = ulid.Make().String()
	}
	score.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO health_scores (
			id, user_id, date, total, vitals, sleep, activity, biomarker,
			unmapped_metrics, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			total = excluded.total,
			vitals = excluded.vitals,
			sleep = excluded.sleep,
			activity = excluded.activity,
			biomarker = excluded.biomarker,
			unmapped_metrics = excluded.unmapped_metrics,
			created_at = excluded.created_at
	`,
		score.ID,
		score.UserID,
		score.Date,
		score.Total,
		score.Vitals,
		score.Sleep,
		score.Activity,
		score.Biomarker,
		score.UnmappedMetrics,
		score.CreatedAt.Format(time.RFC3339),
	)

	return err
}

// GetByUserAndDate retrieves the score for one day.
func (r *SQLiteScoreRepository) GetByUserAndDate(ctx context.Context, userID, date string) (*models.HealthScore, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, total, vitals, sleep, activity, biomarker,
			   unmapped_metrics, created_at
		FROM health_scores
		WHERE user_id = ? AND date = ?
	`, userID, date)

	score, err := scanHealthScore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return score, err
}

// GetByUserAndRange returns scores for dates in [fromDate, toDate].
func (r *SQLiteScoreRepository) GetByUserAndRange(ctx context.Context, userID, fromDate, toDate string) ([]*models.HealthScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, total, vitals, sleep, activity, biomarker,
			   unmapped_metrics, created_at
		FROM health_scores
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`, userID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []*models.HealthScore
	for rows.Next() {
		score, err := scanHealthScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}

	return scores, rows.Err()
}

func scanHealthScore(s scanner) (*models.HealthScore, error) {
	var score models.HealthScore
	var vitals, sleep, activity, biomarker sql.NullInt64
	var createdAt string

	err := s.Scan(
		&score.ID,
		&score.UserID,
		&score.Date,
		&score.Total,
		&vitals,
		&sleep,
		&activity,
		&biomarker,
		&score.UnmappedMetrics,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	score.Vitals = intPtr(vitals)
	score.Sleep = intPtr(sleep)
	score.Activity = intPtr(activity)
	score.Biomarker = intPtr(biomarker)
	score.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &score, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
