package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteNutritionRepository implements NutritionRepository for SQLite/libsql.
type SQLiteNutritionRepository struct {
	db *sql.DB
}

// NewSQLiteNutritionRepository creates a new SQLite nutrition repository.
func NewSQLiteNutritionRepository(db *sql.DB) *SQLiteNutritionRepository {
	return &SQLiteNutritionRepository{db: db}
}

// Create logs a meal.
func (r *SQLiteNutritionRepository) Create(ctx context.Context, log *models.NutritionLog) error {
	if log.ID == "" {
		log.ID = ulid.Make().String()
	}
	log.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO nutrition_logs (
			id, user_id, logged_at, meal, description,
			calories_kcal, protein_g, carbs_g, fat_g, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		log.ID,
		log.UserID,
		log.LoggedAt.Format(time.RFC3339),
		log.Meal,
		log.Description,
		log.CaloriesKcal,
		log.ProteinG,
		log.CarbsG,
		log.FatG,
		log.CreatedAt.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves a nutrition log by ID.
func (r *SQLiteNutritionRepository) GetByID(ctx context.Context, id string) (*models.NutritionLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, logged_at, meal, description,
			   calories_kcal, protein_g, carbs_g, fat_g, created_at
		FROM nutrition_logs
		WHERE id = ?
	`, id)

	log, err := scanNutritionLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return log, err
}

// GetByUserAndRange returns a user's logs within [from, to).
func (r *SQLiteNutritionRepository) GetByUserAndRange(ctx context.Context, userID string, from, to time.Time) ([]*models.NutritionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, logged_at, meal, description,
			   calories_kcal, protein_g, carbs_g, fat_g, created_at
		FROM nutrition_logs
		WHERE user_id = ? AND logged_at >= ? AND logged_at < ?
		ORDER BY logged_at
	`, userID, from.Format(time.RFC3339), to.Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.NutritionLog
	for rows.Next() {
		log, err := scanNutritionLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// Delete removes a nutrition log by ID.
func (r *SQLiteNutritionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM nutrition_logs WHERE id = ?`, id)
	return err
}

func scanNutritionLog(s scanner) (*models.NutritionLog, error) {
	var log models.NutritionLog
	var description sql.NullString
	var loggedAt, createdAt string

	err := s.Scan(
		&log.ID,
		&log.UserID,
		&loggedAt,
		&log.Meal,
		&description,
		&log.CaloriesKcal,
		&log.ProteinG,
		&log.CarbsG,
		&log.FatG,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	log.Description = description.String
	log.LoggedAt, _ = time.Parse(time.RFC3339, loggedAt)
	log.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &log, nil
}
