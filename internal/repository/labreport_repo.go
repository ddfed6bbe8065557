package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

// SQLiteLabReportRepository implements LabReportRepository for SQLite/libsql.
type SQLiteLabReportRepository struct {
	db *sql.DB
}

// NewSQLiteLabReportRepository creates a new SQLite lab report repository.
func NewSQLiteLabReportRepository(db *sql.DB) *SQLiteLabReportRepository {
	return &SQLiteLabReportRepository{db: db}
}

// Create creates a new lab report.
func (r *SQLiteLabReportRepository) Create(ctx context.Context, report *models.LabReport) error {
	now := time.Now()
	if report.ID == "" {
		report.ID = ulid.Make().String()
	}
	if report.Status == "" {
		report.Status = "pending"
	}
	report.CreatedAt = now
	report.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lab_reports (
			id, user_id, title, lab_name, file_key, status, reported_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.UserID,
		report.Title,
		report.LabName,
		report.FileKey,
		report.Status,
		formatTimePtr(report.ReportedAt),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)

	return err
}

// GetByID retrieves a lab report by ID.
func (r *SQLiteLabReportRepository) GetByID(ctx context.Context, id string) (*models.LabReport, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, lab_name, file_key, status, reported_at,
			   created_at, updated_at
		FROM lab_reports
		WHERE id = ?
	`, id)

	report, err := scanLabReport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return report, err
}

// GetByUserID returns a user's lab reports, newest first.
func (r *SQLiteLabReportRepository) GetByUserID(ctx context.Context, userID string) ([]*models.LabReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, lab_name, file_key, status, reported_at,
			   created_at, updated_at
		FROM lab_reports
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.LabReport
	for rows.Next() {
		report, err := scanLabReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// Update updates an existing lab report.
func (r *SQLiteLabReportRepository) Update(ctx context.Context, report *models.LabReport) error {
	report.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		UPDATE lab_reports SET
			title = ?,
			lab_name = ?,
			file_key = ?,
			status = ?,
			reported_at = ?,
			updated_at = ?
		WHERE id = ?
	`,
		report.Title,
		report.LabName,
		report.FileKey,
		report.Status,
		formatTimePtr(report.ReportedAt),
		report.UpdatedAt.Format(time.RFC3339),
		report.ID,
	)

	return err
}

// Delete removes a report and, via foreign keys, its results.
func (r *SQLiteLabReportRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM lab_reports WHERE id = ?`, id)
	return err
}

// CreateResult adds a LOINC-coded result to a report.
func (r *SQLiteLabReportRepository) CreateResult(ctx context.Context, result *models.LabResult) error {
	if result.ID == "" {
		result.ID = ulid.Make().String()
	}
	result.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lab_results (
			id, report_id, loinc_code, name, value, unit,
			reference_low, reference_high, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.ID,
		result.ReportID,
		result.LoincCode,
		result.Name,
		result.Value,
		result.Unit,
		result.ReferenceLow,
		result.ReferenceHigh,
		result.CreatedAt.Format(time.RFC3339),
	)

	return err
}

// GetResults returns a report's results.
func (r *SQLiteLabReportRepository) GetResults(ctx context.Context, reportID string) ([]*models.LabResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, report_id, loinc_code, name, value, unit,
			   reference_low, reference_high, created_at
		FROM lab_results
		WHERE report_id = ?
		ORDER BY id
	`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLabResults(rows)
}

// GetResultsByUserAndDate returns results whose report was reported on
// the given date (YYYY-MM-DD).
func (r *SQLiteLabReportRepository) GetResultsByUserAndDate(ctx context.Context, userID, date string) ([]*models.LabResult, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT lr.id, lr.report_id, lr.loinc_code, lr.name, lr.value, lr.unit,
			   lr.reference_low, lr.reference_high, lr.created_at
		FROM lab_results lr
		JOIN lab_reports rep ON rep.id = lr.report_id
		WHERE rep.user_id = ?
		  AND rep.reported_at IS NOT NULL
		  AND substr(rep.reported_at, 1, 10) = ?
		ORDER BY lr.id
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLabResults(rows)
}

func scanLabReport(s scanner) (*models.LabReport, error) {
	var report models.LabReport
	var labName, fileKey, reportedAt sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&report.ID,
		&report.UserID,
		&report.Title,
		&labName,
		&fileKey,
		&report.Status,
		&reportedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.LabName = labName.String
	report.FileKey = fileKey.String
	report.ReportedAt = parseTimePtr(reportedAt)
	report.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	report.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &report, nil
}

func scanLabResults(rows *sql.Rows) ([]*models.LabResult, error) {
	var results []*models.LabResult
	for rows.Next() {
		var result models.LabResult
		var unit sql.NullString
		var refLow, refHigh sql.NullFloat64
		var createdAt string

		err := rows.Scan(
			&result.ID,
			&result.ReportID,
			&result.LoincCode,
			&result.Name,
			&result.Value,
			&unit,
			&refLow,
			&refHigh,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		result.Unit = unit.String
		if refLow.Valid {
			result.ReferenceLow = &refLow.Float64
		}
		if refHigh.Valid {
			result.ReferenceHigh = &refHigh.Float64
		}
		result.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		results = append(results, &result)
	}
	return results, rows.Err()
}
