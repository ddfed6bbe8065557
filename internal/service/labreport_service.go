package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// LabReportService manages lab reports, their LOINC-coded results and
// the original uploaded documents.
type LabReportService struct {
	repos    *repository.Repositories
	storage  *StorageService
	resolver canonical.Resolver
	logger   *slog.Logger
}

// NewLabReportService creates a new lab report service.
func NewLabReportService(repos *repository.Repositories, storage *StorageService, resolver canonical.Resolver, logger *slog.Logger) *LabReportService {
	return &LabReportService{
		repos:    repos,
		storage:  storage,
		resolver: resolver,
		logger:   logger,
	}
}

// CreateReportInput carries a new report with optional results and an
// optional original document.
type CreateReportInput struct {
	Title      string
	LabName    string
	ReportedAt *time.Time
	Results    []ResultInput
	Document   []byte
	DocType    string
}

// ResultInput is one LOINC-coded measurement.
type ResultInput struct {
	LoincCode     string
	Name          string
	Value         float64
	Unit          string
	ReferenceLow  *float64
	ReferenceHigh *float64
}

// CreateReport stores a report, its results and, when provided and
// storage is enabled, the original document.
func (s *LabReportService) CreateReport(ctx context.Context, userID string, input CreateReportInput) (*models.LabReport, error) {
	report := &models.LabReport{
		UserID:     userID,
		Title:      input.Title,
		LabName:    input.LabName,
		Status:     "complete",
		ReportedAt: input.ReportedAt,
	}
	if err := s.repos.LabReport.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	for _, res := range input.Results {
		result := &models.LabResult{
			ReportID:      report.ID,
			LoincCode:     res.LoincCode,
			Name:          res.Name,
			Value:         res.Value,
			Unit:          res.Unit,
			ReferenceLow:  res.ReferenceLow,
			ReferenceHigh: res.ReferenceHigh,
		}
		if err := s.repos.LabReport.CreateResult(ctx, result); err != nil {
			return nil, fmt.Errorf("failed to create result: %w", err)
		}
	}

	if len(input.Document) > 0 && s.storage.IsEnabled() {
		key, err := s.storage.StoreReportDocument(ctx, report.ID, input.DocType, input.Document)
		if err != nil {
			s.logger.Warn("failed to store report document", "report_id", report.ID, "error", err)
		} else {
			report.FileKey = key
			if err := s.repos.LabReport.Update(ctx, report); err != nil {
				return nil, fmt.Errorf("failed to save file key: %w", err)
			}
		}
	}

	s.logger.Info("lab report created",
		"report_id", report.ID,
		"user_id", userID,
		"results", len(input.Results),
	)
	return report, nil
}

// GetReport returns a report with its results after verifying ownership.
func (s *LabReportService) GetReport(ctx context.Context, userID, reportID string) (*models.LabReport, []*models.LabResult, error) {
	report, err := s.repos.LabReport.GetByID(ctx, reportID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil || report.UserID != userID {
		return nil, nil, nil
	}

	results, err := s.repos.LabReport.GetResults(ctx, reportID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get results: %w", err)
	}
	return report, results, nil
}

// ListReports returns a user's reports.
func (s *LabReportService) ListReports(ctx context.Context, userID string) ([]*models.LabReport, error) {
	return s.repos.LabReport.GetByUserID(ctx, userID)
}

// DeleteReport removes a report, its results and its stored document.
func (s *LabReportService) DeleteReport(ctx context.Context, userID, reportID string) error {
	report, err := s.repos.LabReport.GetByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil || report.UserID != userID {
		return fmt.Errorf("report not found")
	}

	if err := s.storage.DeleteReportDocument(ctx, report.FileKey); err != nil {
		s.logger.Warn("failed to delete report document", "report_id", reportID, "error", err)
	}

	return s.repos.LabReport.Delete(ctx, reportID)
}

// DocumentURL returns a presigned download URL for a report's original
// document.
func (s *LabReportService) DocumentURL(ctx context.Context, userID, reportID string) (string, error) {
	report, err := s.repos.LabReport.GetByID(ctx, reportID)
	if err != nil {
		return "", fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil || report.UserID != userID {
		return "", fmt.Errorf("report not found")
	}
	if report.FileKey == "" {
		return "", fmt.Errorf("report has no stored document")
	}

	return s.storage.GetDocumentPresignedURL(ctx, report.FileKey, 0)
}

// ResolveResultKeys maps a report's LOINC codes to canonical keys.
// Unknown codes map to an empty key.
func (s *LabReportService) ResolveResultKeys(results []*models.LabResult) map[string]string {
	keys := make(map[string]string, len(results))
	for _, res := range results {
		key, ok := s.resolver.Resolve(canonical.DomainBiomarker, res.LoincCode)
		if !ok {
			key = ""
		}
		keys[res.LoincCode] = string(key)
	}
	return keys
}
