package handlers

import (
	"context"
	"encoding/base64"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// LabReportsHandler handles lab report endpoints.
type LabReportsHandler struct {
	svc *service.LabReportService
}

// NewLabReportsHandler creates a new lab reports handler.
func NewLabReportsHandler(svc *service.LabReportService) *LabReportsHandler {
	return &LabReportsHandler{svc: svc}
}

// LabReportResponse represents a report in responses.
type LabReportResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	LabName     string `json:"lab_name,omitempty"`
	Status      string `json:"status"`
	ReportedAt  string `json:"reported_at,omitempty"`
	HasDocument bool   `json:"has_document"`
	CreatedAt   string `json:"created_at"`
}

// LabResultResponse represents one LOINC-coded result.
type LabResultResponse struct {
	ID            string   `json:"id"`
	LoincCode     string   `json:"loinc_code"`
	Name          string   `json:"name"`
	Value         float64  `json:"value"`
	Unit          string   `json:"unit,omitempty"`
	ReferenceLow  *float64 `json:"reference_low,omitempty"`
	ReferenceHigh *float64 `json:"reference_high,omitempty"`
	CanonicalKey  string   `json:"canonical_key,omitempty" doc:"Resolved registry key, empty when unmapped"`
}

func toReportResponse(r *models.LabReport) LabReportResponse {
	return LabReportResponse{
		ID:          r.ID,
		Title:       r.Title,
		LabName:     r.LabName,
		Status:      r.Status,
		ReportedAt:  formatTime(r.ReportedAt),
		HasDocument: r.FileKey != "",
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateReportInput represents a report creation request. The original
// document travels base64-encoded.
type CreateReportInput struct {
	Body struct {
		Title      string `json:"title" minLength:"1"`
		LabName    string `json:"lab_name,omitempty"`
		ReportedAt string `json:"reported_at,omitempty" doc:"RFC3339 time the lab reported"`
		Results    []struct {
			LoincCode     string   `json:"loinc_code" minLength:"1" doc:"LOINC code, e.g. 4548-4"`
			Name          string   `json:"name"`
			Value         float64  `json:"value"`
			Unit          string   `json:"unit,omitempty"`
			ReferenceLow  *float64 `json:"reference_low,omitempty"`
			ReferenceHigh *float64 `json:"reference_high,omitempty"`
		} `json:"results,omitempty"`
		Document     string `json:"document,omitempty" doc:"Base64-encoded original document"`
		DocumentType string `json:"document_type,omitempty" doc:"Content type of the document, e.g. application/pdf"`
	}
}

// ReportOutput represents a single report response.
type ReportOutput struct {
	Body LabReportResponse
}

// CreateReport stores a report, its results and the optional document.
func (h *LabReportsHandler) CreateReport(ctx context.Context, input *CreateReportInput) (*ReportOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	reportedAt, err := parseTime(input.Body.ReportedAt)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid reported_at format")
	}

	var document []byte
	if input.Body.Document != "" {
		document, err = base64.StdEncoding.DecodeString(input.Body.Document)
		if err != nil {
			return nil, huma.Error400BadRequest("document must be base64-encoded")
		}
	}

	svcInput := service.CreateReportInput{
		Title:      input.Body.Title,
		LabName:    input.Body.LabName,
		ReportedAt: reportedAt,
		Document:   document,
		DocType:    input.Body.DocumentType,
	}
	for _, res := range input.Body.Results {
		svcInput.Results = append(svcInput.Results, service.ResultInput{
			LoincCode:     res.LoincCode,
			Name:          res.Name,
			Value:         res.Value,
			Unit:          res.Unit,
			ReferenceLow:  res.ReferenceLow,
			ReferenceHigh: res.ReferenceHigh,
		})
	}

	report, err := h.svc.CreateReport(ctx, userID, svcInput)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to create report")
	}
	return &ReportOutput{Body: toReportResponse(report)}, nil
}

// ListReportsOutput represents the report list response.
type ListReportsOutput struct {
	Body struct {
		Reports []LabReportResponse `json:"reports"`
	}
}

// ListReports lists the user's reports.
func (h *LabReportsHandler) ListReports(ctx context.Context, input *struct{}) (*ListReportsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	reports, err := h.svc.ListReports(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list reports")
	}

	out := &ListReportsOutput{}
	for _, r := range reports {
		out.Body.Reports = append(out.Body.Reports, toReportResponse(r))
	}
	return out, nil
}

// GetReportInput represents a report fetch request.
type GetReportInput struct {
	ID string `path:"id"`
}

// GetReportOutput represents a report with its results. Each result
// carries the canonical key the registry resolved for its LOINC code.
type GetReportOutput struct {
	Body struct {
		Report  LabReportResponse   `json:"report"`
		Results []LabResultResponse `json:"results"`
	}
}

// GetReport fetches a report with its results.
func (h *LabReportsHandler) GetReport(ctx context.Context, input *GetReportInput) (*GetReportOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	report, results, err := h.svc.GetReport(ctx, userID, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get report")
	}
	if report == nil {
		return nil, huma.Error404NotFound("report not found")
	}

	keys := h.svc.ResolveResultKeys(results)

	out := &GetReportOutput{}
	out.Body.Report = toReportResponse(report)
	for _, res := range results {
		out.Body.Results = append(out.Body.Results, LabResultResponse{
			ID:            res.ID,
			LoincCode:     res.LoincCode,
			Name:          res.Name,
			Value:         res.Value,
			Unit:          res.Unit,
			ReferenceLow:  res.ReferenceLow,
			ReferenceHigh: res.ReferenceHigh,
			CanonicalKey:  keys[res.LoincCode],
		})
	}
	return out, nil
}

// ReportDocumentInput represents a document URL request.
type ReportDocumentInput struct {
	ID string `path:"id"`
}

// ReportDocumentOutput carries a presigned download URL.
type ReportDocumentOutput struct {
	Body struct {
		URL string `json:"url" doc:"Presigned download URL, valid for one hour"`
	}
}

// GetReportDocument returns a presigned URL for the original document.
func (h *LabReportsHandler) GetReportDocument(ctx context.Context, input *ReportDocumentInput) (*ReportDocumentOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	url, err := h.svc.DocumentURL(ctx, userID, input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("report has no stored document")
	}

	out := &ReportDocumentOutput{}
	out.Body.URL = url
	return out, nil
}

// DeleteReportInput represents a report deletion request.
type DeleteReportInput struct {
	ID string `path:"id"`
}

// DeleteReportOutput represents a report deletion response.
type DeleteReportOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteReport deletes a report, its results and any stored document.
func (h *LabReportsHandler) DeleteReport(ctx context.Context, input *DeleteReportInput) (*DeleteReportOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.svc.DeleteReport(ctx, userID, input.ID); err != nil {
		return nil, huma.Error404NotFound("report not found")
	}

	out := &DeleteReportOutput{}
	out.Body.Success = true
	return out, nil
}
