package handlers

import (
	"context"
	"database/sql"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/database"
)

// SchemaHandler exposes migration ledger state for operators.
type SchemaHandler struct {
	db *sql.DB
}

// NewSchemaHandler creates a new schema status handler.
func NewSchemaHandler(db *sql.DB) *SchemaHandler {
	return &SchemaHandler{db: db}
}

// AppliedStepResponse is one audited migration step.
type AppliedStepResponse struct {
	Revision  string `json:"revision"`
	Label     string `json:"label"`
	AppliedAt string `json:"applied_at"`
}

// SchemaStatusOutput reports the schema marker and the step audit.
type SchemaStatusOutput struct {
	Body struct {
		Revision string                `json:"revision" doc:"Current schema revision marker"`
		Pending  int                   `json:"pending" doc:"Steps between the marker and the chain tip"`
		Steps    []AppliedStepResponse `json:"steps"`
	}
}

// Status reports the current schema revision and applied step history.
func (h *SchemaHandler) Status(ctx context.Context, input *struct{}) (*SchemaStatusOutput, error) {
	revision, err := database.CurrentRevision(h.db)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read schema revision")
	}

	steps, err := database.AppliedSteps(h.db)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to read step audit")
	}

	pending, err := database.PendingSteps(h.db)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to compute pending steps")
	}

	out := &SchemaStatusOutput{}
	out.Body.Revision = revision
	out.Body.Pending = len(pending)
	for _, s := range steps {
		out.Body.Steps = append(out.Body.Steps, AppliedStepResponse{
			Revision:  s.Revision,
			Label:     s.Label,
			AppliedAt: s.AppliedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}
