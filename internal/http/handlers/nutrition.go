package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
)

// NutritionHandler handles nutrition log endpoints.
type NutritionHandler struct {
	repo repository.NutritionRepository
}

// NewNutritionHandler creates a new nutrition handler.
func NewNutritionHandler(repo repository.NutritionRepository) *NutritionHandler {
	return &NutritionHandler{repo: repo}
}

// NutritionLogResponse represents a logged meal in responses.
type NutritionLogResponse struct {
	ID           string  `json:"id"`
	LoggedAt     string  `json:"logged_at"`
	Meal         string  `json:"meal"`
	Description  string  `json:"description,omitempty"`
	CaloriesKcal float64 `json:"calories_kcal"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
}

func toNutritionResponse(l *models.NutritionLog) NutritionLogResponse {
	return NutritionLogResponse{
		ID:           l.ID,
		LoggedAt:     l.LoggedAt.Format(time.RFC3339),
		Meal:         l.Meal,
		Description:  l.Description,
		CaloriesKcal: l.CaloriesKcal,
		ProteinG:     l.ProteinG,
		CarbsG:       l.CarbsG,
		FatG:         l.FatG,
	}
}

// CreateNutritionLogInput represents a meal log request.
type CreateNutritionLogInput struct {
	Body struct {
		LoggedAt     string  `json:"logged_at,omitempty" doc:"RFC3339 time of the meal, defaults to now"`
		Meal         string  `json:"meal" enum:"breakfast,lunch,dinner,snack"`
		Description  string  `json:"description,omitempty"`
		CaloriesKcal float64 `json:"calories_kcal" minimum:"0"`
		ProteinG     float64 `json:"protein_g,omitempty" minimum:"0"`
		CarbsG       float64 `json:"carbs_g,omitempty" minimum:"0"`
		FatG         float64 `json:"fat_g,omitempty" minimum:"0"`
	}
}

// NutritionLogOutput represents a single log response.
type NutritionLogOutput struct {
	Body NutritionLogResponse
}

// CreateLog records a meal.
func (h *NutritionHandler) CreateLog(ctx context.Context, input *CreateNutritionLogInput) (*NutritionLogOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	loggedAt := time.Now().UTC()
	if input.Body.LoggedAt != "" {
		t, err := time.Parse(time.RFC3339, input.Body.LoggedAt)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid logged_at format")
		}
		loggedAt = t
	}

	log := &models.NutritionLog{
		UserID:       userID,
		LoggedAt:     loggedAt,
		Meal:         input.Body.Meal,
		Description:  input.Body.Description,
		CaloriesKcal: input.Body.CaloriesKcal,
		ProteinG:     input.Body.ProteinG,
		CarbsG:       input.Body.CarbsG,
		FatG:         input.Body.FatG,
	}
	if err := h.repo.Create(ctx, log); err != nil {
		return nil, huma.Error500InternalServerError("failed to create log")
	}
	return &NutritionLogOutput{Body: toNutritionResponse(log)}, nil
}

// ListNutritionLogsInput represents a range query for logs.
type ListNutritionLogsInput struct {
	From string `query:"from" doc:"Start date (YYYY-MM-DD), defaults to 7 days ago"`
	To   string `query:"to" doc:"End date (YYYY-MM-DD, exclusive), defaults to tomorrow"`
}

// ListNutritionLogsOutput represents the log list response.
type ListNutritionLogsOutput struct {
	Body struct {
		Logs []NutritionLogResponse `json:"logs"`
	}
}

// ListLogs lists logs in a date range.
func (h *NutritionHandler) ListLogs(ctx context.Context, input *ListNutritionLogsInput) (*ListNutritionLogsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7).Truncate(24 * time.Hour)
	to := now.AddDate(0, 0, 1).Truncate(24 * time.Hour)

	if input.From != "" {
		t, err := time.Parse("2006-01-02", input.From)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid from date")
		}
		from = t
	}
	if input.To != "" {
		t, err := time.Parse("2006-01-02", input.To)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid to date")
		}
		to = t
	}

	logs, err := h.repo.GetByUserAndRange(ctx, userID, from, to)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list logs")
	}

	out := &ListNutritionLogsOutput{}
	for _, l := range logs {
		out.Body.Logs = append(out.Body.Logs, toNutritionResponse(l))
	}
	return out, nil
}

// DeleteNutritionLogInput represents a log deletion request.
type DeleteNutritionLogInput struct {
	ID string `path:"id"`
}

// DeleteNutritionLogOutput represents a log deletion response.
type DeleteNutritionLogOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteLog deletes a meal log after verifying ownership.
func (h *NutritionHandler) DeleteLog(ctx context.Context, input *DeleteNutritionLogInput) (*DeleteNutritionLogOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	log, err := h.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get log")
	}
	if log == nil || log.UserID != userID {
		return nil, huma.Error404NotFound("log not found")
	}

	if err := h.repo.Delete(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete log")
	}

	out := &DeleteNutritionLogOutput{}
	out.Body.Success = true
	return out, nil
}
