package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/halcyonhealth/halcyon-api/internal/http/mw"
	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/service"
)

// ScoresHandler handles daily health score endpoints.
type ScoresHandler struct {
	svc     *service.ScoreService
	metrics *mw.MetricsCollector
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(svc *service.ScoreService, metrics *mw.MetricsCollector) *ScoresHandler {
	return &ScoresHandler{svc: svc, metrics: metrics}
}

// ScoreResponse represents a computed day. Sub-scores are omitted for
// domains the day had no data in.
type ScoreResponse struct {
	Date            string `json:"date"`
	Total           int    `json:"total"`
	Vitals          *int   `json:"vitals,omitempty"`
	Sleep           *int   `json:"sleep,omitempty"`
	Activity        *int   `json:"activity,omitempty"`
	Biomarker       *int   `json:"biomarker,omitempty"`
	UnmappedMetrics int    `json:"unmapped_metrics"`
}

func toScoreResponse(s *models.HealthScore) ScoreResponse {
	return ScoreResponse{
		Date:            s.Date,
		Total:           s.Total,
		Vitals:          s.Vitals,
		Sleep:           s.Sleep,
		Activity:        s.Activity,
		Biomarker:       s.Biomarker,
		UnmappedMetrics: s.UnmappedMetrics,
	}
}

// DailyScoreInput represents a daily score request.
type DailyScoreInput struct {
	Date string `query:"date" doc:"Day to score (YYYY-MM-DD), defaults to today"`
}

// ScoreOutput represents a single score response.
type ScoreOutput struct {
	Body ScoreResponse
}

// DailyScore returns the score for one day, computing and caching it
// when necessary.
func (h *ScoresHandler) DailyScore(ctx context.Context, input *DailyScoreInput) (*ScoreOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	date, err := normalizeDate(input.Date)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid date, want YYYY-MM-DD")
	}

	score, err := h.svc.DailyScore(ctx, userID, date)
	if err != nil {
		h.countComputation("error")
		return nil, huma.Error500InternalServerError("failed to compute score")
	}
	h.countComputation("ok")
	return &ScoreOutput{Body: toScoreResponse(score)}, nil
}

// RecomputeScoreInput represents a forced recompute request.
type RecomputeScoreInput struct {
	Body struct {
		Date string `json:"date,omitempty" doc:"Day to recompute (YYYY-MM-DD), defaults to today"`
	}
}

// Recompute drops the cached value and recomputes the day.
func (h *ScoresHandler) Recompute(ctx context.Context, input *RecomputeScoreInput) (*ScoreOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	date, err := normalizeDate(input.Body.Date)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid date, want YYYY-MM-DD")
	}

	score, err := h.svc.Recompute(ctx, userID, date)
	if err != nil {
		h.countComputation("error")
		return nil, huma.Error500InternalServerError("failed to recompute score")
	}
	h.countComputation("recompute")
	return &ScoreOutput{Body: toScoreResponse(score)}, nil
}

// ScoreHistoryInput represents a history range request.
type ScoreHistoryInput struct {
	From string `query:"from" doc:"Start date (YYYY-MM-DD), defaults to 30 days ago"`
	To   string `query:"to" doc:"End date (YYYY-MM-DD), defaults to today"`
}

// ScoreHistoryOutput represents the history response.
type ScoreHistoryOutput struct {
	Body struct {
		Scores []ScoreResponse `json:"scores"`
	}
}

// History returns previously computed scores in a date range.
func (h *ScoresHandler) History(ctx context.Context, input *ScoreHistoryInput) (*ScoreHistoryOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30).Format("2006-01-02")
	to := now.Format("2006-01-02")

	if input.From != "" {
		if _, err := time.Parse("2006-01-02", input.From); err != nil {
			return nil, huma.Error400BadRequest("invalid from date")
		}
		from = input.From
	}
	if input.To != "" {
		if _, err := time.Parse("2006-01-02", input.To); err != nil {
			return nil, huma.Error400BadRequest("invalid to date")
		}
		to = input.To
	}

	scores, err := h.svc.History(ctx, userID, from, to)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load score history")
	}

	out := &ScoreHistoryOutput{}
	for _, s := range scores {
		out.Body.Scores = append(out.Body.Scores, toScoreResponse(s))
	}
	return out, nil
}

func (h *ScoresHandler) countComputation(outcome string) {
	if h.metrics != nil {
		h.metrics.ScoreComputations.WithLabelValues(outcome).Inc()
	}
}

// normalizeDate validates a YYYY-MM-DD date, defaulting to today.
func normalizeDate(date string) (string, error) {
	if date == "" {
		return time.Now().UTC().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", err
	}
	return date, nil
}
