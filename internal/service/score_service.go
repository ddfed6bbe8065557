package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/halcyonhealth/halcyon-api/internal/cache"
	"github.com/halcyonhealth/halcyon-api/internal/canonical"
	"github.com/halcyonhealth/halcyon-api/internal/models"
	"github.com/halcyonhealth/halcyon-api/internal/repository"
	"github.com/halcyonhealth/halcyon-api/internal/scoring"
)

// ScoreService computes and serves daily health scores. Computed
// scores are cached in Redis when a cache is configured, and always
// persisted to the database.
type ScoreService struct {
	repos    *repository.Repositories
	cache    *cache.Cache // nil when caching is disabled
	resolver canonical.Resolver
	logger   *slog.Logger
}

// NewScoreService creates a new score service.
func NewScoreService(repos *repository.Repositories, c *cache.Cache, resolver canonical.Resolver, logger *slog.Logger) *ScoreService {
	return &ScoreService{
		repos:    repos,
		cache:    c,
		resolver: resolver,
		logger:   logger,
	}
}

// DailyScore returns the score for (user, date), computing it when not
// cached. Date is YYYY-MM-DD.
func (s *ScoreService) DailyScore(ctx context.Context, userID, date string) (*models.HealthScore, error) {
	cacheKey := fmt.Sprintf("score:%s:%s", userID, date)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var score models.HealthScore
			if err := json.Unmarshal([]byte(cached), &score); err == nil {
				return &score, nil
			}
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("score cache read failed", "error", err)
		}
	}

	score, err := s.compute(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Score.Upsert(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to persist score: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(score); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), 0); err != nil {
				s.logger.Warn("score cache write failed", "error", err)
			}
		}
	}

	return score, nil
}

// Recompute drops any cached value and recomputes the day's score.
func (s *ScoreService) Recompute(ctx context.Context, userID, date string) (*models.HealthScore, error) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, fmt.Sprintf("score:%s:%s", userID, date)); err != nil {
			s.logger.Warn("score cache invalidation failed", "error", err)
		}
	}
	return s.DailyScore(ctx, userID, date)
}

// History returns persisted scores for dates in [fromDate, toDate].
func (s *ScoreService) History(ctx context.Context, userID, fromDate, toDate string) ([]*models.HealthScore, error) {
	return s.repos.Score.GetByUserAndRange(ctx, userID, fromDate, toDate)
}

func (s *ScoreService) compute(ctx context.Context, userID, date string) (*models.HealthScore, error) {
	samples, err := s.repos.MetricSample.GetByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load samples: %w", err)
	}

	results, err := s.repos.LabReport.GetResultsByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load lab results: %w", err)
	}

	inputs := scoring.FromSamples(samples)
	inputs = append(inputs, scoring.FromLabResults(results, s.resolver)...)

	day := scoring.Compute(inputs)

	return &models.HealthScore{
		UserID:          userID,
		Date:            date,
		Total:           day.Total,
		Vitals:          day.Vitals,
		Sleep:           day.Sleep,
		Activity:        day.Activity,
		Biomarker:       day.Biomarker,
		UnmappedMetrics: day.UnmappedMetrics,
	}, nil
}
