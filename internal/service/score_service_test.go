package service

import (
	"context"
	"testing"
	"time"

	"github.com/halcyonhealth/halcyon-api/internal/models"
)

func seedDay(t *testing.T, repos interface {
	CreateBatch(ctx context.Context, samples []*models.MetricSample) error
}, userID string, day time.Time) {
	t.Helper()
	samples := []*models.MetricSample{
		{UserID: userID, Domain: "vitals", ExternalName: "Heart Rate", CanonicalKey: "resting_hr", Value: 60, RecordedAt: day},
		{UserID: userID, Domain: "activity", ExternalName: "Steps", CanonicalKey: "steps", Value: 10000, RecordedAt: day.Add(10 * time.Hour)},
		{UserID: userID, Domain: "vitals", ExternalName: "Mystery", CanonicalKey: "", Value: 1, RecordedAt: day},
	}
	if err := repos.CreateBatch(context.Background(), samples); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
}

func TestScoreServiceComputesAndPersists(t *testing.T) {
	ctx := context.Background()
	repos, db := newTestRepos(t)
	insertTestUser(t, db, "user-1", "s@example.com")

	day := time.Date(2026, 8, 21, 7, 0, 0, 0, time.UTC)
	seedDay(t, repos.MetricSample, "user-1", day)

	svc := NewScoreService(repos, nil, testResolver(t), testLogger())

	score, err := svc.DailyScore(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("DailyScore failed: %v", err)
	}
	if score.Total != 100 {
		t.Errorf("Total = %d, want 100 (both present domains optimal)", score.Total)
	}
	if score.Vitals == nil || *score.Vitals != 100 {
		t.Errorf("Vitals = %v, want 100", score.Vitals)
	}
	if score.Sleep != nil {
		t.Error("Sleep should be nil for a day with no sleep data")
	}
	if score.UnmappedMetrics != 1 {
		t.Errorf("UnmappedMetrics = %d, want 1", score.UnmappedMetrics)
	}

	persisted, err := repos.Score.GetByUserAndDate(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("GetByUserAndDate failed: %v", err)
	}
	if persisted == nil || persisted.Total != score.Total {
		t.Error("score should be persisted after computation")
	}
}

func TestScoreServiceUsesCache(t *testing.T) {
	ctx := context.Background()
	repos, db := newTestRepos(t)
	insertTestUser(t, db, "user-1", "s@example.com")

	day := time.Date(2026, 8, 21, 7, 0, 0, 0, time.UTC)
	seedDay(t, repos.MetricSample, "user-1", day)

	svc := NewScoreService(repos, testCache(t), testResolver(t), testLogger())

	first, err := svc.DailyScore(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("DailyScore failed: %v", err)
	}

	// New samples change the day, but the cached value is served until
	// a recompute.
	extra := []*models.MetricSample{
		{UserID: "user-1", Domain: "vitals", ExternalName: "Heart Rate", CanonicalKey: "resting_hr", Value: 190, RecordedAt: day.Add(time.Hour)},
	}
	if err := repos.MetricSample.CreateBatch(ctx, extra); err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}

	cached, err := svc.DailyScore(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("cached DailyScore failed: %v", err)
	}
	if cached.Total != first.Total {
		t.Errorf("cached Total = %d, want %d", cached.Total, first.Total)
	}

	recomputed, err := svc.Recompute(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if recomputed.Total >= first.Total {
		t.Errorf("Recompute Total = %d, want lower than %d after bad reading", recomputed.Total, first.Total)
	}
}

func TestScoreServiceIncludesLabResults(t *testing.T) {
	ctx := context.Background()
	repos, db := newTestRepos(t)
	insertTestUser(t, db, "user-1", "s@example.com")

	reported := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	report := &models.LabReport{UserID: "user-1", Title: "Panel", ReportedAt: &reported, Status: "complete"}
	if err := repos.LabReport.Create(ctx, report); err != nil {
		t.Fatalf("Create report failed: %v", err)
	}
	result := &models.LabResult{ReportID: report.ID, LoincCode: "4548-4", Name: "HbA1c", Value: 5.2, Unit: "%"}
	if err := repos.LabReport.CreateResult(ctx, result); err != nil {
		t.Fatalf("CreateResult failed: %v", err)
	}

	svc := NewScoreService(repos, nil, testResolver(t), testLogger())

	score, err := svc.DailyScore(ctx, "user-1", "2026-08-21")
	if err != nil {
		t.Fatalf("DailyScore failed: %v", err)
	}
	if score.Biomarker == nil || *score.Biomarker != 100 {
		t.Errorf("Biomarker = %v, want 100 from the optimal A1c result", score.Biomarker)
	}
}
