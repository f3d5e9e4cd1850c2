package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// fakeReader serves canned rows to the derivation rules.
type fakeReader struct {
	noShows    []*models.Interview
	byStage    map[models.Stage][]*models.Candidate
	scheduled  []*models.Interview
	pendingDoc []*models.Candidate
}

func (f *fakeReader) UnfollowedNoShows(_ context.Context, limit int) ([]*models.Interview, error) {
	if len(f.noShows) > limit {
		return f.noShows[:limit], nil
	}
	return f.noShows, nil
}

func (f *fakeReader) CandidatesInStages(_ context.Context, stages []models.Stage, _ int) ([]*models.Candidate, error) {
	var out []*models.Candidate
	for _, stage := range stages {
		out = append(out, f.byStage[stage]...)
	}
	return out, nil
}

func (f *fakeReader) ScheduledInterviewsBetween(_ context.Context, from, to time.Time) ([]*models.Interview, error) {
	var out []*models.Interview
	for _, iv := range f.scheduled {
		if iv.ScheduledAt != nil && !iv.ScheduledAt.Before(from) && !iv.ScheduledAt.After(to) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (f *fakeReader) CandidatesPendingDocuments(_ context.Context, _ int) ([]*models.Candidate, error) {
	return f.pendingDoc, nil
}

func timePtr(t time.Time) *time.Time { return &t }

func candidateInStage(id string, stage models.Stage, daysAgo int) *models.Candidate {
	return &models.Candidate{
		RemoteID:       id,
		FullName:       "Candidate " + id,
		Stage:          stage,
		StageEnteredAt: now.AddDate(0, 0, -daysAgo),
	}
}

func newService(r *fakeReader) *Service {
	return New(r, WithClock(func() time.Time { return now }))
}

func TestNoShowAlerts(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeReader{
		noShows: []*models.Interview{
			{RemoteID: "iv1", CandidateName: "Recent Miss", ScheduledAt: timePtr(now.AddDate(0, 0, -1))},
			{RemoteID: "iv2", CandidateName: "Old Miss", ScheduledAt: timePtr(now.AddDate(0, 0, -6))},
			{RemoteID: "iv3", CandidateName: "Undated Miss"},
		},
	})

	report, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	alerts := report.Alerts[CategoryNoShows]
	require.Len(t, alerts, 3)
	assert.Equal(t, models.PriorityHigh, alerts[0].Priority, "miss within 2 days is high")
	assert.Equal(t, models.PriorityMedium, alerts[1].Priority, "older miss is medium")
	assert.Equal(t, models.PriorityMedium, alerts[2].Priority, "undated miss cannot claim recency")
	assert.NotContains(t, alerts[2].Description, "0 days")
}

func TestStuckCandidateAlerts_PriorityScaling(t *testing.T) {
	t.Parallel()

	// Screening threshold is 5 days: 5 -> low, 8 (>=1.5x) -> medium, 10 (>=2x) -> high
	svc := newService(&fakeReader{
		byStage: map[models.Stage][]*models.Candidate{
			models.StageScreening: {
				candidateInStage("at-threshold", models.StageScreening, 5),
				candidateInStage("mid", models.StageScreening, 8),
				candidateInStage("long", models.StageScreening, 10),
				candidateInStage("fresh", models.StageScreening, 2),
			},
		},
	})

	report, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	alerts := report.Alerts[CategoryStuckCandidates]
	require.Len(t, alerts, 3, "below-threshold candidate produces no alert")

	byID := map[string]Alert{}
	for _, a := range alerts {
		byID[a.CandidateRemoteID] = a
	}
	assert.Equal(t, models.PriorityLow, byID["at-threshold"].Priority)
	assert.Equal(t, models.PriorityMedium, byID["mid"].Priority)
	assert.Equal(t, models.PriorityHigh, byID["long"].Priority)

	// sorted high first
	assert.Equal(t, "long", alerts[0].CandidateRemoteID)
}

func TestStuckCandidateAlerts_PerStageThresholds(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeReader{
		byStage: map[models.Stage][]*models.Candidate{
			// 4 days: past the New threshold (3), under the Onboarding one (14)
			models.StageNew:        {candidateInStage("new4", models.StageNew, 4)},
			models.StageOnboarding: {candidateInStage("onb4", models.StageOnboarding, 4)},
		},
	})

	report, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	alerts := report.Alerts[CategoryStuckCandidates]
	require.Len(t, alerts, 1)
	assert.Equal(t, "new4", alerts[0].CandidateRemoteID)
}

func TestUpcomingInterviewAlerts(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeReader{
		scheduled: []*models.Interview{
			{RemoteID: "soon", CandidateName: "A", Status: models.InterviewScheduled, ScheduledAt: timePtr(now.Add(time.Hour))},
			{RemoteID: "today", CandidateName: "B", Status: models.InterviewScheduled, ScheduledAt: timePtr(now.Add(6 * time.Hour))},
			{RemoteID: "tomorrow", CandidateName: "C", Status: models.InterviewScheduled, ScheduledAt: timePtr(now.AddDate(0, 0, 1))},
		},
	})

	report, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	alerts := report.Alerts[CategoryUpcomingInterviews]
	require.Len(t, alerts, 3)

	byID := map[string]Alert{}
	for _, a := range alerts {
		byID[a.ID] = a
	}
	assert.Equal(t, models.PriorityHigh, byID["interview_soon"].Priority)
	assert.Equal(t, models.PriorityMedium, byID["interview_today"].Priority)
	assert.Equal(t, models.PriorityLow, byID["interview_tomorrow"].Priority)
}

func TestOverdueAssessmentAlerts(t *testing.T) {
	t.Parallel()

	passed := true
	graded := candidateInStage("graded", models.StageAssessment, 9)
	graded.AssessmentPassed = &passed

	svc := newService(&fakeReader{
		byStage: map[models.Stage][]*models.Candidate{
			models.StageAssessment: {
				candidateInStage("waiting6", models.StageAssessment, 6),
				candidateInStage("waiting12", models.StageAssessment, 12),
				candidateInStage("waiting2", models.StageAssessment, 2),
				graded,
			},
			models.StageInterviewCompleted: {
				candidateInStage("postinterview7", models.StageInterviewCompleted, 7),
			},
		},
	})

	report, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	alerts := report.Alerts[CategoryOverdueAssessments]
	ids := map[string]Alert{}
	for _, a := range alerts {
		ids[a.CandidateRemoteID] = a
	}

	require.Len(t, alerts, 3)
	assert.Equal(t, models.PriorityMedium, ids["waiting6"].Priority)
	assert.Equal(t, models.PriorityHigh, ids["waiting12"].Priority, "2x threshold escalates")
	assert.Contains(t, ids, "postinterview7", "interview-completed stage is assessment-adjacent")
	assert.NotContains(t, ids, "graded", "recorded outcome suppresses the alert")
	assert.NotContains(t, ids, "waiting2", "under threshold")
}

func TestPendingDocumentAlerts(t *testing.T) {
	t.Parallel()

	active := candidateInStage("active-stage", models.StageOnboarding, 1)
	active.HasPendingDocuments = true
	terminal := candidateInStage("terminal-stage", models.StageInactive, 1)
	terminal.HasPendingDocuments = true

	svc := newService(&fakeReader{pendingDoc: []*models.Candidate{active, terminal}})

	report, err := svc.GetAll(context.Background())
	require.NoError(t, err)

	alerts := report.Alerts[CategoryPendingDocuments]
	require.Len(t, alerts, 2)

	byID := map[string]Alert{}
	for _, a := range alerts {
		byID[a.CandidateRemoteID] = a
	}
	assert.Equal(t, models.PriorityMedium, byID["active-stage"].Priority)
	assert.Equal(t, models.PriorityLow, byID["terminal-stage"].Priority)
}

func TestGetFlat(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeReader{
		noShows: []*models.Interview{
			{RemoteID: "iv1", CandidateName: "Miss", ScheduledAt: timePtr(now.AddDate(0, 0, -1))},
		},
		byStage: map[models.Stage][]*models.Candidate{
			models.StageScreening: {candidateInStage("stuck", models.StageScreening, 5)},
		},
	})

	flat, err := svc.GetFlat(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, flat, 2)
	assert.Equal(t, models.PriorityHigh, flat[0].Priority, "high priority sorts first")

	// priority filter
	high, err := svc.GetFlat(context.Background(), 10, models.PriorityHigh)
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, CategoryNoShows, high[0].Category)

	// limit applies after sorting
	one, err := svc.GetFlat(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, models.PriorityHigh, one[0].Priority)
}

func TestSummaryAndCounts(t *testing.T) {
	t.Parallel()

	t.Run("empty state yields zero rate, not a division error", func(t *testing.T) {
		t.Parallel()
		svc := newService(&fakeReader{})
		report, err := svc.GetAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Summary.Total)
		assert.Zero(t, report.Summary.HighPriorityRate)
	})

	t.Run("counts match category sizes", func(t *testing.T) {
		t.Parallel()
		svc := newService(&fakeReader{
			noShows: []*models.Interview{
				{RemoteID: "iv1", CandidateName: "A", ScheduledAt: timePtr(now.AddDate(0, 0, -1))},
				{RemoteID: "iv2", CandidateName: "B", ScheduledAt: timePtr(now.AddDate(0, 0, -5))},
			},
		})
		counts, err := svc.GetCounts(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, counts[CategoryNoShows])
		assert.Equal(t, 0, counts[CategoryStuckCandidates])

		report, err := svc.GetAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Summary.Total)
		assert.Equal(t, 1, report.Summary.HighPriority)
		assert.InDelta(t, 0.5, report.Summary.HighPriorityRate, 1e-9)
	})
}
