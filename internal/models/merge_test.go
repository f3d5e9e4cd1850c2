package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestCandidateSeedStage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	activity := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		candidate Candidate
		expected  time.Time
	}{
		{
			name:      "remote created time wins",
			candidate: Candidate{RemoteCreatedAt: timePtr(created), LastActivityAt: timePtr(activity)},
			expected:  created,
		},
		{
			name:      "last activity when created absent",
			candidate: Candidate{LastActivityAt: timePtr(activity)},
			expected:  activity,
		},
		{
			name:      "now when nothing else known",
			candidate: Candidate{},
			expected:  now,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.candidate.SeedStage(now)
			assert.Equal(t, tt.expected, tt.candidate.StageEnteredAt)
			assert.Equal(t, 0, tt.candidate.DaysInStage)
		})
	}
}

func TestCandidateApplyUpdate_StageReset(t *testing.T) {
	t.Parallel()

	entered := time.Date(2026, 2, 19, 10, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("same stage keeps stage-entered timestamp", func(t *testing.T) {
		t.Parallel()
		existing := &Candidate{Stage: StageScreening, StageEnteredAt: entered}
		incoming := &Candidate{Stage: StageScreening, RawStatus: "Screening Call Done"}

		existing.ApplyUpdate(incoming, now)

		assert.Equal(t, entered, existing.StageEnteredAt)
		existing.RecomputeDaysInStage(now)
		assert.Equal(t, 10, existing.DaysInStage)
	})

	t.Run("stage change resets to last activity time", func(t *testing.T) {
		t.Parallel()
		activity := time.Date(2026, 2, 28, 16, 30, 0, 0, time.UTC)
		existing := &Candidate{Stage: StageScreening, StageEnteredAt: entered}
		incoming := &Candidate{Stage: StageAssessment, LastActivityAt: timePtr(activity)}

		existing.ApplyUpdate(incoming, now)

		assert.Equal(t, StageAssessment, existing.Stage)
		assert.Equal(t, activity, existing.StageEnteredAt)
	})

	t.Run("stage change without activity time resets to now", func(t *testing.T) {
		t.Parallel()
		existing := &Candidate{Stage: StageNew, StageEnteredAt: entered}
		incoming := &Candidate{Stage: StageScreening}

		existing.ApplyUpdate(incoming, now)

		assert.Equal(t, now, existing.StageEnteredAt)
	})
}

func TestInterviewApplyUpdate_NoShowMonotonic(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	iv := &Interview{Status: InterviewScheduled}

	// false -> true increments
	iv.ApplyUpdate(&Interview{IsNoShow: true, Status: InterviewNoShow}, now)
	assert.Equal(t, 1, iv.NoShowCount)

	// true -> true does not increment again
	iv.ApplyUpdate(&Interview{IsNoShow: true, Status: InterviewNoShow}, now)
	assert.Equal(t, 1, iv.NoShowCount)

	// true -> false never decrements
	iv.ApplyUpdate(&Interview{IsNoShow: false, Status: InterviewCompleted}, now)
	assert.Equal(t, 1, iv.NoShowCount)
	assert.False(t, iv.IsNoShow)

	// a second miss counts again
	iv.ApplyUpdate(&Interview{IsNoShow: true, Status: InterviewNoShow}, now)
	assert.Equal(t, 2, iv.NoShowCount)
}

func TestInterviewApplyUpdate_Reschedule(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	first := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	second := time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)
	third := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	iv := &Interview{ScheduledAt: timePtr(first)}

	iv.ApplyUpdate(&Interview{ScheduledAt: timePtr(second)}, now)
	assert.Equal(t, 1, iv.RescheduleCount)
	assert.NotNil(t, iv.OriginalDate)
	assert.Equal(t, first, *iv.OriginalDate)

	// second reschedule keeps the original date from the first
	iv.ApplyUpdate(&Interview{ScheduledAt: timePtr(third)}, now)
	assert.Equal(t, 2, iv.RescheduleCount)
	assert.Equal(t, first, *iv.OriginalDate)

	// unchanged time is not a reschedule
	iv.ApplyUpdate(&Interview{ScheduledAt: timePtr(third)}, now)
	assert.Equal(t, 2, iv.RescheduleCount)
}

func TestNoteApplyUpdate_SummaryRegeneration(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	n := &Note{Content: "original content", Summary: "original summary", KeyPhrases: []string{"original"}}

	// same content keeps the derived text
	n.ApplyUpdate(&Note{Content: "original content", Summary: "regenerated", KeyPhrases: []string{"new"}}, now)
	assert.Equal(t, "original summary", n.Summary)
	assert.Equal(t, []string{"original"}, n.KeyPhrases)

	// changed content takes the regenerated text
	n.ApplyUpdate(&Note{Content: "changed content", Summary: "regenerated", KeyPhrases: []string{"new"}}, now)
	assert.Equal(t, "regenerated", n.Summary)
	assert.Equal(t, []string{"new"}, n.KeyPhrases)
}

func TestWholeDays(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, WholeDays(base, base))
	assert.Equal(t, 0, WholeDays(base, base.Add(23*time.Hour)))
	assert.Equal(t, 1, WholeDays(base, base.Add(25*time.Hour)))
	assert.Equal(t, 10, WholeDays(base, base.AddDate(0, 0, 10)))
	// clock skew never yields a negative dwell time
	assert.Equal(t, 0, WholeDays(base, base.Add(-time.Hour)))
}
