package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

func TestMapStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   string
		expected models.Stage
	}{
		// exact table hits
		{"New Candidate", models.StageNew},
		{"LinkedIn Applicants", models.StageNew},
		{"Screening", models.StageScreening},
		{"Qualified", models.StageScreening},
		{"Interview Scheduled", models.StageInterviewScheduled},
		{"Auto Interview - Done", models.StageInterviewCompleted},
		{"Language assessment to be graded", models.StageAssessment},
		{"Offer Accepted", models.StageOnboarding},
		{"Offer Declined", models.StageInactive},
		{"ID Verification", models.StageOnboarding},
		{"Tier 1", models.StageActive},
		{"Lost Lead", models.StageInactive},
		{"Not Qualified", models.StageRejected},
		{"Junk Lead", models.StageRejected},

		// keyword fallback
		{"Tier 2 - weekend shift", models.StageActive},
		{"Second interview pending", models.StageInterviewScheduled},
		{"Extra screening round", models.StageScreening},
		{"Language check outstanding", models.StageAssessment},
		{"Additional training required", models.StageOnboarding},
		{"Documents missing", models.StageOnboarding},
		{"Lost to competitor", models.StageInactive},
		{"Fully qualified agent", models.StageScreening},

		// default
		{"", models.StageNew},
		{"   ", models.StageNew},
		{"Something entirely unexpected", models.StageNew},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MapStatus(tt.status))
		})
	}
}

func TestMapStatus_TablePrecedesKeywords(t *testing.T) {
	t.Parallel()

	// "Training Completed" contains the generic "training" keyword, which
	// alone would resolve to Onboarding; the exact table entry must win.
	assert.Equal(t, models.StageActive, MapStatus("Training Completed"))
	assert.Equal(t, models.StageInactive, MapStatus("Failed Training"))
	assert.Equal(t, models.StageInactive, MapStatus("Training No Show"))
}

func TestMapStatus_MultiKeywordOrdering(t *testing.T) {
	t.Parallel()

	// tier beats interview
	assert.Equal(t, models.StageActive, MapStatus("Tier 1 interview follow up"))
	// interview beats screening
	assert.Equal(t, models.StageInterviewScheduled, MapStatus("screening interview booked"))
	// "not qualified" variants never land on Screening via the qualified rule
	assert.NotEqual(t, models.StageScreening, MapStatus("candidate was not qualified enough"))
}

func TestMapStatus_Totality(t *testing.T) {
	t.Parallel()

	valid := map[models.Stage]bool{
		models.StageNew: true, models.StageScreening: true,
		models.StageInterviewScheduled: true, models.StageInterviewCompleted: true,
		models.StageAssessment: true, models.StageOnboarding: true,
		models.StageActive: true, models.StageInactive: true, models.StageRejected: true,
	}

	inputs := []string{
		"", " ", "\t", "ünïcödé", "1234567890",
		"interview screening assessment training lost",
		"TRAINING COMPLETED", "tier 3 LOST declined",
	}
	for _, in := range inputs {
		assert.True(t, valid[MapStatus(in)], "input %q produced an invalid stage", in)
	}
}

func TestDeriveFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status        string
		needsTraining bool
		pendingDocs   bool
	}{
		{"Waiting for Training", true, false},
		{"Training Completed", false, false},
		{"Documents Downloaded", false, true},
		{"ID Verification", false, true},
		{"Screening", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			training, docs := DeriveFlags(tt.status)
			assert.Equal(t, tt.needsTraining, training)
			assert.Equal(t, tt.pendingDocs, docs)
		})
	}
}
