package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMapperCandidate(t *testing.T) {
	t.Parallel()

	m := New()

	payload := `{
		"id": "100234",
		"First_Name": "Maria",
		"Last_Name": "Santos",
		"Email": "maria@example.com",
		"Lead_Status": "Waiting for Training",
		"Tier": "Tier 2",
		"Owner": {"name": "Recruiter One"},
		"Last_Activity_Time": "2026-02-20T10:00:00+02:00",
		"Created_Time": "2026-01-15 08:30:00"
	}`
	var raw models.RawCandidate
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))

	c, err := m.Candidate(&raw, testNow)
	require.NoError(t, err)

	assert.Equal(t, "100234", c.RemoteID)
	assert.Equal(t, "Maria Santos", c.FullName)
	assert.Equal(t, models.StageOnboarding, c.Stage)
	assert.Equal(t, "Waiting for Training", c.RawStatus)
	assert.True(t, c.NeedsTraining)
	assert.False(t, c.HasPendingDocuments)
	assert.Equal(t, "Recruiter One", c.CandidateOwner)

	// timezone offsets are normalized to UTC
	require.NotNil(t, c.LastActivityAt)
	assert.Equal(t, time.Date(2026, 2, 20, 8, 0, 0, 0, time.UTC), *c.LastActivityAt)

	assert.Equal(t, testNow, c.LastSyncedAt)
}

func TestMapperCandidate_MissingID(t *testing.T) {
	t.Parallel()

	m := New()
	_, err := m.Candidate(&models.RawCandidate{FirstName: "Maria"}, testNow)
	assert.Error(t, err)
}

func TestMapperCandidate_UnknownName(t *testing.T) {
	t.Parallel()

	m := New()
	c, err := m.Candidate(&models.RawCandidate{ID: "1"}, testNow)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", c.FullName)
	assert.Equal(t, models.StageNew, c.Stage)
}

func TestMapperInterview(t *testing.T) {
	t.Parallel()

	m := New()

	t.Run("non-interview event skipped", func(t *testing.T) {
		t.Parallel()
		_, err := m.Interview(&models.RawInterview{
			ID:            "ev1",
			Title:         "Team standup",
			StartDateTime: "2026-03-02T10:00:00Z",
		}, testNow)
		assert.ErrorIs(t, err, ErrSkipRecord)
	})

	t.Run("missing start time skipped", func(t *testing.T) {
		t.Parallel()
		_, err := m.Interview(&models.RawInterview{
			ID:    "ev2",
			Title: "Interview with Maria",
		}, testNow)
		assert.ErrorIs(t, err, ErrSkipRecord)
	})

	t.Run("future event scheduled", func(t *testing.T) {
		t.Parallel()
		iv, err := m.Interview(&models.RawInterview{
			ID:            "ev3",
			Title:         "Interview with Maria",
			CandidateID:   "100234",
			CandidateName: "Maria Santos",
			StartDateTime: "2026-03-02T10:00:00Z",
			EndDateTime:   "2026-03-02T10:45:00Z",
		}, testNow)
		require.NoError(t, err)
		assert.Equal(t, models.InterviewScheduled, iv.Status)
		assert.False(t, iv.IsNoShow)
		assert.Equal(t, 45, iv.DurationMinutes)
		assert.Equal(t, "Interview", iv.InterviewType)
	})

	t.Run("recent past event without check-in inferred as no-show", func(t *testing.T) {
		t.Parallel()
		iv, err := m.Interview(&models.RawInterview{
			ID:            "ev4",
			Title:         "Phone screen",
			StartDateTime: "2026-02-27T10:00:00Z",
		}, testNow)
		require.NoError(t, err)
		assert.Equal(t, models.InterviewNoShow, iv.Status)
		assert.True(t, iv.IsNoShow)
		assert.Equal(t, 1, iv.NoShowCount)
		assert.Equal(t, "Initial Screening", iv.InterviewType)
	})

	t.Run("old past event without check-in inferred as completed", func(t *testing.T) {
		t.Parallel()
		iv, err := m.Interview(&models.RawInterview{
			ID:            "ev5",
			Title:         "Candidate call",
			StartDateTime: "2026-02-10T10:00:00Z",
		}, testNow)
		require.NoError(t, err)
		assert.Equal(t, models.InterviewCompleted, iv.Status)
		assert.False(t, iv.IsNoShow)
	})

	t.Run("explicit check-in wins over inference", func(t *testing.T) {
		t.Parallel()
		iv, err := m.Interview(&models.RawInterview{
			ID:            "ev6",
			Title:         "Interview",
			StartDateTime: "2026-02-27T10:00:00Z",
			CheckInStatus: "Checked In",
		}, testNow)
		require.NoError(t, err)
		assert.Equal(t, models.InterviewCompleted, iv.Status)
		assert.False(t, iv.IsNoShow)
	})

	t.Run("custom policy is honored", func(t *testing.T) {
		t.Parallel()
		strict := New(WithNoShowPolicy(GraceNoShowPolicy{Grace: time.Hour}))
		iv, err := strict.Interview(&models.RawInterview{
			ID:            "ev7",
			Title:         "Interview",
			StartDateTime: "2026-02-27T10:00:00Z",
		}, testNow)
		require.NoError(t, err)
		assert.Equal(t, models.InterviewCompleted, iv.Status)
	})
}

func TestMapperTask(t *testing.T) {
	t.Parallel()

	m := New()

	tests := []struct {
		name     string
		subject  string
		status   string
		priority string
		taskType models.TaskType
		expected models.TaskStatus
		prio     models.Priority
	}{
		{"follow up", "Follow up with candidate", "Not Started", "High", models.TaskFollowUp, models.TaskPending, models.PriorityHigh},
		{"documents", "Request ID verification documents", "In Progress", "Normal", models.TaskDocumentRequest, models.TaskInProgress, models.PriorityMedium},
		{"training", "Confirm training cohort", "Completed", "Lowest", models.TaskTraining, models.TaskCompleted, models.PriorityLow},
		{"assessment", "Grade language assessment", "Deferred", "", models.TaskAssessment, models.TaskPending, models.PriorityMedium},
		{"interview maps to follow up", "Prep interview notes", "Waiting for input", "Highest", models.TaskFollowUp, models.TaskPending, models.PriorityHigh},
		{"general", "Weekly report", "banana", "banana", models.TaskGeneral, models.TaskPending, models.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task, err := m.Task(&models.RawTask{
				ID:       "t1",
				Subject:  models.Text(tt.subject),
				Status:   models.Text(tt.status),
				Priority: models.Text(tt.priority),
			}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.taskType, task.TaskType)
			assert.Equal(t, tt.expected, task.Status)
			assert.Equal(t, tt.prio, task.Priority)
		})
	}
}

func TestMapperNote(t *testing.T) {
	t.Parallel()

	m := New()

	note, err := m.Note(&models.RawNote{
		ID:       "n1",
		ParentID: "100234",
		Content:  "<p>Discussed the <b>training schedule</b> and pending documents.</p>",
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, "Discussed the training schedule and pending documents.", note.Content)
	assert.NotEmpty(t, note.Summary)
	assert.LessOrEqual(t, len(note.Summary), 200)
	assert.Equal(t, "100234", note.CandidateRemoteID)
}

func TestMapperEmail(t *testing.T) {
	t.Parallel()

	m := New()

	tests := []struct {
		name     string
		from     string
		sent     models.Flag
		expected models.EmailDirection
	}{
		{"inbound", "maria@example.com", false, models.EmailInbound},
		{"outbound", "recruiter@alfa.example", true, models.EmailOutbound},
		{"system", "noreply@alfa.example", true, models.EmailSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			email, err := m.Email(&models.RawEmail{
				ID:   "e1",
				From: models.Text(tt.from),
				Sent: tt.sent,
			}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, email.Direction)
		})
	}
}
