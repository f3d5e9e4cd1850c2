package models

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is the local mirror of a remote candidate/lead record.
//
// RemoteID is the natural upsert key; rows are created on first sight of a
// remote id and only ever updated afterwards, never deleted.
type Candidate struct {
	ID       uuid.UUID `json:"id"`
	RemoteID string    `json:"remote_id"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Mobile    string `json:"mobile"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`

	// RawStatus is the remote vocabulary string; Stage is its mapped pipeline
	// position. Both are stored so a mapping change can be audited.
	RawStatus string `json:"raw_status"`
	Stage     Stage  `json:"stage"`
	Tier      string `json:"tier"`
	Languages string `json:"languages"`

	CandidateOwner   string `json:"candidate_owner"`
	RecruitmentOwner string `json:"recruitment_owner"`
	Source           string `json:"source"`

	AssessmentPassed   *bool      `json:"assessment_passed,omitempty"`
	AssessmentGradedBy string     `json:"assessment_graded_by,omitempty"`
	AssessmentDate     *time.Time `json:"assessment_date,omitempty"`
	OfferSentAt        *time.Time `json:"offer_sent_at,omitempty"`
	TrainingStartAt    *time.Time `json:"training_start_at,omitempty"`

	IsUnresponsive      bool `json:"is_unresponsive"`
	HasPendingDocuments bool `json:"has_pending_documents"`
	NeedsTraining       bool `json:"needs_training"`

	// StageEnteredAt is reset only when the mapped stage differs from the
	// stored stage, so DaysInStage reflects true dwell time.
	StageEnteredAt time.Time `json:"stage_entered_at"`
	DaysInStage    int       `json:"days_in_stage"`

	LastActivityAt   *time.Time `json:"last_activity_at,omitempty"`
	RemoteCreatedAt  *time.Time `json:"remote_created_at,omitempty"`
	RemoteModifiedAt *time.Time `json:"remote_modified_at,omitempty"`

	LastSyncedAt time.Time `json:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Interview is the local mirror of a remote interview event. It references the
// candidate by remote id rather than a foreign key because the event may sync
// before the candidate does.
type Interview struct {
	ID                uuid.UUID `json:"id"`
	RemoteID          string    `json:"remote_id"`
	CandidateRemoteID string    `json:"candidate_remote_id"`
	CandidateName     string    `json:"candidate_name"`

	Title           string          `json:"title"`
	InterviewType   string          `json:"interview_type"`
	ScheduledAt     *time.Time      `json:"scheduled_at,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          InterviewStatus `json:"status"`

	IsNoShow           bool `json:"is_no_show"`
	NoShowCount        int  `json:"no_show_count"`
	NoShowFollowupSent bool `json:"no_show_followup_sent"`

	// OriginalDate is captured the first time the scheduled time changes;
	// RescheduleCount tracks every subsequent change.
	OriginalDate    *time.Time `json:"original_date,omitempty"`
	RescheduleCount int        `json:"reschedule_count"`

	Interviewer string `json:"interviewer"`
	Notes       string `json:"notes"`
	Outcome     string `json:"outcome"`

	LastSyncedAt time.Time `json:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Task is the local mirror of a remote task record.
type Task struct {
	ID                uuid.UUID `json:"id"`
	RemoteID          string    `json:"remote_id"`
	CandidateRemoteID string    `json:"candidate_remote_id"`
	CandidateName     string    `json:"candidate_name"`

	Title       string     `json:"title"`
	Description string     `json:"description"`
	TaskType    TaskType   `json:"task_type"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`

	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	AssignedTo string `json:"assigned_to"`
	CreatedBy  string `json:"created_by"`

	LastSyncedAt time.Time `json:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Note is the local mirror of a remote free-text note, with the normalized
// content and its derived summary and key phrases.
type Note struct {
	ID                uuid.UUID `json:"id"`
	RemoteID          string    `json:"remote_id"`
	CandidateRemoteID string    `json:"candidate_remote_id"`

	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	KeyPhrases []string `json:"key_phrases"`
	NoteType   string   `json:"note_type"`
	Author     string   `json:"author"`

	RemoteCreatedAt *time.Time `json:"remote_created_at,omitempty"`

	LastSyncedAt time.Time `json:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Email is the local mirror of a remote email. Only the snippet is stored; the
// full body stays in the remote system.
type Email struct {
	ID                uuid.UUID `json:"id"`
	RemoteID          string    `json:"remote_id"`
	CandidateRemoteID string    `json:"candidate_remote_id"`

	Direction EmailDirection `json:"direction"`
	From      string         `json:"from"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	Snippet   string         `json:"snippet"`
	ThreadID  string         `json:"thread_id"`
	SentAt    *time.Time     `json:"sent_at,omitempty"`

	LastSyncedAt time.Time `json:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunCounts aggregates record-level outcomes for one sync run.
type RunCounts struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Errors    int `json:"errors"`
}

// SyncRun is one entry in the append-only sync ledger.
type SyncRun struct {
	ID           uuid.UUID     `json:"id"`
	Kind         RecordKind    `json:"kind"`
	Status       SyncRunStatus `json:"status"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Counts       RunCounts     `json:"counts"`
	ErrorMessage string        `json:"error_message,omitempty"`
}
