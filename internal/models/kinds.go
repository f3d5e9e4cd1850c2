// Package models defines the local entity types mirrored from the remote CRM,
// the record kinds the sync engine understands, and the transition rules
// applied when an incoming record updates an existing row.
package models

import "fmt"

// RecordKind identifies a remote record collection handled by the sync engine.
type RecordKind string

// Record kinds, in sync dependency order. Candidates sync first because the
// other kinds reference them by remote id.
const (
	KindCandidates RecordKind = "candidates"
	KindInterviews RecordKind = "interviews"
	KindTasks      RecordKind = "tasks"
	KindNotes      RecordKind = "notes"
	KindEmails     RecordKind = "emails"
)

// AllKinds returns every record kind in sync dependency order.
func AllKinds() []RecordKind {
	return []RecordKind{KindCandidates, KindInterviews, KindTasks, KindNotes, KindEmails}
}

// ParseRecordKind validates a record kind received from outside (CLI flags, API paths).
func ParseRecordKind(s string) (RecordKind, error) {
	switch RecordKind(s) {
	case KindCandidates, KindInterviews, KindTasks, KindNotes, KindEmails:
		return RecordKind(s), nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// Stage is a candidate's position in the recruiting pipeline.
type Stage string

// Pipeline stages in progression order, plus the terminal Inactive/Rejected states.
const (
	StageNew                Stage = "new"
	StageScreening          Stage = "screening"
	StageInterviewScheduled Stage = "interview_scheduled"
	StageInterviewCompleted Stage = "interview_completed"
	StageAssessment         Stage = "assessment"
	StageOnboarding         Stage = "onboarding"
	StageActive             Stage = "active"
	StageInactive           Stage = "inactive"
	StageRejected           Stage = "rejected"
)

// ActiveStages are the non-terminal stages where a candidate is still moving
// through the pipeline. Used by alert derivation to decide urgency.
func ActiveStages() []Stage {
	return []Stage{
		StageNew,
		StageScreening,
		StageInterviewScheduled,
		StageInterviewCompleted,
		StageAssessment,
		StageOnboarding,
	}
}

// InterviewStatus is the lifecycle state of an interview event.
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewNoShow    InterviewStatus = "no_show"
	InterviewCancelled InterviewStatus = "cancelled"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// TaskType is derived from the task title by keyword classification.
type TaskType string

const (
	TaskFollowUp        TaskType = "follow_up"
	TaskDocumentRequest TaskType = "document_request"
	TaskTraining        TaskType = "training"
	TaskAssessment      TaskType = "assessment"
	TaskGeneral         TaskType = "general"
)

// Priority is shared by tasks and alerts.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// EmailDirection classifies who originated an email.
type EmailDirection string

const (
	EmailInbound  EmailDirection = "inbound"
	EmailOutbound EmailDirection = "outbound"
	EmailSystem   EmailDirection = "system"
)

// SyncRunStatus is the terminal state of a sync ledger entry.
type SyncRunStatus string

const (
	RunRunning   SyncRunStatus = "running"
	RunCompleted SyncRunStatus = "completed"
	RunFailed    SyncRunStatus = "failed"
)
