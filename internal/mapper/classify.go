package mapper

import (
	"strings"
	"time"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

// interviewKeywords decide whether a calendar event is an interview at all.
// Events that match none of these are skipped by the sync.
var interviewKeywords = []string{
	"interview", "screening", "auto interview", "candidate call",
	"hiring call", "recruitment call", "phone screen",
}

// IsInterviewEvent reports whether an event title identifies an interview.
func IsInterviewEvent(title string) bool {
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, kw := range interviewKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// InterviewTypeFromTitle classifies an interview by its title.
func InterviewTypeFromTitle(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "auto interview"):
		return "Auto Interview"
	case strings.Contains(lower, "screening"), strings.Contains(lower, "phone screen"):
		return "Initial Screening"
	case strings.Contains(lower, "final"):
		return "Final Interview"
	default:
		return "Interview"
	}
}

// taskTypeRule is one ordered keyword classification for task titles.
type taskTypeRule struct {
	keywords []string
	taskType models.TaskType
}

var taskTypeRules = []taskTypeRule{
	{[]string{"follow up", "follow-up"}, models.TaskFollowUp},
	{[]string{"document", "id verification"}, models.TaskDocumentRequest},
	{[]string{"training"}, models.TaskTraining},
	{[]string{"assessment", "language"}, models.TaskAssessment},
	{[]string{"interview"}, models.TaskFollowUp},
}

// TaskTypeFromTitle classifies a task by keyword match on its title.
func TaskTypeFromTitle(title string) models.TaskType {
	lower := strings.ToLower(title)
	for _, rule := range taskTypeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.taskType
			}
		}
	}
	return models.TaskGeneral
}

var taskStatusTable = map[string]models.TaskStatus{
	"Not Started":       models.TaskPending,
	"Deferred":          models.TaskPending,
	"Waiting for input": models.TaskPending,
	"In Progress":       models.TaskInProgress,
	"Completed":         models.TaskCompleted,
}

// TaskStatusFromRemote maps the remote task status vocabulary, defaulting to
// pending for unknown values.
func TaskStatusFromRemote(remote string) models.TaskStatus {
	if status, ok := taskStatusTable[remote]; ok {
		return status
	}
	return models.TaskPending
}

var priorityTable = map[string]models.Priority{
	"Highest": models.PriorityHigh,
	"High":    models.PriorityHigh,
	"Medium":  models.PriorityMedium,
	"Normal":  models.PriorityMedium,
	"Low":     models.PriorityLow,
	"Lowest":  models.PriorityLow,
}

// PriorityFromRemote maps the remote priority vocabulary, defaulting to medium.
func PriorityFromRemote(remote string) models.Priority {
	if p, ok := priorityTable[remote]; ok {
		return p
	}
	return models.PriorityMedium
}

// NoShowPolicy infers an interview's status when the remote record carries no
// explicit check-in state. The default heuristic assumes old past events were
// completed and only recent ones were missed; its accuracy is unconfirmed, so
// it stays pluggable rather than hard-coded business truth.
type NoShowPolicy interface {
	Classify(scheduledAt, now time.Time) models.InterviewStatus
}

// GraceNoShowPolicy treats a past interview older than Grace as completed and
// a more recent one as a no-show.
type GraceNoShowPolicy struct {
	Grace time.Duration
}

// DefaultNoShowPolicy returns the standard seven-day grace policy.
func DefaultNoShowPolicy() NoShowPolicy {
	return GraceNoShowPolicy{Grace: 7 * 24 * time.Hour}
}

// Classify implements NoShowPolicy.
func (p GraceNoShowPolicy) Classify(scheduledAt, now time.Time) models.InterviewStatus {
	if scheduledAt.After(now) {
		return models.InterviewScheduled
	}
	if now.Sub(scheduledAt) > p.Grace {
		return models.InterviewCompleted
	}
	return models.InterviewNoShow
}
