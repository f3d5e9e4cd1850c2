// Package mapper converts raw remote records into local entities. It owns the
// status-vocabulary mapping, the keyword classifiers, and the date/boolean
// normalization applied at the ingestion boundary.
package mapper

import (
	"strings"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

// statusTable maps known remote status strings to pipeline stages. Exact
// lookup here takes precedence over the keyword rules below, which is how
// "Training Completed" lands on Active instead of the generic training rule.
var statusTable = map[string]models.Stage{
	"New Candidate":       models.StageNew,
	"LinkedIn Applicants": models.StageNew,
	"ZipRecruiter Leads":  models.StageNew,
	"LinkedIn Leads":      models.StageNew,
	"Requested Resume":    models.StageNew,

	"Screening":           models.StageScreening,
	"Automated Ai Review": models.StageScreening,
	"Pre-Qualified":       models.StageScreening,
	"Qualified":           models.StageScreening,

	"To be invited for auto interview":    models.StageInterviewScheduled,
	"Auto Interview - Invited":            models.StageInterviewScheduled,
	"Invited to schedule interview":       models.StageInterviewScheduled,
	"Interview Scheduled":                 models.StageInterviewScheduled,
	"Auto Interview - In progress":        models.StageInterviewScheduled,
	"Invited to reschedule the interview": models.StageInterviewScheduled,
	"Auto Interview - Done":               models.StageInterviewCompleted,

	"Language assessment assigned":       models.StageAssessment,
	"Lang. Assessment Assigned":          models.StageAssessment,
	"Language assessment to be graded":   models.StageAssessment,
	"Language assessment to be graded.":  models.StageAssessment,
	"Language assessment to be assigned": models.StageAssessment,
	"Failed Lang. Assessment":            models.StageAssessment,

	"Offer Accepted":                   models.StageOnboarding,
	"Offer Accepted Tier 2 (training)": models.StageOnboarding,
	"Offer Accepted Tier 3 (training)": models.StageOnboarding,
	"Offer Declined":                   models.StageInactive,

	"Documents Downloaded":              models.StageOnboarding,
	"ID Verification":                   models.StageOnboarding,
	"Waiting Training":                  models.StageOnboarding,
	"Waiting for Training":              models.StageOnboarding,
	"Invited for Upcoming Training":     models.StageOnboarding,
	"Booked for training":               models.StageOnboarding,
	"On training":                       models.StageOnboarding,
	"Waiting for System Specs Approval": models.StageOnboarding,
	"Invited to AlfaOne":                models.StageOnboarding,
	"Training Completed":                models.StageActive,
	"Failed Training":                   models.StageInactive,
	"Training No Show":                  models.StageInactive,
	"Failed Onboarding":                 models.StageInactive,

	"Tier 1": models.StageActive,
	"Tier 2": models.StageActive,
	"Tier 3": models.StageActive,

	"Lost Lead":         models.StageInactive,
	"Lost Candidate":    models.StageInactive,
	"Contact in Future": models.StageInactive,
	"Not Qualified":     models.StageRejected,
	"Junk Lead":         models.StageRejected,
}

// statusRule is one ordered keyword fallback. Rules run top to bottom; the
// first match wins, so specific categories (tiers, terminal states) come
// before generic ones.
type statusRule struct {
	match func(string) bool
	stage models.Stage
}

func anyKeyword(keywords ...string) func(string) bool {
	return func(s string) bool {
		for _, kw := range keywords {
			if strings.Contains(s, kw) {
				return true
			}
		}
		return false
	}
}

var statusRules = []statusRule{
	{anyKeyword("tier 1", "tier 2", "tier 3"), models.StageActive},
	{anyKeyword("interview"), models.StageInterviewScheduled},
	{anyKeyword("screening"), models.StageScreening},
	{anyKeyword("assessment", "language"), models.StageAssessment},
	{anyKeyword("training"), models.StageOnboarding},
	{anyKeyword("onboarding", "document"), models.StageOnboarding},
	{anyKeyword("lost", "declined"), models.StageInactive},
	{func(s string) bool {
		return strings.Contains(s, "qualified") && !strings.Contains(s, "not")
	}, models.StageScreening},
}

// MapStatus maps a remote status string to a pipeline stage. Total function:
// every input, including empty and unknown strings, yields exactly one stage.
func MapStatus(remoteStatus string) models.Stage {
	remoteStatus = strings.TrimSpace(remoteStatus)
	if remoteStatus == "" {
		return models.StageNew
	}

	if stage, ok := statusTable[remoteStatus]; ok {
		return stage
	}

	lower := strings.ToLower(remoteStatus)
	for _, rule := range statusRules {
		if rule.match(lower) {
			return rule.stage
		}
	}
	return models.StageNew
}

// DeriveFlags computes the candidate flags implied by the raw status text:
// needs-training when training is mentioned but not completed, and
// pending-documents when documents or ID verification are mentioned.
func DeriveFlags(remoteStatus string) (needsTraining, pendingDocuments bool) {
	lower := strings.ToLower(remoteStatus)
	needsTraining = strings.Contains(lower, "training") && !strings.Contains(lower, "completed")
	pendingDocuments = strings.Contains(lower, "document") || strings.Contains(lower, "id verification")
	return needsTraining, pendingDocuments
}
