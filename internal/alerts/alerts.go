// Package alerts derives actionable alerts from the reconciled local state.
// Alerts are recomputed on every call from time-threshold rules; nothing here
// mutates the store.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

// Category identifies one of the five independent alert rules.
type Category string

const (
	CategoryNoShows            Category = "no_shows"
	CategoryStuckCandidates    Category = "stuck_candidates"
	CategoryUpcomingInterviews Category = "upcoming_interviews"
	CategoryOverdueAssessments Category = "overdue_assessments"
	CategoryPendingDocuments   Category = "pending_documents"
)

// categories in presentation order.
var categories = []Category{
	CategoryNoShows,
	CategoryStuckCandidates,
	CategoryUpcomingInterviews,
	CategoryOverdueAssessments,
	CategoryPendingDocuments,
}

// StuckThresholds is the per-stage dwell time, in days, after which a
// candidate counts as stuck.
var StuckThresholds = map[models.Stage]int{
	models.StageNew:                3,
	models.StageScreening:          5,
	models.StageInterviewScheduled: 7,
	models.StageInterviewCompleted: 5,
	models.StageAssessment:         7,
	models.StageOnboarding:         14,
}

const (
	// assessmentOverdueDays is how long a candidate may sit in an
	// assessment-adjacent stage without a recorded outcome.
	assessmentOverdueDays = 5

	// noShowRecentDays is the follow-up urgency window after a missed
	// interview.
	noShowRecentDays = 2

	// startingSoonWindow marks an interview as imminent.
	startingSoonWindow = 2 * time.Hour

	perCategoryLimit = 20
	perStageLimit    = 10
)

// Alert is one actionable item.
type Alert struct {
	ID                string          `json:"id"`
	Category          Category        `json:"category"`
	Priority          models.Priority `json:"priority"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	CandidateRemoteID string          `json:"candidate_remote_id,omitempty"`
	CandidateName     string          `json:"candidate_name,omitempty"`
	Stage             models.Stage    `json:"stage,omitempty"`
	Days              int             `json:"days,omitempty"`
	ScheduledAt       *time.Time      `json:"scheduled_at,omitempty"`
}

// Summary aggregates a report for badge display.
type Summary struct {
	Total            int              `json:"total"`
	HighPriority     int              `json:"high_priority"`
	HighPriorityRate float64          `json:"high_priority_rate"`
	PerCategory      map[Category]int `json:"per_category"`
}

// Report is the grouped output of a full alert derivation pass.
type Report struct {
	Alerts  map[Category][]Alert `json:"alerts"`
	Summary Summary              `json:"summary"`
}

// Reader is the read-only store access alert derivation needs.
type Reader interface {
	UnfollowedNoShows(ctx context.Context, limit int) ([]*models.Interview, error)
	CandidatesInStages(ctx context.Context, stages []models.Stage, limit int) ([]*models.Candidate, error)
	ScheduledInterviewsBetween(ctx context.Context, from, to time.Time) ([]*models.Interview, error)
	CandidatesPendingDocuments(ctx context.Context, limit int) ([]*models.Candidate, error)
}

// Service computes alerts over the reconciled state.
type Service struct {
	store Reader
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates an alert derivation service.
func New(store Reader, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAll computes every category and returns the grouped report.
func (s *Service) GetAll(ctx context.Context) (*Report, error) {
	report := &Report{
		Alerts: make(map[Category][]Alert, len(categories)),
	}

	type derivation struct {
		category Category
		derive   func(context.Context) ([]Alert, error)
	}
	for _, d := range []derivation{
		{CategoryNoShows, s.noShowAlerts},
		{CategoryStuckCandidates, s.stuckCandidateAlerts},
		{CategoryUpcomingInterviews, s.upcomingInterviewAlerts},
		{CategoryOverdueAssessments, s.overdueAssessmentAlerts},
		{CategoryPendingDocuments, s.pendingDocumentAlerts},
	} {
		alerts, err := d.derive(ctx)
		if err != nil {
			return nil, fmt.Errorf("deriving %s alerts: %w", d.category, err)
		}
		report.Alerts[d.category] = alerts
	}

	report.Summary = summarize(report.Alerts)
	return report, nil
}

// GetFlat returns all alerts as one priority-sorted list, optionally filtered
// to a single priority. Pass an empty priority to include everything.
func (s *Service) GetFlat(ctx context.Context, limit int, priority models.Priority) ([]Alert, error) {
	report, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	flat := make([]Alert, 0)
	for _, cat := range categories {
		for _, a := range report.Alerts[cat] {
			if priority != "" && a.Priority != priority {
				continue
			}
			flat = append(flat, a)
		}
	}

	sort.SliceStable(flat, func(i, j int) bool {
		ri, rj := priorityRank(flat[i].Priority), priorityRank(flat[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return alertTime(flat[i]).Before(alertTime(flat[j]))
	})

	if limit > 0 && len(flat) > limit {
		flat = flat[:limit]
	}
	return flat, nil
}

// GetCounts returns per-category counts for badge display.
func (s *Service) GetCounts(ctx context.Context) (map[Category]int, error) {
	report, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return report.Summary.PerCategory, nil
}

func (s *Service) noShowAlerts(ctx context.Context) ([]Alert, error) {
	interviews, err := s.store.UnfollowedNoShows(ctx, perCategoryLimit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alerts := make([]Alert, 0, len(interviews))
	for _, iv := range interviews {
		// Urgency comes from how recent the miss was; an undated no-show
		// cannot claim recency and stays at medium.
		priority := models.PriorityMedium
		description := "Missed interview, follow-up needed"
		var daysSince int
		if iv.ScheduledAt != nil {
			daysSince = models.WholeDays(*iv.ScheduledAt, now)
			description = fmt.Sprintf("Missed interview %d days ago, follow-up needed", daysSince)
			if daysSince <= noShowRecentDays {
				priority = models.PriorityHigh
			}
		}
		alerts = append(alerts, Alert{
			ID:                fmt.Sprintf("no_show_%s", iv.RemoteID),
			Category:          CategoryNoShows,
			Priority:          priority,
			Title:             fmt.Sprintf("No-show: %s", iv.CandidateName),
			Description:       description,
			CandidateRemoteID: iv.CandidateRemoteID,
			CandidateName:     iv.CandidateName,
			Days:              daysSince,
			ScheduledAt:       iv.ScheduledAt,
		})
	}
	return alerts, nil
}

func (s *Service) stuckCandidateAlerts(ctx context.Context) ([]Alert, error) {
	now := s.now()
	alerts := make([]Alert, 0)

	for _, stage := range models.ActiveStages() {
		threshold, ok := StuckThresholds[stage]
		if !ok {
			continue
		}
		candidates, err := s.store.CandidatesInStages(ctx, []models.Stage{stage}, perStageLimit)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			daysStuck := models.WholeDays(c.StageEnteredAt, now)
			if daysStuck < threshold {
				continue
			}
			alerts = append(alerts, Alert{
				ID:                fmt.Sprintf("stuck_%s", c.RemoteID),
				Category:          CategoryStuckCandidates,
				Priority:          scaledPriority(daysStuck, threshold),
				Title:             fmt.Sprintf("Stuck: %s", c.FullName),
				Description:       fmt.Sprintf("In %s for %d days (threshold %d)", stage, daysStuck, threshold),
				CandidateRemoteID: c.RemoteID,
				CandidateName:     c.FullName,
				Stage:             stage,
				Days:              daysStuck,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := priorityRank(alerts[i].Priority), priorityRank(alerts[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return alerts[i].Days > alerts[j].Days
	})
	if len(alerts) > perCategoryLimit {
		alerts = alerts[:perCategoryLimit]
	}
	return alerts, nil
}

func (s *Service) upcomingInterviewAlerts(ctx context.Context) ([]Alert, error) {
	now := s.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrowEnd := todayStart.AddDate(0, 0, 2).Add(-time.Nanosecond)

	interviews, err := s.store.ScheduledInterviewsBetween(ctx, todayStart, tomorrowEnd)
	if err != nil {
		return nil, err
	}

	alerts := make([]Alert, 0, len(interviews))
	for _, iv := range interviews {
		if iv.ScheduledAt == nil {
			continue
		}
		isToday := iv.ScheduledAt.Before(todayStart.AddDate(0, 0, 1))
		var priority models.Priority
		var label string
		switch {
		case isToday && !iv.ScheduledAt.After(now.Add(startingSoonWindow)):
			priority, label = models.PriorityHigh, "starting soon"
		case isToday:
			priority, label = models.PriorityMedium, "today"
		default:
			priority, label = models.PriorityLow, "tomorrow"
		}
		alerts = append(alerts, Alert{
			ID:                fmt.Sprintf("interview_%s", iv.RemoteID),
			Category:          CategoryUpcomingInterviews,
			Priority:          priority,
			Title:             fmt.Sprintf("Interview: %s", iv.CandidateName),
			Description:       fmt.Sprintf("%s at %s (%s)", label, iv.ScheduledAt.Format("15:04"), iv.InterviewType),
			CandidateRemoteID: iv.CandidateRemoteID,
			CandidateName:     iv.CandidateName,
			ScheduledAt:       iv.ScheduledAt,
		})
	}
	return alerts, nil
}

func (s *Service) overdueAssessmentAlerts(ctx context.Context) ([]Alert, error) {
	candidates, err := s.store.CandidatesInStages(ctx,
		[]models.Stage{models.StageAssessment, models.StageInterviewCompleted}, perCategoryLimit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alerts := make([]Alert, 0)
	for _, c := range candidates {
		if c.AssessmentPassed != nil {
			continue
		}
		daysWaiting := models.WholeDays(c.StageEnteredAt, now)
		if daysWaiting < assessmentOverdueDays {
			continue
		}
		priority := models.PriorityMedium
		if daysWaiting >= assessmentOverdueDays*2 {
			priority = models.PriorityHigh
		}
		alerts = append(alerts, Alert{
			ID:                fmt.Sprintf("assessment_%s", c.RemoteID),
			Category:          CategoryOverdueAssessments,
			Priority:          priority,
			Title:             fmt.Sprintf("Assessment: %s", c.FullName),
			Description:       fmt.Sprintf("Assessment outcome pending for %d days", daysWaiting),
			CandidateRemoteID: c.RemoteID,
			CandidateName:     c.FullName,
			Stage:             c.Stage,
			Days:              daysWaiting,
		})
	}
	return alerts, nil
}

func (s *Service) pendingDocumentAlerts(ctx context.Context) ([]Alert, error) {
	candidates, err := s.store.CandidatesPendingDocuments(ctx, perCategoryLimit)
	if err != nil {
		return nil, err
	}

	active := make(map[models.Stage]bool, len(models.ActiveStages()))
	for _, stage := range models.ActiveStages() {
		active[stage] = true
	}

	alerts := make([]Alert, 0, len(candidates))
	for _, c := range candidates {
		priority := models.PriorityLow
		if active[c.Stage] {
			priority = models.PriorityMedium
		}
		alerts = append(alerts, Alert{
			ID:                fmt.Sprintf("documents_%s", c.RemoteID),
			Category:          CategoryPendingDocuments,
			Priority:          priority,
			Title:             fmt.Sprintf("Documents: %s", c.FullName),
			Description:       fmt.Sprintf("Pending document review (%s)", c.Stage),
			CandidateRemoteID: c.RemoteID,
			CandidateName:     c.FullName,
			Stage:             c.Stage,
		})
	}
	return alerts, nil
}

// scaledPriority maps dwell time to urgency: low at the threshold, medium at
// 1.5x, high at 2x.
func scaledPriority(days, threshold int) models.Priority {
	switch {
	case days >= threshold*2:
		return models.PriorityHigh
	case float64(days) >= float64(threshold)*1.5:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func priorityRank(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	default:
		return 2
	}
}

// alertTime picks the timestamp used for secondary sorting.
func alertTime(a Alert) time.Time {
	if a.ScheduledAt != nil {
		return *a.ScheduledAt
	}
	return time.Time{}
}

func summarize(grouped map[Category][]Alert) Summary {
	sum := Summary{PerCategory: make(map[Category]int, len(grouped))}
	for cat, alerts := range grouped {
		sum.PerCategory[cat] = len(alerts)
		sum.Total += len(alerts)
		for _, a := range alerts {
			if a.Priority == models.PriorityHigh {
				sum.HighPriority++
			}
		}
	}
	// zero-denominator guard
	if sum.Total > 0 {
		sum.HighPriorityRate = float64(sum.HighPriority) / float64(sum.Total)
	}
	return sum
}
