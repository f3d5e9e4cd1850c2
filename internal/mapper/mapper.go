package mapper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/vmsantos44/alfa-platform/internal/models"
	"github.com/vmsantos44/alfa-platform/internal/textnorm"
)

// ErrSkipRecord marks a raw record that is valid but out of scope, e.g. a
// calendar event that is not an interview. Skips are neither processed nor
// errors.
var ErrSkipRecord = errors.New("record out of scope")

const (
	summaryMaxLen   = 200
	maxKeyPhrases   = 5
	defaultDuration = 30
)

// Mapper converts raw remote records into local entities.
type Mapper struct {
	norm   *textnorm.Normalizer
	noShow NoShowPolicy
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithNoShowPolicy overrides the status-inference policy for interviews
// without an explicit check-in state.
func WithNoShowPolicy(p NoShowPolicy) Option {
	return func(m *Mapper) {
		m.noShow = p
	}
}

// WithNormalizer overrides the text normalizer used for note content.
func WithNormalizer(n *textnorm.Normalizer) Option {
	return func(m *Mapper) {
		m.norm = n
	}
}

// New creates a Mapper with the default normalizer and no-show policy.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		norm:   textnorm.New(),
		noShow: DefaultNoShowPolicy(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Candidate maps a raw candidate record into the local entity shape.
func (m *Mapper) Candidate(raw *models.RawCandidate, now time.Time) (*models.Candidate, error) {
	remoteID := raw.ID.String()
	if remoteID == "" {
		return nil, errors.New("candidate record has no id")
	}

	firstName := raw.FirstName.String()
	lastName := raw.LastName.String()
	fullName := raw.FullName.String()
	if fullName == "" {
		fullName = strings.TrimSpace(firstName + " " + lastName)
	}
	if fullName == "" {
		fullName = "Unknown"
	}

	rawStatus := raw.LeadStatus.String()
	needsTraining, pendingDocs := DeriveFlags(rawStatus)

	c := &models.Candidate{
		RemoteID:  remoteID,
		FirstName: firstName,
		LastName:  lastName,
		FullName:  fullName,
		Email:     raw.Email.String(),
		Phone:     raw.Phone.String(),
		Mobile:    raw.Mobile.String(),
		City:      raw.City.String(),
		State:     raw.State.String(),
		Country:   raw.Country.String(),

		RawStatus: rawStatus,
		Stage:     MapStatus(rawStatus),
		Tier:      raw.Tier.String(),
		Languages: raw.Languages.String(),

		CandidateOwner:   raw.Owner.String(),
		RecruitmentOwner: raw.RecruitmentOwner.String(),
		Source:           raw.LeadSource.String(),

		AssessmentGradedBy: raw.AssessmentGrader.String(),
		AssessmentDate:     parseTime(raw.AssessmentDate),
		OfferSentAt:        parseTime(raw.OfferSentDate),
		TrainingStartAt:    parseTime(raw.TrainingStart),

		IsUnresponsive:      raw.Unresponsive.Bool(),
		HasPendingDocuments: pendingDocs,
		NeedsTraining:       needsTraining,

		LastActivityAt:   parseTime(raw.LastActivityTime),
		RemoteCreatedAt:  parseTime(raw.CreatedTime),
		RemoteModifiedAt: parseTime(raw.ModifiedTime),

		LastSyncedAt: now,
	}

	if raw.AssessmentPassed != nil {
		passed := raw.AssessmentPassed.Bool()
		c.AssessmentPassed = &passed
	}

	return c, nil
}

// Interview maps a raw calendar event into an interview entity. Events whose
// title does not identify an interview, and events without a start time, are
// skipped with ErrSkipRecord.
func (m *Mapper) Interview(raw *models.RawInterview, now time.Time) (*models.Interview, error) {
	remoteID := raw.ID.String()
	if remoteID == "" {
		return nil, errors.New("event record has no id")
	}

	title := raw.Title.String()
	if title == "" {
		title = "Interview"
	}
	if !IsInterviewEvent(title) {
		return nil, fmt.Errorf("event %q is not an interview: %w", title, ErrSkipRecord)
	}

	scheduledAt := parseTime(raw.StartDateTime)
	if scheduledAt == nil {
		return nil, fmt.Errorf("event has no start time: %w", ErrSkipRecord)
	}

	duration := raw.Duration.Int()
	if duration <= 0 {
		if endAt := parseTime(raw.EndDateTime); endAt != nil && endAt.After(*scheduledAt) {
			duration = int(endAt.Sub(*scheduledAt).Minutes())
		} else {
			duration = defaultDuration
		}
	}

	status, isNoShow := m.interviewStatus(raw, *scheduledAt, now)

	candidateID := raw.CandidateID.String()
	if candidateID == "" {
		candidateID = raw.WhoID.String()
	}
	candidateName := raw.CandidateName.String()
	if candidateName == "" {
		candidateName = "Unknown"
	}

	iv := &models.Interview{
		RemoteID:          remoteID,
		CandidateRemoteID: candidateID,
		CandidateName:     candidateName,
		Title:             title,
		InterviewType:     InterviewTypeFromTitle(title),
		ScheduledAt:       scheduledAt,
		DurationMinutes:   duration,
		Status:            status,
		IsNoShow:          isNoShow,
		Interviewer:       raw.Interviewer.String(),
		Notes:             raw.Description.String(),
		Outcome:           raw.Outcome.String(),
		LastSyncedAt:      now,
	}
	if isNoShow {
		iv.NoShowCount = 1
	}
	return iv, nil
}

// interviewStatus derives the lifecycle status from the remote check-in state
// when present, falling back to the no-show inference policy otherwise.
func (m *Mapper) interviewStatus(raw *models.RawInterview, scheduledAt, now time.Time) (models.InterviewStatus, bool) {
	if raw.Cancelled.Bool() {
		return models.InterviewCancelled, false
	}

	checkIn := strings.ToLower(raw.CheckInStatus.String())
	if checkIn != "" {
		switch {
		case strings.Contains(checkIn, "checked in"), strings.Contains(checkIn, "completed"):
			return models.InterviewCompleted, false
		case strings.Contains(checkIn, "no show"), strings.Contains(checkIn, "absent"):
			return models.InterviewNoShow, true
		case strings.Contains(checkIn, "cancelled"):
			return models.InterviewCancelled, false
		}
		// Unrecognized check-in text: a past event with no usable check-in is
		// a miss, a future one is still scheduled.
		if scheduledAt.Before(now) {
			return models.InterviewNoShow, true
		}
		return models.InterviewScheduled, false
	}

	status := m.noShow.Classify(scheduledAt, now)
	return status, status == models.InterviewNoShow
}

// Task maps a raw task record into the local entity shape.
func (m *Mapper) Task(raw *models.RawTask, now time.Time) (*models.Task, error) {
	remoteID := raw.ID.String()
	if remoteID == "" {
		return nil, errors.New("task record has no id")
	}

	title := raw.Subject.String()
	if title == "" {
		title = "Task"
	}

	return &models.Task{
		RemoteID:          remoteID,
		CandidateRemoteID: raw.WhoID.String(),
		CandidateName:     raw.CandidateName.String(),
		Title:             title,
		Description:       raw.Description.String(),
		TaskType:          TaskTypeFromTitle(title),
		Status:            TaskStatusFromRemote(raw.Status.String()),
		Priority:          PriorityFromRemote(raw.Priority.String()),
		DueDate:           parseTime(raw.DueDate),
		CompletedAt:       parseTime(raw.ClosedTime),
		AssignedTo:        raw.Owner.String(),
		CreatedBy:         raw.CreatedBy.String(),
		LastSyncedAt:      now,
	}, nil
}

// Note maps a raw note record, normalizing its content and deriving the
// summary and key phrases.
func (m *Mapper) Note(raw *models.RawNote, now time.Time) (*models.Note, error) {
	remoteID := raw.ID.String()
	if remoteID == "" {
		return nil, errors.New("note record has no id")
	}

	content := m.norm.StripMarkup(raw.Content.String())

	return &models.Note{
		RemoteID:          remoteID,
		CandidateRemoteID: raw.ParentID.String(),
		Content:           content,
		Summary:           m.norm.Summarize(content, summaryMaxLen),
		KeyPhrases:        m.norm.KeyPhrases(content, maxKeyPhrases),
		NoteType:          raw.Title.String(),
		Author:            raw.CreatedBy.String(),
		RemoteCreatedAt:   parseTime(raw.CreatedTime),
		LastSyncedAt:      now,
	}, nil
}

// Email maps a raw email record into the local entity shape. The snippet is
// normalized plain text; the full body stays remote.
func (m *Mapper) Email(raw *models.RawEmail, now time.Time) (*models.Email, error) {
	remoteID := raw.ID.String()
	if remoteID == "" {
		remoteID = raw.MessageID.String()
	}
	if remoteID == "" {
		return nil, errors.New("email record has no id")
	}

	from := raw.From.String()
	direction := models.EmailInbound
	switch {
	case isSystemSender(from):
		direction = models.EmailSystem
	case raw.Sent.Bool():
		direction = models.EmailOutbound
	}

	return &models.Email{
		RemoteID:          remoteID,
		CandidateRemoteID: raw.CandidateID.String(),
		Direction:         direction,
		From:              from,
		To:                raw.To.String(),
		Subject:           raw.Subject.String(),
		Snippet:           m.norm.Summarize(m.norm.StripMarkup(raw.Snippet.String()), summaryMaxLen),
		ThreadID:          raw.ThreadID.String(),
		SentAt:            parseTime(raw.SentTime),
		LastSyncedAt:      now,
	}, nil
}

func isSystemSender(from string) bool {
	lower := strings.ToLower(from)
	return strings.Contains(lower, "noreply") || strings.Contains(lower, "no-reply") ||
		strings.Contains(lower, "notifications@")
}

// parseTime accepts the remote source's assorted date formats and normalizes
// to UTC so stored timestamps compare without timezone arithmetic. Unparseable
// values become nil rather than errors; a bad date never fails a record.
func parseTime(t models.Text) *time.Time {
	s := t.String()
	if s == "" {
		return nil
	}
	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	utc := parsed.UTC()
	return &utc
}
