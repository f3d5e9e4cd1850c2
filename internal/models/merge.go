package models

import "time"

// Transition rules shared by every writer of these entities. The store applies
// them inside its upsert transactions; tests apply them to in-memory rows.

// SeedStage initializes stage bookkeeping for a candidate seen for the first
// time. The stage-entered timestamp prefers the remote created time, then the
// last activity time, then now.
func (c *Candidate) SeedStage(now time.Time) {
	switch {
	case c.RemoteCreatedAt != nil:
		c.StageEnteredAt = *c.RemoteCreatedAt
	case c.LastActivityAt != nil:
		c.StageEnteredAt = *c.LastActivityAt
	default:
		c.StageEnteredAt = now
	}
	c.DaysInStage = 0
}

// ApplyUpdate merges an incoming candidate into the stored row. The
// stage-entered timestamp is reset only when the mapped stage actually
// differs; otherwise it is left untouched so days-in-stage keeps measuring
// true dwell time.
func (c *Candidate) ApplyUpdate(in *Candidate, now time.Time) {
	if in.Stage != c.Stage {
		if in.LastActivityAt != nil {
			c.StageEnteredAt = *in.LastActivityAt
		} else {
			c.StageEnteredAt = now
		}
	}
	c.Stage = in.Stage

	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.FullName = in.FullName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Mobile = in.Mobile
	c.City = in.City
	c.State = in.State
	c.Country = in.Country
	c.RawStatus = in.RawStatus
	c.Tier = in.Tier
	c.Languages = in.Languages
	c.CandidateOwner = in.CandidateOwner
	c.RecruitmentOwner = in.RecruitmentOwner
	c.Source = in.Source
	c.AssessmentPassed = in.AssessmentPassed
	c.AssessmentGradedBy = in.AssessmentGradedBy
	c.AssessmentDate = in.AssessmentDate
	c.OfferSentAt = in.OfferSentAt
	c.TrainingStartAt = in.TrainingStartAt
	c.IsUnresponsive = in.IsUnresponsive
	c.HasPendingDocuments = in.HasPendingDocuments
	c.NeedsTraining = in.NeedsTraining
	c.LastActivityAt = in.LastActivityAt
	c.RemoteCreatedAt = in.RemoteCreatedAt
	c.RemoteModifiedAt = in.RemoteModifiedAt

	c.LastSyncedAt = now
	c.UpdatedAt = now
}

// RecomputeDaysInStage recalculates the derived dwell-time counter.
func (c *Candidate) RecomputeDaysInStage(now time.Time) {
	c.DaysInStage = WholeDays(c.StageEnteredAt, now)
}

// WholeDays returns the number of whole days between two instants, never
// negative.
func WholeDays(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

// ApplyUpdate merges an incoming interview into the stored row.
//
// The no-show counter is monotonic: it increments only when the flag crosses
// from false to true, and never decrements. The original scheduled time is
// captured on the first reschedule and preserved afterwards.
func (iv *Interview) ApplyUpdate(in *Interview, now time.Time) {
	if in.IsNoShow && !iv.IsNoShow {
		iv.NoShowCount++
	}
	iv.IsNoShow = in.IsNoShow

	if !timePtrEqual(iv.ScheduledAt, in.ScheduledAt) {
		if iv.RescheduleCount == 0 {
			iv.OriginalDate = iv.ScheduledAt
		}
		iv.RescheduleCount++
		iv.ScheduledAt = in.ScheduledAt
	}

	iv.CandidateRemoteID = in.CandidateRemoteID
	iv.CandidateName = in.CandidateName
	iv.Title = in.Title
	iv.InterviewType = in.InterviewType
	iv.DurationMinutes = in.DurationMinutes
	iv.Status = in.Status
	iv.Interviewer = in.Interviewer
	iv.Notes = in.Notes
	iv.Outcome = in.Outcome

	iv.LastSyncedAt = now
	iv.UpdatedAt = now
}

// ApplyUpdate merges an incoming task into the stored row.
func (t *Task) ApplyUpdate(in *Task, now time.Time) {
	t.CandidateRemoteID = in.CandidateRemoteID
	t.CandidateName = in.CandidateName
	t.Title = in.Title
	t.Description = in.Description
	t.TaskType = in.TaskType
	t.Status = in.Status
	t.Priority = in.Priority
	t.DueDate = in.DueDate
	t.CompletedAt = in.CompletedAt
	t.AssignedTo = in.AssignedTo
	t.CreatedBy = in.CreatedBy

	t.LastSyncedAt = now
	t.UpdatedAt = now
}

// ApplyUpdate merges an incoming note into the stored row. The summary and
// key phrases are regenerated only when the normalized content changed, so
// repeated syncs don't churn derived text.
func (n *Note) ApplyUpdate(in *Note, now time.Time) {
	if n.Content != in.Content {
		n.Content = in.Content
		n.Summary = in.Summary
		n.KeyPhrases = in.KeyPhrases
	}
	n.CandidateRemoteID = in.CandidateRemoteID
	n.NoteType = in.NoteType
	n.Author = in.Author
	n.RemoteCreatedAt = in.RemoteCreatedAt

	n.LastSyncedAt = now
	n.UpdatedAt = now
}

// ApplyUpdate merges an incoming email into the stored row.
func (e *Email) ApplyUpdate(in *Email, now time.Time) {
	e.CandidateRemoteID = in.CandidateRemoteID
	e.Direction = in.Direction
	e.From = in.From
	e.To = in.To
	e.Subject = in.Subject
	e.Snippet = in.Snippet
	e.ThreadID = in.ThreadID
	e.SentAt = in.SentAt

	e.LastSyncedAt = now
	e.UpdatedAt = now
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
