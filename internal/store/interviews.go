package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vmsantos44/alfa-platform/internal/models"
	enginesync "github.com/vmsantos44/alfa-platform/internal/sync"
)

const interviewColumns = `
	id, remote_id, candidate_remote_id, candidate_name,
	title, interview_type, scheduled_at, duration_minutes, status,
	is_no_show, no_show_count, no_show_followup_sent,
	original_date, reschedule_count,
	interviewer, notes, outcome,
	last_synced_at, created_at, updated_at`

const selectInterviewForUpdateSQL = `SELECT` + interviewColumns + `
	FROM interviews WHERE remote_id = $1 FOR UPDATE`

const insertInterviewSQL = `
	INSERT INTO interviews (` + interviewColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
	)`

const updateInterviewSQL = `
	UPDATE interviews SET
		candidate_remote_id = $2, candidate_name = $3,
		title = $4, interview_type = $5, scheduled_at = $6, duration_minutes = $7, status = $8,
		is_no_show = $9, no_show_count = $10, no_show_followup_sent = $11,
		original_date = $12, reschedule_count = $13,
		interviewer = $14, notes = $15, outcome = $16,
		last_synced_at = $17, updated_at = $18
	WHERE id = $1`

// ApplyInterviews upserts one page of interviews keyed by remote id.
func (s *Store) ApplyInterviews(ctx context.Context, interviews []*models.Interview, now time.Time) (*enginesync.PageResult, error) {
	return applyPage(ctx, s.pool, interviews,
		func(iv *models.Interview) string { return iv.RemoteID },
		func(ctx context.Context, tx pgx.Tx, iv *models.Interview) (bool, error) {
			return upsertInterview(ctx, tx, iv, now)
		})
}

func upsertInterview(ctx context.Context, tx pgx.Tx, in *models.Interview, now time.Time) (bool, error) {
	existing, err := scanInterview(tx.QueryRow(ctx, selectInterviewForUpdateSQL, in.RemoteID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		in.ID = uuid.New()
		in.LastSyncedAt = now
		in.CreatedAt = now
		in.UpdatedAt = now
		if _, err := tx.Exec(ctx, insertInterviewSQL, interviewArgs(in)...); err != nil {
			return false, fmt.Errorf("inserting interview: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("loading interview: %w", err)
	}

	existing.ApplyUpdate(in, now)
	if _, err := tx.Exec(ctx, updateInterviewSQL, interviewUpdateArgs(existing)...); err != nil {
		return false, fmt.Errorf("updating interview: %w", err)
	}
	return false, nil
}

// UnfollowedNoShows returns no-show interviews that have not had a followup
// recorded, most recent first.
func (s *Store) UnfollowedNoShows(ctx context.Context, limit int) ([]*models.Interview, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+interviewColumns+`
		FROM interviews
		WHERE is_no_show AND NOT no_show_followup_sent
		ORDER BY scheduled_at DESC NULLS LAST LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying unfollowed no-shows: %w", err)
	}
	return collectInterviews(rows)
}

// ScheduledInterviewsBetween returns interviews still in scheduled status with
// a scheduled time inside the window, soonest first.
func (s *Store) ScheduledInterviewsBetween(ctx context.Context, from, to time.Time) ([]*models.Interview, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+interviewColumns+`
		FROM interviews
		WHERE status = $1 AND scheduled_at BETWEEN $2 AND $3
		ORDER BY scheduled_at ASC`,
		models.InterviewScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled interviews: %w", err)
	}
	return collectInterviews(rows)
}

// ListInterviewsForCandidate returns a candidate's interviews, newest first.
func (s *Store) ListInterviewsForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Interview, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+interviewColumns+`
		FROM interviews WHERE candidate_remote_id = $1
		ORDER BY scheduled_at DESC NULLS LAST`,
		candidateRemoteID)
	if err != nil {
		return nil, fmt.Errorf("listing interviews: %w", err)
	}
	return collectInterviews(rows)
}

// MarkNoShowFollowupSent records that a no-show was followed up, so it stops
// generating alerts. Returns ErrNotFound for an unknown remote id.
func (s *Store) MarkNoShowFollowupSent(ctx context.Context, remoteID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE interviews
		SET no_show_followup_sent = TRUE, updated_at = (NOW() AT TIME ZONE 'utc')
		WHERE remote_id = $1`,
		remoteID)
	if err != nil {
		return fmt.Errorf("marking no-show followup: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func interviewArgs(iv *models.Interview) []any {
	return []any{
		iv.ID, iv.RemoteID, iv.CandidateRemoteID, iv.CandidateName,
		iv.Title, iv.InterviewType, iv.ScheduledAt, iv.DurationMinutes, iv.Status,
		iv.IsNoShow, iv.NoShowCount, iv.NoShowFollowupSent,
		iv.OriginalDate, iv.RescheduleCount,
		iv.Interviewer, iv.Notes, iv.Outcome,
		iv.LastSyncedAt, iv.CreatedAt, iv.UpdatedAt,
	}
}

func interviewUpdateArgs(iv *models.Interview) []any {
	return []any{
		iv.ID,
		iv.CandidateRemoteID, iv.CandidateName,
		iv.Title, iv.InterviewType, iv.ScheduledAt, iv.DurationMinutes, iv.Status,
		iv.IsNoShow, iv.NoShowCount, iv.NoShowFollowupSent,
		iv.OriginalDate, iv.RescheduleCount,
		iv.Interviewer, iv.Notes, iv.Outcome,
		iv.LastSyncedAt, iv.UpdatedAt,
	}
}

func scanInterview(row pgx.Row) (*models.Interview, error) {
	var iv models.Interview
	err := row.Scan(
		&iv.ID, &iv.RemoteID, &iv.CandidateRemoteID, &iv.CandidateName,
		&iv.Title, &iv.InterviewType, &iv.ScheduledAt, &iv.DurationMinutes, &iv.Status,
		&iv.IsNoShow, &iv.NoShowCount, &iv.NoShowFollowupSent,
		&iv.OriginalDate, &iv.RescheduleCount,
		&iv.Interviewer, &iv.Notes, &iv.Outcome,
		&iv.LastSyncedAt, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

func collectInterviews(rows pgx.Rows) ([]*models.Interview, error) {
	defer rows.Close()
	var out []*models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning interview: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}
