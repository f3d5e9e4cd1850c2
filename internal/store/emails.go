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

const emailColumns = `
	id, remote_id, candidate_remote_id,
	direction, from_address, to_address, subject, snippet, thread_id, sent_at,
	last_synced_at, created_at, updated_at`

const selectEmailForUpdateSQL = `SELECT` + emailColumns + `
	FROM emails WHERE remote_id = $1 FOR UPDATE`

const insertEmailSQL = `
	INSERT INTO emails (` + emailColumns + `
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const updateEmailSQL = `
	UPDATE emails SET
		candidate_remote_id = $2,
		direction = $3, from_address = $4, to_address = $5,
		subject = $6, snippet = $7, thread_id = $8, sent_at = $9,
		last_synced_at = $10, updated_at = $11
	WHERE id = $1`

// ApplyEmails upserts one page of emails keyed by remote id.
func (s *Store) ApplyEmails(ctx context.Context, emails []*models.Email, now time.Time) (*enginesync.PageResult, error) {
	return applyPage(ctx, s.pool, emails,
		func(e *models.Email) string { return e.RemoteID },
		func(ctx context.Context, tx pgx.Tx, e *models.Email) (bool, error) {
			return upsertEmail(ctx, tx, e, now)
		})
}

func upsertEmail(ctx context.Context, tx pgx.Tx, in *models.Email, now time.Time) (bool, error) {
	existing, err := scanEmail(tx.QueryRow(ctx, selectEmailForUpdateSQL, in.RemoteID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		in.ID = uuid.New()
		in.LastSyncedAt = now
		in.CreatedAt = now
		in.UpdatedAt = now
		if _, err := tx.Exec(ctx, insertEmailSQL, emailArgs(in)...); err != nil {
			return false, fmt.Errorf("inserting email: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("loading email: %w", err)
	}

	existing.ApplyUpdate(in, now)
	if _, err := tx.Exec(ctx, updateEmailSQL,
		existing.ID,
		existing.CandidateRemoteID,
		existing.Direction, existing.From, existing.To,
		existing.Subject, existing.Snippet, existing.ThreadID, existing.SentAt,
		existing.LastSyncedAt, existing.UpdatedAt,
	); err != nil {
		return false, fmt.Errorf("updating email: %w", err)
	}
	return false, nil
}

// ListEmailsForCandidate returns a candidate's emails, newest first.
func (s *Store) ListEmailsForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Email, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+emailColumns+`
		FROM emails WHERE candidate_remote_id = $1
		ORDER BY sent_at DESC NULLS LAST`,
		candidateRemoteID)
	if err != nil {
		return nil, fmt.Errorf("listing emails: %w", err)
	}
	defer rows.Close()

	var out []*models.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning email: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func emailArgs(e *models.Email) []any {
	return []any{
		e.ID, e.RemoteID, e.CandidateRemoteID,
		e.Direction, e.From, e.To, e.Subject, e.Snippet, e.ThreadID, e.SentAt,
		e.LastSyncedAt, e.CreatedAt, e.UpdatedAt,
	}
}

func scanEmail(row pgx.Row) (*models.Email, error) {
	var e models.Email
	err := row.Scan(
		&e.ID, &e.RemoteID, &e.CandidateRemoteID,
		&e.Direction, &e.From, &e.To, &e.Subject, &e.Snippet, &e.ThreadID, &e.SentAt,
		&e.LastSyncedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
