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

const noteColumns = `
	id, remote_id, candidate_remote_id,
	content, summary, key_phrases, note_type, author,
	remote_created_at, last_synced_at, created_at, updated_at`

const selectNoteForUpdateSQL = `SELECT` + noteColumns + `
	FROM notes WHERE remote_id = $1 FOR UPDATE`

const insertNoteSQL = `
	INSERT INTO notes (` + noteColumns + `
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const updateNoteSQL = `
	UPDATE notes SET
		candidate_remote_id = $2,
		content = $3, summary = $4, key_phrases = $5, note_type = $6, author = $7,
		remote_created_at = $8, last_synced_at = $9, updated_at = $10
	WHERE id = $1`

// ApplyNotes upserts one page of notes keyed by remote id.
func (s *Store) ApplyNotes(ctx context.Context, notes []*models.Note, now time.Time) (*enginesync.PageResult, error) {
	return applyPage(ctx, s.pool, notes,
		func(n *models.Note) string { return n.RemoteID },
		func(ctx context.Context, tx pgx.Tx, n *models.Note) (bool, error) {
			return upsertNote(ctx, tx, n, now)
		})
}

func upsertNote(ctx context.Context, tx pgx.Tx, in *models.Note, now time.Time) (bool, error) {
	existing, err := scanNote(tx.QueryRow(ctx, selectNoteForUpdateSQL, in.RemoteID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		in.ID = uuid.New()
		in.LastSyncedAt = now
		in.CreatedAt = now
		in.UpdatedAt = now
		if _, err := tx.Exec(ctx, insertNoteSQL, noteArgs(in)...); err != nil {
			return false, fmt.Errorf("inserting note: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("loading note: %w", err)
	}

	existing.ApplyUpdate(in, now)
	if _, err := tx.Exec(ctx, updateNoteSQL,
		existing.ID,
		existing.CandidateRemoteID,
		existing.Content, existing.Summary, existing.KeyPhrases, existing.NoteType, existing.Author,
		existing.RemoteCreatedAt, existing.LastSyncedAt, existing.UpdatedAt,
	); err != nil {
		return false, fmt.Errorf("updating note: %w", err)
	}
	return false, nil
}

// ListNotesForCandidate returns a candidate's notes, newest first.
func (s *Store) ListNotesForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Note, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+noteColumns+`
		FROM notes WHERE candidate_remote_id = $1
		ORDER BY remote_created_at DESC NULLS LAST`,
		candidateRemoteID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var out []*models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func noteArgs(n *models.Note) []any {
	return []any{
		n.ID, n.RemoteID, n.CandidateRemoteID,
		n.Content, n.Summary, n.KeyPhrases, n.NoteType, n.Author,
		n.RemoteCreatedAt, n.LastSyncedAt, n.CreatedAt, n.UpdatedAt,
	}
}

func scanNote(row pgx.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(
		&n.ID, &n.RemoteID, &n.CandidateRemoteID,
		&n.Content, &n.Summary, &n.KeyPhrases, &n.NoteType, &n.Author,
		&n.RemoteCreatedAt, &n.LastSyncedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
