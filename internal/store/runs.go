package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vmsantos44/alfa-platform/internal/models"
)

const syncRunColumns = `
	id, kind, status, started_at, completed_at,
	records_processed, records_created, records_updated, error_count, error_message`

// StartRun opens a new ledger entry for a sync run.
func (s *Store) StartRun(ctx context.Context, kind models.RecordKind) (*models.SyncRun, error) {
	run := &models.SyncRun{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    models.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_runs (id, kind, status, started_at)
		VALUES ($1, $2, $3, $4)`,
		run.ID, run.Kind, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("opening ledger entry: %w", err)
	}
	return run, nil
}

// FinishRun closes a ledger entry with its final status and counts.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, status models.SyncRunStatus, counts models.RunCounts, errorMessage string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_runs SET
			status = $2, completed_at = $3,
			records_processed = $4, records_created = $5, records_updated = $6,
			error_count = $7, error_message = $8
		WHERE id = $1`,
		id, status, time.Now().UTC(),
		counts.Processed, counts.Created, counts.Updated,
		counts.Errors, errorMessage)
	if err != nil {
		return fmt.Errorf("closing ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LastCompletedRun returns the most recent completed run for a kind, or nil if
// the kind has never completed a sync.
func (s *Store) LastCompletedRun(ctx context.Context, kind models.RecordKind) (*models.SyncRun, error) {
	run, err := scanSyncRun(s.pool.QueryRow(ctx, `SELECT`+syncRunColumns+`
		FROM sync_runs
		WHERE kind = $1 AND status = $2
		ORDER BY completed_at DESC LIMIT 1`,
		kind, models.RunCompleted))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	return run, nil
}

// RecentRuns returns the latest ledger entries across all kinds, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+syncRunColumns+`
		FROM sync_runs ORDER BY started_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing ledger entries: %w", err)
	}
	defer rows.Close()

	var out []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanSyncRun(row pgx.Row) (*models.SyncRun, error) {
	var run models.SyncRun
	err := row.Scan(
		&run.ID, &run.Kind, &run.Status, &run.StartedAt, &run.CompletedAt,
		&run.Counts.Processed, &run.Counts.Created, &run.Counts.Updated,
		&run.Counts.Errors, &run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}
