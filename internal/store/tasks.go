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

const taskColumns = `
	id, remote_id, candidate_remote_id, candidate_name,
	title, description, task_type, status, priority,
	due_date, completed_at, assigned_to, created_by,
	last_synced_at, created_at, updated_at`

const selectTaskForUpdateSQL = `SELECT` + taskColumns + `
	FROM tasks WHERE remote_id = $1 FOR UPDATE`

const insertTaskSQL = `
	INSERT INTO tasks (` + taskColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
	)`

const updateTaskSQL = `
	UPDATE tasks SET
		candidate_remote_id = $2, candidate_name = $3,
		title = $4, description = $5, task_type = $6, status = $7, priority = $8,
		due_date = $9, completed_at = $10, assigned_to = $11, created_by = $12,
		last_synced_at = $13, updated_at = $14
	WHERE id = $1`

// ApplyTasks upserts one page of tasks keyed by remote id.
func (s *Store) ApplyTasks(ctx context.Context, tasks []*models.Task, now time.Time) (*enginesync.PageResult, error) {
	return applyPage(ctx, s.pool, tasks,
		func(t *models.Task) string { return t.RemoteID },
		func(ctx context.Context, tx pgx.Tx, t *models.Task) (bool, error) {
			return upsertTask(ctx, tx, t, now)
		})
}

func upsertTask(ctx context.Context, tx pgx.Tx, in *models.Task, now time.Time) (bool, error) {
	existing, err := scanTask(tx.QueryRow(ctx, selectTaskForUpdateSQL, in.RemoteID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		in.ID = uuid.New()
		in.LastSyncedAt = now
		in.CreatedAt = now
		in.UpdatedAt = now
		if _, err := tx.Exec(ctx, insertTaskSQL, taskArgs(in)...); err != nil {
			return false, fmt.Errorf("inserting task: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("loading task: %w", err)
	}

	existing.ApplyUpdate(in, now)
	if _, err := tx.Exec(ctx, updateTaskSQL, taskUpdateArgs(existing)...); err != nil {
		return false, fmt.Errorf("updating task: %w", err)
	}
	return false, nil
}

// ListTasksForCandidate returns a candidate's tasks, soonest due first.
func (s *Store) ListTasksForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+taskColumns+`
		FROM tasks WHERE candidate_remote_id = $1
		ORDER BY due_date ASC NULLS LAST`,
		candidateRemoteID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func taskArgs(t *models.Task) []any {
	return []any{
		t.ID, t.RemoteID, t.CandidateRemoteID, t.CandidateName,
		t.Title, t.Description, t.TaskType, t.Status, t.Priority,
		t.DueDate, t.CompletedAt, t.AssignedTo, t.CreatedBy,
		t.LastSyncedAt, t.CreatedAt, t.UpdatedAt,
	}
}

func taskUpdateArgs(t *models.Task) []any {
	return []any{
		t.ID,
		t.CandidateRemoteID, t.CandidateName,
		t.Title, t.Description, t.TaskType, t.Status, t.Priority,
		t.DueDate, t.CompletedAt, t.AssignedTo, t.CreatedBy,
		t.LastSyncedAt, t.UpdatedAt,
	}
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.RemoteID, &t.CandidateRemoteID, &t.CandidateName,
		&t.Title, &t.Description, &t.TaskType, &t.Status, &t.Priority,
		&t.DueDate, &t.CompletedAt, &t.AssignedTo, &t.CreatedBy,
		&t.LastSyncedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
