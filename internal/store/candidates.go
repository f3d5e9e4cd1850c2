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

const candidateColumns = `
	id, remote_id,
	first_name, last_name, full_name, email, phone, mobile, city, state, country,
	raw_status, stage, tier, languages,
	candidate_owner, recruitment_owner, source,
	assessment_passed, assessment_graded_by, assessment_date, offer_sent_at, training_start_at,
	is_unresponsive, has_pending_documents, needs_training,
	stage_entered_at, days_in_stage,
	last_activity_at, remote_created_at, remote_modified_at,
	last_synced_at, created_at, updated_at`

const selectCandidateForUpdateSQL = `SELECT` + candidateColumns + `
	FROM candidates WHERE remote_id = $1 FOR UPDATE`

const selectCandidateSQL = `SELECT` + candidateColumns + `
	FROM candidates WHERE remote_id = $1`

const insertCandidateSQL = `
	INSERT INTO candidates (` + candidateColumns + `
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34
	)`

const updateCandidateSQL = `
	UPDATE candidates SET
		first_name = $2, last_name = $3, full_name = $4, email = $5, phone = $6,
		mobile = $7, city = $8, state = $9, country = $10,
		raw_status = $11, stage = $12, tier = $13, languages = $14,
		candidate_owner = $15, recruitment_owner = $16, source = $17,
		assessment_passed = $18, assessment_graded_by = $19, assessment_date = $20,
		offer_sent_at = $21, training_start_at = $22,
		is_unresponsive = $23, has_pending_documents = $24, needs_training = $25,
		stage_entered_at = $26, days_in_stage = $27,
		last_activity_at = $28, remote_created_at = $29, remote_modified_at = $30,
		last_synced_at = $31, updated_at = $32
	WHERE id = $1`

// ApplyCandidates upserts one page of candidates keyed by remote id.
func (s *Store) ApplyCandidates(ctx context.Context, candidates []*models.Candidate, now time.Time) (*enginesync.PageResult, error) {
	return applyPage(ctx, s.pool, candidates,
		func(c *models.Candidate) string { return c.RemoteID },
		func(ctx context.Context, tx pgx.Tx, c *models.Candidate) (bool, error) {
			return upsertCandidate(ctx, tx, c, now)
		})
}

func upsertCandidate(ctx context.Context, tx pgx.Tx, in *models.Candidate, now time.Time) (bool, error) {
	existing, err := scanCandidate(tx.QueryRow(ctx, selectCandidateForUpdateSQL, in.RemoteID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		in.ID = uuid.New()
		in.SeedStage(now)
		in.LastSyncedAt = now
		in.CreatedAt = now
		in.UpdatedAt = now
		if _, err := tx.Exec(ctx, insertCandidateSQL, candidateArgs(in)...); err != nil {
			return false, fmt.Errorf("inserting candidate: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("loading candidate: %w", err)
	}

	existing.ApplyUpdate(in, now)
	if _, err := tx.Exec(ctx, updateCandidateSQL, candidateUpdateArgs(existing)...); err != nil {
		return false, fmt.Errorf("updating candidate: %w", err)
	}
	return false, nil
}

// RecomputeDaysInStage refreshes the derived dwell-time counter for every
// candidate in one statement.
func (s *Store) RecomputeDaysInStage(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE candidates
		SET days_in_stage = GREATEST(0, FLOOR(EXTRACT(EPOCH FROM ($1::timestamp - stage_entered_at)) / 86400))::int`,
		now)
	if err != nil {
		return 0, fmt.Errorf("recomputing days in stage: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetCandidate returns the candidate with the given remote id, or ErrNotFound.
func (s *Store) GetCandidate(ctx context.Context, remoteID string) (*models.Candidate, error) {
	c, err := scanCandidate(s.pool.QueryRow(ctx, selectCandidateSQL, remoteID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading candidate: %w", err)
	}
	return c, nil
}

// ListCandidates returns candidates newest-activity first, optionally filtered
// by stage.
func (s *Store) ListCandidates(ctx context.Context, stage models.Stage, limit, offset int) ([]*models.Candidate, error) {
	query := `SELECT` + candidateColumns + ` FROM candidates`
	args := []any{}
	if stage != "" {
		query += ` WHERE stage = $1`
		args = append(args, stage)
	}
	query += fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing candidates: %w", err)
	}
	return collectCandidates(rows)
}

// StageCounts returns the number of candidates in each pipeline stage.
func (s *Store) StageCounts(ctx context.Context) (map[models.Stage]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT stage, COUNT(*) FROM candidates GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("counting candidates by stage: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Stage]int)
	for rows.Next() {
		var stage models.Stage
		var n int
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("scanning stage count: %w", err)
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}

// CandidatesInStages returns up to limit candidates per stage, longest-dwelling
// first.
func (s *Store) CandidatesInStages(ctx context.Context, stages []models.Stage, limit int) ([]*models.Candidate, error) {
	var out []*models.Candidate
	for _, stage := range stages {
		rows, err := s.pool.Query(ctx, `SELECT`+candidateColumns+`
			FROM candidates WHERE stage = $1
			ORDER BY stage_entered_at ASC LIMIT $2`,
			stage, limit)
		if err != nil {
			return nil, fmt.Errorf("querying candidates in stage %s: %w", stage, err)
		}
		candidates, err := collectCandidates(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, candidates...)
	}
	return out, nil
}

// CandidatesPendingDocuments returns candidates flagged as waiting on
// documents, longest-dwelling first.
func (s *Store) CandidatesPendingDocuments(ctx context.Context, limit int) ([]*models.Candidate, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+candidateColumns+`
		FROM candidates WHERE has_pending_documents
		ORDER BY stage_entered_at ASC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying candidates with pending documents: %w", err)
	}
	return collectCandidates(rows)
}

func candidateArgs(c *models.Candidate) []any {
	return []any{
		c.ID, c.RemoteID,
		c.FirstName, c.LastName, c.FullName, c.Email, c.Phone, c.Mobile, c.City, c.State, c.Country,
		c.RawStatus, c.Stage, c.Tier, c.Languages,
		c.CandidateOwner, c.RecruitmentOwner, c.Source,
		c.AssessmentPassed, c.AssessmentGradedBy, c.AssessmentDate, c.OfferSentAt, c.TrainingStartAt,
		c.IsUnresponsive, c.HasPendingDocuments, c.NeedsTraining,
		c.StageEnteredAt, c.DaysInStage,
		c.LastActivityAt, c.RemoteCreatedAt, c.RemoteModifiedAt,
		c.LastSyncedAt, c.CreatedAt, c.UpdatedAt,
	}
}

func candidateUpdateArgs(c *models.Candidate) []any {
	return []any{
		c.ID,
		c.FirstName, c.LastName, c.FullName, c.Email, c.Phone,
		c.Mobile, c.City, c.State, c.Country,
		c.RawStatus, c.Stage, c.Tier, c.Languages,
		c.CandidateOwner, c.RecruitmentOwner, c.Source,
		c.AssessmentPassed, c.AssessmentGradedBy, c.AssessmentDate,
		c.OfferSentAt, c.TrainingStartAt,
		c.IsUnresponsive, c.HasPendingDocuments, c.NeedsTraining,
		c.StageEnteredAt, c.DaysInStage,
		c.LastActivityAt, c.RemoteCreatedAt, c.RemoteModifiedAt,
		c.LastSyncedAt, c.UpdatedAt,
	}
}

func scanCandidate(row pgx.Row) (*models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(
		&c.ID, &c.RemoteID,
		&c.FirstName, &c.LastName, &c.FullName, &c.Email, &c.Phone, &c.Mobile, &c.City, &c.State, &c.Country,
		&c.RawStatus, &c.Stage, &c.Tier, &c.Languages,
		&c.CandidateOwner, &c.RecruitmentOwner, &c.Source,
		&c.AssessmentPassed, &c.AssessmentGradedBy, &c.AssessmentDate, &c.OfferSentAt, &c.TrainingStartAt,
		&c.IsUnresponsive, &c.HasPendingDocuments, &c.NeedsTraining,
		&c.StageEnteredAt, &c.DaysInStage,
		&c.LastActivityAt, &c.RemoteCreatedAt, &c.RemoteModifiedAt,
		&c.LastSyncedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectCandidates(rows pgx.Rows) ([]*models.Candidate, error) {
	defer rows.Close()
	var out []*models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
