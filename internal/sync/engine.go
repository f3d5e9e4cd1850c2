// Package sync implements the reconciliation engine: it drives pagination
// against the remote record source, maps raw records into local entities, and
// upserts them keyed by remote id, recording every run in the sync ledger.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vmsantos44/alfa-platform/internal/mapper"
	"github.com/vmsantos44/alfa-platform/internal/models"
	"github.com/vmsantos44/alfa-platform/internal/remote"
)

const (
	// defaultPageSize is the per-page record count requested from the remote.
	defaultPageSize = 100

	// defaultMaxPages bounds pagination so a remote that keeps reporting
	// "more records" cannot spin the engine forever.
	defaultMaxPages = 50

	// maxErrorDetails caps the per-run diagnostics kept in memory.
	maxErrorDetails = 20

	// maxErrorMessageLen truncates the ledger error message.
	maxErrorMessageLen = 500
)

// RecordError is a short per-record diagnostic.
type RecordError struct {
	RemoteID string `json:"remote_id"`
	Message  string `json:"message"`
}

// PageResult reports the outcome of applying one page of mapped entities.
type PageResult struct {
	Created int
	Updated int
	Errors  []RecordError
}

// Store is the transactional persistence the engine writes through. Each
// Apply method commits one page; a failed record inside the page is reported
// in PageResult.Errors without poisoning the rest of the page.
type Store interface {
	StartRun(ctx context.Context, kind models.RecordKind) (*models.SyncRun, error)
	FinishRun(ctx context.Context, id uuid.UUID, status models.SyncRunStatus, counts models.RunCounts, errorMessage string) error
	LastCompletedRun(ctx context.Context, kind models.RecordKind) (*models.SyncRun, error)

	ApplyCandidates(ctx context.Context, candidates []*models.Candidate, now time.Time) (*PageResult, error)
	ApplyInterviews(ctx context.Context, interviews []*models.Interview, now time.Time) (*PageResult, error)
	ApplyTasks(ctx context.Context, tasks []*models.Task, now time.Time) (*PageResult, error)
	ApplyNotes(ctx context.Context, notes []*models.Note, now time.Time) (*PageResult, error)
	ApplyEmails(ctx context.Context, emails []*models.Email, now time.Time) (*PageResult, error)

	RecomputeDaysInStage(ctx context.Context, now time.Time) (int64, error)
}

// Stats is the aggregate outcome of one sync run for one record kind.
type Stats struct {
	Kind         models.RecordKind `json:"kind"`
	Processed    int               `json:"processed"`
	Created      int               `json:"created"`
	Updated      int               `json:"updated"`
	Skipped      int               `json:"skipped"`
	Errors       int               `json:"errors"`
	ErrorDetails []RecordError     `json:"error_details,omitempty"`
}

func (s *Stats) counts() models.RunCounts {
	return models.RunCounts{
		Processed: s.Processed,
		Created:   s.Created,
		Updated:   s.Updated,
		Errors:    s.Errors,
	}
}

func (s *Stats) addDetail(e RecordError) {
	s.Errors++
	if len(s.ErrorDetails) < maxErrorDetails {
		s.ErrorDetails = append(s.ErrorDetails, e)
	}
}

// Engine reconciles remote records into the local store.
type Engine struct {
	source   remote.RecordSource
	store    Store
	mapper   *mapper.Mapper
	pageSize int
	maxPages int
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPageSize sets the per-page record count requested from the remote.
func WithPageSize(n int) Option {
	return func(e *Engine) {
		e.pageSize = n
	}
}

// WithMaxPages sets the pagination safety limit.
func WithMaxPages(n int) Option {
	return func(e *Engine) {
		e.maxPages = n
	}
}

// WithMapper overrides the record mapper.
func WithMapper(m *mapper.Mapper) Option {
	return func(e *Engine) {
		e.mapper = m
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates a reconciliation engine.
func New(source remote.RecordSource, store Store, opts ...Option) *Engine {
	e := &Engine{
		source:   source,
		store:    store,
		mapper:   mapper.New(),
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync reconciles one record kind. With incremental set, only records
// modified since the last completed run are fetched; otherwise the full
// collection is pulled.
//
// Record-level failures are counted and the run continues; a page-fetch or
// store failure marks the run failed. The returned Stats are valid either way.
func (e *Engine) Sync(ctx context.Context, kind models.RecordKind, incremental bool) (*Stats, error) {
	run, err := e.store.StartRun(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("opening ledger entry for %s: %w", kind, err)
	}

	stats := &Stats{Kind: kind}
	watermark := e.watermark(ctx, kind, incremental)

	slog.Info("Starting sync operation",
		"kind", kind,
		"incremental", incremental,
		"watermark", watermark)

	if err := e.syncPages(ctx, kind, watermark, stats); err != nil {
		e.closeRun(ctx, run.ID, models.RunFailed, stats, err)
		return stats, fmt.Errorf("syncing %s: %w", kind, err)
	}

	// Dwell time is derived state; a full recompute after candidate pages
	// keeps it exact without trusting incremental arithmetic.
	if kind == models.KindCandidates {
		if _, err := e.store.RecomputeDaysInStage(ctx, e.now()); err != nil {
			e.closeRun(ctx, run.ID, models.RunFailed, stats, err)
			return stats, fmt.Errorf("recomputing days in stage: %w", err)
		}
	}

	e.closeRun(ctx, run.ID, models.RunCompleted, stats, nil)

	slog.Info("Sync completed",
		"kind", kind,
		"processed", stats.Processed,
		"created", stats.Created,
		"updated", stats.Updated,
		"errors", stats.Errors)
	return stats, nil
}

// SyncAll reconciles every record kind in dependency order: candidates first,
// since the other kinds reference them by remote id. One kind's failure does
// not stop the remaining kinds; the joined error reports all failures.
func (e *Engine) SyncAll(ctx context.Context, incremental bool) (map[models.RecordKind]*Stats, error) {
	results := make(map[models.RecordKind]*Stats, len(models.AllKinds()))

	var errs []error
	for _, kind := range models.AllKinds() {
		stats, err := e.Sync(ctx, kind, incremental)
		if err != nil {
			slog.Error("Sync failed", "kind", kind, "error", err)
			errs = append(errs, err)
		}
		if stats != nil {
			results[kind] = stats
		}
	}
	return results, errors.Join(errs...)
}

// GetLastSync returns the completion time of the last successful run for a
// kind, or nil if the kind has never completed a sync.
func (e *Engine) GetLastSync(ctx context.Context, kind models.RecordKind) (*time.Time, error) {
	run, err := e.store.LastCompletedRun(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("reading ledger for %s: %w", kind, err)
	}
	if run == nil {
		return nil, nil
	}
	return run.CompletedAt, nil
}

func (e *Engine) watermark(ctx context.Context, kind models.RecordKind, incremental bool) *time.Time {
	if !incremental {
		return nil
	}
	run, err := e.store.LastCompletedRun(ctx, kind)
	if err != nil {
		slog.Warn("Could not read last completed run, falling back to full sync",
			"kind", kind, "error", err)
		return nil
	}
	if run == nil {
		return nil
	}
	return run.CompletedAt
}

func (e *Engine) syncPages(ctx context.Context, kind models.RecordKind, watermark *time.Time, stats *Stats) error {
	for page := 1; ; page++ {
		if page > e.maxPages {
			slog.Warn("Reached page safety limit", "kind", kind, "limit", e.maxPages)
			return nil
		}

		fetched, err := e.source.FetchPage(ctx, kind, page, e.pageSize, watermark)
		if err != nil {
			return err
		}

		if len(fetched.Records) > 0 {
			result, err := e.applyPage(ctx, kind, fetched.Records, stats)
			if err != nil {
				return err
			}
			stats.Created += result.Created
			stats.Updated += result.Updated
			stats.Processed += result.Created + result.Updated
			for _, re := range result.Errors {
				stats.addDetail(re)
			}
		}

		if !fetched.HasMore {
			return nil
		}
	}
}

// applyPage maps one page of raw records and applies the survivors in a
// single page transaction. Mapping failures are per-record errors; skips
// (records that are valid but out of scope) are counted separately.
func (e *Engine) applyPage(ctx context.Context, kind models.RecordKind, records []json.RawMessage, stats *Stats) (*PageResult, error) {
	now := e.now()

	switch kind {
	case models.KindCandidates:
		entities := mapRecords(records, stats, func(r *models.RawCandidate) (*models.Candidate, error) {
			return e.mapper.Candidate(r, now)
		})
		return e.store.ApplyCandidates(ctx, entities, now)
	case models.KindInterviews:
		entities := mapRecords(records, stats, func(r *models.RawInterview) (*models.Interview, error) {
			return e.mapper.Interview(r, now)
		})
		return e.store.ApplyInterviews(ctx, entities, now)
	case models.KindTasks:
		entities := mapRecords(records, stats, func(r *models.RawTask) (*models.Task, error) {
			return e.mapper.Task(r, now)
		})
		return e.store.ApplyTasks(ctx, entities, now)
	case models.KindNotes:
		entities := mapRecords(records, stats, func(r *models.RawNote) (*models.Note, error) {
			return e.mapper.Note(r, now)
		})
		return e.store.ApplyNotes(ctx, entities, now)
	case models.KindEmails:
		entities := mapRecords(records, stats, func(r *models.RawEmail) (*models.Email, error) {
			return e.mapper.Email(r, now)
		})
		return e.store.ApplyEmails(ctx, entities, now)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

// mapRecords decodes and maps raw records, accumulating per-record failures
// into stats. A malformed record never aborts the page.
func mapRecords[R any, E any](records []json.RawMessage, stats *Stats, convert func(*R) (E, error)) []E {
	entities := make([]E, 0, len(records))
	for _, rec := range records {
		var raw R
		if err := json.Unmarshal(rec, &raw); err != nil {
			stats.addDetail(RecordError{Message: fmt.Sprintf("decoding record: %v", err)})
			continue
		}
		entity, err := convert(&raw)
		if err != nil {
			if errors.Is(err, mapper.ErrSkipRecord) {
				stats.Skipped++
				continue
			}
			stats.addDetail(RecordError{Message: err.Error()})
			continue
		}
		entities = append(entities, entity)
	}
	return entities
}

// closeRun finalizes the ledger entry. Ledger write failures are logged, not
// propagated: the run outcome is already decided.
func (e *Engine) closeRun(ctx context.Context, id uuid.UUID, status models.SyncRunStatus, stats *Stats, runErr error) {
	var msg string
	if runErr != nil {
		msg = runErr.Error()
		if len(msg) > maxErrorMessageLen {
			msg = msg[:maxErrorMessageLen]
		}
	}
	if err := e.store.FinishRun(ctx, id, status, stats.counts(), msg); err != nil {
		slog.Error("Failed to close ledger entry", "run_id", id, "error", err)
	}
}
