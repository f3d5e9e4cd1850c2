// Package store is the PostgreSQL persistence layer. It implements the sync
// engine's Store interface and the alert service's Reader interface on top of
// a pgx connection pool.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	enginesync "github.com/vmsantos44/alfa-platform/internal/sync"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const defaultConnectTimeout = 10 * time.Second

// Store persists reconciled records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewPool opens a pgx connection pool and verifies connectivity before
// returning it.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// New creates a Store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// applyPage commits one page of records in a single transaction. Each record
// runs inside a savepoint so a bad row is reported in the page result without
// poisoning the rest of the page.
func applyPage[E any](
	ctx context.Context,
	pool *pgxpool.Pool,
	items []E,
	remoteID func(E) string,
	upsert func(ctx context.Context, tx pgx.Tx, item E) (bool, error),
) (*enginesync.PageResult, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning page transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result := &enginesync.PageResult{}
	for _, item := range items {
		created, err := inSavepoint(ctx, tx, item, upsert)
		if err != nil {
			result.Errors = append(result.Errors, enginesync.RecordError{
				RemoteID: remoteID(item),
				Message:  err.Error(),
			})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing page: %w", err)
	}
	return result, nil
}

// inSavepoint runs one upsert in a nested transaction, rolling back only that
// record's writes on failure.
func inSavepoint[E any](
	ctx context.Context,
	tx pgx.Tx,
	item E,
	upsert func(context.Context, pgx.Tx, E) (bool, error),
) (bool, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("opening savepoint: %w", err)
	}
	created, err := upsert(ctx, sp, item)
	if err != nil {
		_ = sp.Rollback(ctx)
		return false, err
	}
	if err := sp.Commit(ctx); err != nil {
		return false, fmt.Errorf("releasing savepoint: %w", err)
	}
	return created, nil
}
