package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vmsantos44/alfa-platform/internal/alerts"
	"github.com/vmsantos44/alfa-platform/internal/models"
	enginesync "github.com/vmsantos44/alfa-platform/internal/sync"
	"github.com/vmsantos44/alfa-platform/internal/sync/scheduler"
)

type stubSyncer struct{}

func (*stubSyncer) Sync(_ context.Context, kind models.RecordKind, _ bool) (*enginesync.Stats, error) {
	return &enginesync.Stats{Kind: kind}, nil
}

func (*stubSyncer) GetLastSync(context.Context, models.RecordKind) (*time.Time, error) {
	return nil, nil
}

type stubScheduler struct{}

func (*stubScheduler) Start(time.Duration, bool) error { return nil }
func (*stubScheduler) Stop()                           {}
func (*stubScheduler) Pause()                          {}
func (*stubScheduler) Resume()                         {}
func (*stubScheduler) UpdateInterval(time.Duration)    {}

func (*stubScheduler) TriggerNow(context.Context) (map[models.RecordKind]*enginesync.Stats, error) {
	return nil, nil
}

func (*stubScheduler) Status() scheduler.Status {
	return scheduler.Status{State: scheduler.StateStopped}
}

type stubAlerts struct{}

func (*stubAlerts) GetAll(context.Context) (*alerts.Report, error) { return &alerts.Report{}, nil }

func (*stubAlerts) GetFlat(context.Context, int, models.Priority) ([]alerts.Alert, error) {
	return nil, nil
}

func (*stubAlerts) GetCounts(context.Context) (map[alerts.Category]int, error) { return nil, nil }

type stubReader struct{}

func (*stubReader) Ping(context.Context) error { return nil }

func (*stubReader) GetCandidate(context.Context, string) (*models.Candidate, error) {
	return &models.Candidate{}, nil
}

func (*stubReader) ListCandidates(context.Context, models.Stage, int, int) ([]*models.Candidate, error) {
	return nil, nil
}

func (*stubReader) StageCounts(context.Context) (map[models.Stage]int, error) { return nil, nil }

func (*stubReader) ListInterviewsForCandidate(context.Context, string) ([]*models.Interview, error) {
	return nil, nil
}

func (*stubReader) ListTasksForCandidate(context.Context, string) ([]*models.Task, error) {
	return nil, nil
}

func (*stubReader) ListNotesForCandidate(context.Context, string) ([]*models.Note, error) {
	return nil, nil
}

func (*stubReader) ListEmailsForCandidate(context.Context, string) ([]*models.Email, error) {
	return nil, nil
}

func (*stubReader) RecentRuns(context.Context, int) ([]*models.SyncRun, error) { return nil, nil }

func (*stubReader) MarkNoShowFollowupSent(context.Context, string) error { return nil }

func TestNewServerRoutes(t *testing.T) {
	t.Parallel()

	var sawMiddleware bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawMiddleware = true
			next.ServeHTTP(w, r)
		})
	}

	srv := NewServer(&stubSyncer{}, &stubScheduler{}, &stubAlerts{}, &stubReader{},
		WithMiddlewares(mw, LoggingMiddleware))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, sawMiddleware)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scheduler/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sync/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
