// Package v1 provides the REST handlers for the sync control surface.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vmsantos44/alfa-platform/internal/alerts"
	"github.com/vmsantos44/alfa-platform/internal/api/common"
	"github.com/vmsantos44/alfa-platform/internal/models"
	"github.com/vmsantos44/alfa-platform/internal/store"
	enginesync "github.com/vmsantos44/alfa-platform/internal/sync"
	"github.com/vmsantos44/alfa-platform/internal/sync/scheduler"
)

const (
	defaultListLimit  = 50
	maxListLimit      = 500
	defaultAlertLimit = 100

	// readRequestTimeout bounds the read-only routes. Sync trigger routes
	// carry no deadline: they hold the response open until the run finishes.
	readRequestTimeout = 30 * time.Second
)

// SyncService runs reconciliation for single record kinds.
type SyncService interface {
	Sync(ctx context.Context, kind models.RecordKind, incremental bool) (*enginesync.Stats, error)
	GetLastSync(ctx context.Context, kind models.RecordKind) (*time.Time, error)
}

// SchedulerService controls the periodic sync schedule.
type SchedulerService interface {
	Start(interval time.Duration, runImmediately bool) error
	Stop()
	Pause()
	Resume()
	UpdateInterval(interval time.Duration)
	TriggerNow(ctx context.Context) (map[models.RecordKind]*enginesync.Stats, error)
	Status() scheduler.Status
}

// AlertService derives alerts from the reconciled state.
type AlertService interface {
	GetAll(ctx context.Context) (*alerts.Report, error)
	GetFlat(ctx context.Context, limit int, priority models.Priority) ([]alerts.Alert, error)
	GetCounts(ctx context.Context) (map[alerts.Category]int, error)
}

// Reader serves read queries over the mirrored records.
type Reader interface {
	Ping(ctx context.Context) error
	GetCandidate(ctx context.Context, remoteID string) (*models.Candidate, error)
	ListCandidates(ctx context.Context, stage models.Stage, limit, offset int) ([]*models.Candidate, error)
	StageCounts(ctx context.Context) (map[models.Stage]int, error)
	ListInterviewsForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Interview, error)
	ListTasksForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Task, error)
	ListNotesForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Note, error)
	ListEmailsForCandidate(ctx context.Context, candidateRemoteID string) ([]*models.Email, error)
	RecentRuns(ctx context.Context, limit int) ([]*models.SyncRun, error)
	MarkNoShowFollowupSent(ctx context.Context, remoteID string) error
}

// Routes defines the v1 API handlers with dependency injection.
type Routes struct {
	syncer    SyncService
	scheduler SchedulerService
	alerts    AlertService
	reader    Reader
}

// NewRoutes creates a new Routes instance with the provided services.
func NewRoutes(syncer SyncService, sched SchedulerService, alertSvc AlertService, reader Reader) *Routes {
	return &Routes{
		syncer:    syncer,
		scheduler: sched,
		alerts:    alertSvc,
		reader:    reader,
	}
}

// Router creates the v1 API router.
func Router(syncer SyncService, sched SchedulerService, alertSvc AlertService, reader Reader) http.Handler {
	routes := NewRoutes(syncer, sched, alertSvc, reader)

	r := chi.NewRouter()

	// Trigger routes block for the duration of the run and are exempt from
	// the read timeout applied to everything else.
	r.Post("/sync", routes.triggerSyncAll)
	r.Post("/sync/{kind}", routes.triggerSyncKind)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(readRequestTimeout))

		r.Get("/sync/status", routes.getSyncStatus)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", routes.getAlerts)
			r.Get("/flat", routes.getAlertsFlat)
			r.Get("/counts", routes.getAlertCounts)
		})

		r.Route("/candidates", func(r chi.Router) {
			r.Get("/", routes.listCandidates)
			r.Get("/stages", routes.getStageCounts)
			r.Route("/{remoteID}", func(r chi.Router) {
				r.Get("/", routes.getCandidate)
				r.Get("/interviews", routes.listCandidateInterviews)
				r.Get("/tasks", routes.listCandidateTasks)
				r.Get("/notes", routes.listCandidateNotes)
				r.Get("/emails", routes.listCandidateEmails)
			})
		})

		r.Post("/interviews/{remoteID}/followup", routes.markFollowupSent)
	})

	r.Route("/scheduler", func(r chi.Router) {
		r.Post("/trigger", routes.triggerSyncAll)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(readRequestTimeout))
			r.Post("/start", routes.startScheduler)
			r.Post("/stop", routes.stopScheduler)
			r.Post("/pause", routes.pauseScheduler)
			r.Post("/resume", routes.resumeScheduler)
			r.Put("/interval", routes.updateInterval)
			r.Get("/status", routes.getSchedulerStatus)
		})
	})

	return r
}

// HealthRouter creates a router for health check endpoints.
func HealthRouter(reader Reader) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteJSONResponse(w, map[string]string{"status": "healthy"}, http.StatusOK)
	})
	r.Get("/readiness", func(w http.ResponseWriter, req *http.Request) {
		if err := reader.Ping(req.Context()); err != nil {
			common.WriteErrorResponse(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	})

	return r
}

// triggerSyncAll handles POST /api/v1/sync and POST /api/v1/scheduler/trigger.
// A run already in flight is reported as a busy status, not an error.
func (rr *Routes) triggerSyncAll(w http.ResponseWriter, r *http.Request) {
	results, err := rr.scheduler.TriggerNow(r.Context())
	if errors.Is(err, scheduler.ErrSyncInProgress) {
		common.WriteJSONResponse(w, map[string]string{
			"status":  "busy",
			"message": "Sync already in progress",
		}, http.StatusOK)
		return
	}
	if err != nil {
		slog.Error("Manual sync failed", "error", err)
		common.WriteJSONResponse(w, map[string]any{
			"status":  "failed",
			"error":   err.Error(),
			"results": results,
		}, http.StatusOK)
		return
	}
	common.WriteJSONResponse(w, map[string]any{
		"status":  "completed",
		"results": results,
	}, http.StatusOK)
}

// triggerSyncKind handles POST /api/v1/sync/{kind}. The full query parameter
// forces a non-incremental pull.
func (rr *Routes) triggerSyncKind(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseRecordKind(chi.URLParam(r, "kind"))
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	incremental := r.URL.Query().Get("full") != "true"

	// The run must survive the request's deadline and disconnects; the
	// handler waits on it and reports the outcome.
	stats, err := rr.syncer.Sync(context.WithoutCancel(r.Context()), kind, incremental)
	if err != nil {
		slog.Error("Manual sync failed", "kind", kind, "error", err)
		common.WriteJSONResponse(w, map[string]any{
			"status": "failed",
			"error":  err.Error(),
			"stats":  stats,
		}, http.StatusOK)
		return
	}
	common.WriteJSONResponse(w, map[string]any{
		"status": "completed",
		"stats":  stats,
	}, http.StatusOK)
}

// getSyncStatus handles GET /api/v1/sync/status.
func (rr *Routes) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	lastCompleted := make(map[models.RecordKind]*time.Time, len(models.AllKinds()))
	for _, kind := range models.AllKinds() {
		at, err := rr.syncer.GetLastSync(r.Context(), kind)
		if err != nil {
			common.WriteErrorResponse(w, "failed to read sync ledger", http.StatusInternalServerError)
			return
		}
		lastCompleted[kind] = at
	}

	runs, err := rr.reader.RecentRuns(r.Context(), 20)
	if err != nil {
		common.WriteErrorResponse(w, "failed to read sync ledger", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, map[string]any{
		"last_completed": lastCompleted,
		"recent_runs":    runs,
	}, http.StatusOK)
}

type schedulerRequest struct {
	Interval       string `json:"interval"`
	RunImmediately bool   `json:"run_immediately"`
}

// startScheduler handles POST /api/v1/scheduler/start.
func (rr *Routes) startScheduler(w http.ResponseWriter, r *http.Request) {
	req := schedulerRequest{Interval: "1h"}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	interval, err := time.ParseDuration(req.Interval)
	if err != nil || interval <= 0 {
		common.WriteErrorResponse(w, "interval must be a positive duration", http.StatusBadRequest)
		return
	}

	if err := rr.scheduler.Start(interval, req.RunImmediately); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
		return
	}
	rr.writeSchedulerStatus(w)
}

func (rr *Routes) stopScheduler(w http.ResponseWriter, _ *http.Request) {
	rr.scheduler.Stop()
	rr.writeSchedulerStatus(w)
}

func (rr *Routes) pauseScheduler(w http.ResponseWriter, _ *http.Request) {
	rr.scheduler.Pause()
	rr.writeSchedulerStatus(w)
}

func (rr *Routes) resumeScheduler(w http.ResponseWriter, _ *http.Request) {
	rr.scheduler.Resume()
	rr.writeSchedulerStatus(w)
}

// updateInterval handles PUT /api/v1/scheduler/interval.
func (rr *Routes) updateInterval(w http.ResponseWriter, r *http.Request) {
	var req schedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}
	interval, err := time.ParseDuration(req.Interval)
	if err != nil || interval <= 0 {
		common.WriteErrorResponse(w, "interval must be a positive duration", http.StatusBadRequest)
		return
	}
	rr.scheduler.UpdateInterval(interval)
	rr.writeSchedulerStatus(w)
}

func (rr *Routes) getSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	rr.writeSchedulerStatus(w)
}

type schedulerStatusResponse struct {
	State       scheduler.State                         `json:"state"`
	Interval    string                                  `json:"interval"`
	InProgress  bool                                    `json:"in_progress"`
	LastRunAt   *time.Time                              `json:"last_run_at,omitempty"`
	LastError   string                                  `json:"last_error,omitempty"`
	LastResults map[models.RecordKind]*enginesync.Stats `json:"last_results,omitempty"`
	NextFireAt  *time.Time                              `json:"next_fire_at,omitempty"`
}

func (rr *Routes) writeSchedulerStatus(w http.ResponseWriter) {
	st := rr.scheduler.Status()
	common.WriteJSONResponse(w, schedulerStatusResponse{
		State:       st.State,
		Interval:    st.Interval.String(),
		InProgress:  st.InProgress,
		LastRunAt:   st.LastRunAt,
		LastError:   st.LastError,
		LastResults: st.LastResults,
		NextFireAt:  st.NextFireAt,
	}, http.StatusOK)
}

// getAlerts handles GET /api/v1/alerts.
func (rr *Routes) getAlerts(w http.ResponseWriter, r *http.Request) {
	report, err := rr.alerts.GetAll(r.Context())
	if err != nil {
		slog.Error("Failed to derive alerts", "error", err)
		common.WriteErrorResponse(w, "failed to derive alerts", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, report, http.StatusOK)
}

// getAlertsFlat handles GET /api/v1/alerts/flat.
func (rr *Routes) getAlertsFlat(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultAlertLimit)
	priority := models.Priority(r.URL.Query().Get("priority"))

	flat, err := rr.alerts.GetFlat(r.Context(), limit, priority)
	if err != nil {
		slog.Error("Failed to derive alerts", "error", err)
		common.WriteErrorResponse(w, "failed to derive alerts", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, map[string]any{"alerts": flat, "count": len(flat)}, http.StatusOK)
}

// getAlertCounts handles GET /api/v1/alerts/counts.
func (rr *Routes) getAlertCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := rr.alerts.GetCounts(r.Context())
	if err != nil {
		slog.Error("Failed to derive alerts", "error", err)
		common.WriteErrorResponse(w, "failed to derive alerts", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, counts, http.StatusOK)
}

// listCandidates handles GET /api/v1/candidates.
func (rr *Routes) listCandidates(w http.ResponseWriter, r *http.Request) {
	stage := models.Stage(r.URL.Query().Get("stage"))
	limit := queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := queryInt(r, "offset", 0)

	candidates, err := rr.reader.ListCandidates(r.Context(), stage, limit, offset)
	if err != nil {
		slog.Error("Failed to list candidates", "error", err)
		common.WriteErrorResponse(w, "failed to list candidates", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, map[string]any{"candidates": candidates, "count": len(candidates)}, http.StatusOK)
}

// getStageCounts handles GET /api/v1/candidates/stages.
func (rr *Routes) getStageCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := rr.reader.StageCounts(r.Context())
	if err != nil {
		slog.Error("Failed to count candidates", "error", err)
		common.WriteErrorResponse(w, "failed to count candidates", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, counts, http.StatusOK)
}

// getCandidate handles GET /api/v1/candidates/{remoteID}.
func (rr *Routes) getCandidate(w http.ResponseWriter, r *http.Request) {
	candidate, err := rr.reader.GetCandidate(r.Context(), chi.URLParam(r, "remoteID"))
	if errors.Is(err, store.ErrNotFound) {
		common.WriteErrorResponse(w, "candidate not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to load candidate", "error", err)
		common.WriteErrorResponse(w, "failed to load candidate", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, candidate, http.StatusOK)
}

func (rr *Routes) listCandidateInterviews(w http.ResponseWriter, r *http.Request) {
	writeCandidateList(w, r, rr.reader.ListInterviewsForCandidate, "interviews")
}

func (rr *Routes) listCandidateTasks(w http.ResponseWriter, r *http.Request) {
	writeCandidateList(w, r, rr.reader.ListTasksForCandidate, "tasks")
}

func (rr *Routes) listCandidateNotes(w http.ResponseWriter, r *http.Request) {
	writeCandidateList(w, r, rr.reader.ListNotesForCandidate, "notes")
}

func (rr *Routes) listCandidateEmails(w http.ResponseWriter, r *http.Request) {
	writeCandidateList(w, r, rr.reader.ListEmailsForCandidate, "emails")
}

// markFollowupSent handles POST /api/v1/interviews/{remoteID}/followup.
func (rr *Routes) markFollowupSent(w http.ResponseWriter, r *http.Request) {
	err := rr.reader.MarkNoShowFollowupSent(r.Context(), chi.URLParam(r, "remoteID"))
	if errors.Is(err, store.ErrNotFound) {
		common.WriteErrorResponse(w, "interview not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to mark followup", "error", err)
		common.WriteErrorResponse(w, "failed to mark followup", http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func writeCandidateList[E any](
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, candidateRemoteID string) ([]E, error),
	field string,
) {
	items, err := list(r.Context(), chi.URLParam(r, "remoteID"))
	if err != nil {
		slog.Error("Failed to list candidate records", "field", field, "error", err)
		common.WriteErrorResponse(w, "failed to list "+field, http.StatusInternalServerError)
		return
	}
	common.WriteJSONResponse(w, map[string]any{field: items, "count": len(items)}, http.StatusOK)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
