// Package scheduler owns the periodic sync timer. It guarantees at most one
// run in flight at a time and exposes pause/resume/trigger/interval controls
// plus a status snapshot for the API.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vmsantos44/alfa-platform/internal/models"
	enginesync "github.com/vmsantos44/alfa-platform/internal/sync"
)

// ErrSyncInProgress is returned by TriggerNow while a run is in flight. It is
// a busy signal, not a failure; callers surface it as a non-error response.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrAlreadyStarted is returned by Start when the scheduler is not stopped.
var ErrAlreadyStarted = errors.New("scheduler already started")

// State is the scheduler's lifecycle state.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

// Runner is the sync work the scheduler fires. Satisfied by the
// reconciliation engine's SyncAll.
type Runner interface {
	SyncAll(ctx context.Context, incremental bool) (map[models.RecordKind]*enginesync.Stats, error)
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	State       State                                   `json:"state"`
	Interval    time.Duration                           `json:"interval"`
	InProgress  bool                                    `json:"in_progress"`
	LastRunAt   *time.Time                              `json:"last_run_at,omitempty"`
	LastError   string                                  `json:"last_error,omitempty"`
	LastResults map[models.RecordKind]*enginesync.Stats `json:"last_results,omitempty"`
	NextFireAt  *time.Time                              `json:"next_fire_at,omitempty"`
}

// Scheduler drives periodic sync runs. Instances are self-contained; tests
// construct as many isolated schedulers as they need.
type Scheduler struct {
	runner Runner
	now    func() time.Time

	mu          sync.Mutex
	state       State
	interval    time.Duration
	inProgress  bool
	lastRunAt   *time.Time
	lastError   string
	lastResults map[models.RecordKind]*enginesync.Stats
	nextFireAt  *time.Time

	cancel     context.CancelFunc
	done       chan struct{}
	reschedule chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New creates a stopped scheduler around the given runner.
func New(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:     runner,
		now:        func() time.Time { return time.Now().UTC() },
		state:      StateStopped,
		reschedule: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start arms the timer. With runImmediately set, one run fires right away
// before the first interval elapses.
func (s *Scheduler) Start(interval time.Duration, runImmediately bool) error {
	s.mu.Lock()
	if s.state != StateStopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateRunning
	s.interval = interval
	next := s.now().Add(interval)
	s.nextFireAt = &next
	s.mu.Unlock()

	slog.Info("Starting sync scheduler", "interval", interval, "run_immediately", runImmediately)
	go s.loop(ctx, runImmediately)
	return nil
}

// Stop disarms the timer. An in-flight run drains to completion; only future
// fires are cancelled.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	done := s.done
	s.state = StateStopped
	s.nextFireAt = nil
	s.mu.Unlock()

	slog.Info("Stopping sync scheduler")
	cancel()
	<-done
}

// Pause suspends job fires without losing the schedule.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	if s.state == StateRunning {
		s.state = StatePaused
		slog.Info("Sync scheduler paused")
	}
	s.mu.Unlock()
}

// Resume re-enables job fires after a pause.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	if s.state == StatePaused {
		s.state = StateRunning
		slog.Info("Sync scheduler resumed")
	}
	s.mu.Unlock()
}

// UpdateInterval reschedules the timer without changing state. The new
// interval takes effect immediately.
func (s *Scheduler) UpdateInterval(interval time.Duration) {
	s.mu.Lock()
	s.interval = interval
	if s.state != StateStopped {
		next := s.now().Add(interval)
		s.nextFireAt = &next
	}
	s.mu.Unlock()

	// nudge the loop to re-arm its timer
	select {
	case s.reschedule <- struct{}{}:
	default:
	}
	slog.Info("Sync interval updated", "interval", interval)
}

// TriggerNow forces an out-of-band run. If a run is already in flight it
// returns ErrSyncInProgress immediately instead of queuing a second run.
func (s *Scheduler) TriggerNow(ctx context.Context) (map[models.RecordKind]*enginesync.Stats, error) {
	return s.runJob(ctx)
}

// Status returns a snapshot of the scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:      s.state,
		Interval:   s.interval,
		InProgress: s.inProgress,
		LastRunAt:  s.lastRunAt,
		LastError:  s.lastError,
		NextFireAt: s.nextFireAt,
	}
	if s.lastResults != nil {
		st.LastResults = make(map[models.RecordKind]*enginesync.Stats, len(s.lastResults))
		for k, v := range s.lastResults {
			st.LastResults[k] = v
		}
	}
	return st
}

func (s *Scheduler) loop(ctx context.Context, runImmediately bool) {
	defer close(s.done)

	if runImmediately {
		s.fire(ctx)
	}

	for {
		s.mu.Lock()
		interval := s.interval
		s.mu.Unlock()

		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
			s.fire(ctx)
			s.mu.Lock()
			next := s.now().Add(s.interval)
			s.nextFireAt = &next
			s.mu.Unlock()
		case <-s.reschedule:
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Sync scheduler loop exiting")
			return
		}
	}
}

// fire runs the job from the timer path. Every failure lands in the status
// snapshot; nothing escapes to crash the loop.
func (s *Scheduler) fire(ctx context.Context) {
	s.mu.Lock()
	paused := s.state != StateRunning
	s.mu.Unlock()
	if paused {
		return
	}

	if _, err := s.runJob(ctx); err != nil && !errors.Is(err, ErrSyncInProgress) {
		slog.Error("Scheduled sync finished with errors", "error", err)
	}
}

// runJob executes one full sync across all kinds under the single-flight
// guard. The run owns its lifetime: cancelling the triggering request or
// stopping the scheduler must not abort half-applied pages, so the job runs
// on a context detached from the caller's.
func (s *Scheduler) runJob(ctx context.Context) (map[models.RecordKind]*enginesync.Stats, error) {
	s.mu.Lock()
	if s.inProgress {
		s.mu.Unlock()
		return nil, ErrSyncInProgress
	}
	s.inProgress = true
	s.mu.Unlock()

	started := s.now()
	results, err := s.runner.SyncAll(context.WithoutCancel(ctx), true)

	s.mu.Lock()
	s.inProgress = false
	s.lastRunAt = &started
	s.lastResults = results
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	return results, err
}
