// Package worker runs the periodic settlement sweep (spec.md §4.8): a
// single background task that scans for task requests whose due_at has
// passed and drives each one through Settle. The ticker/cancel/done-channel
// shape is the same one filestorage.HealthPoller uses, both descending from
// the teacher's provider health poller.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/darve-social/darve-go/task"
)

// dueFinder and settler narrow task.Repo/task.Service down to the two calls
// the sweep needs, so tests can exercise the loop/retry behaviour with a
// fake instead of a live database.
type dueFinder interface {
	Due(ctx context.Context, now time.Time) ([]task.Request, error)
}

type settler interface {
	Settle(ctx context.Context, taskID string) (*task.Request, error)
}

// SettlementWorker periodically sweeps C6 for expired task requests and
// settles each one. It is idempotent and crash-safe: Settle only advances a
// task's status once every transfer it needed has committed, so a worker
// restart mid-sweep just repeats the still-open tasks on its next tick
// (spec.md §4.8).
type SettlementWorker struct {
	service  settler
	repo     dueFinder
	logger   zerolog.Logger
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
	ticks  int

	failureStreaks map[string]int
	onFailure      func(taskID string, consecutiveFailures int, lastErr string)
	onRecovered    func(taskID string)
}

// OnSettlementFailure registers a callback invoked every time Settle fails
// for a task, with the running count of consecutive failures for that task
// id — the hook AlertSettlementFailures uses (spec.md §4.8, §7).
func (w *SettlementWorker) OnSettlementFailure(cb func(taskID string, consecutiveFailures int, lastErr string)) {
	w.onFailure = cb
}

// OnSettlementRecovered registers a callback invoked the first time a task
// that previously failed settles successfully.
func (w *SettlementWorker) OnSettlementRecovered(cb func(taskID string)) {
	w.onRecovered = cb
}

func New(service *task.Service, repo *task.Repo, logger zerolog.Logger, interval time.Duration) *SettlementWorker {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &SettlementWorker{
		service:        service,
		repo:           repo,
		logger:         logger.With().Str("component", "settlement_worker").Logger(),
		interval:       interval,
		done:           make(chan struct{}),
		failureStreaks: make(map[string]int),
	}
}

// Start begins the background sweep loop. Call Stop to shut it down.
func (w *SettlementWorker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.logger.Info().Dur("interval", w.interval).Msg("starting settlement worker")
	go w.loop(ctx)
}

// Stop cancels the loop and waits for the in-flight sweep, if any, to
// finish. Cancellation between tasks in a sweep loses at most the
// not-yet-started ones (spec.md §5 "Cancellation"); each task settles in
// its own transaction so nothing already committed is rolled back.
func (w *SettlementWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
	w.logger.Info().Msg("settlement worker stopped")
}

func (w *SettlementWorker) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep runs one pass over due tasks. Exported as Sweep for tests and for a
// manual/operator-triggered sweep outside the ticker cadence.
func (w *SettlementWorker) sweep(ctx context.Context) {
	w.Sweep(ctx)
}

// Sweep queries for due tasks and settles each, logging but not aborting on
// a per-task failure so one stuck task never blocks the rest of the batch.
func (w *SettlementWorker) Sweep(ctx context.Context) int {
	due, err := w.repo.Due(ctx, time.Now().UTC())
	if err != nil {
		w.logger.Error().Err(err).Msg("settlement sweep: query due tasks failed")
		return 0
	}

	settled := 0
	for _, req := range due {
		if _, err := w.service.Settle(ctx, req.ID); err != nil {
			w.logger.Warn().Err(err).Str("task_id", req.ID).Msg("settlement sweep: settle failed, will retry next tick")
			w.mu.Lock()
			w.failureStreaks[req.ID]++
			streak := w.failureStreaks[req.ID]
			w.mu.Unlock()
			if w.onFailure != nil {
				w.onFailure(req.ID, streak, err.Error())
			}
			continue
		}
		w.mu.Lock()
		streak := w.failureStreaks[req.ID]
		delete(w.failureStreaks, req.ID)
		w.mu.Unlock()
		if streak > 0 && w.onRecovered != nil {
			w.onRecovered(req.ID)
		}
		settled++
	}

	w.mu.Lock()
	w.ticks++
	w.mu.Unlock()

	w.logger.Debug().Int("due", len(due)).Int("settled", settled).Msg("settlement sweep complete")
	return settled
}

// Ticks returns how many sweep passes have completed, for tests and metrics.
func (w *SettlementWorker) Ticks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticks
}
