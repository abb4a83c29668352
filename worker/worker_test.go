package worker

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/darve-social/darve-go/task"
)

type fakeDueFinder struct {
	rows []task.Request
	err  error
}

func (f *fakeDueFinder) Due(ctx context.Context, now time.Time) ([]task.Request, error) {
	return f.rows, f.err
}

type fakeSettler struct {
	settled []string
	failFor map[string]bool
}

func (f *fakeSettler) Settle(ctx context.Context, taskID string) (*task.Request, error) {
	if f.failFor[taskID] {
		return nil, context.DeadlineExceeded
	}
	f.settled = append(f.settled, taskID)
	return &task.Request{ID: taskID, Status: task.StatusCompleted}, nil
}

func newTestWorker(repo dueFinder, svc settler) *SettlementWorker {
	return &SettlementWorker{
		service:        svc,
		repo:           repo,
		logger:         zerolog.New(io.Discard),
		interval:       time.Second,
		done:           make(chan struct{}),
		failureStreaks: make(map[string]int),
	}
}

func TestSweepSettlesEveryDueTask(t *testing.T) {
	repo := &fakeDueFinder{rows: []task.Request{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}}
	svc := &fakeSettler{failFor: map[string]bool{}}
	w := newTestWorker(repo, svc)

	n := w.Sweep(context.Background())

	require.Equal(t, 3, n)
	require.ElementsMatch(t, []string{"t1", "t2", "t3"}, svc.settled)
	require.Equal(t, 1, w.Ticks())
}

func TestSweepSkipsFailuresAndContinues(t *testing.T) {
	repo := &fakeDueFinder{rows: []task.Request{{ID: "t1"}, {ID: "t2"}}}
	svc := &fakeSettler{failFor: map[string]bool{"t1": true}}
	w := newTestWorker(repo, svc)

	n := w.Sweep(context.Background())

	require.Equal(t, 1, n)
	require.Equal(t, []string{"t2"}, svc.settled)
}

func TestSweepWithNoDueTasksSettlesNothing(t *testing.T) {
	repo := &fakeDueFinder{}
	svc := &fakeSettler{}
	w := newTestWorker(repo, svc)

	require.Equal(t, 0, w.Sweep(context.Background()))
	require.Empty(t, svc.settled)
}

func TestSweepReportsConsecutiveFailuresAndRecovery(t *testing.T) {
	repo := &fakeDueFinder{rows: []task.Request{{ID: "t1"}}}
	svc := &fakeSettler{failFor: map[string]bool{"t1": true}}
	w := newTestWorker(repo, svc)

	var failures []int
	var recovered []string
	w.OnSettlementFailure(func(taskID string, consecutiveFailures int, lastErr string) {
		failures = append(failures, consecutiveFailures)
	})
	w.OnSettlementRecovered(func(taskID string) {
		recovered = append(recovered, taskID)
	})

	w.Sweep(context.Background())
	w.Sweep(context.Background())
	require.Equal(t, []int{1, 2}, failures)
	require.Empty(t, recovered)

	svc.failFor["t1"] = false
	w.Sweep(context.Background())
	require.Equal(t, []string{"t1"}, recovered)
}

func TestStartStopRunsAtLeastOneSweep(t *testing.T) {
	repo := &fakeDueFinder{rows: []task.Request{{ID: "t1"}}}
	svc := &fakeSettler{failFor: map[string]bool{}}
	w := New(nil, nil, zerolog.New(io.Discard), 20*time.Millisecond)
	w.repo = repo
	w.service = svc

	w.Start()
	time.Sleep(60 * time.Millisecond)
	w.Stop()

	require.GreaterOrEqual(t, w.Ticks(), 1)
}
