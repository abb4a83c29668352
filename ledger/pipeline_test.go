package ledger

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu     sync.Mutex
	writes [][]AuditEvent
	closed bool
	failN  int
}

func (f *fakeSink) Write(ctx context.Context, events []AuditEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return context.DeadlineExceeded
	}
	cp := append([]AuditEvent(nil), events...)
	f.writes = append(f.writes, cp)
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.writes {
		n += len(b)
	}
	return n
}

func newTestPipeline(sink Sink, cfg PipelineConfig) *Pipeline {
	return NewPipeline(zerolog.New(io.Discard), sink, cfg)
}

func TestPipelineFlushesOnBatchSize(t *testing.T) {
	sink := &fakeSink{}
	cfg := PipelineConfig{BufferSize: 100, BatchSize: 3, FlushInterval: time.Hour, MaxRetries: 0, RetryDelay: time.Millisecond}
	p := newTestPipeline(sink, cfg)
	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 3; i++ {
		p.Track(AuditEvent{TransactionID: string(rune('a' + i))})
	}

	require.Eventually(t, func() bool { return sink.total() == 3 }, time.Second, 5*time.Millisecond)
}

func TestPipelineFlushesOnTicker(t *testing.T) {
	sink := &fakeSink{}
	cfg := PipelineConfig{BufferSize: 100, BatchSize: 1000, FlushInterval: 20 * time.Millisecond, MaxRetries: 0, RetryDelay: time.Millisecond}
	p := newTestPipeline(sink, cfg)
	p.Start(context.Background())
	defer p.Stop()

	p.Track(AuditEvent{TransactionID: "only-one"})

	require.Eventually(t, func() bool { return sink.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPipelineDropsWhenBufferFull(t *testing.T) {
	sink := &fakeSink{}
	cfg := PipelineConfig{BufferSize: 1, BatchSize: 1000, FlushInterval: time.Hour, MaxRetries: 0, RetryDelay: time.Millisecond}
	p := newTestPipeline(sink, cfg)
	// Not started: nothing drains the channel, so the second Track must drop.
	p.Track(AuditEvent{TransactionID: "a"})
	p.Track(AuditEvent{TransactionID: "b"})

	_, _, dropped, _ := p.Stats()
	require.Equal(t, int64(1), dropped)
}

func TestPipelineRetriesThenSucceeds(t *testing.T) {
	sink := &fakeSink{failN: 2}
	cfg := PipelineConfig{BufferSize: 100, BatchSize: 1, FlushInterval: time.Hour, MaxRetries: 3, RetryDelay: time.Millisecond}
	p := newTestPipeline(sink, cfg)
	p.Start(context.Background())
	defer p.Stop()

	p.Track(AuditEvent{TransactionID: "a"})

	require.Eventually(t, func() bool { return sink.total() == 1 }, time.Second, 5*time.Millisecond)
	_, written, _, failed := p.Stats()
	require.Equal(t, int64(1), written)
	require.Equal(t, int64(0), failed)
}

func TestStopDrainsBufferedEvents(t *testing.T) {
	sink := &fakeSink{}
	cfg := PipelineConfig{BufferSize: 100, BatchSize: 1000, FlushInterval: time.Hour, MaxRetries: 0, RetryDelay: time.Millisecond}
	p := newTestPipeline(sink, cfg)
	p.Start(context.Background())

	for i := 0; i < 5; i++ {
		p.Track(AuditEvent{TransactionID: string(rune('a' + i))})
	}
	p.Stop()

	require.Equal(t, 5, sink.total())
	require.True(t, sink.closed)
}
