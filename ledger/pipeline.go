package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Sink is the destination for audit events (Postgres, stdout, etc).
type Sink interface {
	Write(ctx context.Context, events []AuditEvent) error
	Close() error
}

// PipelineConfig controls batching and backpressure. Same field set as the
// teacher's analytics.PipelineConfig, since the throughput/backpressure
// problem is identical: one producer-never-blocks channel, periodic
// batched flush with retry.
type PipelineConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BufferSize:    10000,
		BatchSize:     200,
		FlushInterval: 2 * time.Second,
		MaxRetries:    3,
		RetryDelay:    200 * time.Millisecond,
	}
}

// Pipeline is the async audit-trail ingestion engine: Track never blocks
// the caller (wallet.Ledger.Transfer/Endow), a background worker batches
// and flushes to Sink with retry, and Stop drains whatever is left before
// closing the sink.
type Pipeline struct {
	logger zerolog.Logger
	config PipelineConfig
	sink   Sink

	events chan AuditEvent
	wg     sync.WaitGroup
	cancel context.CancelFunc

	received int64
	written  int64
	dropped  int64
	failed   int64
}

func NewPipeline(logger zerolog.Logger, sink Sink, config ...PipelineConfig) *Pipeline {
	cfg := DefaultPipelineConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	return &Pipeline{
		logger: logger.With().Str("component", "ledger_pipeline").Logger(),
		config: cfg,
		sink:   sink,
		events: make(chan AuditEvent, cfg.BufferSize),
	}
}

func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.worker(ctx)
	p.logger.Info().
		Int("buffer_size", p.config.BufferSize).
		Int("batch_size", p.config.BatchSize).
		Dur("flush_interval", p.config.FlushInterval).
		Msg("ledger audit pipeline started")
}

func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	if p.sink != nil {
		_ = p.sink.Close()
	}
	p.logger.Info().
		Int64("received", atomic.LoadInt64(&p.received)).
		Int64("written", atomic.LoadInt64(&p.written)).
		Int64("dropped", atomic.LoadInt64(&p.dropped)).
		Msg("ledger audit pipeline stopped")
}

// Track submits an audit event. Non-blocking: if the buffer is full the
// event is dropped and counted, never backing up into wallet.Ledger's
// transfer path.
func (p *Pipeline) Track(event AuditEvent) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	select {
	case p.events <- event:
		atomic.AddInt64(&p.received, 1)
	default:
		atomic.AddInt64(&p.dropped, 1)
		p.logger.Warn().Str("transaction_id", event.TransactionID).Msg("audit event dropped: buffer full")
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]AuditEvent, 0, p.config.BatchSize)
	for {
		select {
		case <-ctx.Done():
			batch = p.drain(batch)
			if len(batch) > 0 {
				p.flush(batch)
			}
			return
		case ev := <-p.events:
			batch = append(batch, ev)
			if len(batch) >= p.config.BatchSize {
				p.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

// drain empties whatever is left in the channel once cancellation has
// stopped new sends from mattering, so shutdown doesn't lose events still
// sitting in the buffer.
func (p *Pipeline) drain(batch []AuditEvent) []AuditEvent {
	for {
		select {
		case ev := <-p.events:
			batch = append(batch, ev)
		default:
			return batch
		}
	}
}

func (p *Pipeline) flush(batch []AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		err = p.sink.Write(ctx, batch)
		if err == nil {
			atomic.AddInt64(&p.written, int64(len(batch)))
			return
		}
		p.logger.Warn().Err(err).Int("attempt", attempt+1).Int("batch_size", len(batch)).Msg("audit flush failed")
		if attempt < p.config.MaxRetries {
			time.Sleep(p.config.RetryDelay * time.Duration(1<<uint(attempt)))
		}
	}

	atomic.AddInt64(&p.failed, 1)
	atomic.AddInt64(&p.dropped, int64(len(batch)))
	p.logger.Error().Err(err).Int("batch_size", len(batch)).Msg("audit batch dropped after retries")
}

// Stats returns running counters for tests and metrics.
func (p *Pipeline) Stats() (received, written, dropped, failed int64) {
	return atomic.LoadInt64(&p.received), atomic.LoadInt64(&p.written), atomic.LoadInt64(&p.dropped), atomic.LoadInt64(&p.failed)
}
