package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

// Pool is a fixed set of workers draining a bounded channel. Enqueue blocks
// while the channel is full.
type Pool struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*Pool)(nil)

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPool(handle Handler, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		handle:  handle,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.work(i + 1)
		}
	})
}

func (p *Pool) work(workerID int) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", workerID)
	for job := range p.ch {
		p.run(workerID, job)
	}
	p.logger.Debug("worker stopped", "worker_id", workerID)
}

func (p *Pool) run(workerID int, job Job) {
	ctx := common.WithRequestID(context.Background(), job.ID.String())
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("async.job.panic", "worker_id", workerID, "path", job.Path, "panic", r)
		}
	}()

	start := time.Now()
	if err := p.handle(ctx, job); err != nil {
		p.logger.Error("async.job.failed", "worker_id", workerID, "path", job.Path, "err", err)
		return
	}
	p.logger.Info("async.job.ok", "worker_id", workerID, "path", job.Path,
		"queued_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds())
}

// Enqueue submits job, waiting for room in the queue or ctx cancellation.
func (p *Pool) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrQueueClosed
	}
	select {
	case p.ch <- job:
		return nil
	default:
		p.logger.Debug("queue full, applying backpressure", "path", job.Path)
	}
	select {
	case p.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("shutdown interrupted by context")
	case <-done:
		p.logger.Info("queue drained, shutdown complete")
	}
}
