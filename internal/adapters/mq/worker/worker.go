// Package worker runs queued optimization jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/squadopt/internal/domain/model"
	"github.com/okian/squadopt/internal/domain/optimizer"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/pkg/logger"
	"github.com/okian/squadopt/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU(); jobs are CPU bound
	poolShutdownTimeout     = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = model.Job

// Executor runs one optimization.
type Executor interface {
	Optimize(ctx context.Context, req optimizer.Request) (types.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs and replies with their outcome.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight, if any.
	Shutdown(ctx context.Context) error
}

// Stats are counters shared by the workers of a pool.
type Stats struct {
	active    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	expired   atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Active    int64 `json:"active"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Expired   int64 `json:"expired"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Active:    s.active.Load(),
		Processed: s.processed.Load(),
		Failed:    s.failed.Load(),
		Expired:   s.expired.Load(),
	}
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue    Queue
	executor Executor
	name     string
	stats    *Stats

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, executor Executor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		executor: executor,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}
	if w.stats == nil {
		w.stats = &Stats{}
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Stats returns the counters this worker updates.
func (w *InMemoryWorker) Stats() *Stats { return w.stats }

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Warn(ctx, "job failed", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// stop signals the run loop. It is safe to call more than once.
func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs a single job and always sends exactly one reply.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	if job.Expired(time.Now()) {
		w.stats.expired.Add(1)
		metrics.RecordJobTimeout()
		metrics.RecordErrorByComponent("worker", "expired")
		err := fmt.Errorf("job %s: %w: %w", job.ID, ErrJobExpired, context.DeadlineExceeded)
		reply(job, model.Outcome{Err: err})
		return err
	}
	if aborted(job) {
		err := fmt.Errorf("job %s: %w", job.ID, ErrJobAborted)
		reply(job, model.Outcome{Err: err})
		return err
	}

	jobCtx, cancel := jobContext(ctx, job)
	defer cancel()

	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.stats.active.Add(1)))
	res, err := w.executor.Optimize(jobCtx, job.Request)
	metrics.UpdateWorkerActiveCount(int(w.stats.active.Add(-1)))
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	w.stats.processed.Add(1)
	if err != nil {
		w.stats.failed.Add(1)
		metrics.RecordWorkerError()
		if errors.Is(err, context.DeadlineExceeded) {
			w.stats.expired.Add(1)
			metrics.RecordJobTimeout()
			metrics.RecordErrorByComponent("worker", "deadline")
		} else {
			metrics.RecordErrorByComponent("worker", "optimize")
		}
		err = fmt.Errorf("job %s: %w", job.ID, err)
	}

	w.logger.Debug(ctx, "job processed",
		logger.String("job_id", job.ID),
		logger.String("status", res.Status),
		logger.Duration("queued", start.Sub(job.EnqueuedAt)),
		logger.Duration("took", time.Since(start)),
	)
	reply(job, model.Outcome{Result: res, Err: err})
	return err
}

// jobContext derives the context a job runs under: the job deadline, if
// any, and cancellation when the caller aborts.
func jobContext(ctx context.Context, job Job) (context.Context, context.CancelFunc) { //nolint:gocritic // hugeParam
	var cancel context.CancelFunc
	if job.Deadline.IsZero() {
		ctx, cancel = context.WithCancel(ctx)
	} else {
		ctx, cancel = context.WithDeadline(ctx, job.Deadline)
	}
	if job.Abort == nil {
		return ctx, cancel
	}
	go func() {
		select {
		case <-job.Abort:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func aborted(job Job) bool { //nolint:gocritic // hugeParam
	if job.Abort == nil {
		return false
	}
	select {
	case <-job.Abort:
		return true
	default:
		return false
	}
}

// reply never blocks; Reply is buffered for exactly one outcome.
func reply(job Job, out model.Outcome) { //nolint:gocritic // hugeParam
	if job.Reply == nil {
		return
	}
	select {
	case job.Reply <- out:
	default:
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *Stats

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below one sizes the pool from
// the number of CPUs.
func NewPool(workerCount int, queue Queue, executor Executor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		stats:   &Stats{},
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)), withStats(pool.stats))
		pool.workers[i] = NewInMemoryWorker(queue, executor, wopts...)
	}

	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats returns the counters shared by the pool's workers.
func (p *Pool) Stats() Snapshot { return p.stats.Snapshot() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for the workers to drain it. Workers
// still busy when ctx or the pool timeout expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			timedOut++
			worker.stop()
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
