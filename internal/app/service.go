// Package service runs squad optimizations on a bounded job queue served by
// a worker pool.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	jobqueue "github.com/okian/squadopt/internal/adapters/mq/queue"
	workerpool "github.com/okian/squadopt/internal/adapters/mq/worker"
	"github.com/okian/squadopt/internal/domain/milp"
	"github.com/okian/squadopt/internal/domain/model"
	"github.com/okian/squadopt/internal/domain/optimizer"
	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/squad"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/pkg/logger"
)

// Default service configuration constants.
const (
	defaultQueueSize      = 1024
	defaultRequestTimeout = 30 * time.Second
	defaultMaxPerClub     = 3
)

// Service owns the optimizer and the queue feeding it.
type Service struct {
	mu sync.RWMutex

	// Core components
	optimizer  *optimizer.Optimizer
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	requestTimeout time.Duration
	maxPerClub     int
	nodeLimit      int
	tolerance      float64
	presolve       bool

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRequestTimeout bounds how long one optimization may wait and run.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithMaxPerClub sets the per-club player limit.
func WithMaxPerClub(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxPerClub = limit
		}
	}
}

// WithNodeLimit caps the branch-and-bound search.
func WithNodeLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.nodeLimit = limit
		}
	}
}

// WithTolerance sets the LP tolerance.
func WithTolerance(tol float64) Option {
	return func(s *Service) {
		if tol > 0 {
			s.tolerance = tol
		}
	}
}

// WithPresolve toggles the dominance presolve.
func WithPresolve(enabled bool) Option {
	return func(s *Service) {
		s.presolve = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:    runtime.NumCPU(),
		queueSize:      defaultQueueSize,
		requestTimeout: defaultRequestTimeout,
		maxPerClub:     defaultMaxPerClub,
		nodeLimit:      milp.DefaultNodeLimit,
		tolerance:      milp.DefaultTolerance,
		presolve:       true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the optimizer and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	solver := milp.NewBranchAndBound(
		milp.WithNodeLimit(s.nodeLimit),
		milp.WithTolerance(s.tolerance),
		milp.WithLogger(s.logger.Named("milp")),
	)
	rules := squad.DefaultRules()
	rules.MaxPerClub = s.maxPerClub
	selector := squad.NewSelector(solver,
		squad.WithRules(rules),
		squad.WithPresolve(s.presolve),
		squad.WithLogger(s.logger.Named("squad")),
	)
	s.optimizer = optimizer.New(selector, optimizer.WithLogger(s.logger.Named("optimizer")))

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.optimizer,
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	// Workers outlive the request context that started them.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "squad optimizer service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("requestTimeout", s.requestTimeout),
		logger.Int("maxPerClub", s.maxPerClub),
	)

	return nil
}

// Stop drains the queue and shuts the workers down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping squad optimizer service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not stop cleanly", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "squad optimizer service stopped")
}

// Optimize queues an optimization and waits for its result. The request
// timeout covers both the wait in the queue and the solve.
func (s *Service) Optimize(ctx context.Context, req optimizer.Request) (types.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Result{SquadResult: types.EmptySquad(types.StatusNotSolved)}, ErrNotStarted
	}

	if err := ctx.Err(); err != nil {
		return types.Result{SquadResult: types.EmptySquad(types.StatusNotSolved)}, fmt.Errorf("optimize: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	abort := make(chan struct{})
	defer close(abort)

	job := model.NewJob(req, deadline, abort)
	if !s.jobQueue.Enqueue(ctx, job) {
		s.logger.Warn(ctx, "job rejected", logger.String("job_id", job.ID), logger.Int("queued", s.jobQueue.Len(ctx)))
		return types.Result{SquadResult: types.EmptySquad(types.StatusNotSolved)}, ErrBackpressure
	}

	select {
	case out := <-job.Reply:
		return out.Result, out.Err
	case <-ctx.Done():
		s.logger.Warn(ctx, "gave up waiting for job", logger.String("job_id", job.ID), logger.Error(ctx.Err()))
		return types.Result{SquadResult: types.EmptySquad(types.StatusNotSolved)}, fmt.Errorf("optimize %s: %w", job.ID, ctx.Err())
	}
}

// SelectLineup picks the starting eleven of an existing squad. It runs
// inline since it never solves a program.
func (s *Service) SelectLineup(ctx context.Context, records []player.Record) (types.LineupResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.LineupResult{}, ErrNotStarted
	}
	return s.optimizer.SelectLineup(ctx, records)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"requestTimeoutMs": s.requestTimeout.Milliseconds(),
		"maxPerClub":       s.maxPerClub,
		"nodeLimit":        s.nodeLimit,
		"presolve":         s.presolve,
	}

	if s.started {
		snap := s.workerPool.Stats()
		stats["queueLength"] = s.jobQueue.Len(context.Background())
		stats["activeJobs"] = snap.Active
		stats["processedJobs"] = snap.Processed
		stats["failedJobs"] = snap.Failed
		stats["expiredJobs"] = snap.Expired
	}

	return stats
}
