// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/squadopt/internal/domain/optimizer"
	"github.com/okian/squadopt/internal/domain/types"
)

// Outcome is what a worker sends back for a job.
type Outcome struct {
	Result types.Result
	Err    error
}

// Job is one optimization request travelling through the queue.
type Job struct {
	ID         string            // correlation id for logs
	Request    optimizer.Request // the optimization to run
	Deadline   time.Time         // zero means no deadline
	EnqueuedAt time.Time

	// Reply receives exactly one Outcome. It must be buffered so a worker
	// never blocks on a caller that gave up.
	Reply chan Outcome

	// Abort is closed by the caller when it stops waiting.
	Abort <-chan struct{}
}

// NewJob wraps a request with a fresh id and reply channel.
func NewJob(req optimizer.Request, deadline time.Time, abort <-chan struct{}) Job {
	return Job{
		ID:         uuid.NewString(),
		Request:    req,
		Deadline:   deadline,
		EnqueuedAt: time.Now(),
		Reply:      make(chan Outcome, 1),
		Abort:      abort,
	}
}

// Expired reports whether the job deadline has passed at now.
func (j Job) Expired(now time.Time) bool {
	return !j.Deadline.IsZero() && !now.Before(j.Deadline)
}
