package worker

import "errors"

var (
	// ErrJobExpired is returned when a job's deadline passed while it was queued.
	ErrJobExpired = errors.New("job expired before it started")
	// ErrJobAborted is returned when the caller stopped waiting before the job started.
	ErrJobAborted = errors.New("job aborted by caller")
)
