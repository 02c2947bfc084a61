package service

import "errors"

var (
	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrBackpressure is returned when the job queue is full.
	ErrBackpressure = errors.New("job queue full")
)
