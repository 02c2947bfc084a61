// Package config defines process configuration and how it is loaded.
//
// Conventions:
// - New returns a Config with every default filled in.
// - Load layers a YAML file and SQUADOPT_ environment variables on top.
// - Errors wrap ErrLoadConfig or ErrInvalidConfig so callers can use errors.Is.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Budget is used when a request does not carry its own.
	Budget float64 `koanf:"budget"`

	// MaxPerClub caps how many squad players may come from one club.
	MaxPerClub int `koanf:"max_per_club"`

	// WorkerCount sets the number of optimization workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// RequestTimeoutMS bounds queue wait plus solve time per request.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// NodeLimit caps branch-and-bound nodes per solve.
	NodeLimit int `koanf:"node_limit"`

	// LPTolerance is the simplex tolerance.
	LPTolerance float64 `koanf:"lp_tolerance"`

	// Presolve enables dominance elimination before the solve.
	Presolve bool `koanf:"presolve"`

	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// LatencyBucketsMS overrides the latency histogram buckets. Empty keeps
	// the built-in ones.
	LatencyBucketsMS []float64 `koanf:"latency_buckets_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Budget:           100.0,
		MaxPerClub:       3,
		WorkerCount:      runtime.NumCPU(),
		QueueSize:        1024,
		RequestTimeoutMS: 30_000,
		NodeLimit:        100_000,
		LPTolerance:      1e-8,
		Presolve:         true,
		MetricsNamespace: "squadopt",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Budget < 0:
		return fmt.Errorf("%w: budget must not be negative, got %v", ErrInvalidConfig, c.Budget)
	case c.MaxPerClub < 1:
		return fmt.Errorf("%w: max_per_club must be at least 1, got %d", ErrInvalidConfig, c.MaxPerClub)
	case c.NodeLimit < 1:
		return fmt.Errorf("%w: node_limit must be at least 1, got %d", ErrInvalidConfig, c.NodeLimit)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1, got %d", ErrInvalidConfig, c.QueueSize)
	case c.RequestTimeoutMS < 1:
		return fmt.Errorf("%w: request_timeout_ms must be at least 1, got %d", ErrInvalidConfig, c.RequestTimeoutMS)
	case c.LPTolerance <= 0:
		return fmt.Errorf("%w: lp_tolerance must be positive, got %v", ErrInvalidConfig, c.LPTolerance)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case !increasing(c.LatencyBucketsMS):
		return fmt.Errorf("%w: latency_buckets_ms must be strictly increasing, got %v", ErrInvalidConfig, c.LatencyBucketsMS)
	}
	return nil
}

// increasing reports whether v is strictly increasing. NaN never is.
func increasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return false
		}
	}
	return true
}
