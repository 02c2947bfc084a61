package milp

import "errors"

// Sentinel errors returned by solvers.
var (
	// ErrSolverUnavailable reports a backend failure that is not an
	// optimization outcome, such as a numeric breakdown.
	ErrSolverUnavailable = errors.New("milp solver unavailable")
	ErrInvalidProblem    = errors.New("invalid milp problem")
)
