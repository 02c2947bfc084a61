package milp

import (
	"github.com/okian/squadopt/pkg/logger"
)

// Option applies a configuration option to the BranchAndBound solver.
type Option func(*BranchAndBound)

// WithNodeLimit caps the number of explored nodes. A solve that hits the cap
// reports NotSolved.
func WithNodeLimit(limit int) Option {
	return func(s *BranchAndBound) {
		if limit > 0 {
			s.nodeLimit = limit
		}
	}
}

// WithTolerance sets the reduced-cost tolerance passed to the simplex.
func WithTolerance(tol float64) Option {
	return func(s *BranchAndBound) {
		if tol > 0 {
			s.lpTol = tol
		}
	}
}

// WithLogger sets a custom logger for the solver.
func WithLogger(l logger.Logger) Option {
	return func(s *BranchAndBound) {
		if l != nil {
			s.logger = l
		}
	}
}
