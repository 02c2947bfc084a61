package squad

import (
	"github.com/okian/squadopt/pkg/logger"
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithRules replaces the default squad rules.
func WithRules(rules Rules) Option {
	return func(s *Selector) {
		if rules.SquadSize > 0 && rules.MaxPerClub > 0 {
			s.rules = rules
		}
	}
}

// WithPresolve toggles dominance presolve.
func WithPresolve(enabled bool) Option {
	return func(s *Selector) {
		s.presolve = enabled
	}
}

// WithLogger sets a custom logger for the selector.
func WithLogger(l logger.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}
