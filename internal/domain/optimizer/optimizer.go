// Package optimizer chains squad selection and line-up selection into one
// request.
package optimizer

import (
	"context"
	"fmt"

	"github.com/okian/squadopt/internal/domain/formation"
	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/squad"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/pkg/logger"
)

// DefaultBudget is the budget used when a caller has none configured.
const DefaultBudget = 100.0

// SquadSelector picks a squad.
type SquadSelector interface {
	Select(ctx context.Context, req squad.Request) (types.SquadResult, error)
}

// LineupSelector picks the starting eleven of a squad.
type LineupSelector interface {
	Select(ctx context.Context, records []player.Record) (types.LineupResult, error)
}

// Request is one end-to-end optimization.
type Request struct {
	squad.Request
	IncludeStartingEleven bool
}

// Optimizer runs the squad and line-up steps.
type Optimizer struct {
	squads  SquadSelector
	lineups LineupSelector
	logger  logger.Logger
}

// Option applies a configuration option to the Optimizer.
type Option func(*Optimizer)

// WithLineupSelector replaces the default formation selector.
func WithLineupSelector(l LineupSelector) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.lineups = l
		}
	}
}

// WithLogger sets a custom logger for the optimizer.
func WithLogger(l logger.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an optimizer around a squad selector.
func New(squads SquadSelector, opts ...Option) *Optimizer {
	o := &Optimizer{
		squads: squads,
		logger: logger.Get().Named("optimizer"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.lineups == nil {
		o.lineups = formation.NewSelector(formation.WithLogger(o.logger))
	}
	return o
}

// Optimize selects the squad and, when requested, its line-up. A squad that
// is not complete is returned unchanged and the line-up step is skipped.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (types.Result, error) {
	sq, err := o.squads.Select(ctx, req.Request)
	if err != nil {
		return types.Result{SquadResult: sq}, fmt.Errorf("optimize: %w", err)
	}
	if !sq.Complete() || !req.IncludeStartingEleven {
		return types.Result{SquadResult: sq}, nil
	}

	lineup, err := o.lineups.Select(ctx, sq.Squad)
	if err != nil {
		return types.Result{SquadResult: sq}, fmt.Errorf("optimize: %w", err)
	}
	o.logger.Info(ctx, "squad optimized",
		logger.Float64("expected_points", sq.ExpectedPoints),
		logger.Float64("total_cost", sq.TotalCost),
		logger.String("formation", lineup.Formation),
		logger.Float64("starting_points", lineup.StartingExpectedPoints),
	)
	return types.WithLineup(sq, lineup), nil
}

// SelectLineup runs only the line-up step on an existing squad.
func (o *Optimizer) SelectLineup(ctx context.Context, records []player.Record) (types.LineupResult, error) {
	return o.lineups.Select(ctx, records)
}
