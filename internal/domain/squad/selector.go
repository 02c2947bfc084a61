// Package squad selects a budget-constrained 15-player squad that maximizes
// total predicted points.
package squad

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/squadopt/internal/domain/milp"
	"github.com/okian/squadopt/internal/domain/player"
	"github.com/okian/squadopt/internal/domain/position"
	"github.com/okian/squadopt/internal/domain/types"
	"github.com/okian/squadopt/pkg/logger"
	"github.com/okian/squadopt/pkg/metrics"
)

// Request is one squad selection.
type Request struct {
	Players []player.Record
	Budget  float64

	// ExistingSquad and MaxTransfers only constrain the solve when both
	// are set.
	ExistingSquad []string
	MaxTransfers  *int

	// Greedy fills the squad by descending points instead of solving. It
	// ignores ExistingSquad and MaxTransfers.
	Greedy bool
}

// Selector formulates squad selection as a binary program.
type Selector struct {
	solver   milp.Solver
	rules    Rules
	presolve bool
	logger   logger.Logger
}

// NewSelector creates a selector backed by solver.
func NewSelector(solver milp.Solver, opts ...Option) *Selector {
	s := &Selector{
		solver:   solver,
		rules:    DefaultRules(),
		presolve: true,
		logger:   logger.Get().Named("squad"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rules returns the rules the selector enforces.
func (s *Selector) Rules() Rules { return s.rules }

// Select picks the squad. Over-constrained input is reported through the
// result status with a nil error; errors mean the solve itself could not run.
func (s *Selector) Select(ctx context.Context, req Request) (types.SquadResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSolveLatency(float64(time.Since(start).Milliseconds()))
	}()

	if req.Greedy {
		res := Greedy(req.Players, req.Budget, s.rules)
		metrics.RecordSolve(res.Status)
		s.logger.Debug(ctx, "greedy squad filled",
			logger.String("status", res.Status),
			logger.Int("picked", len(res.Squad)),
			logger.Float64("expected_points", res.ExpectedPoints),
		)
		return res, nil
	}
	if len(req.Players) == 0 {
		metrics.RecordSolve(types.StatusNoPlayers)
		return types.EmptySquad(types.StatusNoPlayers), nil
	}
	cands := candidates(req.Players)
	if len(cands) == 0 {
		metrics.RecordSolve(types.StatusNoValidIDs)
		return types.EmptySquad(types.StatusNoValidIDs), nil
	}

	existing := idSet(req.ExistingSquad)
	pool := cands
	if s.presolve {
		pool = make([]player.Record, 0, len(cands))
		for i, drop := range dominated(cands, existing, s.rules) {
			if !drop {
				pool = append(pool, cands[i])
			}
		}
		metrics.RecordPresolveEliminated(len(cands) - len(pool))
	}
	metrics.RecordCandidates(len(pool))

	prob := s.formulate(pool, req.Budget, existing, req.MaxTransfers)
	prob.Start = greedyStart(pool, req.Budget, s.rules)

	sol, err := s.solver.Solve(ctx, prob)
	metrics.RecordBranchNodes(sol.Nodes)
	if err != nil {
		status := milp.NotSolved.String()
		metrics.RecordSolve(status)
		metrics.RecordSolverError(errorKind(err))
		metrics.RecordErrorByComponent("squad", errorKind(err))
		s.logger.Error(ctx, "squad solve failed",
			logger.Int("candidates", len(pool)),
			logger.Error(err),
		)
		return types.EmptySquad(status), fmt.Errorf("select squad: %w", err)
	}
	if sol.Status != milp.Optimal {
		metrics.RecordSolve(sol.Status.String())
		s.logger.Info(ctx, "no optimal squad",
			logger.String("status", sol.Status.String()),
			logger.Float64("budget", req.Budget),
			logger.Int("candidates", len(pool)),
			logger.Int("nodes", sol.Nodes),
		)
		return types.EmptySquad(sol.Status.String()), nil
	}

	squad := make([]player.Record, 0, s.rules.SquadSize)
	for _, j := range sol.Selected() {
		squad = append(squad, pool[j])
	}
	if err := Validate(squad, s.rules, req.Budget); err != nil {
		metrics.RecordSolverError("invalid_solution")
		return types.EmptySquad(milp.Undefined.String()), fmt.Errorf("%w: %w", ErrInvalidSolution, err)
	}

	res := summarize(squad, req.Budget, types.StatusOptimal)
	metrics.RecordSolve(res.Status)
	s.logger.Debug(ctx, "squad selected",
		logger.Int("players", len(req.Players)),
		logger.Int("candidates", len(pool)),
		logger.Int("nodes", sol.Nodes),
		logger.Float64("expected_points", res.ExpectedPoints),
		logger.Float64("total_cost", res.TotalCost),
	)
	return res, nil
}

// formulate builds the binary program over pool. Variable j selects pool[j].
func (s *Selector) formulate(pool []player.Record, budget float64, existing map[string]struct{}, maxTransfers *int) *milp.Problem {
	n := len(pool)
	obj := make([]float64, n)
	all := make([]milp.Term, n)
	cost := make([]milp.Term, n)
	var byPos [position.Count][]milp.Term
	byClub := make(map[string][]milp.Term)
	var clubs []string
	var kept []milp.Term

	for j, r := range pool {
		obj[j] = r.PredictedPoints
		all[j] = milp.Term{Var: j, Coef: 1}
		cost[j] = milp.Term{Var: j, Coef: r.Price}
		byPos[r.Position] = append(byPos[r.Position], milp.Term{Var: j, Coef: 1})
		if _, ok := byClub[r.Team]; !ok {
			clubs = append(clubs, r.Team)
		}
		byClub[r.Team] = append(byClub[r.Team], milp.Term{Var: j, Coef: 1})
		if _, ok := existing[r.ID]; ok {
			kept = append(kept, milp.Term{Var: j, Coef: 1})
		}
	}

	p := milp.NewProblem("squad", obj, true)
	p.Add(milp.Constraint{Name: "squad_size", Terms: all, Rel: milp.Equal, RHS: float64(s.rules.SquadSize)})
	p.Add(milp.Constraint{Name: "budget", Terms: cost, Rel: milp.LessEq, RHS: budget})
	for _, pos := range position.All {
		p.Add(milp.Constraint{
			Name:  "position_" + pos.String(),
			Terms: byPos[pos],
			Rel:   milp.Equal,
			RHS:   float64(s.rules.Required[pos]),
		})
	}
	// Clubs that cannot exceed the cap need no row.
	for _, club := range clubs {
		if terms := byClub[club]; len(terms) > s.rules.MaxPerClub {
			p.Add(milp.Constraint{Name: "club_" + club, Terms: terms, Rel: milp.LessEq, RHS: float64(s.rules.MaxPerClub)})
		}
	}
	// |E| - kept <= maxTransfers, written as kept >= |E| - maxTransfers.
	if len(existing) > 0 && maxTransfers != nil {
		p.Add(milp.Constraint{
			Name:  "transfers",
			Terms: kept,
			Rel:   milp.GreaterEq,
			RHS:   float64(len(existing) - *maxTransfers),
		})
	}
	return p
}

// candidates drops records without an id and keeps the first of duplicates.
func candidates(players []player.Record) []player.Record {
	out := make([]player.Record, 0, len(players))
	seen := make(map[string]struct{}, len(players))
	for _, r := range players {
		id := strings.TrimSpace(r.ID)
		if id == "" || !r.Position.Valid() {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		r.ID = id
		out = append(out, r)
	}
	return out
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// summarize orders the squad canonically and fills the rounded totals.
func summarize(squad []player.Record, budget float64, status string) types.SquadResult {
	sort.SliceStable(squad, func(a, b int) bool {
		if squad[a].Position != squad[b].Position {
			return squad[a].Position.Order() < squad[b].Position.Order()
		}
		return squad[a].PredictedPoints > squad[b].PredictedPoints
	})
	cost := types.Round(player.TotalPrice(squad), 1)
	return types.SquadResult{
		Squad:           squad,
		TotalCost:       cost,
		ExpectedPoints:  types.Round(player.TotalPoints(squad), 2),
		Status:          status,
		BudgetRemaining: types.Float(types.Round(budget-cost, 1)),
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, milp.ErrInvalidProblem):
		return "invalid_problem"
	default:
		return "solver"
	}
}
