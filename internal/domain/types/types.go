// Package types contains the result contracts shared across the application.
package types

import (
	"math"

	"github.com/okian/squadopt/internal/domain/player"
)

// StatusOptimal is the only status that marks a usable squad.
const StatusOptimal = "Optimal"

// Statuses reported without running the solver.
const (
	StatusNoPlayers  = "No players provided"
	StatusNoValidIDs = "No players with valid ids"
)

// StatusNotSolved is reported when a solve was stopped or never finished.
const StatusNotSolved = "Not Solved"

// Greedy fill statuses: a full squad, or one that stopped short.
const (
	StatusFeasible = "Feasible"
	StatusPartial  = "Partial"
)

// FormationInvalid labels a fallback line-up built from a malformed squad.
const FormationInvalid = "Invalid"

// SquadResult is the output of squad selection. Squad is never nil so it
// encodes as an empty JSON array on failure.
type SquadResult struct {
	Squad           []player.Record `json:"squad"`
	TotalCost       float64         `json:"total_cost"`
	ExpectedPoints  float64         `json:"expected_points"`
	Status          string          `json:"status"`
	BudgetRemaining *float64        `json:"budget_remaining"`
}

// OK reports whether the selection produced a usable squad.
func (r SquadResult) OK() bool { return r.Status == StatusOptimal }

// Complete reports whether the squad is full, optimal or not.
func (r SquadResult) Complete() bool {
	return r.OK() || r.Status == StatusFeasible
}

// EmptySquad builds a failed selection carrying status.
func EmptySquad(status string) SquadResult {
	return SquadResult{Squad: []player.Record{}, Status: status}
}

// LineupResult is the output of formation selection.
type LineupResult struct {
	Starters               []player.Record `json:"starters"`
	Bench                  []player.Record `json:"bench"`
	Formation              string          `json:"formation"`
	StartingExpectedPoints float64         `json:"starting_expected_points"`
}

// Valid reports whether the line-up came from a well-formed squad.
func (l LineupResult) Valid() bool { return l.Formation != FormationInvalid }

// Result is the combined payload. Line-up fields stay nil when the line-up
// was not produced.
type Result struct {
	SquadResult

	Starters               []player.Record `json:"starters"`
	Bench                  []player.Record `json:"bench"`
	Formation              *string         `json:"formation"`
	StartingExpectedPoints *float64        `json:"starting_expected_points"`
}

// WithLineup merges a line-up into a squad result.
func WithLineup(sq SquadResult, l LineupResult) Result {
	formation := l.Formation
	pts := l.StartingExpectedPoints
	return Result{
		SquadResult:            sq,
		Starters:               l.Starters,
		Bench:                  l.Bench,
		Formation:              &formation,
		StartingExpectedPoints: &pts,
	}
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
