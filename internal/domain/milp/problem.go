// Package milp models binary linear programs and solves them with
// branch and bound over a bounded-variable simplex.
package milp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Relation is the comparison of a constraint row against its right-hand side.
type Relation int

// Supported relations.
const (
	LessEq Relation = iota
	Equal
	GreaterEq
)

func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case Equal:
		return "="
	case GreaterEq:
		return ">="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Term is one coefficient of a constraint row.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is a linear row: sum(Coef*x[Var]) Rel RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Rel   Relation
	RHS   float64
}

// Activity evaluates the left-hand side at x.
func (c Constraint) Activity(x []float64) float64 {
	var s float64
	for _, t := range c.Terms {
		s += t.Coef * x[t.Var]
	}
	return s
}

// Satisfied reports whether x meets the row within tol.
func (c Constraint) Satisfied(x []float64, tol float64) bool {
	return holds(c.Activity(x), c.Rel, c.RHS, tol)
}

func holds(lhs float64, rel Relation, rhs, tol float64) bool {
	switch rel {
	case LessEq:
		return lhs <= rhs+tol
	case GreaterEq:
		return lhs >= rhs-tol
	case Equal:
		return math.Abs(lhs-rhs) <= tol
	default:
		return false
	}
}

// Problem is a binary program. Every variable is restricted to {0, 1}.
type Problem struct {
	Name        string
	Objective   []float64
	Maximize    bool
	Constraints []Constraint

	// Start is an optional 0/1 assignment tried as the first incumbent.
	// It is ignored when infeasible.
	Start []float64
}

// NewProblem creates a problem with one binary variable per objective entry.
func NewProblem(name string, objective []float64, maximize bool) *Problem {
	return &Problem{Name: name, Objective: objective, Maximize: maximize}
}

// NumVars is the number of binary variables.
func (p *Problem) NumVars() int { return len(p.Objective) }

// Add appends a constraint row.
func (p *Problem) Add(c Constraint) {
	p.Constraints = append(p.Constraints, c)
}

// Validate checks indices, relations and finiteness of every coefficient.
func (p *Problem) Validate() error {
	n := p.NumVars()
	for j, v := range p.Objective {
		if !finite(v) {
			return fmt.Errorf("%w: objective coefficient %d is %v", ErrInvalidProblem, j, v)
		}
	}
	for i, c := range p.Constraints {
		if c.Rel < LessEq || c.Rel > GreaterEq {
			return fmt.Errorf("%w: constraint %d (%s) has relation %s", ErrInvalidProblem, i, c.Name, c.Rel)
		}
		if !finite(c.RHS) {
			return fmt.Errorf("%w: constraint %d (%s) rhs is %v", ErrInvalidProblem, i, c.Name, c.RHS)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= n {
				return fmt.Errorf("%w: constraint %d (%s) references variable %d of %d", ErrInvalidProblem, i, c.Name, t.Var, n)
			}
			if !finite(t.Coef) {
				return fmt.Errorf("%w: constraint %d (%s) coefficient is %v", ErrInvalidProblem, i, c.Name, t.Coef)
			}
		}
	}
	if p.Start != nil && len(p.Start) != n {
		return fmt.Errorf("%w: start has %d values for %d variables", ErrInvalidProblem, len(p.Start), n)
	}
	return nil
}

// Evaluate returns the objective value at x.
func (p *Problem) Evaluate(x []float64) float64 {
	return floats.Dot(p.Objective, x)
}

// Feasible reports whether x is a binary assignment meeting every row.
func (p *Problem) Feasible(x []float64, tol float64) bool {
	if len(x) != p.NumVars() {
		return false
	}
	for _, v := range x {
		if math.Abs(v) > tol && math.Abs(v-1) > tol {
			return false
		}
	}
	for _, c := range p.Constraints {
		if !c.Satisfied(x, tol) {
			return false
		}
	}
	return true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
