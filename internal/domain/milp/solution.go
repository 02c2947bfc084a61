package milp

import (
	"context"
	"fmt"
)

// Status is the outcome of a solve. String values match the labels reported
// to callers.
type Status int

// Solve outcomes.
const (
	NotSolved Status = iota
	Optimal
	Infeasible
	Unbounded
	Undefined
)

func (s Status) String() string {
	switch s {
	case NotSolved:
		return "Not Solved"
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case Undefined:
		return "Undefined"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Solution holds the outcome of a solve. Values are rounded to exactly 0 or 1
// and are only meaningful when Status is Optimal.
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64
	Nodes     int
}

// Selected returns the indices of variables set to 1.
func (s Solution) Selected() []int {
	var idx []int
	for j, v := range s.Values {
		if v > 0.5 {
			idx = append(idx, j)
		}
	}
	return idx
}

// Solver solves binary programs.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (Solution, error)
}
