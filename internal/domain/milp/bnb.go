package milp

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/squadopt/pkg/logger"
	"gonum.org/v1/gonum/floats"
)

// Default solver configuration constants.
const (
	DefaultNodeLimit = 100000
	DefaultTolerance = 1e-8

	integralityTol = 1e-6
	feasibilityTol = 1e-6
	objectiveTol   = 1e-9

	// pruneTol is the least improvement a node must still be able to make.
	pruneTol = 1e-6
)

const (
	free   int8 = -1
	fixed0 int8 = 0
	fixed1 int8 = 1
)

// BranchAndBound is a best-bound branch-and-bound solver. Node relaxations
// are solved with a bounded-variable simplex: the root from scratch, every
// other node from its parent's optimal basis with the dual simplex. Each
// popped node is dived into, and nonbasic variables are fixed by reduced cost
// once an incumbent exists.
type BranchAndBound struct {
	nodeLimit int
	lpTol     float64
	logger    logger.Logger
}

// NewBranchAndBound creates a solver with configuration options.
func NewBranchAndBound(opts ...Option) *BranchAndBound {
	s := &BranchAndBound{
		nodeLimit: DefaultNodeLimit,
		lpTol:     DefaultTolerance,
		logger:    logger.Get().Named("milp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve finds an optimal 0/1 assignment. Infeasibility and the node limit are
// reported through Solution.Status with a nil error; errors are reserved for
// invalid input, cancellation and backend failures.
func (s *BranchAndBound) Solve(ctx context.Context, p *Problem) (sol Solution, err error) {
	if p == nil {
		return Solution{Status: NotSolved}, fmt.Errorf("%w: nil problem", ErrInvalidProblem)
	}
	if err := p.Validate(); err != nil {
		return Solution{Status: NotSolved}, err
	}

	defer func() {
		if r := recover(); r != nil {
			sol = Solution{Status: NotSolved}
			err = fmt.Errorf("%w: %v", ErrSolverUnavailable, r)
		}
	}()

	start := time.Now()
	t := newTree(p, s.lpTol)
	sol, err = t.run(ctx, s.nodeLimit)

	s.logger.Debug(ctx, "branch and bound finished",
		logger.String("problem", p.Name),
		logger.String("status", sol.Status.String()),
		logger.Int("vars", p.NumVars()),
		logger.Int("nodes", sol.Nodes),
		logger.Int("lp_iterations", t.lpIters),
		logger.Duration("took", time.Since(start)),
	)
	return sol, err
}

// tree holds the state of one solve in minimization form.
type tree struct {
	p       *Problem
	cost    []float64
	lpTol   float64
	lpIters int

	incumbent []float64
	incObj    float64
	haveInc   bool
}

func newTree(p *Problem, lpTol float64) *tree {
	cost := make([]float64, p.NumVars())
	copy(cost, p.Objective)
	if p.Maximize {
		floats.Scale(-1, cost)
	}
	return &tree{p: p, cost: cost, lpTol: lpTol}
}

func (t *tree) offer(x []float64) {
	if !t.p.Feasible(x, feasibilityTol) {
		return
	}
	obj := floats.Dot(t.cost, x)
	if t.haveInc && obj >= t.incObj-objectiveTol {
		return
	}
	t.incumbent = x
	t.incObj = obj
	t.haveInc = true
}

// node is an open subproblem. head and upper carry the parent's optimal
// basis; a nil head starts the node cold.
type node struct {
	fix   []int8
	head  []int
	upper []bool
	bound float64
	depth int
}

func (t *tree) pruned(bound float64) bool {
	return t.haveInc && bound >= t.incObj-pruneTol
}

func (t *tree) run(ctx context.Context, limit int) (Solution, error) {
	n := t.p.NumVars()
	if t.p.Start != nil {
		t.offer(roundBinary(t.p.Start))
	}

	root := make([]int8, n)
	for j := range root {
		root[j] = free
	}
	tab := newTableau(t.p, t.cost, t.lpTol)
	defer func() { t.lpIters = tab.iters }()
	open := &frontier{}
	heap.Push(open, &node{fix: root, bound: math.Inf(-1)})
	nodes := 0
	limited := false

	interrupted := func(err error) (Solution, error) {
		return Solution{Status: NotSolved, Nodes: nodes}, fmt.Errorf("branch and bound interrupted: %w", err)
	}

	for open.Len() > 0 && !limited {
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}
		nd := heap.Pop(open).(*node)
		if t.pruned(nd.bound) {
			continue
		}

		var st lpStatus
		var err error
		if nd.head == nil {
			st, err = tab.coldStart(ctx, nd.fix)
		} else {
			st, err = tab.warmStart(ctx, nd.fix, nd.head, nd.upper)
		}
		// Dive from the popped node, keeping the tableau in place and
		// leaving each sibling on the frontier.
		for nd != nil {
			if err != nil {
				return interrupted(err)
			}
			if nodes >= limit {
				limited = true
				break
			}
			nodes++
			nd = t.visit(tab, nd, st, open)
			if nd != nil {
				if err = ctx.Err(); err == nil {
					st, err = tab.reoptimize(ctx)
				}
			}
		}
	}

	switch {
	case limited:
		sol := Solution{Status: NotSolved, Nodes: nodes}
		if t.haveInc {
			sol.Values = t.incumbent
			sol.Objective = t.p.Evaluate(t.incumbent)
		}
		return sol, nil
	case t.haveInc:
		return Solution{
			Status:    Optimal,
			Values:    t.incumbent,
			Objective: t.p.Evaluate(t.incumbent),
			Nodes:     nodes,
		}, nil
	default:
		return Solution{Status: Infeasible, Nodes: nodes}, nil
	}
}

// visit handles a solved node and returns the child to dive into, or nil when
// the dive ends.
func (t *tree) visit(tab *tableau, nd *node, st lpStatus, open *frontier) *node {
	switch st {
	case lpInfeasible:
		return nil
	case lpFailed:
		t.split(nd, open)
		return nil
	}

	z := tab.objective()
	if t.pruned(z) {
		return nil
	}
	j := mostFractional(tab.x, nd.fix)
	if j < 0 {
		x := roundBinary(tab.x[:t.p.NumVars()])
		if t.p.Feasible(x, feasibilityTol) {
			t.offer(x)
			return nil
		}
		t.split(nd, open)
		return nil
	}

	if t.haveInc {
		t.fixByReducedCost(tab, nd.fix, t.incObj-z)
	}

	v := fixed0
	if tab.x[j] >= 0.5 {
		v = fixed1
	}
	head, upper := tab.basis()
	sibling := make([]int8, len(nd.fix))
	copy(sibling, nd.fix)
	sibling[j] = fixed1 - v
	heap.Push(open, &node{fix: sibling, head: head, upper: upper, bound: z, depth: nd.depth + 1})

	nd.fix[j] = v
	tab.fixVar(j, float64(v))
	return &node{fix: nd.fix, bound: z, depth: nd.depth + 1}
}

// fixByReducedCost pins nonbasic variables whose move off their bound would
// cost more than gap. The pins hold for the whole subtree.
func (t *tree) fixByReducedCost(tab *tableau, fix []int8, gap float64) {
	limit := gap + pruneTol
	for j, f := range fix {
		if f != free {
			continue
		}
		switch {
		case tab.state[j] == atLower && tab.d[j] > limit:
			fix[j] = fixed0
			tab.fixVar(j, 0)
		case tab.state[j] == atUpper && -tab.d[j] > limit:
			fix[j] = fixed1
			tab.fixVar(j, 1)
		}
	}
}

// split branches on the first free variable without an LP solution. Both
// children start cold and inherit the parent's bound.
func (t *tree) split(nd *node, open *frontier) {
	j := firstFree(nd.fix)
	if j < 0 {
		x := make([]float64, len(nd.fix))
		for i, f := range nd.fix {
			x[i] = float64(f)
		}
		t.offer(x)
		return
	}
	for _, v := range []int8{fixed0, fixed1} {
		child := make([]int8, len(nd.fix))
		copy(child, nd.fix)
		child[j] = v
		heap.Push(open, &node{fix: child, bound: nd.bound, depth: nd.depth + 1})
	}
}

// frontier orders open nodes by bound, deeper nodes first on ties.
type frontier []*node

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(a, b int) bool {
	if f[a].bound != f[b].bound {
		return f[a].bound < f[b].bound
	}
	return f[a].depth > f[b].depth
}

func (f frontier) Swap(a, b int) { f[a], f[b] = f[b], f[a] }

func (f *frontier) Push(x any) { *f = append(*f, x.(*node)) }

func (f *frontier) Pop() any {
	old := *f
	nd := old[len(old)-1]
	old[len(old)-1] = nil
	*f = old[:len(old)-1]
	return nd
}

// mostFractional picks the free variable farthest from integrality, lowest
// index on ties. It returns -1 when every free value is integral.
func mostFractional(x []float64, fix []int8) int {
	best, bestDist := -1, integralityTol
	for j, f := range fix {
		if f != free {
			continue
		}
		d := math.Abs(x[j] - math.Round(x[j]))
		if d > bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func firstFree(fix []int8) int {
	for j, f := range fix {
		if f == free {
			return j
		}
	}
	return -1
}

func roundBinary(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		if v > 0.5 {
			out[j] = 1
		}
	}
	return out
}
