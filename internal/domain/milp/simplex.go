package milp

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LP tolerances.
const (
	primalTol = 1e-7
	pivotTol  = 1e-9
	ratioTol  = 1e-12

	// blandAfter consecutive degenerate pivots switch pricing to Bland's rule.
	blandAfter = 50
	// ctxEvery is how many pivots run between context checks.
	ctxEvery = 16
)

type varState int8

const (
	basic varState = iota
	atLower
	atUpper
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpFailed
)

// tableau is a dense bounded-variable simplex tableau over the columns
//
//	x (structural) | s (one slack per row) | r (one artificial per row)
//
// Every row i reads x[head[i]] + sum(T[i][j] * x[j]) = rhs[i] over the
// nonbasic columns j. Nonbasic columns sit at one of their bounds, so only
// the basis, the bounds and the at-upper flags are needed to rebuild a state.
type tableau struct {
	m, n, cols int

	base *mat.Dense // [A | I | diag(sign)], never pivoted
	b    []float64
	cost []float64 // phase two costs, zero past the structural columns

	t     *mat.Dense
	rhs   []float64
	d     []float64
	head  []int
	state []varState
	lo    []float64
	up    []float64
	x     []float64

	dualTol  float64
	maxIters int
	iters    int
}

func newTableau(p *Problem, cost []float64, dualTol float64) *tableau {
	m, n := len(p.Constraints), p.NumVars()
	cols := n + 2*m
	tb := &tableau{
		m:        m,
		n:        n,
		cols:     cols,
		b:        make([]float64, m),
		cost:     make([]float64, cols),
		rhs:      make([]float64, m),
		d:        make([]float64, cols),
		head:     make([]int, m),
		state:    make([]varState, cols),
		lo:       make([]float64, cols),
		up:       make([]float64, cols),
		x:        make([]float64, cols),
		dualTol:  dualTol,
		maxIters: 50*(m+cols) + 1000,
	}
	copy(tb.cost, cost)
	if m == 0 {
		return tb
	}

	tb.base = mat.NewDense(m, cols, nil)
	tb.t = mat.NewDense(m, cols, nil)
	for i, c := range p.Constraints {
		row := tb.base.RawRowView(i)
		for _, term := range c.Terms {
			row[term.Var] += term.Coef
		}
		row[n+i] = 1
		row[n+m+i] = 1
		tb.b[i] = c.RHS

		s := n + i
		switch c.Rel {
		case LessEq:
			tb.lo[s], tb.up[s] = 0, math.Inf(1)
		case GreaterEq:
			tb.lo[s], tb.up[s] = math.Inf(-1), 0
		case Equal:
			tb.lo[s], tb.up[s] = 0, 0
		}
	}
	return tb
}

// setBounds applies the node's fixings. Artificials are pinned to zero.
func (tb *tableau) setBounds(fix []int8) {
	for j, f := range fix {
		if f == free {
			tb.lo[j], tb.up[j] = 0, 1
			continue
		}
		tb.lo[j], tb.up[j] = float64(f), float64(f)
	}
	for i := 0; i < tb.m; i++ {
		r := tb.n + tb.m + i
		tb.lo[r], tb.up[r] = 0, 0
	}
}

// restState puts a nonbasic column at its finite bound, preferring lower.
func (tb *tableau) restState(j int) varState {
	if math.IsInf(tb.lo[j], -1) {
		return atUpper
	}
	return atLower
}

func (tb *tableau) value(j int) float64 {
	if tb.state[j] == atUpper {
		return tb.up[j]
	}
	return tb.lo[j]
}

func (tb *tableau) row(i int) []float64 { return tb.t.RawRowView(i) }

// pivot makes column q basic in row r and updates the reduced costs.
func (tb *tableau) pivot(r, q int) {
	pr := tb.row(r)
	inv := 1 / pr[q]
	floats.Scale(inv, pr)
	pr[q] = 1
	tb.rhs[r] *= inv
	for i := 0; i < tb.m; i++ {
		if i == r {
			continue
		}
		ri := tb.row(i)
		if f := ri[q]; f != 0 {
			floats.AddScaled(ri, -f, pr)
			ri[q] = 0
			tb.rhs[i] -= f * tb.rhs[r]
		}
	}
	if f := tb.d[q]; f != 0 {
		floats.AddScaled(tb.d, -f, pr)
		tb.d[q] = 0
	}
	tb.head[r] = q
	tb.state[q] = basic
}

// load rebuilds the tableau for the given basis by elimination from the base
// matrix. It reports false when the basis is numerically singular.
func (tb *tableau) load(head []int) bool {
	if tb.m == 0 {
		return true
	}
	tb.t.Copy(tb.base)
	copy(tb.rhs, tb.b)
	for j := range tb.state {
		tb.state[j] = atLower
	}
	done := make([]bool, tb.m)
	for _, q := range append([]int(nil), head...) {
		r, best := -1, pivotTol
		for i := 0; i < tb.m; i++ {
			if done[i] {
				continue
			}
			if v := math.Abs(tb.t.At(i, q)); v > best {
				r, best = i, v
			}
		}
		if r < 0 {
			return false
		}
		tb.pivot(r, q)
		done[r] = true
	}
	return true
}

// basis snapshots the basis header and the structural columns resting at
// their upper bound.
func (tb *tableau) basis() ([]int, []bool) {
	head := make([]int, tb.m)
	copy(head, tb.head)
	upper := make([]bool, tb.n)
	for j := 0; j < tb.n; j++ {
		upper[j] = tb.state[j] == atUpper
	}
	return head, upper
}

// computeValues sets nonbasic columns to their bounds and solves for the basic
// ones.
func (tb *tableau) computeValues() {
	var nz []int
	for j := 0; j < tb.cols; j++ {
		if tb.state[j] == basic {
			continue
		}
		tb.x[j] = tb.value(j)
		if tb.x[j] != 0 {
			nz = append(nz, j)
		}
	}
	for i := 0; i < tb.m; i++ {
		ri := tb.row(i)
		v := tb.rhs[i]
		for _, j := range nz {
			v -= ri[j] * tb.x[j]
		}
		tb.x[tb.head[i]] = v
	}
}

func (tb *tableau) computeReducedCosts(c []float64) {
	copy(tb.d, c)
	for i := 0; i < tb.m; i++ {
		if cb := c[tb.head[i]]; cb != 0 {
			floats.AddScaled(tb.d, -cb, tb.row(i))
		}
	}
	for i := 0; i < tb.m; i++ {
		tb.d[tb.head[i]] = 0
	}
}

// objective is the phase two objective of the current point.
func (tb *tableau) objective() float64 {
	return floats.Dot(tb.cost[:tb.n], tb.x[:tb.n])
}

// fixVar pins a structural column for the rest of a dive.
func (tb *tableau) fixVar(j int, v float64) {
	tb.lo[j], tb.up[j] = v, v
	if tb.state[j] != basic {
		tb.state[j] = atLower
	}
}

func (tb *tableau) tick(ctx context.Context) error {
	tb.iters++
	if tb.iters%ctxEvery == 0 {
		return ctx.Err()
	}
	return nil
}

// coldStart solves the node from a slack and artificial basis with a phase
// one on the artificials.
func (tb *tableau) coldStart(ctx context.Context, fix []int8) (lpStatus, error) {
	tb.setBounds(fix)
	for j := range tb.state {
		tb.state[j] = tb.restState(j)
	}
	for i := 0; i < tb.m; i++ {
		s, r := tb.n+i, tb.n+tb.m+i
		row := tb.base.RawRowView(i)
		res := tb.b[i]
		for j := 0; j < tb.n; j++ {
			if row[j] != 0 {
				res -= row[j] * tb.lo[j]
			}
		}
		if res >= tb.lo[s]-primalTol && res <= tb.up[s]+primalTol {
			tb.head[i] = s
			row[r] = 1
			continue
		}
		// The slack rests at zero, so the artificial carries the residual.
		row[r] = math.Copysign(1, res)
		tb.head[i] = r
		tb.up[r] = math.Inf(1)
	}
	if !tb.load(tb.head) {
		return lpFailed, nil
	}
	for j := range tb.state {
		if tb.state[j] != basic {
			tb.state[j] = tb.restState(j)
		}
	}

	phase1 := make([]float64, tb.cols)
	needed := false
	for i := 0; i < tb.m; i++ {
		if r := tb.n + tb.m + i; math.IsInf(tb.up[r], 1) {
			phase1[r] = 1
			needed = true
		}
	}
	tb.computeValues()
	if needed {
		tb.computeReducedCosts(phase1)
		st, err := tb.primal(ctx, phase1)
		if err != nil || st != lpOptimal {
			return st, err
		}
		if floats.Dot(phase1, tb.x) > primalTol {
			return lpInfeasible, nil
		}
		for i := 0; i < tb.m; i++ {
			r := tb.n + tb.m + i
			tb.up[r] = 0
			if tb.state[r] != basic {
				tb.state[r] = atLower
			}
		}
		tb.computeValues()
	}
	tb.computeReducedCosts(tb.cost)
	return tb.primal(ctx, tb.cost)
}

// warmStart rebuilds a stored optimal basis under the node's bounds. The basis
// stays dual feasible, so the dual simplex restores primal feasibility.
func (tb *tableau) warmStart(ctx context.Context, fix []int8, head []int, upper []bool) (lpStatus, error) {
	tb.setBounds(fix)
	if !tb.load(head) {
		return tb.coldStart(ctx, fix)
	}
	for j := range tb.state {
		switch {
		case tb.state[j] == basic:
		case j < tb.n && upper[j] && tb.lo[j] < tb.up[j]:
			tb.state[j] = atUpper
		default:
			tb.state[j] = tb.restState(j)
		}
	}
	tb.computeReducedCosts(tb.cost)
	return tb.reoptimize(ctx)
}

// reoptimize restores optimality after bounds changed on an optimal basis.
func (tb *tableau) reoptimize(ctx context.Context) (lpStatus, error) {
	tb.computeValues()
	st, err := tb.dual(ctx)
	if err != nil || st != lpOptimal {
		return st, err
	}
	return tb.primal(ctx, tb.cost)
}

// primal runs the bounded primal simplex on cost c from a primal feasible
// point. Pricing is Dantzig's rule until a run of degenerate pivots.
func (tb *tableau) primal(ctx context.Context, c []float64) (lpStatus, error) {
	degenerate := 0
	refreshed := false
	for start := tb.iters; ; {
		if err := tb.tick(ctx); err != nil {
			return lpFailed, err
		}
		if tb.iters-start > tb.maxIters {
			return lpFailed, nil
		}
		bland := degenerate > blandAfter

		q, score := -1, tb.dualTol
		for j := 0; j < tb.cols; j++ {
			if tb.state[j] == basic || tb.lo[j] >= tb.up[j] {
				continue
			}
			var s float64
			switch {
			case tb.state[j] == atLower && tb.d[j] < -tb.dualTol:
				s = -tb.d[j]
			case tb.state[j] == atUpper && tb.d[j] > tb.dualTol:
				s = tb.d[j]
			default:
				continue
			}
			if bland {
				q = j
				break
			}
			if s > score {
				q, score = j, s
			}
		}
		if q < 0 {
			if refreshed {
				return lpOptimal, nil
			}
			// Pivot updates drift; confirm with fresh reduced costs.
			tb.computeReducedCosts(c)
			refreshed = true
			continue
		}
		refreshed = false

		dir := 1.0
		if tb.state[q] == atUpper {
			dir = -1
		}
		step := tb.up[q] - tb.lo[q]
		r, ra := -1, 0.0
		for i := 0; i < tb.m; i++ {
			alpha := tb.t.At(i, q) * dir
			if math.Abs(alpha) <= pivotTol {
				continue
			}
			bv := tb.head[i]
			var lim float64
			if alpha > 0 {
				if math.IsInf(tb.lo[bv], -1) {
					continue
				}
				lim = (tb.x[bv] - tb.lo[bv]) / alpha
			} else {
				if math.IsInf(tb.up[bv], 1) {
					continue
				}
				lim = (tb.up[bv] - tb.x[bv]) / -alpha
			}
			lim = math.Max(lim, 0)
			switch {
			case lim < step-ratioTol:
			case r >= 0 && lim <= step+ratioTol:
				if bland {
					if bv >= tb.head[r] {
						continue
					}
				} else if math.Abs(alpha) <= math.Abs(ra) {
					continue
				}
			default:
				continue
			}
			r, ra, step = i, alpha, lim
		}

		if r < 0 {
			if math.IsInf(step, 1) {
				return lpFailed, nil
			}
			if tb.state[q] == atLower {
				tb.state[q] = atUpper
			} else {
				tb.state[q] = atLower
			}
			tb.computeValues()
			degenerate = 0
			continue
		}

		leave := tb.head[r]
		tb.pivot(r, q)
		if ra > 0 {
			tb.state[leave] = atLower
		} else {
			tb.state[leave] = atUpper
		}
		tb.computeValues()
		if step <= ratioTol {
			degenerate++
		} else {
			degenerate = 0
		}
	}
}

// dual runs the bounded dual simplex from a dual feasible basis until the
// basic values are within bounds.
func (tb *tableau) dual(ctx context.Context) (lpStatus, error) {
	for start := tb.iters; ; {
		if err := tb.tick(ctx); err != nil {
			return lpFailed, err
		}
		if tb.iters-start > tb.maxIters {
			return lpFailed, nil
		}

		r, worst, below := -1, primalTol, false
		for i := 0; i < tb.m; i++ {
			bv := tb.head[i]
			v := tb.x[bv]
			if gap := tb.lo[bv] - v; gap > worst {
				r, worst, below = i, gap, true
			}
			if gap := v - tb.up[bv]; gap > worst {
				r, worst, below = i, gap, false
			}
		}
		if r < 0 {
			return lpOptimal, nil
		}

		pr := tb.row(r)
		q, best, qa := -1, math.Inf(1), 0.0
		for j := 0; j < tb.cols; j++ {
			if tb.state[j] == basic || tb.lo[j] >= tb.up[j] {
				continue
			}
			a := pr[j]
			if math.Abs(a) <= pivotTol {
				continue
			}
			// Moving j off its bound must push the leaving value toward the
			// violated bound.
			lower := tb.state[j] == atLower
			if below != (lower == (a < 0)) {
				continue
			}
			dj := tb.d[j]
			if !lower {
				dj = -dj
			}
			ratio := math.Max(dj, 0) / math.Abs(a)
			if ratio < best-ratioTol || (ratio <= best+ratioTol && math.Abs(a) > math.Abs(qa)) {
				q, best, qa = j, ratio, a
			}
		}
		if q < 0 {
			return lpInfeasible, nil
		}

		leave := tb.head[r]
		tb.pivot(r, q)
		if below {
			tb.state[leave] = atLower
		} else {
			tb.state[leave] = atUpper
		}
		tb.computeValues()
	}
}
