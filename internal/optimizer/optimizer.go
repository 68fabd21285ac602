// Package optimizer implements the profit-maximizing trade-size search
// (component C9): a geometric-grid bracket followed by golden-section
// refinement over a net-profit function that is piecewise-smooth but not
// globally unimodal, per spec.md §4.9 and the design notes' "optimizer
// robustness" cue.
package optimizer

import "math"

// phi is the golden ratio used to place golden-section search probes.
const phi = 1.618034

const maxIterations = 64
const convergenceFactor = 1e-6

// bracketGrid is the fixed geometric grid spec.md §4.9 specifies for the
// initial bracket search, in ETH.
var bracketGrid = []float64{0.01, 0.1, 1, 10, 100, 1000, 10000}

// NetProfitFunc computes net USD profit for a given trade size in ETH. It
// must be pure and deterministic given a fixed snapshot, as spec.md requires
// ("the quote call is pure and deterministic given the snapshot").
type NetProfitFunc func(sizeEth float64) (float64, error)

// Result is the outcome of optimizing one direction.
type Result struct {
	Found        bool
	SizeEth      float64
	NetProfitUsd float64
}

// infeasible stands in for a grid point or probe size that netProfit could
// not evaluate (e.g. InsufficientLiquidity at a large trade size). It is
// never a real profit value, so it always loses to any size the quoters can
// actually serve, and the search keeps going instead of aborting.
var infeasible = math.Inf(-1)

// evalSafe calls netProfit and collapses a quoter error into "this size is
// not viable" rather than letting it abort the whole bracket/refine search.
// A pool has finite depth; sizes beyond it are a normal part of the grid,
// not a reason to fail the request.
func evalSafe(netProfit NetProfitFunc, size float64) float64 {
	v, err := netProfit(size)
	if err != nil {
		return infeasible
	}
	return v
}

// Optimize finds the trade size maximizing netProfit, following spec.md
// §4.9: bracket on the fixed grid, refine the best-looking three-point
// window with golden-section search. Returns Found=false if every grid
// point is non-positive or infeasible ("the direction has no optimum").
func Optimize(netProfit NetProfitFunc) (Result, error) {
	values := make([]float64, len(bracketGrid))
	anyPositive := false
	for i, size := range bracketGrid {
		v := evalSafe(netProfit, size)
		values[i] = v
		if v > 0 {
			anyPositive = true
		}
	}
	if !anyPositive {
		return Result{Found: false}, nil
	}

	bestIdx := 0
	for i, v := range values {
		if v > values[bestIdx] {
			bestIdx = i
		}
	}

	var a, b float64
	switch {
	case bestIdx == 0:
		a, b = bracketGrid[0], bracketGrid[1]
	case bestIdx == len(bracketGrid)-1:
		a, b = bracketGrid[bestIdx-1], bracketGrid[bestIdx]
	default:
		a, b = bracketGrid[bestIdx-1], bracketGrid[bestIdx+1]
	}

	size, profit := goldenSectionSearch(netProfit, a, b)

	// The grid point itself may still beat the refined interior optimum when
	// the curve has a kink at the grid boundary (e.g. InsufficientLiquidity
	// clips the feasible region); never regress below the best grid sample.
	if values[bestIdx] > profit {
		size, profit = bracketGrid[bestIdx], values[bestIdx]
	}

	return Result{Found: profit > 0, SizeEth: size, NetProfitUsd: profit}, nil
}

func goldenSectionSearch(f NetProfitFunc, a, b float64) (float64, float64) {
	resphi := 2 - phi

	x1 := a + resphi*(b-a)
	x2 := b - resphi*(b-a)
	f1 := evalSafe(f, x1)
	f2 := evalSafe(f, x2)

	for i := 0; i < maxIterations; i++ {
		if math.Abs(b-a) < convergenceFactor*math.Max(1, a) {
			break
		}
		if f1 > f2 {
			b = x2
			x2 = x1
			f2 = f1
			x1 = a + resphi*(b-a)
			f1 = evalSafe(f, x1)
		} else {
			a = x1
			x1 = x2
			f1 = f2
			x2 = b - resphi*(b-a)
			f2 = evalSafe(f, x2)
		}
	}

	if f1 > f2 {
		return x1, f1
	}
	return x2, f2
}
