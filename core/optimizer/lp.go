package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/stagger/core/model"
)

// DefaultTolerance is the simplex tolerance used when none is configured.
const DefaultTolerance = 1e-9

// LPConfig tunes the LP solver.
type LPConfig struct {
	Tolerance float64 `json:"tolerance"`
}

// LPOptimizer minimises total staggering subject to per-arc separation.
type LPOptimizer struct {
	cfg LPConfig
}

// NewLPOptimizer returns an LP solver with defaults applied.
func NewLPOptimizer(cfg LPConfig) *LPOptimizer {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	return &LPOptimizer{cfg: cfg}
}

func (o *LPOptimizer) Name() string { return "lp" }

// separationLP is min 1ᵀd s.t. G d <= h.
type separationLP struct {
	ids  []model.VehicleID
	caps []float64
	g    [][]float64
	h    []float64
}

// lpSolve runs the simplex on the general-form program and returns the
// variable values. It can be overridden in tests to simulate solver failures.
var lpSolve = func(c []float64, g *mat.Dense, h []float64, tol float64) ([]float64, error) {
	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	_, x, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return nil, err
	}
	n := len(c)
	out := make([]float64, n)
	for i := range out {
		// Convert splits every free variable into positive and negative parts.
		out[i] = x[i] - x[n+i]
	}
	return out, nil
}

func (o *LPOptimizer) build(p Problem) separationLP {
	data := separationLP{ids: p.Decision()}
	index := make(map[model.VehicleID]int, len(data.ids))
	for i, id := range data.ids {
		index[id] = i
	}
	// Vehicles outside the decision set are fixed at zero delay.
	at := func(id model.VehicleID) int {
		if i, ok := index[id]; ok {
			return i
		}
		return -1
	}
	n := len(data.ids)

	row := func(pos, neg int, bound float64) {
		r := make([]float64, n)
		if pos >= 0 {
			r[pos] = 1
		}
		if neg >= 0 {
			r[neg] = -1
		}
		data.g = append(data.g, r)
		data.h = append(data.h, bound)
	}
	data.caps = make([]float64, n)
	for i, id := range data.ids {
		data.caps[i] = p.Staggering[id]
		row(i, -1, data.caps[i])
		row(-1, i, 0)
	}
	for _, cs := range p.Conflicts {
		occ := cs.Occupancies
		c := cs.Capacity
		if c < 1 {
			c = 1
		}
		for j := 1; j < len(occ); j++ {
			cur, prev := at(occ[j].Vehicle), at(occ[j-1].Vehicle)
			row(prev, cur, occ[j].Interval.Start-occ[j-1].Interval.Start)
			if j >= c {
				lead := at(occ[j-c].Vehicle)
				row(lead, cur, occ[j].Interval.Start-occ[j-c].Interval.End)
			}
		}
	}
	return data
}

// Optimize solves the separation LP. Vehicles outside every conflict set keep
// a zero delay.
func (o *LPOptimizer) Optimize(ctx context.Context, p Problem) (model.Solution, error) {
	data := o.build(p)
	if len(data.ids) == 0 {
		return model.SolutionFromStatusQuo(p.StatusQuo), nil
	}

	ctx, cancel := withBudget(ctx, p.TimeBudget)
	defer cancel()

	n := len(data.ids)
	c := make([]float64, n)
	for i := range c {
		c[i] = 1
	}
	g := mat.NewDense(len(data.g), n, nil)
	for i, r := range data.g {
		g.SetRow(i, r)
	}

	type outcome struct {
		x   []float64
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		x, err := lpSolve(c, g, data.h, o.cfg.Tolerance)
		done <- outcome{x: x, err: err}
	}()

	var res outcome
	select {
	case <-ctx.Done():
		return model.Solution{}, fmt.Errorf("epoch %d: %w", p.Epoch, ErrTimeout)
	case res = <-done:
	}
	if res.err != nil {
		if errors.Is(res.err, lp.ErrInfeasible) {
			return model.Solution{}, fmt.Errorf("epoch %d: %w", p.Epoch, ErrInfeasible)
		}
		return model.Solution{}, fmt.Errorf("epoch %d: simplex: %w", p.Epoch, res.err)
	}

	delays := make(map[model.VehicleID]float64, n)
	for i, id := range data.ids {
		d := res.x[i]
		if d < -1e-6 || d > data.caps[i]+1e-6 || math.IsNaN(d) {
			return model.Solution{}, fmt.Errorf("epoch %d: delay %v of %s outside [0, %v]: %w", p.Epoch, d, id, data.caps[i], ErrInfeasible)
		}
		delays[id] = math.Min(math.Max(d, 0), data.caps[i])
	}
	return model.ApplyDelays(p.StatusQuo, delays), nil
}
