package optimizer

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/core/simplify"
)

var (
	// ErrInfeasible indicates no staggering within bounds resolves the conflicts.
	ErrInfeasible = errors.New("optimizer infeasible")
	// ErrTimeout indicates the time budget ran out before a solution was found.
	ErrTimeout = errors.New("optimizer timeout")
)

// Problem is the simplified epoch handed to a solver.
type Problem struct {
	Epoch      int
	Network    *model.Network
	StatusQuo  model.StatusQuo
	Conflicts  []simplify.ConflictSet
	Staggering map[model.VehicleID]float64
	// Relevant lists, per vehicle, the arcs where it can still conflict.
	// Vehicles absent from it keep a zero delay.
	Relevant   map[model.VehicleID][]model.ArcID
	TimeBudget time.Duration
}

// FromSimplified builds the problem of epoch from a simplification result.
func FromSimplified(epoch int, res *simplify.Result, budget time.Duration) Problem {
	return Problem{
		Epoch:      epoch,
		Network:    res.Network,
		StatusQuo:  res.StatusQuo,
		Conflicts:  res.Conflicts,
		Staggering: res.Staggering,
		Relevant:   res.Relevant,
		TimeBudget: budget,
	}
}

// Decision returns the vehicles whose delay is free, in identifier order.
// Without Relevant every vehicle of a conflict set is free.
func (p Problem) Decision() []model.VehicleID {
	seen := make(map[model.VehicleID]struct{})
	if p.Relevant != nil {
		for id, arcs := range p.Relevant {
			if len(arcs) > 0 {
				seen[id] = struct{}{}
			}
		}
	} else {
		for _, cs := range p.Conflicts {
			for _, oc := range cs.Occupancies {
				seen[oc.Vehicle] = struct{}{}
			}
		}
	}
	ids := make([]model.VehicleID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Optimizer computes a staggering solution restricted to the problem's vehicles.
type Optimizer interface {
	Name() string
	Optimize(ctx context.Context, p Problem) (model.Solution, error)
}

// Func adapts a function to the Optimizer interface.
type Func func(ctx context.Context, p Problem) (model.Solution, error)

func (f Func) Name() string { return "func" }

func (f Func) Optimize(ctx context.Context, p Problem) (model.Solution, error) { return f(ctx, p) }

// NoopOptimizer returns the status quo unchanged.
type NoopOptimizer struct{}

func (NoopOptimizer) Name() string { return "noop" }

func (NoopOptimizer) Optimize(_ context.Context, p Problem) (model.Solution, error) {
	return model.SolutionFromStatusQuo(p.StatusQuo), nil
}

// withBudget derives a context bounded by the problem time budget.
func withBudget(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, budget)
}
