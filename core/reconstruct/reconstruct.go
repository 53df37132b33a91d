// Package reconstruct assembles per-epoch solutions into one continuous
// full-horizon solution and computes the offline baseline.
package reconstruct

import (
	"fmt"

	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/core/statusquo"
)

// Reconstruct merges sols, one per epoch in order, into a full-horizon
// solution. Each vehicle starts from the schedule of the epoch where it was
// released; carried trips of later epochs overwrite the tail of that schedule
// from their offset on. The delay of a vehicle is the one it received in its
// release epoch since carried trips are never staggered.
func Reconstruct(epochs []*model.EpochInstance, sols []model.Solution, global *model.Instance) (model.Solution, error) {
	if len(epochs) != len(sols) {
		return model.Solution{}, fmt.Errorf("reconstruct: %d epochs but %d solutions", len(epochs), len(sols))
	}
	full := model.NewSolution()
	for k, ep := range epochs {
		sol := sols[k]
		for _, v := range ep.Released {
			sch, ok := sol.Schedules[v.ID]
			if !ok {
				return model.Solution{}, &model.InvalidInstanceError{Vehicle: v.ID, Reason: fmt.Sprintf("no schedule in release epoch %d", ep.Index)}
			}
			if _, dup := full.Schedules[v.ID]; dup {
				return model.Solution{}, &model.InvalidInstanceError{Vehicle: v.ID, Reason: fmt.Sprintf("released again in epoch %d", ep.Index)}
			}
			full.Schedules[v.ID] = sch.Clone()
			full.Delays[v.ID] = sol.Delays[v.ID]
		}
		for _, tr := range ep.Carried {
			sch, ok := sol.Schedules[tr.Vehicle]
			if !ok {
				return model.Solution{}, &model.InvalidInstanceError{Vehicle: tr.Vehicle, Reason: fmt.Sprintf("no schedule for carried trip in epoch %d", ep.Index)}
			}
			base, ok := full.Schedules[tr.Vehicle]
			if !ok {
				return model.Solution{}, &model.InvalidInstanceError{Vehicle: tr.Vehicle, Reason: fmt.Sprintf("carried into epoch %d before release", ep.Index)}
			}
			merged, err := splice(base, sch)
			if err != nil {
				return model.Solution{}, err
			}
			full.Schedules[tr.Vehicle] = merged
		}
	}
	if global != nil {
		for _, v := range global.Vehicles {
			if _, ok := full.Schedules[v.ID]; !ok {
				return model.Solution{}, &model.InvalidInstanceError{Vehicle: v.ID, Reason: "missing from every epoch"}
			}
		}
	}
	return full, nil
}

// splice overwrites the times of base from tail.Offset onwards.
func splice(base, tail model.Schedule) (model.Schedule, error) {
	at := tail.Offset - base.Offset
	if at < 0 || at+len(tail.Path) != len(base.Path) {
		return model.Schedule{}, &model.InvalidInstanceError{
			Vehicle: base.Vehicle,
			Reason:  fmt.Sprintf("carried segment at offset %d does not fit a path of %d nodes", tail.Offset, len(base.Path)),
		}
	}
	for i, n := range tail.Path {
		if base.Path[at+i] != n {
			return model.Schedule{}, &model.InvalidInstanceError{Vehicle: base.Vehicle, Reason: "carried segment diverges from vehicle path"}
		}
	}
	out := base.Clone()
	copy(out.Times[at:], tail.Times)
	return out, nil
}

// Offline is the whole-horizon baseline: the status quo of the global
// instance without decomposition. It never influences the rolling-horizon
// output.
func Offline(global *model.Instance) (model.Solution, error) {
	sq, err := statusquo.Build(global)
	if err != nil {
		return model.Solution{}, fmt.Errorf("offline: %w", err)
	}
	return model.SolutionFromStatusQuo(sq), nil
}
