package epoch

import (
	"fmt"
	"sort"

	"github.com/kilianp07/stagger/core/model"
)

// Propagate carries every vehicle of cur still in transit at cur.End into
// next. The carried trip starts at the last node reached at or before the
// boundary, with that node's realized time as effective release. Vehicles
// missing from sol fall back to their status-quo schedule. It returns the
// injected trips.
func Propagate(cur *model.EpochInstance, sq model.StatusQuo, sol model.Solution, next *model.EpochInstance, global *model.Instance) ([]model.Trip, error) {
	released := make(map[model.VehicleID]struct{}, len(next.Released))
	for _, v := range next.Released {
		released[v.ID] = struct{}{}
	}

	trips := cur.Trips()
	sort.Slice(trips, func(i, j int) bool { return trips[i].Vehicle < trips[j].Vehicle })

	var injected []model.Trip
	for _, tr := range trips {
		sch, ok := sol.Schedules[tr.Vehicle]
		if !ok {
			sch, ok = sq[tr.Vehicle]
		}
		if !ok {
			return nil, &model.InvalidInstanceError{Vehicle: tr.Vehicle, Reason: fmt.Sprintf("no schedule in epoch %d", cur.Index)}
		}
		if len(sch.Times) == 0 || sch.Arrival() <= cur.End {
			continue
		}
		if _, dup := released[tr.Vehicle]; dup {
			return nil, &model.InvalidInstanceError{Vehicle: tr.Vehicle, Reason: fmt.Sprintf("released again in epoch %d", next.Index)}
		}
		carried, err := remainder(sch, cur.End, global)
		if err != nil {
			return nil, err
		}
		next.Inject(carried)
		injected = append(injected, carried)
	}
	return injected, nil
}

// remainder cuts sch at the last node reached at or before boundary.
func remainder(sch model.Schedule, boundary float64, global *model.Instance) (model.Trip, error) {
	j := 0
	for i, t := range sch.Times {
		if t <= boundary {
			j = i
		}
	}
	tr := model.Trip{
		Vehicle: sch.Vehicle,
		Path:    append([]model.NodeID(nil), sch.Path[j:]...),
		Release: sch.Times[j],
		Offset:  sch.Offset + j,
		Carried: true,
	}
	if global == nil {
		return tr, nil
	}
	v, ok := global.Vehicle(sch.Vehicle)
	if !ok {
		return model.Trip{}, &model.InvalidInstanceError{Vehicle: sch.Vehicle, Reason: "unknown to the global instance"}
	}
	if tr.Offset+len(tr.Path) != len(v.Path) {
		return model.Trip{}, &model.InvalidInstanceError{Vehicle: sch.Vehicle, Reason: "carried path does not end at destination"}
	}
	for i, n := range tr.Path {
		if v.Path[tr.Offset+i] != n {
			return model.Trip{}, &model.InvalidInstanceError{Vehicle: sch.Vehicle, Reason: "carried path diverges from vehicle path"}
		}
	}
	return tr, nil
}
