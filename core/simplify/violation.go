package simplify

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/stagger/core/model"
)

// ErrViolation is matched by every ViolationError.
var ErrViolation = errors.New("simplification violation")

// ViolationError reports a dropped pair whose realized occupancies overlap.
// It means the pruning bound was unsound for the solution produced.
type ViolationError struct {
	Arc model.ArcID
	A   model.VehicleID
	B   model.VehicleID
	At  model.Interval
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("simplification violation on %s: %s and %s overlap over [%g, %g)", e.Arc, e.A, e.B, e.At.Start, e.At.End)
}

func (e *ViolationError) Is(target error) bool { return target == ErrViolation }

type realized struct {
	vehicle model.VehicleID
	iv      model.Interval
}

// Verify scans the realized schedules of sol for overlaps between pairs that
// preprocessing dropped. Arcs collapsed by capacity are skipped since every
// pair there is allowed to overlap. All violations are joined.
func (r *Result) Verify(sol model.Solution) error {
	var errs []error
	for _, arc := range r.Undivided.ArcIDs() {
		occ := r.Undivided[arc]
		if len(occ) < 2 || r.IsCollapsed(arc) {
			continue
		}
		var rs []realized
		for _, o := range occ {
			sch, ok := sol.Schedules[o.Vehicle]
			if !ok {
				continue
			}
			iv, ok := sch.OccupancyOn(arc)
			if !ok {
				continue
			}
			rs = append(rs, realized{vehicle: o.Vehicle, iv: iv})
		}
		sort.Slice(rs, func(i, j int) bool { return rs[i].iv.Start < rs[j].iv.Start })
		for i := range rs {
			for j := i + 1; j < len(rs) && rs[j].iv.Start < rs[i].iv.End; j++ {
				if !rs[i].iv.Overlaps(rs[j].iv) || r.Kept(arc, rs[i].vehicle, rs[j].vehicle) {
					continue
				}
				errs = append(errs, &ViolationError{
					Arc: arc,
					A:   rs[i].vehicle,
					B:   rs[j].vehicle,
					At:  model.Interval{Start: rs[j].iv.Start, End: minf(rs[i].iv.End, rs[j].iv.End)},
				})
			}
		}
	}
	return errors.Join(errs...)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
