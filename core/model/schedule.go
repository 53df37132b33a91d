package model

import (
	"math"
	"sort"
)

// Interval is a half-open occupancy window [Start, End).
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Overlaps reports whether two half-open intervals share any instant. Empty
// intervals overlap nothing.
func (i Interval) Overlaps(o Interval) bool {
	if i.End <= i.Start || o.End <= o.Start {
		return false
	}
	return i.Start < o.End && o.Start < i.End
}

// Gap is the distance separating two intervals. It is negative when they
// overlap and zero when they touch.
func (i Interval) Gap(o Interval) float64 {
	return math.Max(i.Start, o.Start) - math.Min(i.End, o.End)
}

// Shift moves the interval by d.
func (i Interval) Shift(d float64) Interval { return Interval{Start: i.Start + d, End: i.End + d} }

// Schedule gives the time a vehicle passes each node of its path. Vehicles do
// not dwell, so Times[i] is both the arrival at and departure from Path[i].
// Offset is the index of Path[0] in the vehicle's full path.
type Schedule struct {
	Vehicle VehicleID `json:"vehicle"`
	Path    []NodeID  `json:"path"`
	Offset  int       `json:"offset"`
	Times   []float64 `json:"times"`
}

// Departure is the time the vehicle leaves the first node.
func (s Schedule) Departure() float64 {
	if len(s.Times) == 0 {
		return 0
	}
	return s.Times[0]
}

// Arrival is the time the vehicle reaches its last node.
func (s Schedule) Arrival() float64 {
	if len(s.Times) == 0 {
		return 0
	}
	return s.Times[len(s.Times)-1]
}

// NumArcs returns the number of arcs traversed.
func (s Schedule) NumArcs() int {
	if len(s.Path) == 0 {
		return 0
	}
	return len(s.Path) - 1
}

// ArcAt returns the i-th arc of the schedule.
func (s Schedule) ArcAt(i int) ArcID { return ArcID{From: s.Path[i], To: s.Path[i+1]} }

// Occupancy returns the interval spent on the i-th arc.
func (s Schedule) Occupancy(i int) Interval { return Interval{Start: s.Times[i], End: s.Times[i+1]} }

// OccupancyOn returns the interval spent on arc id, if traversed.
func (s Schedule) OccupancyOn(id ArcID) (Interval, bool) {
	for i := 0; i < s.NumArcs(); i++ {
		if s.ArcAt(i) == id {
			return s.Occupancy(i), true
		}
	}
	return Interval{}, false
}

// Shift returns a copy of s delayed by d.
func (s Schedule) Shift(d float64) Schedule {
	out := s.Clone()
	for i := range out.Times {
		out.Times[i] += d
	}
	return out
}

// Clone deep-copies the schedule.
func (s Schedule) Clone() Schedule {
	out := Schedule{Vehicle: s.Vehicle, Offset: s.Offset}
	out.Path = append([]NodeID(nil), s.Path...)
	out.Times = append([]float64(nil), s.Times...)
	return out
}

// Equal compares two schedules within tol.
func (s Schedule) Equal(o Schedule, tol float64) bool {
	if s.Vehicle != o.Vehicle || s.Offset != o.Offset || len(s.Path) != len(o.Path) || len(s.Times) != len(o.Times) {
		return false
	}
	for i := range s.Path {
		if s.Path[i] != o.Path[i] {
			return false
		}
	}
	for i := range s.Times {
		if math.Abs(s.Times[i]-o.Times[i]) > tol {
			return false
		}
	}
	return true
}

// StatusQuo is the unstaggered schedule of every vehicle of an instance.
type StatusQuo map[VehicleID]Schedule

// Vehicles returns the identifiers in sorted order.
func (sq StatusQuo) Vehicles() []VehicleID {
	return sortedIDs(sq)
}

// Solution holds the staggering delay of each vehicle and the realized
// schedule it produces.
type Solution struct {
	Delays    map[VehicleID]float64  `json:"delays"`
	Schedules map[VehicleID]Schedule `json:"schedules"`
}

// NewSolution returns an empty solution.
func NewSolution() Solution {
	return Solution{Delays: make(map[VehicleID]float64), Schedules: make(map[VehicleID]Schedule)}
}

// SolutionFromStatusQuo is the zero-staggering solution.
func SolutionFromStatusQuo(sq StatusQuo) Solution {
	sol := NewSolution()
	for id, s := range sq {
		sol.Delays[id] = 0
		sol.Schedules[id] = s.Clone()
	}
	return sol
}

// ApplyDelays shifts each status-quo schedule by its delay. Vehicles without
// a delay keep the status quo.
func ApplyDelays(sq StatusQuo, delays map[VehicleID]float64) Solution {
	sol := NewSolution()
	for id, s := range sq {
		d := delays[id]
		sol.Delays[id] = d
		sol.Schedules[id] = s.Shift(d)
	}
	return sol
}

// Vehicles returns the identifiers in sorted order.
func (s Solution) Vehicles() []VehicleID {
	return sortedIDs(s.Schedules)
}

// TotalDelay sums staggering over all vehicles.
func (s Solution) TotalDelay() float64 {
	var total float64
	for _, d := range s.Delays {
		total += d
	}
	return total
}

// TotalTravelTime sums arrival minus departure over all vehicles.
func (s Solution) TotalTravelTime() float64 {
	var total float64
	for _, sch := range s.Schedules {
		total += sch.Arrival() - sch.Departure()
	}
	return total
}

func sortedIDs[V any](m map[VehicleID]V) []VehicleID {
	ids := make([]VehicleID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
