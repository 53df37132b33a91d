package simplify

import (
	"math"
	"sort"

	"github.com/kilianp07/stagger/core/model"
)

// Occupancy is the status-quo interval a vehicle spends on one arc, together
// with the largest staggering delay it may still receive.
type Occupancy struct {
	Vehicle    model.VehicleID
	Interval   model.Interval
	Staggering float64
}

// Pair is two vehicles that may conflict on an arc. A enters no later than B
// in the status quo.
type Pair struct {
	A model.VehicleID
	B model.VehicleID
}

func (p Pair) key() Pair {
	if p.B < p.A {
		return Pair{A: p.B, B: p.A}
	}
	return p
}

// Margin is the largest separation at which a and b are kept.
func Margin(a, b Occupancy, factor float64) float64 {
	return factor * math.Max(a.Staggering, b.Staggering)
}

// CanConflict is the pruning predicate: a pair is kept iff both intervals are
// non-empty and their separation does not exceed Margin. Overlapping or
// touching intervals are always kept.
func CanConflict(a, b Occupancy, factor float64) bool {
	if a.Interval.End <= a.Interval.Start || b.Interval.End <= b.Interval.Start {
		return false
	}
	return a.Interval.Gap(b.Interval) <= Margin(a, b, factor)
}

// sortOccupancies orders by entry time, then vehicle.
func sortOccupancies(occ []Occupancy) {
	sort.Slice(occ, func(i, j int) bool {
		if occ[i].Interval.Start != occ[j].Interval.Start {
			return occ[i].Interval.Start < occ[j].Interval.Start
		}
		return occ[i].Vehicle < occ[j].Vehicle
	})
}

// ConflictPairs returns every pair of occ kept by CanConflict. occ is sorted
// in place by entry time.
func ConflictPairs(occ []Occupancy, factor float64) []Pair {
	sortOccupancies(occ)
	var maxStag float64
	for _, o := range occ {
		maxStag = math.Max(maxStag, o.Staggering)
	}
	bound := factor * maxStag

	var pairs []Pair
	for i := range occ {
		for j := i + 1; j < len(occ); j++ {
			// Entries are sorted, so once j starts too late every later j does too.
			if occ[j].Interval.Start-occ[i].Interval.End > bound {
				break
			}
			if CanConflict(occ[i], occ[j], factor) {
				pairs = append(pairs, Pair{A: occ[i].Vehicle, B: occ[j].Vehicle})
			}
		}
	}
	return pairs
}
