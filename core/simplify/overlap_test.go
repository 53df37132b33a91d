package simplify

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/stagger/core/model"
)

func occ(id string, start, end, stag float64) Occupancy {
	return Occupancy{Vehicle: model.VehicleID(id), Interval: model.Interval{Start: start, End: end}, Staggering: stag}
}

func TestCanConflictBoundaries(t *testing.T) {
	const s = 5.0
	a := occ("a", 0, 10, s)
	cases := []struct {
		name string
		b    Occupancy
		want bool
	}{
		{"overlapping", occ("b", 5, 15, s), true},
		{"touching", occ("b", 10, 20, s), true},
		{"exactly at bound", occ("b", 20, 30, s), true},
		{"just beyond bound", occ("b", 20.0001, 30, s), false},
		{"far before", occ("b", -40, -20.5, s), false},
		{"before within bound", occ("b", -25, -10, s), true},
		{"empty interval", occ("b", 5, 5, s), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, CanConflict(a, c.b, DefaultBoundFactor))
			assert.Equal(t, c.want, CanConflict(c.b, a, DefaultBoundFactor))
		})
	}
}

func TestCanConflictUsesLargerStaggering(t *testing.T) {
	frozen := occ("carried", 0, 10, 0)
	fresh := occ("fresh", 15, 25, 4)
	assert.True(t, CanConflict(frozen, fresh, DefaultBoundFactor))
	assert.False(t, CanConflict(frozen, occ("fresh", 15, 25, 2), DefaultBoundFactor))
	// Both frozen: only actual overlap or contact keeps the pair.
	assert.True(t, CanConflict(frozen, occ("other", 10, 20, 0), 1))
	assert.False(t, CanConflict(frozen, occ("other", 10.5, 20, 0), 1))
}

func TestMayOverlapOracle(t *testing.T) {
	a := occ("a", 0, 10, 3)
	assert.True(t, mayOverlap(a, occ("b", 12, 20, 0)))
	assert.False(t, mayOverlap(a, occ("b", 13, 20, 0)))
	assert.True(t, mayOverlap(occ("b", 12, 20, 0), a))
	assert.False(t, mayOverlap(occ("a", 0, 10, 0), occ("b", 10, 20, 5)))
}

func TestConflictPairsSortsAndSweeps(t *testing.T) {
	set := []Occupancy{
		occ("c", 30, 40, 5),
		occ("a", 0, 10, 5),
		occ("b", 12, 22, 5),
		occ("d", 100, 110, 5),
	}
	pairs := ConflictPairs(set, DefaultBoundFactor)
	assert.Equal(t, []Pair{{A: "a", B: "b"}, {A: "b", B: "c"}}, pairs)
	assert.Equal(t, model.VehicleID("a"), set[0].Vehicle)
}

type genOcc struct {
	Start, Length, Stag float64
}

func genOccupancy() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 300),
		gen.Float64Range(0.5, 40),
		gen.Float64Range(0, 30),
	).Map(func(vs []any) genOcc {
		return genOcc{Start: vs[0].(float64), Length: vs[1].(float64), Stag: vs[2].(float64)}
	})
}

func toOccupancies(gs []genOcc) []Occupancy {
	out := make([]Occupancy, len(gs))
	for i, g := range gs {
		out[i] = Occupancy{
			Vehicle:    model.VehicleID(string(rune('A'+i%26)) + string(rune('a'+i/26))),
			Interval:   model.Interval{Start: g.Start, End: g.Start + g.Length},
			Staggering: g.Stag,
		}
	}
	return out
}

func TestPruningProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("kept iff separation within factor x staggering", prop.ForAll(
		func(a, b genOcc, s float64) bool {
			oa := Occupancy{Vehicle: "a", Interval: model.Interval{Start: a.Start, End: a.Start + a.Length}, Staggering: s}
			ob := Occupancy{Vehicle: "b", Interval: model.Interval{Start: b.Start, End: b.Start + b.Length}, Staggering: s}
			gap := oa.Interval.Gap(ob.Interval)
			kept := len(ConflictPairs([]Occupancy{oa, ob}, DefaultBoundFactor)) == 1
			return kept == (gap <= 2*s)
		},
		genOccupancy(), genOccupancy(), gen.Float64Range(0, 30),
	))

	properties.Property("pairs reachable by feasible delays are never pruned", prop.ForAll(
		func(a, b genOcc, da, db float64) bool {
			oa := toOccupancies([]genOcc{a})[0]
			ob := toOccupancies([]genOcc{b})[0]
			ob.Vehicle = "other"
			shiftedA := oa.Interval.Shift(da * oa.Staggering)
			shiftedB := ob.Interval.Shift(db * ob.Staggering)
			if !shiftedA.Overlaps(shiftedB) {
				return true
			}
			return mayOverlap(oa, ob) && CanConflict(oa, ob, 1) && CanConflict(oa, ob, DefaultBoundFactor)
		},
		genOccupancy(), genOccupancy(), gen.Float64Range(0, 1), gen.Float64Range(0, 1),
	))

	properties.Property("sweep agrees with brute force", prop.ForAll(
		func(gs []genOcc) bool {
			set := toOccupancies(gs)
			got := make(map[Pair]bool)
			for _, p := range ConflictPairs(append([]Occupancy(nil), set...), DefaultBoundFactor) {
				got[p.key()] = true
			}
			want := 0
			for i := range set {
				for j := i + 1; j < len(set); j++ {
					if CanConflict(set[i], set[j], DefaultBoundFactor) {
						want++
						if !got[Pair{A: set[i].Vehicle, B: set[j].Vehicle}.key()] {
							return false
						}
					}
				}
			}
			return want == len(got)
		},
		gen.SliceOfN(12, genOccupancy()),
	))

	properties.TestingRun(t)
}

// mayOverlap is the exact reachability test: some delays da in [0, a.Staggering]
// and db in [0, b.Staggering] make the shifted intervals overlap.
func mayOverlap(a, b Occupancy) bool {
	if a.Interval.End <= a.Interval.Start || b.Interval.End <= b.Interval.Start {
		return false
	}
	return b.Interval.Start-a.Interval.End < a.Staggering &&
		a.Interval.Start-b.Interval.End < b.Staggering
}
