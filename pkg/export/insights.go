package export

import (
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/stagger/core/engine"
	"github.com/kilianp07/stagger/core/metrics"
	"github.com/kilianp07/stagger/core/model"
)

// Congestion measures how a solution uses arc capacity. Dummy arcs are
// ignored.
type Congestion struct {
	// ConflictingPairs counts vehicle pairs whose occupancies of an arc
	// overlap.
	ConflictingPairs int `yaml:"conflicting_pairs"`
	// CapacityExcess sums, over arcs, how far peak occupancy exceeds capacity.
	CapacityExcess int `yaml:"capacity_excess"`
	// OverloadedArcs lists the arcs whose peak exceeds capacity.
	OverloadedArcs []string `yaml:"overloaded_arcs,omitempty"`
}

// SolutionInsights summarises one solution.
type SolutionInsights struct {
	TotalDelay      float64    `yaml:"total_delay"`
	TotalTravelTime float64    `yaml:"total_travel_time"`
	Congestion      Congestion `yaml:"congestion"`
}

// EpochInsights summarises one epoch.
type EpochInsights struct {
	Index      int             `yaml:"index"`
	Window     [2]float64      `yaml:"window,flow"`
	Released   int             `yaml:"released"`
	Carried    int             `yaml:"carried"`
	PairsKept  int             `yaml:"pairs_kept"`
	Pairs      int             `yaml:"pairs"`
	Outcome    metrics.Outcome `yaml:"outcome"`
	Reason     string          `yaml:"reason,omitempty"`
	Violations int             `yaml:"violations,omitempty"`
}

// FreeFlow compares the routed paths with the shortest paths of the network
// at nominal travel times.
type FreeFlow struct {
	PathTravelTime     float64 `yaml:"path_travel_time"`
	ShortestTravelTime float64 `yaml:"shortest_travel_time"`
	DetouringVehicles  int     `yaml:"detouring_vehicles"`
}

// Insights is the summary written next to the solutions of a run.
type Insights struct {
	RunID          string           `yaml:"run_id"`
	Vehicles       int              `yaml:"vehicles"`
	FreeFlow       FreeFlow         `yaml:"free_flow"`
	RollingHorizon SolutionInsights `yaml:"rolling_horizon"`
	Offline        SolutionInsights `yaml:"offline"`
	FallbackEpochs []int            `yaml:"fallback_epochs"`
	Epochs         []EpochInsights  `yaml:"epochs"`
}

// NewInsights summarises an engine result over net.
func NewInsights(res *engine.Result, net *model.Network) Insights {
	ins := Insights{
		RunID:          res.RunID,
		Vehicles:       len(res.Solution.Schedules),
		FreeFlow:       MeasureFreeFlow(res.Solution, net),
		RollingHorizon: Summarise(res.Solution, net),
		Offline:        Summarise(res.Offline, net),
		FallbackEpochs: res.FallbackEpochs(),
	}
	if ins.FallbackEpochs == nil {
		ins.FallbackEpochs = []int{}
	}
	for _, rep := range res.Reports {
		ins.Epochs = append(ins.Epochs, EpochInsights{
			Index:      rep.Index,
			Window:     [2]float64{rep.Start, rep.End},
			Released:   rep.Released,
			Carried:    rep.Carried,
			PairsKept:  rep.Stats.PairsKept,
			Pairs:      rep.Stats.Pairs,
			Outcome:    rep.Outcome,
			Reason:     rep.Reason,
			Violations: rep.Violations,
		})
	}
	return ins
}

// Summarise computes delay, travel time and congestion of sol.
func Summarise(sol model.Solution, net *model.Network) SolutionInsights {
	return SolutionInsights{
		TotalDelay:      sol.TotalDelay(),
		TotalTravelTime: sol.TotalTravelTime(),
		Congestion:      MeasureCongestion(sol, net),
	}
}

// MeasureFreeFlow sums, over vehicles, the nominal time of the routed path
// and of the shortest path between the same endpoints.
func MeasureFreeFlow(sol model.Solution, net *model.Network) FreeFlow {
	var ff FreeFlow
	from := make(map[model.NodeID]map[model.NodeID]float64)
	for _, id := range sol.Vehicles() {
		p := sol.Schedules[id].Path
		if len(p) < 2 {
			continue
		}
		routed, err := net.PathTravelTime(p)
		if err != nil {
			continue
		}
		times, ok := from[p[0]]
		if !ok {
			times = net.FreeFlowTimes(p[0])
			from[p[0]] = times
		}
		shortest := times[p[len(p)-1]]
		ff.PathTravelTime += routed
		ff.ShortestTravelTime += shortest
		if routed-shortest > 1e-9 {
			ff.DetouringVehicles++
		}
	}
	return ff
}

type event struct {
	at    float64
	delta int
}

// MeasureCongestion sweeps the realized occupancies of every physical arc.
func MeasureCongestion(sol model.Solution, net *model.Network) Congestion {
	occ := make(map[model.ArcID][]model.Interval)
	for _, id := range sol.Vehicles() {
		sch := sol.Schedules[id]
		for i := 0; i < sch.NumArcs(); i++ {
			occ[sch.ArcAt(i)] = append(occ[sch.ArcAt(i)], sch.Occupancy(i))
		}
	}
	var c Congestion
	for _, id := range net.ArcIDs() {
		ivs := occ[id]
		a, _ := net.ArcByID(id)
		if a.Dummy || len(ivs) == 0 {
			continue
		}
		for i := range ivs {
			for j := i + 1; j < len(ivs); j++ {
				if ivs[i].Overlaps(ivs[j]) {
					c.ConflictingPairs++
				}
			}
		}
		if peak := peakLoad(ivs); peak > a.Capacity {
			c.CapacityExcess += peak - a.Capacity
			c.OverloadedArcs = append(c.OverloadedArcs, id.String())
		}
	}
	return c
}

// peakLoad is the largest number of half-open intervals sharing an instant.
func peakLoad(ivs []model.Interval) int {
	evs := make([]event, 0, 2*len(ivs))
	for _, iv := range ivs {
		if iv.End <= iv.Start {
			continue
		}
		evs = append(evs, event{iv.Start, 1}, event{iv.End, -1})
	}
	// Exits sort before entries at the same instant.
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].at != evs[j].at {
			return evs[i].at < evs[j].at
		}
		return evs[i].delta < evs[j].delta
	})
	var cur, peak int
	for _, e := range evs {
		cur += e.delta
		if cur > peak {
			peak = cur
		}
	}
	return peak
}

// WriteInsights writes ins as YAML.
func WriteInsights(w io.Writer, ins Insights) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ins); err != nil {
		return err
	}
	return enc.Close()
}
