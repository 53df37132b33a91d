package simplify

import (
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/stagger/core/logger"
	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/core/statusquo"
)

// DefaultBoundFactor keeps pairs separated by up to twice the maximum
// staggering.
const DefaultBoundFactor = 2

// Config parameterises pruning.
type Config struct {
	// MaxStaggering bounds the delay of vehicles released in the epoch.
	// Carried vehicles are frozen and may not be staggered.
	MaxStaggering float64
	// BoundFactor scales the pruning margin. Values below 1 are unsound.
	BoundFactor float64
}

// Validate rejects unsound settings.
func (c Config) Validate() error {
	if c.MaxStaggering < 0 || math.IsNaN(c.MaxStaggering) {
		return fmt.Errorf("max staggering must be non-negative, got %v", c.MaxStaggering)
	}
	if c.BoundFactor < 1 {
		return fmt.Errorf("bound factor must be at least 1, got %v", c.BoundFactor)
	}
	return nil
}

// Undivided is the raw conflicting set: every occupancy of every arc, sorted
// by entry time.
type Undivided map[model.ArcID][]Occupancy

// ConflictSet is the post-preprocessing entry of one arc.
type ConflictSet struct {
	Arc        model.ArcID
	Capacity   int
	TravelTime float64
	// Occupancies of vehicles with at least one partner, by entry time.
	Occupancies []Occupancy
	Pairs       []Pair
}

// Vehicles lists the vehicles of the set in entry order.
func (c ConflictSet) Vehicles() []model.VehicleID {
	ids := make([]model.VehicleID, len(c.Occupancies))
	for i, o := range c.Occupancies {
		ids[i] = o.Vehicle
	}
	return ids
}

// Stats summarises how much the problem shrank.
type Stats struct {
	Arcs         int `json:"arcs"`
	ArcsKept     int `json:"arcs_kept"`
	ArcsCollapse int `json:"arcs_collapsed"`
	Pairs        int `json:"pairs"`
	PairsKept    int `json:"pairs_kept"`
}

// PairsDropped is the number of undivided pairs pruned by the bound.
func (s Stats) PairsDropped() int { return s.Pairs - s.PairsKept }

// Result is the simplified problem. The status quo keeps every vehicle of
// the epoch because staggering shifts whole paths; Relevant restricts each
// vehicle to the arcs where it can still conflict.
type Result struct {
	Network    *model.Network
	StatusQuo  model.StatusQuo
	Staggering map[model.VehicleID]float64
	Relevant   map[model.VehicleID][]model.ArcID
	Undivided  Undivided
	Conflicts  []ConflictSet
	Collapsed  []model.ArcID
	Stats      Stats

	factor    float64
	kept      map[model.ArcID]map[Pair]struct{}
	collapsed map[model.ArcID]struct{}
}

// Simplifier prunes arcs and vehicle pairs that cannot affect the optimum.
type Simplifier struct {
	cfg Config
	log logger.Logger
}

// New returns a Simplifier. A zero BoundFactor selects DefaultBoundFactor.
func New(cfg Config, log logger.Logger) (*Simplifier, error) {
	if cfg.BoundFactor == 0 {
		cfg.BoundFactor = DefaultBoundFactor
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Simplifier{cfg: cfg, log: log}, nil
}

// Staggering returns the delay bound of every trip of src.
func (s *Simplifier) Staggering(src statusquo.Source) map[model.VehicleID]float64 {
	out := make(map[model.VehicleID]float64)
	for _, tr := range src.Trips() {
		if tr.Carried {
			out[tr.Vehicle] = 0
			continue
		}
		out[tr.Vehicle] = s.cfg.MaxStaggering
	}
	return out
}

// Simplify reduces the problem described by src and its status quo.
func (s *Simplifier) Simplify(src statusquo.Source, sq model.StatusQuo) (*Result, error) {
	net := src.Graph()
	stag := s.Staggering(src)
	und, err := BuildUndivided(net, sq, stag)
	if err != nil {
		return nil, err
	}

	res := &Result{
		StatusQuo:  sq,
		Staggering: stag,
		Relevant:   make(map[model.VehicleID][]model.ArcID),
		Undivided:  und,
		factor:     s.cfg.BoundFactor,
		kept:       make(map[model.ArcID]map[Pair]struct{}),
		collapsed:  make(map[model.ArcID]struct{}),
	}
	res.Stats.Arcs = len(und)

	var keepArcs []model.ArcID
	for _, id := range und.ArcIDs() {
		occ := append([]Occupancy(nil), und[id]...)
		k := len(occ)
		res.Stats.Pairs += k * (k - 1) / 2
		if k < 2 {
			continue
		}
		pairs := ConflictPairs(occ, s.cfg.BoundFactor)
		if len(pairs) == 0 {
			continue
		}
		kept := make(map[Pair]struct{}, len(pairs))
		members := make(map[model.VehicleID]struct{})
		for _, p := range pairs {
			kept[p.key()] = struct{}{}
			members[p.A] = struct{}{}
			members[p.B] = struct{}{}
		}
		res.kept[id] = kept
		res.Stats.PairsKept += len(pairs)

		arc, _ := net.ArcByID(id)
		if len(members) <= arc.Capacity {
			res.collapsed[id] = struct{}{}
			res.Collapsed = append(res.Collapsed, id)
			res.Stats.ArcsCollapse++
			continue
		}

		cs := ConflictSet{Arc: id, Capacity: arc.Capacity, TravelTime: arc.TravelTime, Pairs: pairs}
		for _, o := range occ {
			if _, ok := members[o.Vehicle]; ok {
				cs.Occupancies = append(cs.Occupancies, o)
				res.Relevant[o.Vehicle] = append(res.Relevant[o.Vehicle], id)
			}
		}
		res.Conflicts = append(res.Conflicts, cs)
		keepArcs = append(keepArcs, id)
	}
	res.Stats.ArcsKept = len(keepArcs)
	res.Network = net.Subgraph(keepArcs)

	s.log.Debugw("simplified", map[string]any{
		"arcs":        res.Stats.Arcs,
		"arcs_kept":   res.Stats.ArcsKept,
		"collapsed":   res.Stats.ArcsCollapse,
		"pairs":       res.Stats.Pairs,
		"pairs_kept":  res.Stats.PairsKept,
		"vehicles":    len(sq),
		"bound":       s.cfg.BoundFactor * s.cfg.MaxStaggering,
		"relevant_to": len(res.Relevant),
	})
	return res, nil
}

// BuildUndivided groups the status-quo occupancies per arc.
func BuildUndivided(net *model.Network, sq model.StatusQuo, stag map[model.VehicleID]float64) (Undivided, error) {
	und := make(Undivided)
	for _, id := range sq.Vehicles() {
		sch := sq[id]
		for i := 0; i < sch.NumArcs(); i++ {
			arc := sch.ArcAt(i)
			if _, ok := net.ArcByID(arc); !ok {
				return nil, &model.InvalidInstanceError{Vehicle: id, Reason: fmt.Sprintf("unknown arc %s", arc)}
			}
			und[arc] = append(und[arc], Occupancy{Vehicle: id, Interval: sch.Occupancy(i), Staggering: stag[id]})
		}
	}
	for _, occ := range und {
		sortOccupancies(occ)
	}
	return und, nil
}

// ArcIDs returns the arcs of the set in a stable order.
func (u Undivided) ArcIDs() []model.ArcID {
	ids := make([]model.ArcID, 0, len(u))
	for id := range u {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].From != ids[j].From {
			return ids[i].From < ids[j].From
		}
		return ids[i].To < ids[j].To
	})
	return ids
}

// Kept reports whether the pair survived preprocessing on arc.
func (r *Result) Kept(arc model.ArcID, a, b model.VehicleID) bool {
	_, ok := r.kept[arc][Pair{A: a, B: b}.key()]
	return ok
}

// IsCollapsed reports whether arc was removed because its group fits within
// capacity.
func (r *Result) IsCollapsed(arc model.ArcID) bool {
	_, ok := r.collapsed[arc]
	return ok
}
