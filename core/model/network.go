package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	gpath "gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// NodeID is the opaque identifier of a network node.
type NodeID string

// ArcID identifies a directed arc by its endpoints in network coordinates.
type ArcID struct {
	From NodeID `json:"from"`
	To   NodeID `json:"to"`
}

func (a ArcID) String() string { return string(a.From) + "->" + string(a.To) }

// Arc is a directed road segment. Dummy arcs model loading and unloading at
// path endpoints and never carry physical attributes.
type Arc struct {
	From  NodeID
	To    NodeID
	Dummy bool

	// Physical attributes, nil/empty on dummy arcs.
	Length   *float64
	Geometry orb.LineString

	// Derived by Annotate.
	TravelTime float64
	Capacity   int
}

// ID returns the arc identifier.
func (a *Arc) ID() ArcID { return ArcID{From: a.From, To: a.To} }

// GeometryLength returns the geodesic length of the arc geometry in meters,
// or zero when no geometry is attached.
func (a *Arc) GeometryLength() float64 {
	if len(a.Geometry) < 2 {
		return 0
	}
	return geo.Length(a.Geometry)
}

// ArcParams are the run constants used to derive travel times and capacities.
type ArcParams struct {
	SpeedKPH       float64
	MaxFlowAllowed float64
}

// Validate checks that both parameters are strictly positive.
func (p ArcParams) Validate() error {
	if p.SpeedKPH <= 0 || math.IsNaN(p.SpeedKPH) {
		return fmt.Errorf("speed_kph must be positive, got %v", p.SpeedKPH)
	}
	if p.MaxFlowAllowed <= 0 || math.IsNaN(p.MaxFlowAllowed) {
		return fmt.Errorf("max_flow_allowed must be positive, got %v", p.MaxFlowAllowed)
	}
	return nil
}

// NominalTravelTime converts a length in meters into seconds at the given speed.
func NominalTravelTime(length, speedKPH float64) float64 {
	return length * 3.6 / speedKPH
}

// NominalCapacity is the number of vehicles an arc can hold at once.
func NominalCapacity(travelTime, maxFlowAllowed float64) int {
	return int(math.Ceil(travelTime / maxFlowAllowed))
}

// annotate derives travel time and capacity from the physical attributes.
func (a *Arc) annotate(p ArcParams) error {
	if a.Dummy {
		if a.Length != nil || len(a.Geometry) > 0 {
			return &InvalidAttributeError{Arc: a.ID(), Attribute: "length", Reason: "dummy arc carries physical attributes"}
		}
		a.TravelTime = 0
		a.Capacity = 0
		return nil
	}
	if a.Length == nil {
		return &InvalidAttributeError{Arc: a.ID(), Attribute: "length", Reason: "missing"}
	}
	l := *a.Length
	if l < 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return &InvalidAttributeError{Arc: a.ID(), Attribute: "length", Reason: fmt.Sprintf("unusable value %v", l)}
	}
	a.TravelTime = NominalTravelTime(l, p.SpeedKPH)
	a.Capacity = NominalCapacity(a.TravelTime, p.MaxFlowAllowed)
	return nil
}

// Network is the directed road graph. It is built once at load time and only
// annotated afterwards.
type Network struct {
	g     *simple.WeightedDirectedGraph
	ids   map[NodeID]int64
	nodes []NodeID
	arcs  map[ArcID]*Arc
}

// NewNetwork returns an empty network.
func NewNetwork() *Network {
	return &Network{
		g:    simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		ids:  make(map[NodeID]int64),
		arcs: make(map[ArcID]*Arc),
	}
}

// AddNode registers a node. Adding an existing node is a no-op.
func (n *Network) AddNode(id NodeID) {
	if _, ok := n.ids[id]; ok {
		return
	}
	gid := int64(len(n.nodes))
	n.ids[id] = gid
	n.nodes = append(n.nodes, id)
	n.g.AddNode(simple.Node(gid))
}

// AddArc inserts a directed arc, registering missing endpoints.
func (n *Network) AddArc(a Arc) error {
	if a.From == a.To {
		return &InvalidAttributeError{Arc: a.ID(), Attribute: "endpoints", Reason: "self loop"}
	}
	if _, dup := n.arcs[a.ID()]; dup {
		return &InvalidAttributeError{Arc: a.ID(), Attribute: "endpoints", Reason: "duplicate arc"}
	}
	n.AddNode(a.From)
	n.AddNode(a.To)
	arc := a
	n.arcs[arc.ID()] = &arc
	n.setWeight(&arc)
	return nil
}

func (n *Network) setWeight(a *Arc) {
	from, to := simple.Node(n.ids[a.From]), simple.Node(n.ids[a.To])
	n.g.SetWeightedEdge(n.g.NewWeightedEdge(from, to, a.TravelTime))
}

// Annotate assigns nominal travel time and capacity to every arc.
func (n *Network) Annotate(p ArcParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, id := range n.ArcIDs() {
		a := n.arcs[id]
		if err := a.annotate(p); err != nil {
			return err
		}
		n.setWeight(a)
	}
	return nil
}

// HasNode reports whether the node exists.
func (n *Network) HasNode(id NodeID) bool {
	_, ok := n.ids[id]
	return ok
}

// Arc looks up the arc between two nodes.
func (n *Network) Arc(from, to NodeID) (*Arc, bool) {
	a, ok := n.arcs[ArcID{From: from, To: to}]
	return a, ok
}

// ArcByID looks up an arc by identifier.
func (n *Network) ArcByID(id ArcID) (*Arc, bool) {
	a, ok := n.arcs[id]
	return a, ok
}

// Nodes returns node identifiers in insertion order.
func (n *Network) Nodes() []NodeID {
	out := make([]NodeID, len(n.nodes))
	copy(out, n.nodes)
	return out
}

// ArcIDs returns all arc identifiers in a stable order.
func (n *Network) ArcIDs() []ArcID {
	out := make([]ArcID, 0, len(n.arcs))
	for id := range n.arcs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// NumArcs returns the number of arcs.
func (n *Network) NumArcs() int { return len(n.arcs) }

// PathArcs resolves a node sequence into its arcs.
func (n *Network) PathArcs(path []NodeID) ([]*Arc, error) {
	if len(path) < 2 {
		return nil, fmt.Errorf("path needs at least two nodes, got %d", len(path))
	}
	arcs := make([]*Arc, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		if !n.HasNode(path[i]) {
			return nil, fmt.Errorf("unknown node %s", path[i])
		}
		a, ok := n.arcs[ArcID{From: path[i], To: path[i+1]}]
		if !ok {
			return nil, fmt.Errorf("no arc %s->%s", path[i], path[i+1])
		}
		arcs = append(arcs, a)
	}
	return arcs, nil
}

// PathTravelTime sums the nominal travel times along path.
func (n *Network) PathTravelTime(path []NodeID) (float64, error) {
	arcs, err := n.PathArcs(path)
	if err != nil {
		return 0, err
	}
	var tt float64
	for _, a := range arcs {
		tt += a.TravelTime
	}
	return tt, nil
}

// FreeFlowTimes returns the shortest nominal travel time from one node to
// every node reachable from it. Weights are the annotated travel times.
func (n *Network) FreeFlowTimes(from NodeID) map[NodeID]float64 {
	gid, ok := n.ids[from]
	if !ok {
		return nil
	}
	sh := gpath.DijkstraFrom(simple.Node(gid), n.g)
	out := make(map[NodeID]float64)
	for i, id := range n.nodes {
		if w := sh.WeightTo(int64(i)); !math.IsInf(w, 1) {
			out[id] = w
		}
	}
	return out
}

// Subgraph returns a network holding only the given arcs and their endpoints.
// Arc attributes are copied so the result is independent of n.
func (n *Network) Subgraph(keep []ArcID) *Network {
	sub := NewNetwork()
	for _, id := range keep {
		a, ok := n.arcs[id]
		if !ok {
			continue
		}
		_ = sub.AddArc(*a)
	}
	return sub
}
