// Package graphio reads and writes the persisted road network and instance
// documents. The network uses the node-link adjacency layout of networkx:
// a node list and, aligned with it, the list of outgoing edges per node.
package graphio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/paulmach/orb"

	"github.com/kilianp07/stagger/core/model"
)

type nodeDoc struct {
	ID nodeRef `json:"id"`
}

type edgeDoc struct {
	ID                nodeRef      `json:"id"`
	Length            *float64     `json:"length,omitempty"`
	Dummy             bool         `json:"dummy,omitempty"`
	Geometry          [][2]float64 `json:"geometry,omitempty"`
	NominalTravelTime *float64     `json:"nominal_travel_time,omitempty"`
	NominalCapacity   *int         `json:"nominal_capacity,omitempty"`
}

type networkDoc struct {
	Directed   bool        `json:"directed"`
	Multigraph bool        `json:"multigraph"`
	Graph      any         `json:"graph"`
	Nodes      []nodeDoc   `json:"nodes"`
	Adjacency  [][]edgeDoc `json:"adjacency"`
}

// nodeRef accepts string and numeric node identifiers.
type nodeRef model.NodeID

func (n *nodeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = nodeRef(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("node id must be a string or a number: %s", b)
	}
	*n = nodeRef(num.String())
	return nil
}

func (n nodeRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(n))
}

// LoadNetwork reads the network at path and annotates it with p.
func LoadNetwork(path string, p model.ArcParams) (*model.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.NotFoundError{Resource: "network", Path: path, Err: err}
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()
	net, err := DecodeNetwork(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := net.Annotate(p); err != nil {
		return nil, err
	}
	return net, nil
}

// DecodeNetwork parses an adjacency document without annotating it.
func DecodeNetwork(r io.Reader) (*model.Network, error) {
	var doc networkDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	if len(doc.Adjacency) != len(doc.Nodes) {
		return nil, fmt.Errorf("%d nodes but %d adjacency lists", len(doc.Nodes), len(doc.Adjacency))
	}
	net := model.NewNetwork()
	for _, n := range doc.Nodes {
		net.AddNode(model.NodeID(n.ID))
	}
	for i, edges := range doc.Adjacency {
		from := model.NodeID(doc.Nodes[i].ID)
		for _, e := range edges {
			arc := model.Arc{From: from, To: model.NodeID(e.ID), Dummy: e.Dummy, Length: e.Length}
			if len(e.Geometry) > 0 {
				arc.Geometry = make(orb.LineString, len(e.Geometry))
				for j, pt := range e.Geometry {
					arc.Geometry[j] = orb.Point{pt[0], pt[1]}
				}
			}
			if err := net.AddArc(arc); err != nil {
				return nil, err
			}
		}
	}
	return net, nil
}

// EncodeNetwork writes net in the adjacency layout, including the nominal
// travel time and capacity of every arc.
func EncodeNetwork(w io.Writer, net *model.Network) error {
	nodes := net.Nodes()
	index := make(map[model.NodeID]int, len(nodes))
	doc := networkDoc{
		Directed:  true,
		Graph:     map[string]any{},
		Nodes:     make([]nodeDoc, len(nodes)),
		Adjacency: make([][]edgeDoc, len(nodes)),
	}
	for i, n := range nodes {
		index[n] = i
		doc.Nodes[i] = nodeDoc{ID: nodeRef(n)}
		doc.Adjacency[i] = []edgeDoc{}
	}
	for _, id := range net.ArcIDs() {
		a, _ := net.ArcByID(id)
		tt, c := a.TravelTime, a.Capacity
		e := edgeDoc{ID: nodeRef(a.To), Length: a.Length, Dummy: a.Dummy, NominalTravelTime: &tt, NominalCapacity: &c}
		for _, pt := range a.Geometry {
			e.Geometry = append(e.Geometry, [2]float64{pt.Lon(), pt.Lat()})
		}
		i := index[a.From]
		doc.Adjacency[i] = append(doc.Adjacency[i], e)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
