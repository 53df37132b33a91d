package graphio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/kilianp07/stagger/core/model"
)

// InstanceDocument is the persisted global instance. Paths, ReleaseTimes and
// IDs are aligned; IDs may be omitted, in which case vehicles are named by
// position.
type InstanceDocument struct {
	Network      string      `json:"network"`
	Paths        [][]nodeRef `json:"paths"`
	ReleaseTimes []float64   `json:"release_times"`
	IDs          []string    `json:"ids,omitempty"`
}

// DecodeInstanceDocument parses an instance document.
func DecodeInstanceDocument(r io.Reader) (InstanceDocument, error) {
	var doc InstanceDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return InstanceDocument{}, err
	}
	return doc, nil
}

// Build binds the document to net. Release times must be non-decreasing and
// every path must follow arcs of net.
func (d InstanceDocument) Build(net *model.Network) (*model.Instance, error) {
	if len(d.Paths) != len(d.ReleaseTimes) {
		return nil, &model.InvalidInstanceError{Reason: fmt.Sprintf("%d paths but %d release times", len(d.Paths), len(d.ReleaseTimes))}
	}
	if len(d.IDs) != 0 && len(d.IDs) != len(d.Paths) {
		return nil, &model.InvalidInstanceError{Reason: fmt.Sprintf("%d paths but %d ids", len(d.Paths), len(d.IDs))}
	}
	ids := make([]model.VehicleID, len(d.Paths))
	vehicles := make([]model.Vehicle, len(d.Paths))
	for i, p := range d.Paths {
		ids[i] = model.VehicleID(fmt.Sprintf("v%d", i))
		if len(d.IDs) > 0 {
			ids[i] = model.VehicleID(d.IDs[i])
		}
		path := make([]model.NodeID, len(p))
		for j, n := range p {
			path[j] = model.NodeID(n)
		}
		vehicles[i] = model.Vehicle{ID: ids[i], Path: path, Release: d.ReleaseTimes[i]}
	}
	if err := model.CheckMonotonic(ids, d.ReleaseTimes); err != nil {
		return nil, err
	}
	return model.NewInstance(net, vehicles)
}

// DecodeInstance parses an instance document from r and binds it to net.
func DecodeInstance(r io.Reader, net *model.Network) (*model.Instance, error) {
	doc, err := DecodeInstanceDocument(r)
	if err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	return doc.Build(net)
}

// ReadInstanceDocument reads the document at path.
func ReadInstanceDocument(path string) (InstanceDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return InstanceDocument{}, &model.NotFoundError{Resource: "instance", Path: path, Err: err}
		}
		return InstanceDocument{}, err
	}
	defer func() { _ = f.Close() }()
	doc, err := DecodeInstanceDocument(f)
	if err != nil {
		return InstanceDocument{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// LoadInstance reads the instance at path and binds it to net.
func LoadInstance(path string, net *model.Network) (*model.Instance, error) {
	doc, err := ReadInstanceDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Build(net)
}

// NewInstanceDocument describes inst, vehicles ordered by release time.
func NewInstanceDocument(inst *model.Instance, networkRef string) InstanceDocument {
	vs := inst.SortedVehicles()
	doc := InstanceDocument{
		Network:      networkRef,
		Paths:        make([][]nodeRef, len(vs)),
		ReleaseTimes: make([]float64, len(vs)),
		IDs:          make([]string, len(vs)),
	}
	for i, v := range vs {
		doc.Paths[i] = make([]nodeRef, len(v.Path))
		for j, n := range v.Path {
			doc.Paths[i][j] = nodeRef(n)
		}
		doc.ReleaseTimes[i] = v.Release
		doc.IDs[i] = string(v.ID)
	}
	return doc
}

// WriteInstance writes the instance.json artifact.
func WriteInstance(w io.Writer, inst *model.Instance, networkRef string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewInstanceDocument(inst, networkRef))
}

// WriteRoutes writes the routes.json artifact: the node sequence of every
// vehicle keyed by identifier.
func WriteRoutes(w io.Writer, inst *model.Instance) error {
	routes := make(map[model.VehicleID][]model.NodeID, len(inst.Vehicles))
	for _, v := range inst.Vehicles {
		routes[v.ID] = v.Path
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(routes)
}
