package statusquo

import (
	"github.com/kilianp07/stagger/core/model"
)

// Source is anything exposing a network and the trips to schedule on it.
// Both the global instance and epoch instances satisfy it.
type Source interface {
	Graph() *model.Network
	Trips() []model.Trip
}

// Build walks every trip arc by arc from its release time. It fails with an
// InvalidInstanceError when a trip references an unknown arc.
func Build(src Source) (model.StatusQuo, error) {
	return BuildTrips(src.Graph(), src.Trips())
}

// BuildTrips is Build over an explicit trip list.
func BuildTrips(net *model.Network, trips []model.Trip) (model.StatusQuo, error) {
	if net == nil {
		return nil, &model.InvalidInstanceError{Reason: "missing network"}
	}
	sq := make(model.StatusQuo, len(trips))
	for _, tr := range trips {
		sch, err := Schedule(net, tr)
		if err != nil {
			return nil, err
		}
		sq[tr.Vehicle] = sch
	}
	return sq, nil
}

// Schedule computes the unstaggered schedule of a single trip.
func Schedule(net *model.Network, tr model.Trip) (model.Schedule, error) {
	arcs, err := net.PathArcs(tr.Path)
	if err != nil {
		return model.Schedule{}, &model.InvalidInstanceError{Vehicle: tr.Vehicle, Reason: err.Error()}
	}
	times := make([]float64, len(tr.Path))
	times[0] = tr.Release
	for i, a := range arcs {
		times[i+1] = times[i] + a.TravelTime
	}
	return model.Schedule{
		Vehicle: tr.Vehicle,
		Path:    append([]model.NodeID(nil), tr.Path...),
		Offset:  tr.Offset,
		Times:   times,
	}, nil
}
