package model

import (
	"fmt"
	"math"
	"sort"
)

// VehicleID identifies a vehicle across the whole horizon.
type VehicleID string

// Vehicle travels a fixed path starting at its release time.
type Vehicle struct {
	ID      VehicleID `json:"id"`
	Path    []NodeID  `json:"path"`
	Release float64   `json:"release_time"`
}

// Trip is the part of a vehicle's path scheduled within one instance.
// Offset is the index of Path[0] in the vehicle's full path. Carried trips
// belong to vehicles released in an earlier epoch and may not be staggered.
type Trip struct {
	Vehicle VehicleID
	Path    []NodeID
	Release float64
	Offset  int
	Carried bool
}

// Instance is the global, full-horizon problem.
type Instance struct {
	Network  *Network
	Vehicles []Vehicle
}

// NewInstance builds an instance and validates every vehicle path against
// the network.
func NewInstance(net *Network, vehicles []Vehicle) (*Instance, error) {
	inst := &Instance{Network: net, Vehicles: vehicles}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Validate checks identifiers, release times and path connectivity.
func (inst *Instance) Validate() error {
	if inst.Network == nil {
		return &InvalidInstanceError{Reason: "missing network"}
	}
	seen := make(map[VehicleID]struct{}, len(inst.Vehicles))
	for _, v := range inst.Vehicles {
		if v.ID == "" {
			return &InvalidInstanceError{Reason: "vehicle without identifier"}
		}
		if _, dup := seen[v.ID]; dup {
			return &InvalidInstanceError{Vehicle: v.ID, Reason: "duplicate identifier"}
		}
		seen[v.ID] = struct{}{}
		if err := validateRelease(v.Release); err != nil {
			return &InvalidInstanceError{Vehicle: v.ID, Reason: err.Error()}
		}
		if _, err := inst.Network.PathArcs(v.Path); err != nil {
			return &InvalidInstanceError{Vehicle: v.ID, Reason: err.Error()}
		}
	}
	return nil
}

func validateRelease(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("release time %v is not finite", t)
	}
	if t < 0 {
		return fmt.Errorf("release time %v is negative", t)
	}
	return nil
}

// CheckMonotonic verifies that a release-times dataset is non-decreasing.
func CheckMonotonic(ids []VehicleID, releases []float64) error {
	for i := 1; i < len(releases); i++ {
		if releases[i] < releases[i-1] {
			return &InvalidInstanceError{
				Vehicle: ids[i],
				Reason:  fmt.Sprintf("release time %v precedes %v", releases[i], releases[i-1]),
			}
		}
	}
	return nil
}

// Graph returns the instance network.
func (inst *Instance) Graph() *Network { return inst.Network }

// Trips converts every vehicle into a trip over its full path.
func (inst *Instance) Trips() []Trip {
	trips := make([]Trip, len(inst.Vehicles))
	for i, v := range inst.Vehicles {
		trips[i] = Trip{Vehicle: v.ID, Path: v.Path, Release: v.Release}
	}
	return trips
}

// Vehicle looks up a vehicle by identifier.
func (inst *Instance) Vehicle(id VehicleID) (Vehicle, bool) {
	for _, v := range inst.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return Vehicle{}, false
}

// SortedVehicles returns the vehicles ordered by release time, ties broken by
// identifier.
func (inst *Instance) SortedVehicles() []Vehicle {
	out := make([]Vehicle, len(inst.Vehicles))
	copy(out, inst.Vehicles)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Release != out[j].Release {
			return out[i].Release < out[j].Release
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Horizon returns the earliest and latest release time.
func (inst *Instance) Horizon() (float64, float64) {
	if len(inst.Vehicles) == 0 {
		return 0, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range inst.Vehicles {
		lo = math.Min(lo, v.Release)
		hi = math.Max(hi, v.Release)
	}
	return lo, hi
}

// EpochInstance restricts the global instance to one release-time window.
// Released vehicles appear here for the first time; carried trips are
// injected by the propagator from earlier epochs. Windows are [Start, End)
// unless OpenLeft or ClosedRight say otherwise.
type EpochInstance struct {
	Index       int
	Start       float64
	End         float64
	OpenLeft    bool
	ClosedRight bool
	Network     *Network
	Released    []Vehicle
	Carried     []Trip
}

// Contains reports whether t falls within the epoch window.
func (e *EpochInstance) Contains(t float64) bool {
	if t < e.Start || (e.OpenLeft && t == e.Start) {
		return false
	}
	if e.ClosedRight {
		return t <= e.End
	}
	return t < e.End
}

// Graph returns the epoch network.
func (e *EpochInstance) Graph() *Network { return e.Network }

// Trips lists released vehicles followed by carried trips.
func (e *EpochInstance) Trips() []Trip {
	trips := make([]Trip, 0, len(e.Released)+len(e.Carried))
	for _, v := range e.Released {
		trips = append(trips, Trip{Vehicle: v.ID, Path: v.Path, Release: v.Release})
	}
	return append(trips, e.Carried...)
}

// Size returns the number of trips scheduled in the epoch.
func (e *EpochInstance) Size() int { return len(e.Released) + len(e.Carried) }

// Inject adds a carried trip, replacing any previous trip of the same vehicle.
func (e *EpochInstance) Inject(t Trip) {
	t.Carried = true
	for i := range e.Carried {
		if e.Carried[i].Vehicle == t.Vehicle {
			e.Carried[i] = t
			return
		}
	}
	e.Carried = append(e.Carried, t)
}
