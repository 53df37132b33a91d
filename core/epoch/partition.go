package epoch

import (
	"fmt"
	"math"

	"github.com/kilianp07/stagger/core/model"
)

// BoundaryPolicy decides which epoch owns a release time that lands exactly
// on a boundary.
type BoundaryPolicy string

const (
	// BoundaryLater assigns boundary releases to the later epoch ([start, end)).
	BoundaryLater BoundaryPolicy = "later"
	// BoundaryEarlier assigns boundary releases to the earlier epoch ((start, end]).
	BoundaryEarlier BoundaryPolicy = "earlier"
)

// Config controls how the horizon is sliced.
type Config struct {
	// EpochSize is the length of every window but possibly the last.
	EpochSize float64
	// HorizonStart is the left end of the first window.
	HorizonStart float64
	// HorizonEnd closes the last window. Zero means the latest release time.
	HorizonEnd float64
	Boundary   BoundaryPolicy
}

// Validate reports unusable settings.
func (c Config) Validate() error {
	if c.EpochSize <= 0 || math.IsNaN(c.EpochSize) || math.IsInf(c.EpochSize, 0) {
		return fmt.Errorf("epoch size must be positive, got %v", c.EpochSize)
	}
	switch c.Boundary {
	case "", BoundaryLater, BoundaryEarlier:
	default:
		return fmt.Errorf("unknown boundary policy %q", c.Boundary)
	}
	if c.HorizonEnd != 0 && c.HorizonEnd < c.HorizonStart {
		return fmt.Errorf("horizon end %v precedes start %v", c.HorizonEnd, c.HorizonStart)
	}
	return nil
}

// Partition slices inst into contiguous, non-overlapping epochs covering
// [HorizonStart, HorizonEnd]. Every vehicle is released in exactly one epoch.
// Empty windows are kept so the sequence has no gaps.
func Partition(inst *model.Instance, cfg Config) ([]*model.EpochInstance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := cfg.HorizonStart
	end := cfg.HorizonEnd
	if end == 0 {
		_, hi := inst.Horizon()
		end = math.Max(hi, start)
	}

	n := int(math.Ceil((end - start) / cfg.EpochSize))
	for n > 1 && start+float64(n-1)*cfg.EpochSize >= end {
		n--
	}
	if n < 1 {
		n = 1
	}

	earlier := cfg.Boundary == BoundaryEarlier
	epochs := make([]*model.EpochInstance, n)
	for k := range epochs {
		epochs[k] = &model.EpochInstance{
			Index:       k,
			Start:       start + float64(k)*cfg.EpochSize,
			End:         math.Min(start+float64(k+1)*cfg.EpochSize, end),
			OpenLeft:    earlier && k > 0,
			ClosedRight: earlier || k == n-1,
			Network:     inst.Network,
		}
	}
	epochs[n-1].End = end

	for _, v := range inst.SortedVehicles() {
		if v.Release < start || v.Release > end {
			return nil, &model.InvalidInstanceError{
				Vehicle: v.ID,
				Reason:  fmt.Sprintf("release time %v outside horizon [%v, %v]", v.Release, start, end),
			}
		}
		k := epochIndex(v.Release, start, cfg.EpochSize, earlier)
		if k > n-1 {
			k = n - 1
		}
		epochs[k].Released = append(epochs[k].Released, v)
	}
	return epochs, nil
}

func epochIndex(t, start, size float64, earlier bool) int {
	q := (t - start) / size
	if earlier {
		k := int(math.Ceil(q)) - 1
		if k < 0 {
			return 0
		}
		return k
	}
	return int(math.Floor(q))
}

// CheckPartition verifies that epochs are ordered, contiguous and that their
// released sets partition the vehicles of inst.
func CheckPartition(inst *model.Instance, epochs []*model.EpochInstance) error {
	if len(epochs) == 0 {
		return fmt.Errorf("no epochs")
	}
	seen := make(map[model.VehicleID]int, len(inst.Vehicles))
	for k, ep := range epochs {
		if ep.Index != k {
			return fmt.Errorf("epoch %d carries index %d", k, ep.Index)
		}
		if k > 0 && ep.Start != epochs[k-1].End {
			return fmt.Errorf("gap or overlap between epoch %d and %d", k-1, k)
		}
		if ep.End < ep.Start {
			return fmt.Errorf("epoch %d ends before it starts", k)
		}
		for _, v := range ep.Released {
			if prev, dup := seen[v.ID]; dup {
				return fmt.Errorf("vehicle %s released in epochs %d and %d", v.ID, prev, k)
			}
			if !ep.Contains(v.Release) {
				return fmt.Errorf("vehicle %s release %v outside epoch %d", v.ID, v.Release, k)
			}
			seen[v.ID] = k
		}
	}
	if len(seen) != len(inst.Vehicles) {
		return fmt.Errorf("%d of %d vehicles assigned", len(seen), len(inst.Vehicles))
	}
	return nil
}
