package reconstruct

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stagger/core/epoch"
	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/core/statusquo"
)

func lineInstance(t *testing.T, releases ...float64) *model.Instance {
	t.Helper()
	net := model.NewNetwork()
	l1, l2 := 100.0, 150.0
	require.NoError(t, net.AddArc(model.Arc{From: "a", To: "b", Length: &l1}))
	require.NoError(t, net.AddArc(model.Arc{From: "b", To: "c", Length: &l2}))
	require.NoError(t, net.Annotate(model.ArcParams{SpeedKPH: 36, MaxFlowAllowed: 5}))
	vs := make([]model.Vehicle, len(releases))
	for i, r := range releases {
		vs[i] = model.Vehicle{ID: model.VehicleID(fmt.Sprintf("v%d", i)), Path: []model.NodeID{"a", "b", "c"}, Release: r}
	}
	inst, err := model.NewInstance(net, vs)
	require.NoError(t, err)
	return inst
}

// rollStatusQuo runs the epoch loop with zero staggering.
func rollStatusQuo(t *testing.T, inst *model.Instance, size float64) ([]*model.EpochInstance, []model.Solution) {
	t.Helper()
	epochs, err := epoch.Partition(inst, epoch.Config{EpochSize: size})
	require.NoError(t, err)
	sols := make([]model.Solution, len(epochs))
	for k, ep := range epochs {
		sq, err := statusquo.Build(ep)
		require.NoError(t, err)
		sols[k] = model.SolutionFromStatusQuo(sq)
		if k+1 < len(epochs) {
			_, err = epoch.Propagate(ep, sq, sols[k], epochs[k+1], inst)
			require.NoError(t, err)
		}
	}
	return epochs, sols
}

func TestReconstructScenario(t *testing.T) {
	inst := lineInstance(t, 0, 5, 40)
	epochs, sols := rollStatusQuo(t, inst, 30)
	require.Len(t, epochs, 2)
	assert.Equal(t, 25.0, sols[0].Schedules["v0"].Arrival())

	full, err := Reconstruct(epochs, sols, inst)
	require.NoError(t, err)
	offline, err := Offline(inst)
	require.NoError(t, err)
	require.Len(t, full.Schedules, 3)
	for _, id := range offline.Vehicles() {
		assert.True(t, full.Schedules[id].Equal(offline.Schedules[id], 1e-9), "vehicle %s", id)
	}
	assert.Zero(t, full.TotalDelay())
}

func TestReconstructSplicesCarriedTrips(t *testing.T) {
	inst := lineInstance(t, 0, 20, 40)
	epochs, sols := rollStatusQuo(t, inst, 30)
	require.Len(t, epochs[1].Carried, 1)

	full, err := Reconstruct(epochs, sols, inst)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30, 45}, full.Schedules["v1"].Times)
	assert.Equal(t, 0, full.Schedules["v1"].Offset)
}

func TestReconstructKeepsReleaseEpochSchedule(t *testing.T) {
	inst := lineInstance(t, 0, 5, 40)
	epochs, err := epoch.Partition(inst, epoch.Config{EpochSize: 30})
	require.NoError(t, err)
	sq0, err := statusquo.Build(epochs[0])
	require.NoError(t, err)
	sol0 := model.ApplyDelays(sq0, map[model.VehicleID]float64{"v1": 3})
	_, err = epoch.Propagate(epochs[0], sq0, sol0, epochs[1], inst)
	require.NoError(t, err)
	sq1, err := statusquo.Build(epochs[1])
	require.NoError(t, err)

	full, err := Reconstruct(epochs, []model.Solution{sol0, model.SolutionFromStatusQuo(sq1)}, inst)
	require.NoError(t, err)
	assert.True(t, full.Schedules["v1"].Equal(sol0.Schedules["v1"], 0))
	assert.Equal(t, 3.0, full.Delays["v1"])
}

func TestReconstructErrors(t *testing.T) {
	inst := lineInstance(t, 0, 40)
	epochs, sols := rollStatusQuo(t, inst, 30)

	_, err := Reconstruct(epochs, sols[:1], inst)
	assert.Error(t, err)

	broken := []model.Solution{model.NewSolution(), sols[1]}
	_, err = Reconstruct(epochs, broken, inst)
	assert.ErrorIs(t, err, model.ErrInvalidInstance)

	_, err = Reconstruct(epochs[:1], sols[:1], inst)
	assert.ErrorIs(t, err, model.ErrInvalidInstance)
}

func TestSpliceRejectsForeignSegment(t *testing.T) {
	base := model.Schedule{Vehicle: "v", Path: []model.NodeID{"a", "b", "c"}, Times: []float64{0, 10, 25}}
	_, err := splice(base, model.Schedule{Vehicle: "v", Path: []model.NodeID{"x", "c"}, Offset: 1, Times: []float64{10, 25}})
	assert.ErrorIs(t, err, model.ErrInvalidInstance)
	_, err = splice(base, model.Schedule{Vehicle: "v", Path: []model.NodeID{"b"}, Offset: 1, Times: []float64{10}})
	assert.ErrorIs(t, err, model.ErrInvalidInstance)
}
