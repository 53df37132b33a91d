package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/stagger/core/engine"
	"github.com/kilianp07/stagger/core/model"
	"github.com/kilianp07/stagger/core/optimizer"
	"github.com/kilianp07/stagger/core/statusquo"
)

// lineInstance builds a line a->b->c (10s capacity 1, 15s capacity 2).
func lineInstance(t *testing.T, releases ...float64) *model.Instance {
	t.Helper()
	net := model.NewNetwork()
	l1, l2 := 100.0, 150.0
	require.NoError(t, net.AddArc(model.Arc{From: "o", To: "a", Dummy: true}))
	require.NoError(t, net.AddArc(model.Arc{From: "a", To: "b", Length: &l1}))
	require.NoError(t, net.AddArc(model.Arc{From: "b", To: "c", Length: &l2}))
	require.NoError(t, net.Annotate(model.ArcParams{SpeedKPH: 36, MaxFlowAllowed: 10}))
	vs := make([]model.Vehicle, len(releases))
	for i, r := range releases {
		vs[i] = model.Vehicle{ID: model.VehicleID(fmt.Sprintf("v%d", i)), Path: []model.NodeID{"o", "a", "b", "c"}, Release: r}
	}
	inst, err := model.NewInstance(net, vs)
	require.NoError(t, err)
	return inst
}

func TestMeasureCongestion(t *testing.T) {
	inst := lineInstance(t, 0, 2, 4)
	sq, err := statusquo.Build(inst)
	require.NoError(t, err)
	c := MeasureCongestion(model.SolutionFromStatusQuo(sq), inst.Network)
	// a->b: 3 overlapping pairs, peak 3 over capacity 1.
	// b->c: 3 overlapping pairs, peak 3 over capacity 2.
	assert.Equal(t, 6, c.ConflictingPairs)
	assert.Equal(t, 3, c.CapacityExcess)
	assert.Equal(t, []string{"a->b", "b->c"}, c.OverloadedArcs)
}

func TestPeakLoadTouchingIntervals(t *testing.T) {
	ivs := []model.Interval{{Start: 0, End: 10}, {Start: 10, End: 20}, {Start: 5, End: 5}}
	assert.Equal(t, 1, peakLoad(ivs))
}

func TestWriteCSV(t *testing.T) {
	sol := model.Solution{
		Delays: map[model.VehicleID]float64{"b": 2.5, "a": 0},
		Schedules: map[model.VehicleID]model.Schedule{
			"b": {Vehicle: "b", Path: []model.NodeID{"x", "y"}, Offset: 1, Times: []float64{2.5, 12.5}},
			"a": {Vehicle: "a", Path: []model.NodeID{"x", "y"}, Times: []float64{0, 10}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sol))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"a", "0", "x", "0", "0"}, rows[1])
	assert.Equal(t, []string{"b", "2", "y", "12.5", "2.5"}, rows[4])
}

func TestExperimentWritesResult(t *testing.T) {
	inst := lineInstance(t, 0, 5, 40)
	eng, err := engine.New(engine.Config{EpochSize: 30, MaxStaggering: 10}, optimizer.NewLPOptimizer(optimizer.LPConfig{}), engine.WithRunID("run-7"))
	require.NoError(t, err)
	res, err := eng.Run(context.Background(), inst)
	require.NoError(t, err)

	exp, err := NewExperiment(t.TempDir(), res.RunID, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(exp.Dir, "20260102T030405_run-7"))
	require.NoError(t, exp.WriteResult(res, inst, "graph.json"))

	for _, name := range []string{
		InstanceFile, RoutesFile, NetworkFile, InsightsFile,
		RollingName + ".json", RollingName + ".csv", OfflineName + ".json", OfflineName + ".csv",
	} {
		_, err := os.Stat(exp.Path(name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(exp.Path(InsightsFile))
	require.NoError(t, err)
	var ins Insights
	require.NoError(t, yaml.Unmarshal(data, &ins))
	assert.Equal(t, "run-7", ins.RunID)
	assert.Equal(t, 3, ins.Vehicles)
	assert.Len(t, ins.Epochs, 2)
	assert.Empty(t, ins.FallbackEpochs)
	assert.InDelta(t, 5, ins.RollingHorizon.TotalDelay, 1e-6)
	assert.Zero(t, ins.RollingHorizon.Congestion.CapacityExcess)
	assert.Equal(t, 1, ins.Offline.Congestion.CapacityExcess)
	assert.InDelta(t, 75, ins.FreeFlow.PathTravelTime, 1e-6)
	assert.InDelta(t, 75, ins.FreeFlow.ShortestTravelTime, 1e-6)
	assert.Zero(t, ins.FreeFlow.DetouringVehicles)
}

func TestMeasureFreeFlowCountsDetours(t *testing.T) {
	inst := lineInstance(t, 0)
	l := 50.0
	require.NoError(t, inst.Network.AddArc(model.Arc{From: "a", To: "c", Length: &l}))
	require.NoError(t, inst.Network.Annotate(model.ArcParams{SpeedKPH: 36, MaxFlowAllowed: 10}))
	sq, err := statusquo.Build(inst)
	require.NoError(t, err)

	ff := MeasureFreeFlow(model.SolutionFromStatusQuo(sq), inst.Network)
	assert.InDelta(t, 25, ff.PathTravelTime, 1e-9)
	assert.InDelta(t, 5, ff.ShortestTravelTime, 1e-9)
	assert.Equal(t, 1, ff.DetouringVehicles)
}

func TestNewExperimentGeneratesID(t *testing.T) {
	exp, err := NewExperiment(t.TempDir(), "", time.Now())
	require.NoError(t, err)
	assert.Len(t, exp.ID, 36)
}
