package epoch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stagger/core/model"
)

// lineInstance builds a two-arc line a->b->c with travel times 10 and 15.
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
