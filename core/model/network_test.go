package model

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func length(v float64) *float64 { return &v }

func TestAnnotateTravelTimeAndCapacity(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddArc(Arc{From: "a", To: "b", Length: length(100)}))
	require.NoError(t, net.AddArc(Arc{From: "b", To: "c", Length: length(250)}))
	require.NoError(t, net.AddArc(Arc{From: "o", To: "a", Dummy: true}))
	require.NoError(t, net.Annotate(ArcParams{SpeedKPH: 36, MaxFlowAllowed: 4}))

	ab, _ := net.Arc("a", "b")
	assert.InDelta(t, 10.0, ab.TravelTime, 1e-9)
	assert.Equal(t, 3, ab.Capacity)

	bc, _ := net.Arc("b", "c")
	assert.InDelta(t, 25.0, bc.TravelTime, 1e-9)
	assert.Equal(t, 7, bc.Capacity)

	oa, _ := net.Arc("o", "a")
	assert.Zero(t, oa.TravelTime)
	assert.Zero(t, oa.Capacity)

	for _, id := range net.ArcIDs() {
		a, _ := net.ArcByID(id)
		if a.TravelTime < 0 || a.Capacity < 0 {
			t.Fatalf("negative attributes on %s", id)
		}
		if a.Capacity != int(math.Ceil(a.TravelTime/4)) {
			t.Fatalf("capacity mismatch on %s", id)
		}
	}
}

func TestAnnotateMissingLength(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddArc(Arc{From: "a", To: "b"}))
	err := net.Annotate(ArcParams{SpeedKPH: 20, MaxFlowAllowed: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAttribute))
	var ae *InvalidAttributeError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, ArcID{From: "a", To: "b"}, ae.Arc)
}

func TestAnnotateDummyWithPhysicalFields(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddArc(Arc{From: "a", To: "b", Dummy: true, Length: length(3)}))
	err := net.Annotate(ArcParams{SpeedKPH: 20, MaxFlowAllowed: 5})
	assert.ErrorIs(t, err, ErrInvalidAttribute)
}

func TestAnnotateRejectsBadParams(t *testing.T) {
	net := NewNetwork()
	assert.Error(t, net.Annotate(ArcParams{SpeedKPH: 0, MaxFlowAllowed: 5}))
	assert.Error(t, net.Annotate(ArcParams{SpeedKPH: 10, MaxFlowAllowed: -1}))
}

func TestAddArcRejectsLoopsAndDuplicates(t *testing.T) {
	net := NewNetwork()
	assert.Error(t, net.AddArc(Arc{From: "a", To: "a", Length: length(1)}))
	require.NoError(t, net.AddArc(Arc{From: "a", To: "b", Length: length(1)}))
	assert.Error(t, net.AddArc(Arc{From: "a", To: "b", Length: length(2)}))
}

func TestPathArcs(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddArc(Arc{From: "a", To: "b", Length: length(1)}))
	require.NoError(t, net.AddArc(Arc{From: "a", To: "c", Length: length(1)}))
	require.NoError(t, net.AddArc(Arc{From: "b", To: "c", Length: length(1)}))

	arcs, err := net.PathArcs([]NodeID{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, arcs, 2)

	_, err = net.PathArcs([]NodeID{"c", "a"})
	assert.Error(t, err)
	_, err = net.PathArcs([]NodeID{"a", "z"})
	assert.Error(t, err)
	_, err = net.PathArcs([]NodeID{"a"})
	assert.Error(t, err)
}

func TestFreeFlowTimes(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddArc(Arc{From: "o", To: "a", Dummy: true}))
	require.NoError(t, net.AddArc(Arc{From: "a", To: "b", Length: length(100)}))
	require.NoError(t, net.AddArc(Arc{From: "b", To: "c", Length: length(100)}))
	require.NoError(t, net.AddArc(Arc{From: "a", To: "c", Length: length(300)}))
	require.NoError(t, net.AddArc(Arc{From: "c", To: "d", Length: length(50)}))
	require.NoError(t, net.Annotate(ArcParams{SpeedKPH: 36, MaxFlowAllowed: 5}))

	ff := net.FreeFlowTimes("o")
	assert.InDelta(t, 0, ff["a"], 1e-9)
	// o->a->b->c (20s) beats the direct a->c arc (30s).
	assert.InDelta(t, 20, ff["c"], 1e-9)
	assert.InDelta(t, 25, ff["d"], 1e-9)

	direct, err := net.PathTravelTime([]NodeID{"o", "a", "c", "d"})
	require.NoError(t, err)
	assert.InDelta(t, 35, direct, 1e-9)

	_, reachable := net.FreeFlowTimes("d")["a"]
	assert.False(t, reachable)
	assert.Nil(t, net.FreeFlowTimes("z"))
}

func TestSubgraphCopiesArcs(t *testing.T) {
	net := NewNetwork()
	require.NoError(t, net.AddArc(Arc{From: "a", To: "b", Length: length(100)}))
	require.NoError(t, net.AddArc(Arc{From: "b", To: "c", Length: length(100)}))
	require.NoError(t, net.Annotate(ArcParams{SpeedKPH: 36, MaxFlowAllowed: 5}))

	sub := net.Subgraph([]ArcID{{From: "b", To: "c"}, {From: "x", To: "y"}})
	assert.Equal(t, 1, sub.NumArcs())
	bc, ok := sub.Arc("b", "c")
	require.True(t, ok)
	assert.InDelta(t, 10.0, bc.TravelTime, 1e-9)
	_, ok = sub.Arc("a", "b")
	assert.False(t, ok)
}

func TestGeometryLength(t *testing.T) {
	a := Arc{From: "a", To: "b", Geometry: orb.LineString{{4.35, 50.85}, {4.36, 50.85}}}
	l := a.GeometryLength()
	if l < 600 || l > 800 {
		t.Fatalf("unexpected geodesic length %.1f", l)
	}
	assert.Zero(t, (&Arc{}).GeometryLength())
}
