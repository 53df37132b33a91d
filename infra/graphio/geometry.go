package graphio

import (
	"math"

	"github.com/kilianp07/stagger/core/model"
)

// DefaultGeometryTolerance is the relative difference between declared and
// geodesic length above which an arc is reported.
const DefaultGeometryTolerance = 0.1

// GeometryMismatch is an arc whose declared length disagrees with the
// geodesic length of its geometry.
type GeometryMismatch struct {
	Arc      model.ArcID
	Length   float64
	Geodesic float64
}

// RelativeError is |Length - Geodesic| / Geodesic.
func (m GeometryMismatch) RelativeError() float64 {
	return math.Abs(m.Length-m.Geodesic) / m.Geodesic
}

// CheckGeometry compares every physical arc carrying both a length and a
// geometry. Arcs without geometry are skipped.
func CheckGeometry(net *model.Network, relTol float64) []GeometryMismatch {
	var out []GeometryMismatch
	for _, id := range net.ArcIDs() {
		a, _ := net.ArcByID(id)
		if a.Dummy || a.Length == nil {
			continue
		}
		geo := a.GeometryLength()
		if geo <= 0 {
			continue
		}
		m := GeometryMismatch{Arc: id, Length: *a.Length, Geodesic: geo}
		if m.RelativeError() > relTol {
			out = append(out, m)
		}
	}
	return out
}
