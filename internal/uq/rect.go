package uq

import (
	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/windaep/internal/constants"
	"github.com/chrissnell/windaep/internal/distribution"
	"github.com/chrissnell/windaep/internal/types"
)

// DirectionPoints returns n bin midpoints spread evenly over the modified
// range R, phase-shifted by offset.Index/offset.Total of a bin, and moved onto
// the circle with Remap. The weight of each point is the probability of its
// bin measured before the move, so weights and locations share one mapping.
func DirectionPoints(n int, offset OffsetSpec, d DomainSpec, dist distribution.Distribution) (PointSet, error) {
	if n < 1 {
		return PointSet{}, types.ConfigErrorf("sample count must be at least 1, got %d", n)
	}
	if err := offset.Validate(); err != nil {
		return PointSet{}, err
	}
	if err := d.Validate(); err != nil {
		return PointSet{}, err
	}

	r := d.ModifiedRange()
	dx := r / float64(n)
	shift := float64(offset.Index) * dx / float64(offset.Total)

	edges := make([]float64, n+1)
	floats.Span(edges, d.Lower+shift, d.Lower+r+shift)
	mid := midpoints(edges)

	ps := PointSet{
		Values:  Remap(mid, d, d.Mode),
		Weights: Integrate(mid, dx, pullBack(dist, d, d.Mode)),
	}
	ps.Anomaly = CheckWeights(ps.Weights, constants.WeightTolerance)
	return ps, nil
}

// SpeedPoints returns the n bin midpoints of an even grid over [lower, upper]
// weighted by the probability of each bin. The speed domain is not circular.
func SpeedPoints(n int, d DomainSpec, dist distribution.Distribution) (PointSet, error) {
	if n < 1 {
		return PointSet{}, types.ConfigErrorf("sample count must be at least 1, got %d", n)
	}
	if !(d.Period() > 0) {
		return PointSet{}, types.ConfigErrorf("speed domain [%v, %v] has no extent", d.Lower, d.Upper)
	}

	edges := make([]float64, n+1)
	floats.Span(edges, d.Lower, d.Upper)

	ps := PointSet{
		Values:  midpoints(edges),
		Weights: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		ps.Weights[i] = dist.CDF(edges[i+1]) - dist.CDF(edges[i])
	}
	ps.Anomaly = CheckWeights(ps.Weights, constants.WeightTolerance)
	return ps, nil
}

func midpoints(edges []float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	mid := make([]float64, len(edges)-1)
	for i := range mid {
		mid[i] = (edges[i] + edges[i+1]) / 2
	}
	return mid
}
