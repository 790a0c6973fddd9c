package uq

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/windaep/internal/constants"
	"github.com/chrissnell/windaep/internal/distribution"
	"github.com/chrissnell/windaep/internal/types"
)

// QuadratureProvider builds an n-point quadrature rule for a density given as
// a histogram on [-1, 1]. abscissas are the bin edges in increasing order and
// pdfWeights[i] is the density on [abscissas[i], abscissas[i+1]); the last
// entry is zero. The returned nodes lie in [-1, 1] and the weights sum to 1.
type QuadratureProvider interface {
	Quadrature(n int, abscissas, pdfWeights []float64) (nodes, weights []float64, err error)
}

// ProviderTolerance bounds how far a provider's weights may sum from 1 before
// the rule is rejected as malformed
const ProviderTolerance = 1e-6

// RotatedMode returns the mode moved by offset.Index/offset.Total of the
// period. A rotated mode inside the zero band snaps to the nearer band edge.
func RotatedMode(d DomainSpec, offset OffsetSpec) float64 {
	c := d.wrap(d.Mode + float64(offset.Index)*d.Period()/float64(offset.Total))
	if d.inBand(c) {
		if c-d.ZeroBandStart <= d.ZeroBandEnd-c {
			return d.ZeroBandStart
		}
		return d.ZeroBandEnd
	}
	return c
}

// DirectionQuadraturePoints asks provider for an n-point rule for the
// direction density seen from the un-shifted frame, starting at the rotated
// mode, then moves the nodes onto the circle. Provider weights are returned as
// they are.
func DirectionQuadraturePoints(n int, offset OffsetSpec, d DomainSpec, dist distribution.Distribution, provider QuadratureProvider) (PointSet, error) {
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
	mode := RotatedMode(d, offset)

	edges := make([]float64, constants.HistogramIntervals+1)
	floats.Span(edges, d.Lower, d.Lower+r)
	pulled := Remap(midpoints(edges), d, mode)

	density := make([]float64, len(edges))
	for i, x := range pulled {
		density[i] = dist.PDF(x)
	}

	abscissas := make([]float64, len(edges))
	for i, y := range edges {
		abscissas[i] = 2*(y-d.Lower)/r - 1
	}

	nodes, weights, err := callProvider(provider, n, abscissas, density)
	if err != nil {
		return PointSet{}, err
	}

	x := make([]float64, len(nodes))
	for i, t := range nodes {
		x[i] = d.Lower + r/2 + r/2*t
	}

	ps := PointSet{
		Values:  Remap(x, d, mode),
		Weights: weights,
	}
	ps.Anomaly = CheckWeights(ps.Weights, constants.WeightTolerance)
	return ps, nil
}

// SpeedQuadraturePoints asks provider for an n-point rule for the speed
// density and rescales the nodes onto [lower, upper]
func SpeedQuadraturePoints(n int, d DomainSpec, dist distribution.Distribution, provider QuadratureProvider) (PointSet, error) {
	if n < 1 {
		return PointSet{}, types.ConfigErrorf("sample count must be at least 1, got %d", n)
	}
	width := d.Period()
	if !(width > 0) {
		return PointSet{}, types.ConfigErrorf("speed domain [%v, %v] has no extent", d.Lower, d.Upper)
	}

	edges := make([]float64, constants.HistogramIntervals+1)
	floats.Span(edges, d.Lower, d.Upper)

	density := make([]float64, len(edges))
	for i, x := range midpoints(edges) {
		density[i] = dist.PDF(x)
	}

	abscissas := make([]float64, len(edges))
	for i, y := range edges {
		abscissas[i] = (2.0/width)*(y-d.Lower) - 1.0
	}

	nodes, weights, err := callProvider(provider, n, abscissas, density)
	if err != nil {
		return PointSet{}, err
	}

	ps := PointSet{
		Values:  make([]float64, len(nodes)),
		Weights: weights,
	}
	for i, t := range nodes {
		ps.Values[i] = width/2 + width/2*t + d.Lower
	}
	ps.Anomaly = CheckWeights(ps.Weights, constants.WeightTolerance)
	return ps, nil
}

// callProvider runs the provider and rejects rules whose shape or weight sum
// is wrong. Anything the provider returns as an error is reported as a
// communication failure.
func callProvider(provider QuadratureProvider, n int, abscissas, pdfWeights []float64) ([]float64, []float64, error) {
	if provider == nil {
		return nil, nil, types.ProviderErrorf("no quadrature provider configured")
	}

	nodes, weights, err := provider.Quadrature(n, abscissas, pdfWeights)
	if err != nil {
		if errors.Is(err, types.ErrProviderCommunication) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", types.ErrProviderCommunication, err)
	}

	if len(nodes) != n {
		return nil, nil, types.ProviderErrorf("provider returned %d nodes for n=%d", len(nodes), n)
	}
	if len(nodes) != len(weights) {
		return nil, nil, types.ProviderErrorf("provider returned %d nodes but %d weights", len(nodes), len(weights))
	}
	for i, t := range nodes {
		if math.IsNaN(t) || t < -1-ProviderTolerance || t > 1+ProviderTolerance {
			return nil, nil, types.ProviderErrorf("node %d = %v lies outside [-1, 1]", i, t)
		}
		if math.IsNaN(weights[i]) || math.IsInf(weights[i], 0) {
			return nil, nil, types.ProviderErrorf("weight %d is not finite", i)
		}
	}
	if sum := floats.Sum(weights); math.Abs(sum-1) > ProviderTolerance {
		return nil, nil, types.ProviderErrorf("provider weights sum to %v", sum)
	}
	return nodes, weights, nil
}
