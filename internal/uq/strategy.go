package uq

import (
	"github.com/chrissnell/windaep/internal/constants"
	"github.com/chrissnell/windaep/internal/distribution"
	"github.com/chrissnell/windaep/internal/types"
)

// Samples are the (direction, speed) pairs at which the power model is
// evaluated, with one weight per pair
type Samples struct {
	Directions []float64
	Speeds     []float64
	Weights    []float64
	Anomaly    *WeightAnomaly
}

// Len returns the number of evaluation points
func (s Samples) Len() int {
	return len(s.Weights)
}

// Strategy generates the evaluation points for a sample-count surrogate n.
// For the joint study n points are generated per variable.
type Strategy interface {
	Name() types.Method
	Samples(n int) (Samples, error)
}

// Setup is everything a strategy needs to know about the uncertain variables.
// Dist is the independent joint distribution; a single-variable study only
// reads its marginal for that variable. The domain for a variable that is
// held fixed is ignored.
type Setup struct {
	Variable         types.UncertainVariable
	Dist             distribution.Joint
	Direction        DomainSpec
	Speed            DomainSpec
	Offset           OffsetSpec
	WindSpeedRef     float64
	WindDirectionRef float64
}

// NewStrategy returns the strategy for method. provider is only used by the
// quadrature strategy.
func NewStrategy(method types.Method, setup Setup, provider QuadratureProvider) (Strategy, error) {
	switch setup.Variable {
	case types.VariableDirection, types.VariableSpeed, types.VariableDirectionAndSpeed:
	default:
		return nil, types.ConfigErrorf("unknown uncertain variable %q", setup.Variable)
	}

	switch method {
	case types.MethodRect:
		return &RectStrategy{setup: setup}, nil
	case types.MethodQuadrature:
		if provider == nil {
			return nil, types.ConfigErrorf("quadrature method needs a quadrature provider")
		}
		return &QuadratureStrategy{setup: setup, provider: provider}, nil
	}
	return nil, types.ConfigErrorf("unknown method %q", method)
}

// RectStrategy samples bin midpoints of an even grid
type RectStrategy struct {
	setup Setup
}

func (r *RectStrategy) Name() types.Method { return types.MethodRect }

func (r *RectStrategy) Samples(n int) (Samples, error) {
	s := r.setup
	return s.build(
		func() (PointSet, error) { return DirectionPoints(n, s.Offset, s.Direction, s.Dist.Direction) },
		func() (PointSet, error) { return SpeedPoints(n, s.Speed, s.Dist.Speed) },
	)
}

// QuadratureStrategy samples the nodes of rules built by a QuadratureProvider
type QuadratureStrategy struct {
	setup    Setup
	provider QuadratureProvider
}

func (q *QuadratureStrategy) Name() types.Method { return types.MethodQuadrature }

func (q *QuadratureStrategy) Samples(n int) (Samples, error) {
	s := q.setup
	return s.build(
		func() (PointSet, error) {
			return DirectionQuadraturePoints(n, s.Offset, s.Direction, s.Dist.Direction, q.provider)
		},
		func() (PointSet, error) { return SpeedQuadraturePoints(n, s.Speed, s.Dist.Speed, q.provider) },
	)
}

func (s Setup) build(direction, speed func() (PointSet, error)) (Samples, error) {
	switch s.Variable {
	case types.VariableDirection:
		ps, err := direction()
		if err != nil {
			return Samples{}, err
		}
		return Samples{
			Directions: ps.Values,
			Speeds:     constant(s.WindSpeedRef, ps.Len()),
			Weights:    ps.Weights,
			Anomaly:    ps.Anomaly,
		}, nil

	case types.VariableSpeed:
		ps, err := speed()
		if err != nil {
			return Samples{}, err
		}
		return Samples{
			Directions: constant(s.WindDirectionRef, ps.Len()),
			Speeds:     ps.Values,
			Weights:    ps.Weights,
			Anomaly:    ps.Anomaly,
		}, nil

	case types.VariableDirectionAndSpeed:
		dirs, err := direction()
		if err != nil {
			return Samples{}, err
		}
		speeds, err := speed()
		if err != nil {
			return Samples{}, err
		}
		return Tensor(dirs, speeds), nil
	}
	return Samples{}, types.ConfigErrorf("unknown uncertain variable %q", s.Variable)
}

// Tensor combines independent direction and speed point sets into their
// product grid, direction-major
func Tensor(dirs, speeds PointSet) Samples {
	size := dirs.Len() * speeds.Len()
	out := Samples{
		Directions: make([]float64, 0, size),
		Speeds:     make([]float64, 0, size),
		Weights:    make([]float64, 0, size),
	}
	for i, d := range dirs.Values {
		for j, v := range speeds.Values {
			out.Directions = append(out.Directions, d)
			out.Speeds = append(out.Speeds, v)
			out.Weights = append(out.Weights, dirs.Weights[i]*speeds.Weights[j])
		}
	}
	out.Anomaly = CheckWeights(out.Weights, constants.WeightTolerance)
	return out
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
