package uq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/windaep/internal/distribution"
)

// Integrate returns the probability mass of the bin of width binWidth centered
// on each point. The support of dist is treated as circular: a bin hanging off
// either end picks up the mass at the opposite end.
func Integrate(points []float64, binWidth float64, dist distribution.Distribution) []float64 {
	lo, hi := dist.Range()
	half := binWidth / 2

	w := make([]float64, len(points))
	for i, x := range points {
		left, right := x-half, x+half
		switch {
		case right > hi:
			w[i] = (1 - dist.CDF(left)) + dist.CDF(lo+right-hi)
		case left < lo:
			w[i] = dist.CDF(right) + (1 - dist.CDF(hi-(lo-left)))
		default:
			w[i] = dist.CDF(right) - dist.CDF(left)
		}
	}
	return w
}

// pulledBack is a direction distribution seen from the un-shifted frame: its
// CDF at u is the physical probability of Remap([lower, u)). The frame is the
// interval [lower, lower + R) and wraps with period R.
type pulledBack struct {
	dist     distribution.Distribution
	d        DomainSpec
	mode     float64
	bandMass float64
}

func pullBack(dist distribution.Distribution, d DomainSpec, mode float64) pulledBack {
	return pulledBack{
		dist:     dist,
		d:        d,
		mode:     mode,
		bandMass: distribution.Mass(dist, d.ZeroBandStart, d.ZeroBandEnd),
	}
}

func (p pulledBack) Range() (float64, float64) {
	return p.d.Lower, p.d.Lower + p.d.ModifiedRange()
}

func (p pulledBack) PDF(u float64) float64 {
	lo, hi := p.Range()
	if u < lo || u >= hi {
		return 0
	}
	return p.dist.PDF(Remap([]float64{u}, p.d, p.mode)[0])
}

func (p pulledBack) CDF(u float64) float64 {
	length := u - p.d.Lower
	switch {
	case length <= 0:
		return 0
	case length >= p.d.ModifiedRange():
		return 1 - p.bandMass
	}

	_, arc := advance(p.d, p.mode, length)
	m := arcMass(p.dist, p.d, p.mode, arc)
	if arc > length {
		m -= p.bandMass
	}
	return m
}

// arcMass is the probability of the forward arc [start, start+length) on the
// circle formed by d
func arcMass(dist distribution.Distribution, d DomainSpec, start, length float64) float64 {
	if length <= 0 {
		return 0
	}
	if length >= d.Period() {
		return 1
	}
	end := start + length
	if end <= d.Upper {
		return dist.CDF(end) - dist.CDF(start)
	}
	return (1 - dist.CDF(start)) + dist.CDF(end-d.Period())
}

// WeightAnomaly describes a weight set that is not a probability vector
type WeightAnomaly struct {
	Sum      float64
	Negative []int
}

func (a *WeightAnomaly) String() string {
	if len(a.Negative) > 0 {
		return fmt.Sprintf("weights sum to %.12g with %d negative weights", a.Sum, len(a.Negative))
	}
	return fmt.Sprintf("weights sum to %.12g", a.Sum)
}

// CheckWeights returns nil when every weight is non-negative and the weights
// sum to 1 within tol. Weights are never modified.
func CheckWeights(weights []float64, tol float64) *WeightAnomaly {
	sum := floats.Sum(weights)
	var negative []int
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			negative = append(negative, i)
		}
	}
	if len(negative) == 0 && math.Abs(sum-1) <= tol {
		return nil
	}
	return &WeightAnomaly{Sum: sum, Negative: negative}
}
