// Package distribution provides the probability distributions of the uncertain
// wind variables. Every distribution has finite support reported by Range;
// direction distributions may also declare a zero-probability band.
package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is a one-dimensional distribution with bounded support
type Distribution interface {
	// PDF returns the probability density at x
	PDF(x float64) float64

	// CDF returns the probability of the interval [lower, x]
	CDF(x float64) float64

	// Range returns the support [lower, upper]
	Range() (lower, upper float64)
}

// ZeroBanded is implemented by distributions that assign no mass to [A, B)
type ZeroBanded interface {
	ZeroProbabilityRegion() (a, b float64)
}

// Joint is the independent product of a direction and a speed distribution
type Joint struct {
	Direction Distribution
	Speed     Distribution
}

// PDF returns the joint density at (direction, speed)
func (j Joint) PDF(direction, speed float64) float64 {
	return j.Direction.PDF(direction) * j.Speed.PDF(speed)
}

// Uniform is the continuous uniform distribution on [Min, Max]
type Uniform struct {
	u distuv.Uniform
}

// NewUniform returns a uniform distribution on [min, max]
func NewUniform(min, max float64) (*Uniform, error) {
	if !(max > min) {
		return nil, fmt.Errorf("uniform distribution needs max > min, got [%v, %v]", min, max)
	}
	return &Uniform{u: distuv.Uniform{Min: min, Max: max}}, nil
}

func (u *Uniform) PDF(x float64) float64 { return u.u.Prob(x) }

func (u *Uniform) CDF(x float64) float64 { return u.u.CDF(x) }

func (u *Uniform) Range() (float64, float64) { return u.u.Min, u.u.Max }

// cdfer is satisfied by the gonum distuv distributions
type cdfer interface {
	Prob(x float64) float64
	CDF(x float64) float64
}

// Truncated restricts a distribution on the real line to [lower, upper] and
// renormalizes it
type Truncated struct {
	base         cdfer
	lower, upper float64
	cdfLower     float64
	mass         float64
}

// NewWeibull returns a Weibull wind speed distribution with the given shape
// (k) and scale (lambda), truncated to [min, max]
func NewWeibull(shape, scale, min, max float64) (*Truncated, error) {
	if shape <= 0 || scale <= 0 {
		return nil, fmt.Errorf("weibull needs positive shape and scale, got %v and %v", shape, scale)
	}
	return truncate(distuv.Weibull{K: shape, Lambda: scale}, min, max)
}

func truncate(base cdfer, lower, upper float64) (*Truncated, error) {
	if !(upper > lower) {
		return nil, fmt.Errorf("truncation range [%v, %v] is empty", lower, upper)
	}
	lo, hi := base.CDF(lower), base.CDF(upper)
	if !(hi-lo > 0) {
		return nil, fmt.Errorf("distribution has no mass on [%v, %v]", lower, upper)
	}
	return &Truncated{base: base, lower: lower, upper: upper, cdfLower: lo, mass: hi - lo}, nil
}

func (t *Truncated) PDF(x float64) float64 {
	if x < t.lower || x > t.upper {
		return 0
	}
	return t.base.Prob(x) / t.mass
}

func (t *Truncated) CDF(x float64) float64 {
	switch {
	case x <= t.lower:
		return 0
	case x >= t.upper:
		return 1
	}
	return (t.base.CDF(x) - t.cdfLower) / t.mass
}

func (t *Truncated) Range() (float64, float64) { return t.lower, t.upper }

// WindRose is a piecewise-constant direction density built from relative
// sector frequencies. Sector i covers [lower + i*w, lower + (i+1)*w).
type WindRose struct {
	lower, upper float64
	width        float64
	density      []float64
	cumulative   []float64 // cumulative[i] is the mass below sector i
}

// NewWindRose builds a wind rose over [lower, upper) from sector frequencies
func NewWindRose(frequencies []float64, lower, upper float64) (*WindRose, error) {
	if len(frequencies) == 0 {
		return nil, fmt.Errorf("wind rose needs at least one sector")
	}
	if !(upper > lower) {
		return nil, fmt.Errorf("wind rose range [%v, %v) is empty", lower, upper)
	}

	total := 0.0
	for _, f := range frequencies {
		if f < 0 {
			return nil, fmt.Errorf("wind rose frequency %v is negative", f)
		}
		total += f
	}
	if total <= 0 {
		return nil, fmt.Errorf("wind rose frequencies sum to zero")
	}

	n := len(frequencies)
	w := &WindRose{
		lower:      lower,
		upper:      upper,
		width:      (upper - lower) / float64(n),
		density:    make([]float64, n),
		cumulative: make([]float64, n+1),
	}
	for i, f := range frequencies {
		p := f / total
		w.density[i] = p / w.width
		w.cumulative[i+1] = w.cumulative[i] + p
	}
	w.cumulative[n] = 1
	return w, nil
}

func (w *WindRose) sector(x float64) int {
	i := int(math.Floor((x - w.lower) / w.width))
	if i >= len(w.density) {
		i = len(w.density) - 1
	}
	return i
}

func (w *WindRose) PDF(x float64) float64 {
	if x < w.lower || x >= w.upper {
		return 0
	}
	return w.density[w.sector(x)]
}

func (w *WindRose) CDF(x float64) float64 {
	switch {
	case x <= w.lower:
		return 0
	case x >= w.upper:
		return 1
	}
	i := w.sector(x)
	start := w.lower + float64(i)*w.width
	return w.cumulative[i] + (x-start)*w.density[i]
}

func (w *WindRose) Range() (float64, float64) { return w.lower, w.upper }

// Banded removes the mass of [A, B) from a base distribution and renormalizes
// the remainder
type Banded struct {
	base  Distribution
	a, b  float64
	cdfA  float64
	cdfB  float64
	scale float64
}

// Exclude returns base with a zero-probability band on [a, b)
func Exclude(base Distribution, a, b float64) (*Banded, error) {
	lower, upper := base.Range()
	if !(lower <= a && a <= b && b <= upper) {
		return nil, fmt.Errorf("band [%v, %v) is not inside [%v, %v]", a, b, lower, upper)
	}
	cdfA, cdfB := base.CDF(a), base.CDF(b)
	kept := 1 - (cdfB - cdfA)
	if kept <= 0 {
		return nil, fmt.Errorf("band [%v, %v) holds all of the probability mass", a, b)
	}
	return &Banded{base: base, a: a, b: b, cdfA: cdfA, cdfB: cdfB, scale: 1 / kept}, nil
}

func (d *Banded) PDF(x float64) float64 {
	if x >= d.a && x < d.b {
		return 0
	}
	return d.base.PDF(x) * d.scale
}

func (d *Banded) CDF(x float64) float64 {
	c := d.base.CDF(x)
	switch {
	case x <= d.a:
	case x < d.b:
		c = d.cdfA
	default:
		c -= d.cdfB - d.cdfA
	}
	return math.Min(c*d.scale, 1)
}

func (d *Banded) Range() (float64, float64) { return d.base.Range() }

// ZeroProbabilityRegion returns the excluded band [A, B)
func (d *Banded) ZeroProbabilityRegion() (float64, float64) { return d.a, d.b }

// Mass returns the probability of [a, b] under d
func Mass(d Distribution, a, b float64) float64 {
	if b <= a {
		return 0
	}
	return d.CDF(b) - d.CDF(a)
}
