// Package uq selects the evaluation points and integration weights used to
// estimate the mean and standard deviation of a wind farm's annual energy
// production under uncertain wind direction and speed.
//
// Direction points live on a circle with an optional zero-probability band
// [A, B). Generators lay points out in an un-shifted frame of length
// R = period - (B - A) and move them onto the circle with Remap, which starts
// at the mode C and steps over the band. Weights are always measured in the
// un-shifted frame against the distribution pulled back through the same
// mapping, so a point and its weight can never disagree about where the point
// is.
package uq

import (
	"fmt"
	"math"

	"github.com/chrissnell/windaep/internal/distribution"
	"github.com/chrissnell/windaep/internal/types"
)

// DomainSpec describes the support of one uncertain variable
type DomainSpec struct {
	Lower         float64
	Upper         float64
	ZeroBandStart float64 // A
	ZeroBandEnd   float64 // B
	Mode          float64 // C
}

// Period is the length of the support, r = upper - lower
func (d DomainSpec) Period() float64 {
	return d.Upper - d.Lower
}

// BandWidth is B - A
func (d DomainSpec) BandWidth() float64 {
	return d.ZeroBandEnd - d.ZeroBandStart
}

// ModifiedRange is the period with the zero band removed, R = r - (B - A)
func (d DomainSpec) ModifiedRange() float64 {
	return d.Period() - d.BandWidth()
}

// Validate checks lower <= A <= B <= upper, a positive period and a mode that
// is inside the domain but not inside the open band (A, B)
func (d DomainSpec) Validate() error {
	if !(d.Period() > 0) {
		return types.ConfigErrorf("domain [%v, %v) has no extent", d.Lower, d.Upper)
	}
	if !(d.Lower <= d.ZeroBandStart && d.ZeroBandStart <= d.ZeroBandEnd && d.ZeroBandEnd <= d.Upper) {
		return types.ConfigErrorf("zero band [%v, %v) must satisfy %v <= A <= B <= %v",
			d.ZeroBandStart, d.ZeroBandEnd, d.Lower, d.Upper)
	}
	if !(d.ModifiedRange() > 0) {
		return types.ConfigErrorf("zero band [%v, %v) covers the whole domain", d.ZeroBandStart, d.ZeroBandEnd)
	}
	if d.Mode < d.Lower || d.Mode >= d.Upper {
		return types.ConfigErrorf("mode %v outside [%v, %v)", d.Mode, d.Lower, d.Upper)
	}
	if d.inBand(d.Mode) {
		return types.ConfigErrorf("mode %v inside zero band (%v, %v)", d.Mode, d.ZeroBandStart, d.ZeroBandEnd)
	}
	return nil
}

func (d DomainSpec) inBand(x float64) bool {
	return x > d.ZeroBandStart && x < d.ZeroBandEnd
}

// wrap maps x into [lower, upper)
func (d DomainSpec) wrap(x float64) float64 {
	r := d.Period()
	v := math.Mod(x-d.Lower, r)
	if v < 0 {
		v += r
	}
	// math.Mod can return r for inputs a hair below a multiple of r
	if v >= r {
		v = 0
	}
	return d.Lower + v
}

// reduce returns the offset of x into the un-shifted frame, in [0, R)
func (d DomainSpec) reduce(x float64) float64 {
	r := d.ModifiedRange()
	v := math.Mod(x-d.Lower, r)
	if v < 0 {
		v += r
	}
	if v >= r {
		v = 0
	}
	return v
}

func (d DomainSpec) String() string {
	return fmt.Sprintf("[%v, %v) band [%v, %v) mode %v",
		d.Lower, d.Upper, d.ZeroBandStart, d.ZeroBandEnd, d.Mode)
}

// NewDirectionDomain builds the circular domain of a direction distribution.
// The zero band comes from the distribution when it declares one; otherwise
// the domain has an empty band at its lower edge. A band that still carries
// probability mass is a configuration error.
func NewDirectionDomain(dist distribution.Distribution, mode float64) (DomainSpec, error) {
	lower, upper := dist.Range()
	d := DomainSpec{
		Lower:         lower,
		Upper:         upper,
		ZeroBandStart: lower,
		ZeroBandEnd:   lower,
		Mode:          mode,
	}
	if zb, ok := dist.(distribution.ZeroBanded); ok {
		d.ZeroBandStart, d.ZeroBandEnd = zb.ZeroProbabilityRegion()
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	if m := distribution.Mass(dist, d.ZeroBandStart, d.ZeroBandEnd); m > BandMassTolerance {
		return d, types.ConfigErrorf("distribution assigns mass %g to zero band [%v, %v)",
			m, d.ZeroBandStart, d.ZeroBandEnd)
	}
	return d, nil
}

// NewLinearDomain builds the non-circular domain of a speed distribution
func NewLinearDomain(dist distribution.Distribution) (DomainSpec, error) {
	lower, upper := dist.Range()
	d := DomainSpec{Lower: lower, Upper: upper, ZeroBandStart: lower, ZeroBandEnd: lower, Mode: lower}
	return d, d.Validate()
}

// BandMassTolerance is the largest probability a declared zero band may hold
const BandMassTolerance = 1e-12

// OffsetSpec selects phase Index out of Total phase-shifted point families
type OffsetSpec struct {
	Index int
	Total int
}

// Validate checks 0 <= Index < Total
func (o OffsetSpec) Validate() error {
	if o.Total < 1 {
		return types.ConfigErrorf("total offsets must be at least 1, got %d", o.Total)
	}
	if o.Index < 0 || o.Index >= o.Total {
		return types.ConfigErrorf("offset index %d outside [0, %d)", o.Index, o.Total)
	}
	return nil
}

// PointSet is an ordered list of evaluation points and their weights
type PointSet struct {
	Values  []float64
	Weights []float64

	// Anomaly is set when the weights fail the normalization check. The set
	// is still usable but results computed from it are degraded.
	Anomaly *WeightAnomaly
}

// Len returns the number of points
func (p PointSet) Len() int {
	return len(p.Values)
}
