package uq

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/windaep/internal/distribution"
	"github.com/chrissnell/windaep/internal/types"
)

func TestDirectionPointsExample(t *testing.T) {
	ps, err := DirectionPoints(4, OffsetSpec{Index: 0, Total: 1}, exampleDomain, exampleDirection(t))
	require.NoError(t, err)
	require.Nil(t, ps.Anomaly)

	want := []float64{266.25, 348.75, 71.25, 183.75}
	require.Equal(t, len(want), ps.Len())
	for i := range want {
		assert.InDelta(t, want[i], ps.Values[i], 1e-9, "point %d", i)
		assert.InDelta(t, 0.25, ps.Weights[i], 1e-12, "weight %d", i)
	}
}

func TestSpeedPointsExample(t *testing.T) {
	u, err := distribution.NewUniform(4, 20)
	require.NoError(t, err)
	d, err := NewLinearDomain(u)
	require.NoError(t, err)

	ps, err := SpeedPoints(5, d, u)
	require.NoError(t, err)
	require.Nil(t, ps.Anomaly)

	want := []float64{5.6, 8.8, 12, 15.2, 18.4}
	require.Equal(t, len(want), ps.Len())
	for i := range want {
		assert.InDelta(t, want[i], ps.Values[i], 1e-12)
		assert.InDelta(t, 0.2, ps.Weights[i], 1e-12)
	}
}

func TestDirectionPointsRandomDomains(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	freqs := make([]float64, 36)
	for i := range freqs {
		freqs[i] = rng.Float64()
	}
	rose, err := distribution.NewWindRose(freqs, 0, 360)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		a := 360 * rng.Float64()
		b := a + (360-a)*0.9*rng.Float64()
		dist, err := distribution.Exclude(rose, a, b)
		require.NoError(t, err)

		mode := 360 * rng.Float64()
		if mode > a && mode < b {
			mode = b
		}
		d, err := NewDirectionDomain(dist, mode)
		require.NoError(t, err)

		total := 1 + rng.Intn(10)
		offset := OffsetSpec{Index: rng.Intn(total), Total: total}
		n := 1 + rng.Intn(100)

		ps, err := DirectionPoints(n, offset, d, dist)
		require.NoError(t, err)
		require.Equal(t, n, ps.Len())

		assert.InDelta(t, 1.0, floats.Sum(ps.Weights), 1e-9, "%s n=%d", d, n)
		assert.Nil(t, ps.Anomaly, "%s n=%d", d, n)
		for _, v := range ps.Values {
			assert.False(t, d.inBand(v), "%s: point %v in band", d, v)
		}
	}
}

func TestDirectionPointsOffsetsShiftByFractionOfBin(t *testing.T) {
	dist := exampleDirection(t)
	n, total := 4, 10
	dx := exampleDomain.ModifiedRange() / float64(n)

	base, err := DirectionPoints(n, OffsetSpec{Index: 0, Total: total}, exampleDomain, dist)
	require.NoError(t, err)

	for k := 1; k < total; k++ {
		ps, err := DirectionPoints(n, OffsetSpec{Index: k, Total: total}, exampleDomain, dist)
		require.NoError(t, err)

		shifted := make([]float64, n)
		for i := range shifted {
			shifted[i] = exampleDomain.Lower + (float64(i)+0.5)*dx + float64(k)*dx/float64(total)
		}
		want := Remap(shifted, exampleDomain, exampleDomain.Mode)
		for i := range want {
			assert.InDelta(t, 0, circularDistance(exampleDomain, want[i], ps.Values[i]), 1e-9)
			assert.NotEqual(t, base.Values[i], ps.Values[i])
		}
		assert.InDelta(t, 1.0, floats.Sum(ps.Weights), 1e-9)
	}
}

func TestPointGeneratorErrors(t *testing.T) {
	dist := exampleDirection(t)

	tests := []struct {
		name   string
		n      int
		offset OffsetSpec
		domain DomainSpec
	}{
		{name: "zero samples", n: 0, offset: OffsetSpec{Total: 1}, domain: exampleDomain},
		{name: "offset out of range", n: 4, offset: OffsetSpec{Index: 3, Total: 3}, domain: exampleDomain},
		{name: "no offsets", n: 4, offset: OffsetSpec{}, domain: exampleDomain},
		{name: "mode in band", n: 4, offset: OffsetSpec{Total: 1},
			domain: DomainSpec{Lower: 0, Upper: 360, ZeroBandStart: 110, ZeroBandEnd: 140, Mode: 120}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DirectionPoints(tt.n, tt.offset, tt.domain, dist)
			assert.True(t, errors.Is(err, types.ErrConfiguration), "got %v", err)
		})
	}

	u, err := distribution.NewUniform(4, 20)
	require.NoError(t, err)
	_, err = SpeedPoints(0, DomainSpec{Lower: 4, Upper: 20}, u)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	_, err = SpeedPoints(3, DomainSpec{Lower: 4, Upper: 4}, u)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

func TestNewDirectionDomain(t *testing.T) {
	dist := exampleDirection(t)

	d, err := NewDirectionDomain(dist, 225)
	require.NoError(t, err)
	assert.Equal(t, 110.0, d.ZeroBandStart)
	assert.Equal(t, 140.0, d.ZeroBandEnd)
	assert.Equal(t, 330.0, d.ModifiedRange())

	u, err := distribution.NewUniform(0, 360)
	require.NoError(t, err)
	d, err = NewDirectionDomain(u, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, d.BandWidth())

	_, err = NewDirectionDomain(dist, 125)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

// leakyBand declares a zero band that still carries mass
type leakyBand struct {
	*distribution.Uniform
}

func (leakyBand) ZeroProbabilityRegion() (float64, float64) { return 100, 200 }

func TestNewDirectionDomainRejectsBandWithMass(t *testing.T) {
	u, err := distribution.NewUniform(0, 360)
	require.NoError(t, err)

	_, err = NewDirectionDomain(leakyBand{u}, 0)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
