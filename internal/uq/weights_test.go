package uq

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/windaep/internal/distribution"
)

func exampleDirection(t *testing.T) distribution.Distribution {
	t.Helper()
	u, err := distribution.NewUniform(0, 360)
	require.NoError(t, err)
	d, err := distribution.Exclude(u, 110, 140)
	require.NoError(t, err)
	return d
}

func TestIntegrateSumsToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	rose, err := distribution.NewWindRose([]float64{1, 4, 2, 0, 3, 7, 5, 1, 2, 6, 3, 1}, 0, 360)
	require.NoError(t, err)
	weibull, err := distribution.NewWeibull(2, 8, 0, 30)
	require.NoError(t, err)
	uniform, err := distribution.NewUniform(-5, 17)
	require.NoError(t, err)

	for _, dist := range []distribution.Distribution{rose, weibull, uniform} {
		lo, hi := dist.Range()
		for i := 0; i < 400; i++ {
			n := 1 + rng.Intn(200)
			dx := (hi - lo) / float64(n)
			shift := dx * rng.Float64()

			points := make([]float64, n)
			for j := range points {
				points[j] = lo + shift + (float64(j)+0.5)*dx
			}

			w := Integrate(points, dx, dist)
			assert.InDelta(t, 1.0, floats.Sum(w), 1e-9, "n=%d shift=%v", n, shift)
			for j, x := range w {
				assert.GreaterOrEqual(t, x, -1e-12, "weight %d", j)
			}
		}
	}
}

func TestIntegrateWrapsBins(t *testing.T) {
	u, err := distribution.NewUniform(0, 10)
	require.NoError(t, err)

	// A bin centered on the upper edge takes half its mass from each end
	w := Integrate([]float64{10, 0, 5}, 2, u)
	assert.InDelta(t, 0.2, w[0], 1e-12)
	assert.InDelta(t, 0.2, w[1], 1e-12)
	assert.InDelta(t, 0.2, w[2], 1e-12)
}

func TestPulledBackCDF(t *testing.T) {
	dist := exampleDirection(t)
	p := pullBack(dist, exampleDomain, exampleDomain.Mode)

	lo, hi := p.Range()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 330.0, hi)

	assert.Equal(t, 0.0, p.CDF(-1))
	assert.InDelta(t, 1.0, p.CDF(330), 1e-12)

	// The excluded band holds no mass, so the pulled back density is uniform
	for _, u := range []float64{10, 82.5, 165, 244, 246, 300} {
		assert.InDelta(t, u/330, p.CDF(u), 1e-12, "CDF(%v)", u)
	}
	assert.InDelta(t, 1.0/330, p.PDF(100), 1e-12)
	assert.Equal(t, 0.0, p.PDF(330))
}

func TestPulledBackFollowsWindRose(t *testing.T) {
	// Eight 45 degree sectors, all the wind from the north-east sector
	rose, err := distribution.NewWindRose([]float64{0, 1, 0, 0, 0, 0, 0, 0}, 0, 360)
	require.NoError(t, err)
	d := DomainSpec{Lower: 0, Upper: 360, ZeroBandStart: 0, ZeroBandEnd: 0, Mode: 0}

	p := pullBack(rose, d, 180)
	// Starting from 180, the sector [45, 90) is reached after 225 degrees
	assert.InDelta(t, 0.0, p.CDF(225), 1e-12)
	assert.InDelta(t, 0.5, p.CDF(247.5), 1e-12)
	assert.InDelta(t, 1.0, p.CDF(270), 1e-12)
}

func TestCheckWeights(t *testing.T) {
	tests := []struct {
		name     string
		weights  []float64
		anomaly  bool
		negative []int
	}{
		{name: "probability vector", weights: []float64{0.25, 0.25, 0.5}},
		{name: "within tolerance", weights: []float64{0.5, 0.5 + 1e-12}},
		{name: "short", weights: []float64{0.25, 0.25}, anomaly: true},
		{name: "negative", weights: []float64{1.5, -0.5}, anomaly: true, negative: []int{1}},
		{name: "empty", weights: nil, anomaly: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := CheckWeights(tt.weights, 1e-9)
			if !tt.anomaly {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, tt.negative, a.Negative)
			assert.NotEmpty(t, a.String())
		})
	}
}
