package quadrature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// histogram returns bins+1 edges on [-1, 1] with density f sampled at the bin
// midpoints. The last density entry is zero.
func histogram(bins int, f func(float64) float64) ([]float64, []float64) {
	edges := make([]float64, bins+1)
	floats.Span(edges, -1, 1)
	density := make([]float64, bins+1)
	for i := 0; i < bins; i++ {
		density[i] = f((edges[i] + edges[i+1]) / 2)
	}
	return edges, density
}

func TestGaussProviderUniform(t *testing.T) {
	abscissas, density := histogram(50, func(float64) float64 { return 0.5 })
	g := NewGaussProvider()

	tests := []struct {
		name  string
		n     int
		nodes []float64
	}{
		{name: "one point", n: 1, nodes: []float64{0}},
		{name: "two points", n: 2, nodes: []float64{-1 / math.Sqrt(3), 1 / math.Sqrt(3)}},
		{name: "three points", n: 3, nodes: []float64{-math.Sqrt(0.6), 0, math.Sqrt(0.6)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, weights, err := g.Quadrature(tt.n, abscissas, density)
			require.NoError(t, err)
			require.Len(t, nodes, tt.n)
			require.Len(t, weights, tt.n)

			assert.InDelta(t, 1.0, floats.Sum(weights), 1e-12)
			for i := range tt.nodes {
				assert.InDelta(t, tt.nodes[i], nodes[i], 1e-4, "node %d", i)
			}
		})
	}
}

func TestGaussProviderIntegratesPolynomials(t *testing.T) {
	// Triangular density 1 - |t| on [-1, 1]
	abscissas, density := histogram(50, func(x float64) float64 { return 1 - math.Abs(x) })
	g := NewGaussProvider()

	atoms, mass, err := g.discretize(abscissas, density)
	require.NoError(t, err)

	nodes, weights, err := g.Quadrature(4, abscissas, density)
	require.NoError(t, err)

	// A 4-point Gauss rule reproduces the moments of its measure up to degree 7
	for degree := 0; degree <= 7; degree++ {
		var want, got float64
		for i, x := range atoms {
			want += mass[i] * math.Pow(x, float64(degree))
		}
		for i, x := range nodes {
			got += weights[i] * math.Pow(x, float64(degree))
		}
		assert.InDelta(t, want, got, 1e-10, "moment %d", degree)
	}

	for _, x := range nodes {
		assert.True(t, x > -1 && x < 1, "node %v outside (-1, 1)", x)
	}
	for _, w := range weights {
		assert.Greater(t, w, 0.0)
	}
}

func TestGaussProviderErrors(t *testing.T) {
	abscissas, density := histogram(4, func(float64) float64 { return 0.5 })

	tests := []struct {
		name      string
		n         int
		abscissas []float64
		density   []float64
		sub       int
	}{
		{name: "zero points", n: 0, abscissas: abscissas, density: density, sub: 1},
		{name: "length mismatch", n: 1, abscissas: abscissas, density: density[:2], sub: 1},
		{name: "single edge", n: 1, abscissas: abscissas[:1], density: density[:1], sub: 1},
		{name: "no mass", n: 1, abscissas: abscissas, density: make([]float64, len(abscissas)), sub: 1},
		{name: "negative density", n: 1, abscissas: abscissas, density: []float64{0.5, -0.1, 0.5, 0.5, 0}, sub: 1},
		{name: "more points than atoms", n: 5, abscissas: abscissas, density: density, sub: 1},
		{name: "decreasing edges", n: 1, abscissas: []float64{-1, 0.5, 0, 1}, density: []float64{1, 1, 1, 0}, sub: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GaussProvider{Subdivisions: tt.sub}
			_, _, err := g.Quadrature(tt.n, tt.abscissas, tt.density)
			assert.Error(t, err)
		})
	}
}
