// Package quadrature provides quadrature rules for histogram densities on
// [-1, 1]: an in-process Gauss rule and a client for an external solver
// process.
package quadrature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/chrissnell/windaep/internal/uq"
)

var _ uq.QuadratureProvider = (*GaussProvider)(nil)

// DefaultSubdivisions is the number of atoms each histogram bin is split into
// when the density is discretized
const DefaultSubdivisions = 16

// GaussProvider builds n-point Gauss rules for a histogram density. The
// density is discretized into atoms, its three-term recurrence is computed by
// the Stieltjes procedure and the rule is read off the Jacobi matrix
// (Golub-Welsch).
type GaussProvider struct {
	Subdivisions int
}

// NewGaussProvider returns a GaussProvider with the default discretization
func NewGaussProvider() *GaussProvider {
	return &GaussProvider{Subdivisions: DefaultSubdivisions}
}

// Quadrature implements uq.QuadratureProvider
func (g *GaussProvider) Quadrature(n int, abscissas, pdfWeights []float64) ([]float64, []float64, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("rule size must be at least 1, got %d", n)
	}
	atoms, mass, err := g.discretize(abscissas, pdfWeights)
	if err != nil {
		return nil, nil, err
	}

	support := 0
	for _, m := range mass {
		if m > 0 {
			support++
		}
	}
	if n > support {
		return nil, nil, fmt.Errorf("cannot build a %d-point rule from a density with %d atoms", n, support)
	}

	alpha, beta, err := stieltjes(atoms, mass, n)
	if err != nil {
		return nil, nil, err
	}
	return golubWelsch(alpha, beta)
}

func (g *GaussProvider) discretize(abscissas, pdfWeights []float64) ([]float64, []float64, error) {
	if len(abscissas) < 2 {
		return nil, nil, fmt.Errorf("histogram needs at least two bin edges, got %d", len(abscissas))
	}
	if len(pdfWeights) != len(abscissas) {
		return nil, nil, fmt.Errorf("histogram has %d edges but %d densities", len(abscissas), len(pdfWeights))
	}

	sub := g.Subdivisions
	if sub < 1 {
		sub = DefaultSubdivisions
	}

	bins := len(abscissas) - 1
	atoms := make([]float64, 0, bins*sub)
	mass := make([]float64, 0, bins*sub)
	for i := 0; i < bins; i++ {
		lo, hi := abscissas[i], abscissas[i+1]
		if !(hi > lo) {
			return nil, nil, fmt.Errorf("bin edges must increase, got %v then %v", lo, hi)
		}
		density := pdfWeights[i]
		if density < 0 || math.IsNaN(density) || math.IsInf(density, 0) {
			return nil, nil, fmt.Errorf("density of bin %d is invalid: %v", i, density)
		}
		h := (hi - lo) / float64(sub)
		for k := 0; k < sub; k++ {
			atoms = append(atoms, lo+(float64(k)+0.5)*h)
			mass = append(mass, density*h)
		}
	}

	total := floats.Sum(mass)
	if !(total > 0) {
		return nil, nil, fmt.Errorf("histogram has no probability mass")
	}
	floats.Scale(1/total, mass)
	return atoms, mass, nil
}

// stieltjes returns the recurrence coefficients alpha[0..n-1], beta[0..n-1]
// of the monic orthogonal polynomials of the discrete measure (t, w)
func stieltjes(t, w []float64, n int) ([]float64, []float64, error) {
	m := len(t)
	alpha := make([]float64, n)
	beta := make([]float64, n)

	p := make([]float64, m)
	prev := make([]float64, m)
	next := make([]float64, m)
	for j := range p {
		p[j] = 1
	}

	normPrev := 1.0
	for k := 0; k < n; k++ {
		var norm, moment float64
		for j := 0; j < m; j++ {
			pp := w[j] * p[j] * p[j]
			norm += pp
			moment += pp * t[j]
		}
		if !(norm > 0) || math.IsInf(norm, 0) {
			return nil, nil, fmt.Errorf("recurrence broke down at degree %d", k)
		}

		alpha[k] = moment / norm
		if k == 0 {
			beta[k] = norm
		} else {
			beta[k] = norm / normPrev
		}
		if k > 0 && beta[k] < 1e-14*beta[k-1] {
			return nil, nil, fmt.Errorf("density does not support a %d-point rule", n)
		}

		// prev is zero on the first pass
		for j := 0; j < m; j++ {
			next[j] = (t[j]-alpha[k])*p[j] - beta[k]*prev[j]
		}
		prev, p, next = p, next, prev
		normPrev = norm
	}
	return alpha, beta, nil
}

// golubWelsch diagonalizes the Jacobi matrix: the eigenvalues are the nodes
// and the squared first eigenvector components times beta[0] the weights
func golubWelsch(alpha, beta []float64) ([]float64, []float64, error) {
	n := len(alpha)
	jacobi := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		jacobi.SetSym(i, i, alpha[i])
		if i+1 < n {
			jacobi.SetSym(i, i+1, math.Sqrt(beta[i+1]))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(jacobi, true); !ok {
		return nil, nil, fmt.Errorf("eigen decomposition of the Jacobi matrix failed")
	}

	nodes := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)

	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		v := vectors.At(0, i)
		weights[i] = beta[0] * v * v
	}
	return nodes, weights, nil
}
