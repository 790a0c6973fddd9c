package quadrature

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/windaep/internal/types"
)

type fixedRule struct {
	nodes, weights []float64
	err            error
	gotN           int
}

func (f *fixedRule) Quadrature(n int, abscissas, pdfWeights []float64) ([]float64, []float64, error) {
	f.gotN = n
	return f.nodes, f.weights, f.err
}

func TestServeRoundTrip(t *testing.T) {
	req, err := encode(&Request{SampleCount: 2, Abscissas: []float64{-1, 0, 1}, PDFWeights: []float64{0.5, 0.5, 0}})
	require.NoError(t, err)

	rule := &fixedRule{nodes: []float64{-0.5, 0.5}, weights: []float64{0.5, 0.5}}
	var out bytes.Buffer
	require.NoError(t, Serve(bytes.NewReader(req), &out, rule))
	assert.Equal(t, 2, rule.gotN)

	var resp Response
	require.NoError(t, decode(out.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, []float64{-0.5, 0.5}, resp.Nodes)
	assert.Equal(t, []float64{0.5, 0.5}, resp.Weights)
}

func TestServeReportsSolverError(t *testing.T) {
	req, err := encode(&Request{SampleCount: 40, Abscissas: []float64{-1, 1}, PDFWeights: []float64{0.5, 0}})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Serve(bytes.NewReader(req), &out, NewGaussProvider()))

	var resp Response
	require.NoError(t, decode(out.Bytes(), &resp))
	assert.NotEmpty(t, resp.Error)
	assert.Empty(t, resp.Nodes)
}

func requireTool(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

func TestCommandProvider(t *testing.T) {
	cat := requireTool(t, "cat")
	dir := t.TempDir()

	good, err := encode(&Response{Nodes: []float64{0}, Weights: []float64{1}})
	require.NoError(t, err)
	goodPath := filepath.Join(dir, "good.msgpack")
	require.NoError(t, os.WriteFile(goodPath, good, 0o644))

	failed, err := encode(&Response{Error: "no convergence"})
	require.NoError(t, err)
	failedPath := filepath.Join(dir, "failed.msgpack")
	require.NoError(t, os.WriteFile(failedPath, failed, 0o644))

	garbagePath := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbagePath, []byte{0xc1}, 0o644))

	t.Run("response is returned", func(t *testing.T) {
		p, err := NewCommandProvider([]string{cat, goodPath})
		require.NoError(t, err)
		nodes, weights, err := p.Quadrature(1, []float64{-1, 1}, []float64{0.5, 0})
		require.NoError(t, err)
		assert.Equal(t, []float64{0}, nodes)
		assert.Equal(t, []float64{1}, weights)
	})

	failures := []struct {
		name string
		argv []string
	}{
		{name: "solver error", argv: []string{cat, failedPath}},
		{name: "malformed response", argv: []string{cat, garbagePath}},
		{name: "process fails", argv: []string{cat, filepath.Join(dir, "missing")}},
		{name: "binary missing", argv: []string{filepath.Join(dir, "no-such-solver")}},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewCommandProvider(tt.argv)
			require.NoError(t, err)
			_, _, err = p.Quadrature(1, []float64{-1, 1}, []float64{0.5, 0})
			assert.ErrorIs(t, err, types.ErrProviderCommunication)
		})
	}
}

func TestNewCommandProviderEmpty(t *testing.T) {
	_, err := NewCommandProvider(nil)
	assert.ErrorIs(t, err, types.ErrConfiguration)

	_, err = NewCommandProvider([]string{""})
	assert.ErrorIs(t, err, types.ErrConfiguration)
}
