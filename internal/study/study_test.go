package study

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/windaep/internal/layout"
	"github.com/chrissnell/windaep/internal/types"
	"github.com/chrissnell/windaep/internal/uq"
)

// scriptedStrategy returns n equally weighted points at speed n, or the error
// scripted for n
type scriptedStrategy struct {
	errs     map[int]error
	negative bool
}

func (s *scriptedStrategy) Name() types.Method { return types.MethodRect }

func (s *scriptedStrategy) Samples(n int) (uq.Samples, error) {
	if err := s.errs[n]; err != nil {
		return uq.Samples{}, err
	}
	out := uq.Samples{
		Directions: make([]float64, n),
		Speeds:     make([]float64, n),
		Weights:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		out.Directions[i] = 225
		out.Speeds[i] = float64(i)
		out.Weights[i] = 1 / float64(n)
	}
	if s.negative {
		out.Weights[0] = -out.Weights[0]
	}
	out.Anomaly = uq.CheckWeights(out.Weights, 1e-9)
	return out, nil
}

// speedModel returns the speed as the farm power
type speedModel struct{}

func (speedModel) Name() string { return "speed" }

func (speedModel) Power(directions, speeds []float64, l *layout.Layout) ([]float64, error) {
	return append([]float64(nil), speeds...), nil
}

type recordingPersister struct {
	lengths []int
	ctxErrs []error
	err     error
}

func (p *recordingPersister) Persist(ctx context.Context, r *Record) error {
	p.lengths = append(p.lengths, r.Len())
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return p.err
}

// cancellingModel cancels the study context while evaluating sample count n
type cancellingModel struct {
	speedModel
	n      int
	cancel context.CancelFunc
}

func (m cancellingModel) Power(directions, speeds []float64, l *layout.Layout) ([]float64, error) {
	if len(speeds) == m.n {
		m.cancel()
	}
	return m.speedModel.Power(directions, speeds, l)
}

func newTestStudy(t *testing.T, strategy uq.Strategy, counts []int, policy types.ProviderErrorPolicy, p Persister) *Study {
	t.Helper()
	l, err := layout.Load(types.LayoutTest, "")
	require.NoError(t, err)

	s, err := New(Config{
		Strategy:        strategy,
		Model:           speedModel{},
		Layout:          l,
		SampleCounts:    counts,
		OnProviderError: policy,
		Metadata:        Metadata{Method: types.MethodRect, Variable: types.VariableSpeed, Layout: types.LayoutTest},
		Persister:       p,
	})
	require.NoError(t, err)
	return s
}

func TestRunRecordsEveryIteration(t *testing.T) {
	p := &recordingPersister{}
	s := newTestStudy(t, &scriptedStrategy{}, []int{1, 2, 4}, types.PolicyAbort, p)

	r, err := s.Run(context.Background())
	require.NoError(t, err)

	its := r.Iterations()
	require.Len(t, its, 3)
	assert.Equal(t, []int{1, 2, 3}, p.lengths)

	// Speeds 0..n-1 equally weighted: mean (n-1)/2 kW
	for i, n := range []int{1, 2, 4} {
		assert.Equal(t, n, its[i].SampleCount)
		assert.Equal(t, n, its[i].Samples)
		assert.InDelta(t, ToGWh(float64(n-1)/2), its[i].Mean, 1e-12)
		assert.False(t, its[i].Degraded)
	}
	// Variance of 0, 1, 2, 3 is 1.25
	assert.InDelta(t, ToGWh(1.118033988749895), its[2].Std, 1e-12)
}

func TestRunProviderErrorPolicy(t *testing.T) {
	failing := &scriptedStrategy{errs: map[int]error{2: types.ProviderErrorf("solver crashed")}}

	t.Run("skip", func(t *testing.T) {
		s := newTestStudy(t, failing, []int{1, 2, 3}, types.PolicySkip, nil)
		r, err := s.Run(context.Background())
		require.NoError(t, err)

		its := r.Iterations()
		require.Len(t, its, 2)
		assert.Equal(t, 1, its[0].SampleCount)
		assert.Equal(t, 3, its[1].SampleCount)
	})

	t.Run("abort", func(t *testing.T) {
		s := newTestStudy(t, failing, []int{1, 2, 3}, types.PolicyAbort, nil)
		r, err := s.Run(context.Background())
		assert.ErrorIs(t, err, types.ErrProviderCommunication)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("configuration errors are never skipped", func(t *testing.T) {
		bad := &scriptedStrategy{errs: map[int]error{2: types.ConfigErrorf("bad domain")}}
		s := newTestStudy(t, bad, []int{1, 2, 3}, types.PolicySkip, nil)
		r, err := s.Run(context.Background())
		assert.ErrorIs(t, err, types.ErrConfiguration)
		assert.Equal(t, 1, r.Len())
	})
}

func TestRunMarksDegradedIterations(t *testing.T) {
	s := newTestStudy(t, &scriptedStrategy{negative: true}, []int{2}, types.PolicyAbort, nil)
	r, err := s.Run(context.Background())
	require.NoError(t, err)

	its := r.Iterations()
	require.Len(t, its, 1)
	assert.True(t, its[0].Degraded)
	assert.NotEmpty(t, its[0].Anomaly)
}

func TestRunStopsWhenPersistFails(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	s := newTestStudy(t, &scriptedStrategy{}, []int{1, 2}, types.PolicyAbort, p)

	r, err := s.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestStudy(t, &scriptedStrategy{}, []int{1, 2}, types.PolicyAbort, nil)
	r, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, r.Len())
}

func TestRunPersistsIterationFinishedAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &recordingPersister{}
	s := newTestStudy(t, &scriptedStrategy{}, []int{2, 4, 8}, types.PolicyAbort, p)
	s.cfg.Model = cancellingModel{n: 4, cancel: cancel}

	r, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []int{1, 2}, p.lengths)
	assert.Equal(t, []error{nil, nil}, p.ctxErrs)
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	l, err := layout.Load(types.LayoutTest, "")
	require.NoError(t, err)

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no strategy", cfg: Config{Model: speedModel{}, Layout: l, SampleCounts: []int{1}}},
		{name: "no model", cfg: Config{Strategy: &scriptedStrategy{}, Layout: l, SampleCounts: []int{1}}},
		{name: "no layout", cfg: Config{Strategy: &scriptedStrategy{}, Model: speedModel{}, SampleCounts: []int{1}}},
		{name: "no sample counts", cfg: Config{Strategy: &scriptedStrategy{}, Model: speedModel{}, Layout: l}},
		{name: "unknown policy", cfg: Config{Strategy: &scriptedStrategy{}, Model: speedModel{}, Layout: l,
			SampleCounts: []int{1}, OnProviderError: "retry"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, types.ErrConfiguration)
		})
	}
}

func TestWeightedMoments(t *testing.T) {
	mean, std := WeightedMoments([]float64{0.25, 0.75}, []float64{4, 8})
	assert.InDelta(t, 7, mean, 1e-12)
	assert.InDelta(t, 1.7320508075688772, std, 1e-12)
}

func TestToGWh(t *testing.T) {
	// 1 MW for a year is 8.76 GWh
	assert.InDelta(t, 8.76, ToGWh(1000), 1e-12)
}

func TestRecordAppendRequiresIncreasingSampleCounts(t *testing.T) {
	r := NewRecord(Metadata{})
	require.NoError(t, r.Append(Iteration{SampleCount: 2}))
	assert.Error(t, r.Append(Iteration{SampleCount: 2}))
	assert.Error(t, r.Append(Iteration{SampleCount: 1}))
	require.NoError(t, r.Append(Iteration{SampleCount: 5}))
	assert.Equal(t, 2, r.Len())
}

func TestRecordIterationsIsSnapshot(t *testing.T) {
	r := NewRecord(Metadata{})
	require.NoError(t, r.Append(Iteration{SampleCount: 1, Mean: 1}))

	snap := r.Iterations()
	snap[0].Mean = 99
	require.NoError(t, r.Append(Iteration{SampleCount: 2, Mean: 2}))

	assert.Len(t, snap, 1)
	assert.Equal(t, 1.0, r.Iterations()[0].Mean)
	assert.Equal(t, 2, r.Len())
}

func TestRecordDocument(t *testing.T) {
	build := func(verbose bool) map[string]interface{} {
		r := NewRecord(Metadata{
			Method: types.MethodQuadrature, Variable: types.VariableDirection, Layout: types.LayoutGrid,
			WakeModel: types.WakeModelCurve, NOffset: 10, Offset: 3, Verbose: verbose,
		})
		require.NoError(t, r.Append(Iteration{SampleCount: 1, Samples: 1, Mean: 1.5,
			Directions: []float64{225}, Speeds: []float64{8}, Power: []float64{100}, Weights: []float64{1}}))
		require.NoError(t, r.Append(Iteration{SampleCount: 2, Samples: 2, Mean: 2.5, Degraded: true,
			Directions: []float64{0, 180}, Speeds: []float64{8, 8}, Power: []float64{1, 2}, Weights: []float64{0.5, 0.5}}))

		raw, err := json.Marshal(r)
		require.NoError(t, err)
		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &doc))
		return doc
	}

	doc := build(false)
	assert.Equal(t, []interface{}{1.5, 2.5}, doc["mean"])
	assert.Equal(t, []interface{}{1.0, 2.0}, doc["samples"])
	assert.Equal(t, []interface{}{false, true}, doc["degraded"])
	assert.Equal(t, []interface{}{0.0, 180.0}, doc["winddirections"])
	assert.Equal(t, "quadrature", doc["method"])
	assert.Equal(t, "direction", doc["uncertain_variable"])
	assert.Equal(t, "grid", doc["layout"])
	assert.Equal(t, "curve", doc["wake_model"])
	assert.Equal(t, 10.0, doc["Noffset"])
	assert.Equal(t, 3.0, doc["offset"])
	assert.NotEmpty(t, doc["run_id"])

	verbose := build(true)
	assert.Equal(t, []interface{}{
		[]interface{}{225.0},
		[]interface{}{0.0, 180.0},
	}, verbose["winddirections"])
	assert.Len(t, verbose["power"], 2)
}

func TestRecordDocumentEmpty(t *testing.T) {
	doc := NewRecord(Metadata{}).Document()
	assert.Empty(t, doc.Mean)
	assert.Equal(t, []float64{}, doc.Directions)
}
