package timescaledb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/windaep/internal/study"
	"github.com/chrissnell/windaep/internal/types"
)

func TestRows(t *testing.T) {
	tests := []struct {
		name       string
		verbose    bool
		withPoints []bool
	}{
		{name: "latest iteration only", verbose: false, withPoints: []bool{false, true}},
		{name: "verbose", verbose: true, withPoints: []bool{true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := study.NewRecord(study.Metadata{
				Method: types.MethodQuadrature, Variable: types.VariableSpeed, Layout: types.LayoutTest,
				WakeModel: types.WakeModelCurve, NOffset: 10, Offset: 2, Verbose: tt.verbose,
			})
			require.NoError(t, r.Append(study.Iteration{SampleCount: 1, Samples: 1, Mean: 1, Elapsed: 1500 * time.Millisecond,
				Directions: []float64{225}, Speeds: []float64{8}, Power: []float64{10}, Weights: []float64{1}}))
			require.NoError(t, r.Append(study.Iteration{SampleCount: 3, Samples: 3, Mean: 2, Degraded: true,
				Directions: []float64{225, 225, 225}, Speeds: []float64{4, 8, 12}, Power: []float64{1, 2, 3},
				Weights: []float64{0.2, 0.6, 0.2}}))

			run, rows := Rows(r)
			assert.Equal(t, r.RunID.String(), run.RunID)
			assert.Equal(t, "quadrature", run.Method)
			assert.Equal(t, "speed", run.Variable)
			assert.Equal(t, 2, run.Offset)

			require.Len(t, rows, 2)
			assert.Equal(t, int64(1500), rows[0].ElapsedMS)
			assert.Equal(t, 3, rows[1].SampleCount)
			assert.True(t, rows[1].Degraded)
			for i, want := range tt.withPoints {
				assert.Equal(t, want, rows[i].Speeds != nil, "row %d", i)
				assert.Equal(t, run.RunID, rows[i].RunID)
			}
		})
	}
}
