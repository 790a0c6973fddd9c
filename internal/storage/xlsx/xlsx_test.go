package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/windaep/internal/study"
)

func record(t *testing.T, verbose bool) *study.Record {
	t.Helper()
	r := study.NewRecord(study.Metadata{Verbose: verbose})
	require.NoError(t, r.Append(study.Iteration{SampleCount: 1, Samples: 1, Mean: 3.5,
		Directions: []float64{225}, Speeds: []float64{8}, Power: []float64{400}, Weights: []float64{1}}))
	require.NoError(t, r.Append(study.Iteration{SampleCount: 2, Samples: 2, Mean: 3.75, Degraded: true, Anomaly: "weights sum to 0.9",
		Directions: []float64{0, 180}, Speeds: []float64{8, 8}, Power: []float64{1, 2}, Weights: []float64{0.5, 0.4}}))
	return r
}

func TestSaveWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.xlsx")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), record(t, false)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "sample_count", summary[0][0])
	assert.Equal(t, []string{"2", "2", "3.75"}, summary[2][:3])
	assert.Equal(t, "TRUE", summary[2][4])

	points, err := f.GetRows(PointsSheet)
	require.NoError(t, err)
	// Header plus the two points of the latest iteration
	require.Len(t, points, 3)
	assert.Equal(t, []string{"2", "180", "8", "0.4", "2"}, points[2])
}

func TestSaveVerboseKeepsEveryIteration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.xlsx")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), record(t, true)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	points, err := f.GetRows(PointsSheet)
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, "225", points[1][1])
}
