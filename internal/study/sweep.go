package study

import (
	"context"
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/chrissnell/windaep/internal/uq"
)

// SweepRow summarizes the mean AEP reported by every offset at one sample
// count. A large spread means the result depends on where the grid starts.
type SweepRow struct {
	SampleCount int     `json:"sample_count"`
	Offsets     int     `json:"offsets"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// Builder returns the study for one offset of a sweep
type Builder func(offset uq.OffsetSpec) (*Study, error)

// SweepOffsets runs one study per offset index 0..total-1 and summarizes the
// means per sample count. Sample counts skipped by some offsets are
// summarized over the offsets that completed them.
func SweepOffsets(ctx context.Context, total int, build Builder) ([]SweepRow, []*Record, error) {
	if err := (uq.OffsetSpec{Index: 0, Total: total}).Validate(); err != nil {
		return nil, nil, err
	}

	records := make([]*Record, 0, total)
	for i := 0; i < total; i++ {
		s, err := build(uq.OffsetSpec{Index: i, Total: total})
		if err != nil {
			return nil, records, fmt.Errorf("building study for offset %d: %w", i, err)
		}
		r, err := s.Run(ctx)
		if r != nil {
			records = append(records, r)
		}
		if err != nil {
			return nil, records, fmt.Errorf("offset %d: %w", i, err)
		}
	}

	rows, err := Summarize(records)
	return rows, records, err
}

// Summarize groups the iteration means of records by sample count
func Summarize(records []*Record) ([]SweepRow, error) {
	means := map[int]stats.Float64Data{}
	for _, r := range records {
		for _, it := range r.Iterations() {
			means[it.SampleCount] = append(means[it.SampleCount], it.Mean)
		}
	}

	counts := make([]int, 0, len(means))
	for n := range means {
		counts = append(counts, n)
	}
	sort.Ints(counts)

	rows := make([]SweepRow, 0, len(counts))
	for _, n := range counts {
		data := means[n]
		row := SweepRow{SampleCount: n, Offsets: data.Len()}

		var err error
		if row.Mean, err = stats.Mean(data); err != nil {
			return nil, fmt.Errorf("sample count %d: %w", n, err)
		}
		if row.Std, err = stats.StandardDeviationPopulation(data); err != nil {
			return nil, fmt.Errorf("sample count %d: %w", n, err)
		}
		if row.Min, err = stats.Min(data); err != nil {
			return nil, fmt.Errorf("sample count %d: %w", n, err)
		}
		if row.Max, err = stats.Max(data); err != nil {
			return nil, fmt.Errorf("sample count %d: %w", n, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
