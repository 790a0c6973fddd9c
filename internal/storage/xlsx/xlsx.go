// Package xlsx exports convergence records as an Excel workbook.
package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/windaep/internal/study"
)

const (
	SummarySheet = "convergence"
	PointsSheet  = "points"
)

var (
	summaryHeader = []interface{}{"sample_count", "samples", "mean_gwh", "std_gwh", "degraded", "anomaly"}
	pointsHeader  = []interface{}{"sample_count", "winddirection", "windspeed", "weight", "power_kw"}
)

// Store rewrites a workbook with a summary sheet and a points sheet on every
// save. The points sheet lists every iteration when the record is verbose
// and the latest one otherwise.
type Store struct {
	path string
}

// New returns a store writing the workbook to path
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("xlsx record path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating workbook directory: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) Name() string { return "xlsx" }

func (s *Store) Save(ctx context.Context, r *study.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the summary
	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(PointsSheet); err != nil {
		return err
	}

	its := r.Iterations()
	if err := setRow(f, SummarySheet, 1, summaryHeader); err != nil {
		return err
	}
	for i, it := range its {
		row := []interface{}{it.SampleCount, it.Samples, it.Mean, it.Std, it.Degraded, it.Anomaly}
		if err := setRow(f, SummarySheet, i+2, row); err != nil {
			return err
		}
	}

	points := its
	if !r.Metadata.Verbose && len(its) > 0 {
		points = its[len(its)-1:]
	}
	if err := setRow(f, PointsSheet, 1, pointsHeader); err != nil {
		return err
	}
	rowIdx := 2
	for _, it := range points {
		for j := range it.Weights {
			row := []interface{}{it.SampleCount, it.Directions[j], it.Speeds[j], it.Weights[j], it.Power[j]}
			if err := setRow(f, PointsSheet, rowIdx, row); err != nil {
				return err
			}
			rowIdx++
		}
	}

	tmp := s.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Close() error { return nil }

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
