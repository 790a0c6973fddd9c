// Package timescaledb stores convergence records in a TimescaleDB (or plain
// Postgres) database.
package timescaledb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chrissnell/windaep/internal/database"
	"github.com/chrissnell/windaep/internal/study"
)

// Storage holds the connection to a TimescaleDB storage backend
type Storage struct {
	client *database.Client
	logger *zap.SugaredLogger
}

// New connects to the database at dsn and prepares the record tables
func New(ctx context.Context, dsn string, logger *zap.SugaredLogger) (*Storage, error) {
	if dsn == "" {
		return nil, fmt.Errorf("timescaledb connection string is empty")
	}

	t := &Storage{
		client: database.NewClient(dsn, logger),
		logger: logger,
	}
	if err := t.client.Connect(ctx); err != nil {
		return nil, err
	}

	// The extension is optional; plain Postgres works without it
	logger.Info("creating TimescaleDB extension...")
	if err := t.client.DB.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		logger.Warnw("could not create TimescaleDB extension, continuing with plain Postgres", "error", err)
	}

	logger.Info("creating convergence summary view...")
	if err := t.client.DB.WithContext(ctx).Exec(createSummaryViewSQL).Error; err != nil {
		return nil, fmt.Errorf("creating summary view: %w", err)
	}
	return t, nil
}

func (t *Storage) Name() string { return "timescaledb" }

// Save upserts the run and all of its iterations in one transaction
func (t *Storage) Save(ctx context.Context, r *study.Record) error {
	run, iterations := Rows(r)

	return t.client.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&run).Error
		if err != nil {
			return fmt.Errorf("storing run %s: %w", run.RunID, err)
		}

		if len(iterations) == 0 {
			return nil
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "sample_count"}},
			UpdateAll: true,
		}).Create(&iterations).Error
		if err != nil {
			return fmt.Errorf("storing iterations of run %s: %w", run.RunID, err)
		}
		return nil
	})
}

func (t *Storage) Close() error {
	return t.client.Close()
}

// Rows converts a record into its table rows
func Rows(r *study.Record) (database.ConvergenceRun, []database.ConvergenceIteration) {
	m := r.Metadata
	run := database.ConvergenceRun{
		RunID:     r.RunID.String(),
		Method:    string(m.Method),
		Variable:  string(m.Variable),
		Layout:    string(m.Layout),
		WakeModel: m.WakeModel,
		NOffset:   m.NOffset,
		Offset:    m.Offset,
		Verbose:   m.Verbose,
		StartedAt: r.StartedAt,
		UpdatedAt: time.Now().UTC(),
	}

	its := r.Iterations()
	rows := make([]database.ConvergenceIteration, len(its))
	for i, it := range its {
		rows[i] = database.ConvergenceIteration{
			RunID:       run.RunID,
			SampleCount: it.SampleCount,
			Samples:     it.Samples,
			MeanGWh:     it.Mean,
			StdGWh:      it.Std,
			Degraded:    it.Degraded,
			Anomaly:     it.Anomaly,
			ElapsedMS:   it.Elapsed.Milliseconds(),
		}
		// Point arrays are kept for the latest iteration unless the run is verbose
		if m.Verbose || i == len(its)-1 {
			rows[i].Directions = it.Directions
			rows[i].Speeds = it.Speeds
			rows[i].Weights = it.Weights
			rows[i].Power = it.Power
		}
	}
	return run, rows
}
