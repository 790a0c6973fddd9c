package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SaveConfig replaces the 'default' study with cfg. The schema is created
// if it does not exist yet.
func (s *SQLiteProvider) SaveConfig(cfg *ConfigData) error {
	if err := s.InitSchema(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteStudy(tx); err != nil {
		return err
	}

	st := cfg.Study
	var command interface{}
	if len(cfg.Quadrature.Command) > 0 {
		raw, err := json.Marshal(cfg.Quadrature.Command)
		if err != nil {
			return err
		}
		command = string(raw)
	}

	res, err := tx.Exec(`
		INSERT INTO studies (name, method, uncertain_variable, layout, layout_dir, wake_model,
		                     offset_index, noffset, windspeed_ref, winddirection_ref, verbose,
		                     on_provider_error, quadrature_provider, quadrature_command)
		VALUES ('default', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Method, st.UncertainVariable, st.Layout, nullString(st.LayoutDir), nullString(st.WakeModel),
		st.Offset, st.NOffset, nullFloat(st.WindSpeedRef), nullFloat(st.WindDirectionRef), st.Verbose,
		nullString(st.OnProviderError), nullString(cfg.Quadrature.Provider), command,
	)
	if err != nil {
		return fmt.Errorf("failed to insert study: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, n := range st.SampleCounts {
		if _, err := tx.Exec(`INSERT INTO study_sample_counts (study_id, position, n) VALUES (?, ?, ?)`, id, i, n); err != nil {
			return fmt.Errorf("failed to insert sample count: %w", err)
		}
	}

	dir := cfg.Distribution.Direction
	var bandStart, bandEnd interface{}
	if len(dir.ZeroBand) == 2 {
		bandStart, bandEnd = dir.ZeroBand[0], dir.ZeroBand[1]
	}
	if dir.Type != "" {
		if _, err := tx.Exec(`
			INSERT INTO direction_distributions (study_id, type, lower, upper, zero_band_start, zero_band_end, mode)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, dir.Type, dir.Lower, dir.Upper, bandStart, bandEnd, nullFloat(dir.Mode),
		); err != nil {
			return fmt.Errorf("failed to insert direction distribution: %w", err)
		}
	}
	if err := insertSectors(tx, "direction_frequencies", "frequency", id, dir.Frequencies); err != nil {
		return err
	}

	sp := cfg.Distribution.Speed
	if sp.Type != "" {
		if _, err := tx.Exec(`
			INSERT INTO speed_distributions (study_id, type, shape, scale, min, max)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, sp.Type, sp.Shape, sp.Scale, sp.Min, sp.Max,
		); err != nil {
			return fmt.Errorf("failed to insert speed distribution: %w", err)
		}
	}

	pm := cfg.PowerModel
	if _, err := tx.Exec(`
		INSERT INTO power_models (study_id, rated_power_kw, cut_in_speed, rated_speed, cut_out_speed)
		VALUES (?, ?, ?, ?, ?)`,
		id, pm.RatedPowerKW, pm.CutInSpeed, pm.RatedSpeed, pm.CutOutSpeed,
	); err != nil {
		return fmt.Errorf("failed to insert power model: %w", err)
	}
	if err := insertSectors(tx, "sector_efficiencies", "efficiency", id, pm.SectorEfficiency); err != nil {
		return err
	}

	var backends []storageBackend
	if cfg.Storage.JSONFile != nil {
		backends = append(backends, storageBackend{kind: "json", path: cfg.Storage.JSONFile.Path})
	}
	if cfg.Storage.XLSX != nil {
		backends = append(backends, storageBackend{kind: "xlsx", path: cfg.Storage.XLSX.Path})
	}
	if cfg.Storage.TimescaleDB != nil {
		backends = append(backends, storageBackend{kind: "timescaledb", dsn: cfg.Storage.TimescaleDB.ConnectionString})
	}
	for _, b := range backends {
		if _, err := tx.Exec(`
			INSERT INTO storage_backends (study_id, backend_type, path, connection_string, enabled)
			VALUES (?, ?, ?, ?, 1)`,
			id, b.kind, nullString(b.path), nullString(b.dsn),
		); err != nil {
			return fmt.Errorf("failed to insert %s storage backend: %w", b.kind, err)
		}
	}

	return tx.Commit()
}

type storageBackend struct {
	kind, path, dsn string
}

func deleteStudy(tx *sql.Tx) error {
	for _, table := range []string{
		"study_sample_counts", "direction_distributions", "direction_frequencies",
		"speed_distributions", "power_models", "sector_efficiencies", "storage_backends",
	} {
		if _, err := tx.Exec(`DELETE FROM ` + table + ` WHERE study_id = ` + defaultStudy); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(`DELETE FROM studies WHERE name = 'default'`); err != nil {
		return fmt.Errorf("failed to clear study: %w", err)
	}
	return nil
}

func insertSectors(tx *sql.Tx, table, column string, id int64, values []float64) error {
	for i, v := range values {
		_, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s (study_id, sector, %s) VALUES (?, ?, ?)`, table, column), id, i, v)
		if err != nil {
			return fmt.Errorf("failed to insert %s row: %w", table, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
