package config

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Schema creates the tables read by SQLiteProvider. Every section hangs off
// the study row named 'default'.
const Schema = `
CREATE TABLE IF NOT EXISTS studies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	method TEXT NOT NULL,
	uncertain_variable TEXT NOT NULL,
	layout TEXT NOT NULL,
	layout_dir TEXT,
	wake_model TEXT,
	offset_index INTEGER NOT NULL DEFAULT 0,
	noffset INTEGER NOT NULL DEFAULT 1,
	windspeed_ref REAL,
	winddirection_ref REAL,
	verbose INTEGER NOT NULL DEFAULT 0,
	on_provider_error TEXT,
	quadrature_provider TEXT,
	quadrature_command TEXT
);
CREATE TABLE IF NOT EXISTS study_sample_counts (
	study_id INTEGER NOT NULL REFERENCES studies(id),
	position INTEGER NOT NULL,
	n INTEGER NOT NULL,
	PRIMARY KEY (study_id, position)
);
CREATE TABLE IF NOT EXISTS direction_distributions (
	study_id INTEGER PRIMARY KEY REFERENCES studies(id),
	type TEXT NOT NULL,
	lower REAL NOT NULL DEFAULT 0,
	upper REAL NOT NULL DEFAULT 360,
	zero_band_start REAL,
	zero_band_end REAL,
	mode REAL
);
CREATE TABLE IF NOT EXISTS direction_frequencies (
	study_id INTEGER NOT NULL REFERENCES studies(id),
	sector INTEGER NOT NULL,
	frequency REAL NOT NULL,
	PRIMARY KEY (study_id, sector)
);
CREATE TABLE IF NOT EXISTS speed_distributions (
	study_id INTEGER PRIMARY KEY REFERENCES studies(id),
	type TEXT NOT NULL,
	shape REAL,
	scale REAL,
	min REAL NOT NULL,
	max REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS power_models (
	study_id INTEGER PRIMARY KEY REFERENCES studies(id),
	rated_power_kw REAL,
	cut_in_speed REAL,
	rated_speed REAL,
	cut_out_speed REAL
);
CREATE TABLE IF NOT EXISTS sector_efficiencies (
	study_id INTEGER NOT NULL REFERENCES studies(id),
	sector INTEGER NOT NULL,
	efficiency REAL NOT NULL,
	PRIMARY KEY (study_id, sector)
);
CREATE TABLE IF NOT EXISTS storage_backends (
	study_id INTEGER NOT NULL REFERENCES studies(id),
	backend_type TEXT NOT NULL,
	path TEXT,
	connection_string TEXT,
	enabled INTEGER NOT NULL DEFAULT 1
);
`

const defaultStudy = `(SELECT id FROM studies WHERE name = 'default')`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// InitSchema creates any missing configuration tables
func (s *SQLiteProvider) InitSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create configuration schema: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for tools that seed configurations
func (s *SQLiteProvider) DB() *sql.DB {
	return s.db
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	study, quadrature, err := s.loadStudy()
	if err != nil {
		return nil, fmt.Errorf("failed to load study: %w", err)
	}
	config.Study = *study
	config.Quadrature = *quadrature

	distributions, err := s.GetDistributions()
	if err != nil {
		return nil, fmt.Errorf("failed to load distributions: %w", err)
	}
	config.Distribution = *distributions

	powerModel, err := s.getPowerModel()
	if err != nil {
		return nil, fmt.Errorf("failed to load power model: %w", err)
	}
	config.PowerModel = *powerModel

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	return config, nil
}

// GetStudy returns the study options from the database
func (s *SQLiteProvider) GetStudy() (*StudyData, error) {
	study, _, err := s.loadStudy()
	return study, err
}

func (s *SQLiteProvider) loadStudy() (*StudyData, *QuadratureData, error) {
	query := `
		SELECT method, uncertain_variable, layout, layout_dir, wake_model,
		       offset_index, noffset, windspeed_ref, winddirection_ref, verbose,
		       on_provider_error, quadrature_provider, quadrature_command
		FROM studies
		WHERE name = 'default'
	`

	var study StudyData
	var quadrature QuadratureData
	var layoutDir, wakeModel, onProviderError, provider, command sql.NullString
	var speedRef, directionRef sql.NullFloat64

	err := s.db.QueryRow(query).Scan(
		&study.Method, &study.UncertainVariable, &study.Layout, &layoutDir, &wakeModel,
		&study.Offset, &study.NOffset, &speedRef, &directionRef, &study.Verbose,
		&onProviderError, &provider, &command,
	)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("no study named 'default'")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan study row: %w", err)
	}

	study.LayoutDir = layoutDir.String
	study.WakeModel = wakeModel.String
	study.OnProviderError = onProviderError.String
	if speedRef.Valid {
		v := speedRef.Float64
		study.WindSpeedRef = &v
	}
	if directionRef.Valid {
		v := directionRef.Float64
		study.WindDirectionRef = &v
	}

	quadrature.Provider = provider.String
	if command.Valid && command.String != "" {
		if err := json.Unmarshal([]byte(command.String), &quadrature.Command); err != nil {
			return nil, nil, fmt.Errorf("quadrature_command must be a JSON array of strings: %w", err)
		}
	}

	rows, err := s.db.Query(`SELECT n FROM study_sample_counts WHERE study_id = ` + defaultStudy + ` ORDER BY position`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query sample counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, nil, fmt.Errorf("failed to scan sample count: %w", err)
		}
		study.SampleCounts = append(study.SampleCounts, n)
	}

	return &study, &quadrature, rows.Err()
}

// GetDistributions returns the direction and speed distributions from the database
func (s *SQLiteProvider) GetDistributions() (*DistributionData, error) {
	var dist DistributionData
	var bandStart, bandEnd, mode sql.NullFloat64

	err := s.db.QueryRow(`
		SELECT type, lower, upper, zero_band_start, zero_band_end, mode
		FROM direction_distributions WHERE study_id = `+defaultStudy,
	).Scan(&dist.Direction.Type, &dist.Direction.Lower, &dist.Direction.Upper, &bandStart, &bandEnd, &mode)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to scan direction distribution: %w", err)
	}
	if bandStart.Valid && bandEnd.Valid {
		dist.Direction.ZeroBand = []float64{bandStart.Float64, bandEnd.Float64}
	}
	if mode.Valid {
		v := mode.Float64
		dist.Direction.Mode = &v
	}

	dist.Direction.Frequencies, err = s.sectorValues("direction_frequencies", "frequency")
	if err != nil {
		return nil, err
	}

	var shape, scale sql.NullFloat64
	err = s.db.QueryRow(`
		SELECT type, shape, scale, min, max
		FROM speed_distributions WHERE study_id = `+defaultStudy,
	).Scan(&dist.Speed.Type, &shape, &scale, &dist.Speed.Min, &dist.Speed.Max)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to scan speed distribution: %w", err)
	}
	dist.Speed.Shape = shape.Float64
	dist.Speed.Scale = scale.Float64

	return &dist, nil
}

func (s *SQLiteProvider) getPowerModel() (*PowerModelData, error) {
	var pm PowerModelData
	var rated, cutIn, ratedSpeed, cutOut sql.NullFloat64

	err := s.db.QueryRow(`
		SELECT rated_power_kw, cut_in_speed, rated_speed, cut_out_speed
		FROM power_models WHERE study_id = `+defaultStudy,
	).Scan(&rated, &cutIn, &ratedSpeed, &cutOut)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to scan power model: %w", err)
	}
	pm.RatedPowerKW = rated.Float64
	pm.CutInSpeed = cutIn.Float64
	pm.RatedSpeed = ratedSpeed.Float64
	pm.CutOutSpeed = cutOut.Float64

	pm.SectorEfficiency, err = s.sectorValues("sector_efficiencies", "efficiency")
	if err != nil {
		return nil, err
	}
	return &pm, nil
}

func (s *SQLiteProvider) sectorValues(table, column string) ([]float64, error) {
	rows, err := s.db.Query(fmt.Sprintf(
		`SELECT %s FROM %s WHERE study_id = %s ORDER BY sector`, column, table, defaultStudy))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	rows, err := s.db.Query(`
		SELECT backend_type, path, connection_string
		FROM storage_backends
		WHERE study_id = ` + defaultStudy + ` AND enabled = 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage backends: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backendType string
		var path, connectionString sql.NullString

		if err := rows.Scan(&backendType, &path, &connectionString); err != nil {
			return nil, fmt.Errorf("failed to scan storage backend row: %w", err)
		}

		switch backendType {
		case "json":
			storage.JSONFile = &JSONFileData{Path: path.String}
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: connectionString.String}
		case "xlsx":
			storage.XLSX = &XLSXData{Path: path.String}
		default:
			return nil, fmt.Errorf("unknown storage backend type %q", backendType)
		}
	}

	return storage, rows.Err()
}

// IsReadOnly returns false since the database can be edited by seeding tools
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
