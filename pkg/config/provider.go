package config

// ConfigProvider defines the interface for study configuration sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetStudy() (*StudyData, error)
	GetDistributions() (*DistributionData, error)
	GetStorageConfig() (*StorageData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration of one convergence study
type ConfigData struct {
	Study        StudyData        `json:"study"`
	Distribution DistributionData `json:"distribution"`
	Quadrature   QuadratureData   `json:"quadrature,omitempty"`
	PowerModel   PowerModelData   `json:"power_model,omitempty"`
	Storage      StorageData      `json:"storage,omitempty"`
}

// StudyData holds the options that select what is sampled and how
type StudyData struct {
	Method            string   `json:"method"`
	UncertainVariable string   `json:"uncertain_variable"`
	Layout            string   `json:"layout"`
	LayoutDir         string   `json:"layout_dir,omitempty"`
	WakeModel         string   `json:"wake_model,omitempty"`
	SampleCounts      []int    `json:"sample_counts"`
	Offset            int      `json:"offset"`
	NOffset           int      `json:"noffset"`
	WindSpeedRef      *float64 `json:"windspeed_ref,omitempty"`
	WindDirectionRef  *float64 `json:"winddirection_ref,omitempty"`
	Verbose           bool     `json:"verbose,omitempty"`
	OnProviderError   string   `json:"on_provider_error,omitempty"`
}

// DistributionData holds the marginal distributions of the uncertain variables
type DistributionData struct {
	Direction DirectionDistributionData `json:"direction"`
	Speed     SpeedDistributionData     `json:"speed"`
}

// DirectionDistributionData describes the wind rose. Frequencies are relative
// sector weights over [Lower, Upper); they do not need to sum to one.
type DirectionDistributionData struct {
	Type        string    `json:"type"`
	Lower       float64   `json:"lower"`
	Upper       float64   `json:"upper"`
	Frequencies []float64 `json:"frequencies,omitempty"`
	ZeroBand    []float64 `json:"zero_band,omitempty"`
	Mode        *float64  `json:"mode,omitempty"`
}

// SpeedDistributionData describes the wind speed distribution on [Min, Max]
type SpeedDistributionData struct {
	Type  string  `json:"type"`
	Shape float64 `json:"shape,omitempty"`
	Scale float64 `json:"scale,omitempty"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// QuadratureData selects the quadrature provider used by the quadrature method
type QuadratureData struct {
	Provider string   `json:"provider,omitempty"`
	Command  []string `json:"command,omitempty"`
}

// PowerModelData overrides the reference power curve
type PowerModelData struct {
	RatedPowerKW     float64   `json:"rated_power_kw,omitempty"`
	CutInSpeed       float64   `json:"cut_in_speed,omitempty"`
	RatedSpeed       float64   `json:"rated_speed,omitempty"`
	CutOutSpeed      float64   `json:"cut_out_speed,omitempty"`
	SectorEfficiency []float64 `json:"sector_efficiency,omitempty"`
}

// StorageData holds the configuration for the record stores. More than one
// store can be used simultaneously.
type StorageData struct {
	JSONFile    *JSONFileData    `json:"json_file,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
	XLSX        *XLSXData        `json:"xlsx,omitempty"`
}

type JSONFileData struct {
	Path string `json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

type XLSXData struct {
	Path string `json:"path"`
}
