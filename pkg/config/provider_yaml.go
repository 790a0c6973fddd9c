package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return y.parse(cfgFile)
}

func (y *YAMLProvider) parse(raw []byte) (*ConfigData, error) {
	var yamlConfig struct {
		Study        StudyYAML        `yaml:"study"`
		Distribution DistributionYAML `yaml:"distribution"`
		Quadrature   QuadratureYAML   `yaml:"quadrature,omitempty"`
		PowerModel   PowerModelYAML   `yaml:"power-model,omitempty"`
		Storage      StorageYAML      `yaml:"storage,omitempty"`
	}

	if err := yaml.UnmarshalStrict(raw, &yamlConfig); err != nil {
		return nil, err
	}

	s := yamlConfig.Study
	d := yamlConfig.Distribution
	config := &ConfigData{
		Study: StudyData{
			Method:            s.Method,
			UncertainVariable: s.UncertainVariable,
			Layout:            s.Layout,
			LayoutDir:         s.LayoutDir,
			WakeModel:         s.WakeModel,
			SampleCounts:      s.SampleCounts,
			Offset:            s.Offset,
			NOffset:           s.NOffset,
			WindSpeedRef:      s.WindSpeedRef,
			WindDirectionRef:  s.WindDirectionRef,
			Verbose:           s.Verbose,
			OnProviderError:   s.OnProviderError,
		},
		Distribution: DistributionData{
			Direction: DirectionDistributionData{
				Type:        d.Direction.Type,
				Lower:       d.Direction.Lower,
				Upper:       d.Direction.Upper,
				Frequencies: d.Direction.Frequencies,
				ZeroBand:    d.Direction.ZeroBand,
				Mode:        d.Direction.Mode,
			},
			Speed: SpeedDistributionData{
				Type:  d.Speed.Type,
				Shape: d.Speed.Shape,
				Scale: d.Speed.Scale,
				Min:   d.Speed.Min,
				Max:   d.Speed.Max,
			},
		},
		Quadrature: QuadratureData{
			Provider: yamlConfig.Quadrature.Provider,
			Command:  yamlConfig.Quadrature.Command,
		},
		PowerModel: PowerModelData{
			RatedPowerKW:     yamlConfig.PowerModel.RatedPowerKW,
			CutInSpeed:       yamlConfig.PowerModel.CutInSpeed,
			RatedSpeed:       yamlConfig.PowerModel.RatedSpeed,
			CutOutSpeed:      yamlConfig.PowerModel.CutOutSpeed,
			SectorEfficiency: yamlConfig.PowerModel.SectorEfficiency,
		},
	}

	if yamlConfig.Storage.JSONFile != nil {
		config.Storage.JSONFile = &JSONFileData{Path: yamlConfig.Storage.JSONFile.Path}
	}
	if yamlConfig.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: yamlConfig.Storage.TimescaleDB.ConnectionString,
		}
	}
	if yamlConfig.Storage.XLSX != nil {
		config.Storage.XLSX = &XLSXData{Path: yamlConfig.Storage.XLSX.Path}
	}

	y.config = config
	return config, nil
}

func (y *YAMLProvider) cached() (*ConfigData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config, nil
}

// GetStudy returns the study options
func (y *YAMLProvider) GetStudy() (*StudyData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return &cfg.Study, nil
}

// GetDistributions returns the distribution configuration
func (y *YAMLProvider) GetDistributions() (*DistributionData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return &cfg.Distribution, nil
}

// GetStorageConfig returns storage configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	cfg, err := y.cached()
	if err != nil {
		return nil, err
	}
	return &cfg.Storage, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with the dashed key style used in study files
type StudyYAML struct {
	Method            string   `yaml:"method"`
	UncertainVariable string   `yaml:"uncertain-variable"`
	Layout            string   `yaml:"layout"`
	LayoutDir         string   `yaml:"layout-dir,omitempty"`
	WakeModel         string   `yaml:"wake-model,omitempty"`
	SampleCounts      []int    `yaml:"sample-counts"`
	Offset            int      `yaml:"offset,omitempty"`
	NOffset           int      `yaml:"noffset,omitempty"`
	WindSpeedRef      *float64 `yaml:"windspeed-ref,omitempty"`
	WindDirectionRef  *float64 `yaml:"winddirection-ref,omitempty"`
	Verbose           bool     `yaml:"verbose,omitempty"`
	OnProviderError   string   `yaml:"on-provider-error,omitempty"`
}

type DistributionYAML struct {
	Direction DirectionDistributionYAML `yaml:"direction"`
	Speed     SpeedDistributionYAML     `yaml:"speed"`
}

type DirectionDistributionYAML struct {
	Type        string    `yaml:"type"`
	Lower       float64   `yaml:"lower,omitempty"`
	Upper       float64   `yaml:"upper,omitempty"`
	Frequencies []float64 `yaml:"frequencies,omitempty"`
	ZeroBand    []float64 `yaml:"zero-band,omitempty"`
	Mode        *float64  `yaml:"mode,omitempty"`
}

type SpeedDistributionYAML struct {
	Type  string  `yaml:"type"`
	Shape float64 `yaml:"shape,omitempty"`
	Scale float64 `yaml:"scale,omitempty"`
	Min   float64 `yaml:"min,omitempty"`
	Max   float64 `yaml:"max,omitempty"`
}

type QuadratureYAML struct {
	Provider string   `yaml:"provider,omitempty"`
	Command  []string `yaml:"command,omitempty"`
}

type PowerModelYAML struct {
	RatedPowerKW     float64   `yaml:"rated-power-kw,omitempty"`
	CutInSpeed       float64   `yaml:"cut-in-speed,omitempty"`
	RatedSpeed       float64   `yaml:"rated-speed,omitempty"`
	CutOutSpeed      float64   `yaml:"cut-out-speed,omitempty"`
	SectorEfficiency []float64 `yaml:"sector-efficiency,omitempty"`
}

type StorageYAML struct {
	JSONFile    *PathYAML        `yaml:"json-file,omitempty"`
	TimescaleDB *TimescaleDBYAML `yaml:"timescaledb,omitempty"`
	XLSX        *PathYAML        `yaml:"xlsx,omitempty"`
}

type PathYAML struct {
	Path string `yaml:"path"`
}

type TimescaleDBYAML struct {
	ConnectionString string `yaml:"connection-string"`
}
