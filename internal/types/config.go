package types

import (
	"math"
	"sort"
	"strings"

	"github.com/chrissnell/windaep/pkg/config"
)

// UncertainVariable names the wind quantity treated as random
type UncertainVariable string

const (
	VariableSpeed             UncertainVariable = "speed"
	VariableDirection         UncertainVariable = "direction"
	VariableDirectionAndSpeed UncertainVariable = "direction_and_speed"
)

// Method selects the point generation strategy
type Method string

const (
	// MethodRect samples bin midpoints of an evenly spaced grid
	MethodRect Method = "rect"

	// MethodQuadrature asks a quadrature provider for nodes and weights
	MethodQuadrature Method = "quadrature"
)

// ProviderErrorPolicy decides what the study does when a quadrature provider fails
type ProviderErrorPolicy string

const (
	PolicyAbort ProviderErrorPolicy = "abort"
	PolicySkip  ProviderErrorPolicy = "skip"
)

// QuadratureProviderKind selects where quadrature rules come from
type QuadratureProviderKind string

const (
	ProviderGauss   QuadratureProviderKind = "gauss"
	ProviderCommand QuadratureProviderKind = "command"
)

// LayoutName identifies a wind farm layout
type LayoutName string

const (
	LayoutTest      LayoutName = "test"
	LayoutGrid      LayoutName = "grid"
	LayoutRandom    LayoutName = "random"
	LayoutAmalia    LayoutName = "amalia"
	LayoutOptimized LayoutName = "optimized"
	Layout1         LayoutName = "layout1"
	Layout2         LayoutName = "layout2"
	Layout3         LayoutName = "layout3"
)

// LayoutNames lists every recognized layout in a stable order
var LayoutNames = []LayoutName{
	LayoutAmalia, LayoutOptimized, LayoutRandom, LayoutTest, LayoutGrid, Layout1, Layout2, Layout3,
}

// WakeModelCurve is the only power model shipped: a single-turbine power curve
// summed over the farm, with no wake interaction.
const WakeModelCurve = "curve"

// Distribution kinds
const (
	DistributionUniform  = "uniform"
	DistributionWindRose = "windrose"
	DistributionWeibull  = "weibull"
)

// StudyConfig is the validated form of config.ConfigData. It is built once by
// NewStudyConfig and never inspected by string key afterwards.
type StudyConfig struct {
	Variable         UncertainVariable
	Method           Method
	Layout           LayoutName
	LayoutDir        string
	WakeModel        string
	SampleCounts     []int
	Offset           OffsetConfig
	WindSpeedRef     float64
	WindDirectionRef float64
	Verbose          bool
	OnProviderError  ProviderErrorPolicy
	Direction        DirectionConfig
	Speed            SpeedConfig
	Quadrature       QuadratureConfig
	Power            PowerConfig
	Storage          StorageConfig
}

// OffsetConfig picks phase Index out of Total phase-shifted point families
type OffsetConfig struct {
	Index int
	Total int
}

// DirectionConfig describes the wind direction distribution and its domain
type DirectionConfig struct {
	Kind        string
	Lower       float64
	Upper       float64
	Frequencies []float64
	HasZeroBand bool
	ZeroBand    [2]float64
	Mode        float64
}

// SpeedConfig describes the wind speed distribution on [Min, Max]
type SpeedConfig struct {
	Kind  string
	Shape float64
	Scale float64
	Min   float64
	Max   float64
}

type QuadratureConfig struct {
	Provider QuadratureProviderKind
	Command  []string
}

type PowerConfig struct {
	RatedPowerKW     float64
	CutInSpeed       float64
	RatedSpeed       float64
	CutOutSpeed      float64
	SectorEfficiency []float64
}

// StorageConfig lists the enabled record stores; empty strings are disabled
type StorageConfig struct {
	JSONPath     string
	TimescaleDSN string
	XLSXPath     string
}

// Defaults applied when the configuration leaves a field unset
const (
	DefaultWindSpeedRef     = 8.0
	DefaultWindDirectionRef = 225.0
	DefaultMode             = 225.0
	DefaultNOffset          = 10
	DefaultRecordPath       = "record.json"
	DefaultRatedPowerKW     = 3600.0
	DefaultCutInSpeed       = 3.0
	DefaultRatedSpeed       = 12.0
	DefaultCutOutSpeed      = 25.0
	DefaultWeibullShape     = 2.0
	DefaultWeibullScale     = 8.0
	DefaultSpeedMin         = 0.0
	DefaultSpeedMax         = 30.0
)

// NewStudyConfig validates raw configuration data and fills in defaults
func NewStudyConfig(cd *config.ConfigData) (*StudyConfig, error) {
	s := cd.Study
	c := &StudyConfig{
		Variable:         UncertainVariable(strings.TrimSpace(s.UncertainVariable)),
		Method:           Method(strings.TrimSpace(s.Method)),
		Layout:           LayoutName(strings.TrimSpace(s.Layout)),
		LayoutDir:        s.LayoutDir,
		WakeModel:        s.WakeModel,
		SampleCounts:     append([]int(nil), s.SampleCounts...),
		Offset:           OffsetConfig{Index: s.Offset, Total: s.NOffset},
		WindSpeedRef:     DefaultWindSpeedRef,
		WindDirectionRef: DefaultWindDirectionRef,
		Verbose:          s.Verbose,
		OnProviderError:  ProviderErrorPolicy(s.OnProviderError),
	}

	if c.Variable == "" {
		c.Variable = VariableDirection
	}
	if c.Method == "" {
		c.Method = MethodRect
	}
	if c.Layout == "" {
		c.Layout = LayoutTest
	}
	if c.LayoutDir == "" {
		c.LayoutDir = "layouts"
	}
	if c.WakeModel == "" {
		c.WakeModel = WakeModelCurve
	}
	if c.Offset.Total == 0 {
		c.Offset.Total = DefaultNOffset
	}
	if c.OnProviderError == "" {
		c.OnProviderError = PolicyAbort
	}
	if s.WindSpeedRef != nil {
		c.WindSpeedRef = *s.WindSpeedRef
	}
	if s.WindDirectionRef != nil {
		c.WindDirectionRef = *s.WindDirectionRef
	}

	switch c.Variable {
	case VariableSpeed, VariableDirection, VariableDirectionAndSpeed:
	default:
		return nil, ConfigErrorf("unknown uncertain-variable option %q, valid options %q, %q or %q",
			c.Variable, VariableSpeed, VariableDirection, VariableDirectionAndSpeed)
	}

	switch c.Method {
	case MethodRect, MethodQuadrature:
	default:
		return nil, ConfigErrorf("unknown method %q, valid options %q or %q", c.Method, MethodRect, MethodQuadrature)
	}

	if err := ValidateLayoutName(c.Layout); err != nil {
		return nil, err
	}

	if c.WakeModel != WakeModelCurve {
		return nil, ConfigErrorf("unknown wake-model %q, valid options %q", c.WakeModel, WakeModelCurve)
	}

	if err := validateSampleCounts(c.SampleCounts); err != nil {
		return nil, err
	}

	if c.Offset.Total < 1 {
		return nil, ConfigErrorf("noffset must be at least 1, got %d", c.Offset.Total)
	}
	if c.Offset.Index < 0 || c.Offset.Index >= c.Offset.Total {
		return nil, ConfigErrorf("offset must be in [0, %d), got %d", c.Offset.Total, c.Offset.Index)
	}

	switch c.OnProviderError {
	case PolicyAbort, PolicySkip:
	default:
		return nil, ConfigErrorf("unknown on-provider-error policy %q, valid options %q or %q",
			c.OnProviderError, PolicyAbort, PolicySkip)
	}

	if c.WindSpeedRef <= 0 || math.IsNaN(c.WindSpeedRef) {
		return nil, ConfigErrorf("windspeed-ref must be positive, got %v", c.WindSpeedRef)
	}

	var err error
	if c.Direction, err = newDirectionConfig(cd.Distribution.Direction); err != nil {
		return nil, err
	}
	if c.WindDirectionRef < c.Direction.Lower || c.WindDirectionRef >= c.Direction.Upper {
		return nil, ConfigErrorf("winddirection-ref %v outside direction range [%v, %v)",
			c.WindDirectionRef, c.Direction.Lower, c.Direction.Upper)
	}
	if c.Speed, err = newSpeedConfig(cd.Distribution.Speed); err != nil {
		return nil, err
	}
	if c.Quadrature, err = newQuadratureConfig(cd.Quadrature); err != nil {
		return nil, err
	}
	if c.Power, err = newPowerConfig(cd.PowerModel); err != nil {
		return nil, err
	}
	c.Storage = newStorageConfig(cd.Storage)

	return c, nil
}

// ValidateLayoutName rejects unknown layouts with the list of valid names
func ValidateLayoutName(name LayoutName) error {
	for _, l := range LayoutNames {
		if l == name {
			return nil
		}
	}
	valid := make([]string, len(LayoutNames))
	for i, l := range LayoutNames {
		valid[i] = string(l)
	}
	sort.Strings(valid)
	return ConfigErrorf("unknown layout option %q, valid options [%s]", name, strings.Join(valid, ", "))
}

func validateSampleCounts(counts []int) error {
	if len(counts) == 0 {
		return ConfigErrorf("sample-counts must list at least one sample count")
	}
	for i, n := range counts {
		if n < 1 {
			return ConfigErrorf("sample count must be at least 1, got %d", n)
		}
		if i > 0 && n <= counts[i-1] {
			return ConfigErrorf("sample-counts must be strictly increasing, got %d after %d", n, counts[i-1])
		}
	}
	return nil
}

func newDirectionConfig(d config.DirectionDistributionData) (DirectionConfig, error) {
	dc := DirectionConfig{
		Kind:        d.Type,
		Lower:       d.Lower,
		Upper:       d.Upper,
		Frequencies: append([]float64(nil), d.Frequencies...),
		Mode:        DefaultMode,
	}
	if dc.Kind == "" {
		dc.Kind = DistributionUniform
	}
	if dc.Lower == 0 && dc.Upper == 0 {
		dc.Upper = 360
	}
	if d.Mode != nil {
		dc.Mode = *d.Mode
	}

	if !(dc.Upper > dc.Lower) {
		return dc, ConfigErrorf("direction range [%v, %v) is empty", dc.Lower, dc.Upper)
	}

	switch dc.Kind {
	case DistributionUniform:
	case DistributionWindRose:
		if len(dc.Frequencies) == 0 {
			return dc, ConfigErrorf("windrose distribution needs at least one sector frequency")
		}
		total := 0.0
		for i, f := range dc.Frequencies {
			if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				return dc, ConfigErrorf("windrose frequency %d is invalid: %v", i, f)
			}
			total += f
		}
		if total <= 0 {
			return dc, ConfigErrorf("windrose frequencies sum to zero")
		}
	default:
		return dc, ConfigErrorf("unknown direction distribution %q, valid options %q or %q",
			dc.Kind, DistributionUniform, DistributionWindRose)
	}

	switch len(d.ZeroBand) {
	case 0:
	case 2:
		a, b := d.ZeroBand[0], d.ZeroBand[1]
		if !(dc.Lower <= a && a <= b && b <= dc.Upper) {
			return dc, ConfigErrorf("zero-probability band [%v, %v) must satisfy %v <= A <= B <= %v",
				a, b, dc.Lower, dc.Upper)
		}
		if b-a >= dc.Upper-dc.Lower {
			return dc, ConfigErrorf("zero-probability band [%v, %v) covers the whole direction range", a, b)
		}
		dc.HasZeroBand = true
		dc.ZeroBand = [2]float64{a, b}
	default:
		return dc, ConfigErrorf("zero-band must have exactly two values, got %d", len(d.ZeroBand))
	}

	if dc.Mode < dc.Lower || dc.Mode >= dc.Upper {
		return dc, ConfigErrorf("mode %v outside direction range [%v, %v)", dc.Mode, dc.Lower, dc.Upper)
	}
	if dc.HasZeroBand && dc.Mode > dc.ZeroBand[0] && dc.Mode < dc.ZeroBand[1] {
		return dc, ConfigErrorf("mode %v lies inside the zero-probability band (%v, %v)",
			dc.Mode, dc.ZeroBand[0], dc.ZeroBand[1])
	}

	return dc, nil
}

func newSpeedConfig(d config.SpeedDistributionData) (SpeedConfig, error) {
	sc := SpeedConfig{
		Kind:  d.Type,
		Shape: d.Shape,
		Scale: d.Scale,
		Min:   d.Min,
		Max:   d.Max,
	}
	if sc.Kind == "" {
		sc.Kind = DistributionWeibull
	}
	if sc.Min == 0 && sc.Max == 0 {
		sc.Min, sc.Max = DefaultSpeedMin, DefaultSpeedMax
	}
	if sc.Min < 0 || !(sc.Max > sc.Min) {
		return sc, ConfigErrorf("speed range [%v, %v] is invalid", sc.Min, sc.Max)
	}

	switch sc.Kind {
	case DistributionUniform:
	case DistributionWeibull:
		if sc.Shape == 0 {
			sc.Shape = DefaultWeibullShape
		}
		if sc.Scale == 0 {
			sc.Scale = DefaultWeibullScale
		}
		if sc.Shape < 0 || sc.Scale < 0 {
			return sc, ConfigErrorf("weibull shape and scale must be positive, got %v and %v", sc.Shape, sc.Scale)
		}
	default:
		return sc, ConfigErrorf("unknown speed distribution %q, valid options %q or %q",
			sc.Kind, DistributionWeibull, DistributionUniform)
	}
	return sc, nil
}

func newQuadratureConfig(d config.QuadratureData) (QuadratureConfig, error) {
	qc := QuadratureConfig{
		Provider: QuadratureProviderKind(d.Provider),
		Command:  append([]string(nil), d.Command...),
	}
	if qc.Provider == "" {
		qc.Provider = ProviderGauss
	}
	switch qc.Provider {
	case ProviderGauss:
	case ProviderCommand:
		if len(qc.Command) == 0 || qc.Command[0] == "" {
			return qc, ConfigErrorf("command quadrature provider needs a command to run")
		}
	default:
		return qc, ConfigErrorf("unknown quadrature provider %q, valid options %q or %q",
			qc.Provider, ProviderGauss, ProviderCommand)
	}
	return qc, nil
}

func newPowerConfig(d config.PowerModelData) (PowerConfig, error) {
	pc := PowerConfig{
		RatedPowerKW:     d.RatedPowerKW,
		CutInSpeed:       d.CutInSpeed,
		RatedSpeed:       d.RatedSpeed,
		CutOutSpeed:      d.CutOutSpeed,
		SectorEfficiency: append([]float64(nil), d.SectorEfficiency...),
	}
	if pc.RatedPowerKW == 0 {
		pc.RatedPowerKW = DefaultRatedPowerKW
	}
	if pc.CutInSpeed == 0 {
		pc.CutInSpeed = DefaultCutInSpeed
	}
	if pc.RatedSpeed == 0 {
		pc.RatedSpeed = DefaultRatedSpeed
	}
	if pc.CutOutSpeed == 0 {
		pc.CutOutSpeed = DefaultCutOutSpeed
	}
	if pc.RatedPowerKW < 0 || pc.CutInSpeed < 0 || !(pc.CutInSpeed < pc.RatedSpeed && pc.RatedSpeed < pc.CutOutSpeed) {
		return pc, ConfigErrorf("power curve needs 0 < cut-in < rated < cut-out speeds, got %v, %v, %v",
			pc.CutInSpeed, pc.RatedSpeed, pc.CutOutSpeed)
	}
	for i, e := range pc.SectorEfficiency {
		if e < 0 || math.IsNaN(e) {
			return pc, ConfigErrorf("sector efficiency %d is invalid: %v", i, e)
		}
	}
	return pc, nil
}

func newStorageConfig(d config.StorageData) StorageConfig {
	var sc StorageConfig
	if d.JSONFile != nil {
		sc.JSONPath = d.JSONFile.Path
	}
	if d.TimescaleDB != nil {
		sc.TimescaleDSN = d.TimescaleDB.ConnectionString
	}
	if d.XLSX != nil {
		sc.XLSXPath = d.XLSX.Path
	}
	if sc.JSONPath == "" && sc.XLSXPath == "" && sc.TimescaleDSN == "" {
		sc.JSONPath = DefaultRecordPath
	}
	return sc
}
