// Package power evaluates farm power output at (direction, speed) points.
package power

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/chrissnell/windaep/internal/layout"
	"github.com/chrissnell/windaep/internal/types"
)

// Model returns the farm power in kW for each (direction, speed) pair. Models
// are deterministic and hold no state between calls.
type Model interface {
	Name() string
	Power(directions, speeds []float64, l *layout.Layout) ([]float64, error)
}

// curveKnots is the number of knots the cubic ramp between cut-in and rated
// speed is sampled at
const curveKnots = 32

// CurveModel applies a single-turbine power curve to every turbine, scaled by
// a per-sector directional efficiency. Turbines do not interact.
type CurveModel struct {
	cfg        types.PowerConfig
	curve      interp.PiecewiseLinear
	efficiency *interp.PiecewiseLinear
}

// NewCurveModel builds the power curve described by cfg
func NewCurveModel(cfg types.PowerConfig) (*CurveModel, error) {
	if !(cfg.CutInSpeed < cfg.RatedSpeed && cfg.RatedSpeed < cfg.CutOutSpeed) {
		return nil, types.ConfigErrorf("power curve needs cut-in < rated < cut-out, got %v, %v, %v",
			cfg.CutInSpeed, cfg.RatedSpeed, cfg.CutOutSpeed)
	}

	m := &CurveModel{cfg: cfg}

	xs := make([]float64, curveKnots+1)
	ys := make([]float64, curveKnots+1)
	for i := range xs {
		f := float64(i) / curveKnots
		xs[i] = cfg.CutInSpeed + f*(cfg.RatedSpeed-cfg.CutInSpeed)
		ys[i] = cfg.RatedPowerKW * f * f * f
	}
	if err := m.curve.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fitting power curve: %w", err)
	}

	if len(cfg.SectorEfficiency) > 0 {
		eff, err := sectorInterpolator(cfg.SectorEfficiency)
		if err != nil {
			return nil, err
		}
		m.efficiency = eff
	}
	return m, nil
}

// sectorInterpolator interpolates efficiencies given at the centers of equal
// sectors over [0, 360). The first and last sectors are joined across north.
func sectorInterpolator(values []float64) (*interp.PiecewiseLinear, error) {
	n := len(values)
	width := 360.0 / float64(n)

	xs := make([]float64, 0, n+2)
	ys := make([]float64, 0, n+2)
	xs = append(xs, -width/2)
	ys = append(ys, values[n-1])
	for i, v := range values {
		xs = append(xs, (float64(i)+0.5)*width)
		ys = append(ys, v)
	}
	xs = append(xs, 360+width/2)
	ys = append(ys, values[0])

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("fitting sector efficiency: %w", err)
	}
	return &pl, nil
}

func (m *CurveModel) Name() string { return types.WakeModelCurve }

// TurbinePower returns the output of one turbine in kW at speed v
func (m *CurveModel) TurbinePower(v float64) float64 {
	switch {
	case v < m.cfg.CutInSpeed || v > m.cfg.CutOutSpeed:
		return 0
	case v >= m.cfg.RatedSpeed:
		return m.cfg.RatedPowerKW
	}
	return m.curve.Predict(v)
}

// Efficiency returns the directional efficiency at direction in degrees
func (m *CurveModel) Efficiency(direction float64) float64 {
	if m.efficiency == nil {
		return 1
	}
	d := math.Mod(direction, 360)
	if d < 0 {
		d += 360
	}
	return m.efficiency.Predict(d)
}

// Power implements Model
func (m *CurveModel) Power(directions, speeds []float64, l *layout.Layout) ([]float64, error) {
	if len(directions) != len(speeds) {
		return nil, fmt.Errorf("got %d directions but %d speeds", len(directions), len(speeds))
	}
	if l == nil || l.Turbines() == 0 {
		return nil, fmt.Errorf("layout has no turbines")
	}

	turbines := float64(l.Turbines())
	out := make([]float64, len(speeds))
	for i := range speeds {
		out[i] = turbines * m.TurbinePower(speeds[i]) * m.Efficiency(directions[i])
	}
	return out, nil
}
