// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "0.4-" + runtime.GOOS + "/" + runtime.GOARCH

const (
	// HoursPerYear converts a mean farm power in kW into annual energy in kWh
	HoursPerYear = 8760.0

	// KWhPerGWh scales annual energy from kWh into the GWh reported in records
	KWhPerGWh = 1e6

	// WeightTolerance is the allowed deviation of a weight set's sum from 1
	WeightTolerance = 1e-9

	// HistogramIntervals is the resolution of the histogram handed to a quadrature provider
	HistogramIntervals = 50
)
