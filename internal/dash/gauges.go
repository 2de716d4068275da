package dash

import (
	"fmt"
	"strings"
)

// Gauge bounds and thresholds from the reference dashboard.
const (
	MaxRPM   = 15000.0
	MaxSpeed = 350.0 // km/h

	// DRS telemetry value when the wing is open
	drsActiveValue = 12
)

var (
	throttleThresholds = [2]float64{0.5, 0.8}
	brakeThresholds    = [2]float64{0.3, 0.6}
	defaultThresholds  = [2]float64{0.33, 0.66}
)

// Zone color levels for a gauge value relative to its maximum.
const (
	ZoneLow    = "low"
	ZoneMedium = "medium"
	ZoneHigh   = "high"
)

// Zone classifies value against max using the two threshold fractions.
func Zone(value, max float64, thresholds [2]float64) string {
	if max <= 0 {
		return ZoneLow
	}
	ratio := value / max
	switch {
	case ratio >= thresholds[1]:
		return ZoneHigh
	case ratio >= thresholds[0]:
		return ZoneMedium
	default:
		return ZoneLow
	}
}

// DRSStatus reports the DRS state for the telemetry value.
func DRSStatus(drs float64) string {
	if drs == drsActiveValue {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// Bar renders a fixed-width gauge bar, clamping the value into [0, max].
func Bar(value, max float64, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	ratio := value / max
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// ANSI colors for gauge zones.
var zoneColors = map[string]string{
	ZoneLow:    "\033[32m", // green
	ZoneMedium: "\033[33m", // yellow
	ZoneHigh:   "\033[31m", // red
}

const ansiReset = "\033[0m"

// coloredGauge renders a labeled bar with the zone color applied.
func coloredGauge(label string, value, max float64, thresholds [2]float64, unit string, width int) string {
	zone := Zone(value, max, thresholds)
	return fmt.Sprintf("%-10s %s%s%s %7.0f%s",
		label, zoneColors[zone], Bar(value, max, width), ansiReset, value, unit)
}
