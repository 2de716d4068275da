package dash

import (
	"fmt"
	"strings"
	"time"
)

const gaugeWidth = 30

// clearScreen moves the cursor home and wipes the previous frame.
const clearScreen = "\033[2J\033[H"

// RenderFrame builds one dashboard frame for the given rows. When driver
// is non-empty only that car is rendered; otherwise every driver with a
// row gets a panel.
func RenderFrame(rows []CarRow, driver string, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(clearScreen)
	sb.WriteString(fmt.Sprintf("🏎️  Real-time Racing Telemetry — %s\n", now.Format("15:04:05")))
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	latest := LatestPerDriver(rows)
	if len(latest) == 0 {
		sb.WriteString("No driver data available. Check the Pinot connection.\n")
		return sb.String()
	}

	rendered := 0
	for _, row := range latest {
		if driver != "" && row.DriverNo != driver {
			continue
		}
		renderDriver(&sb, row)
		rendered++
	}
	if rendered == 0 {
		sb.WriteString(fmt.Sprintf("No data for driver #%s yet.\n", driver))
	}
	return sb.String()
}

func renderDriver(sb *strings.Builder, row CarRow) {
	drs := DRSStatus(row.DRS)
	drsColor := zoneColors[ZoneLow]
	if drs == "INACTIVE" {
		drsColor = "\033[90m" // gray
	}

	sb.WriteString(fmt.Sprintf("\nDriver #%s   Gear: %d   DRS: %s%s%s\n",
		row.DriverNo, int(row.Gear), drsColor, drs, ansiReset))
	sb.WriteString(coloredGauge("RPM", row.RPM, MaxRPM, defaultThresholds, "", gaugeWidth) + "\n")
	sb.WriteString(coloredGauge("Speed", row.Speed, MaxSpeed, defaultThresholds, " km/h", gaugeWidth) + "\n")
	sb.WriteString(coloredGauge("Throttle", row.Throttle, 100, throttleThresholds, " %", gaugeWidth) + "\n")
	sb.WriteString(coloredGauge("Brake", row.Brake, 100, brakeThresholds, " %", gaugeWidth) + "\n")
}
