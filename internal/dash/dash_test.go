package dash

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/startreedata/pinot-client-go/pinot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts Pinot responses without a broker

type fakeRunner struct {
	resp *pinot.BrokerResponse
	err  error
}

func (f *fakeRunner) ExecuteSQL(table, query string) (*pinot.BrokerResponse, error) {
	return f.resp, f.err
}

func carDataResponse(rows [][]interface{}) *pinot.BrokerResponse {
	return &pinot.BrokerResponse{
		ResultTable: &pinot.ResultTable{
			DataSchema: pinot.RespSchema{
				ColumnNames: []string{
					"DriverNo", "SessionKey", "drs", "n_gear", "Utc", "rpm", "speed", "throttle", "brake",
				},
				ColumnDataTypes: []string{
					"STRING", "STRING", "DOUBLE", "DOUBLE", "STRING", "DOUBLE", "DOUBLE", "DOUBLE", "DOUBLE",
				},
			},
			Rows: rows,
		},
	}
}

func TestPoller_Fetch(t *testing.T) {
	poller := &Poller{
		conn: &fakeRunner{resp: carDataResponse([][]interface{}{
			{"44", "9222", 12.0, 7.0, "2024-03-20T10:00:00Z", 11000.0, 280.0, 95.0, 0.0},
			{"16", "9222", 8.0, 3.0, "2024-03-20T10:00:01Z", 9000.0, 120.0, 20.0, 80.0},
		})},
		table: "carData",
		limit: 20,
	}

	rows, err := poller.Fetch()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "44", rows[0].DriverNo)
	assert.Equal(t, 12.0, rows[0].DRS)
	assert.Equal(t, 7.0, rows[0].Gear)
	assert.Equal(t, 11000.0, rows[0].RPM)
	assert.Equal(t, 280.0, rows[0].Speed)
	assert.Equal(t, 80.0, rows[1].Brake)
}

func TestPoller_FetchNumericDriverNo(t *testing.T) {
	// Pinot may return DriverNo as a number depending on schema
	poller := &Poller{
		conn: &fakeRunner{resp: carDataResponse([][]interface{}{
			{44.0, "9222", 0.0, 1.0, "", 0.0, 0.0, 0.0, 0.0},
		})},
		table: "carData",
		limit: 20,
	}

	rows, err := poller.Fetch()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "44", rows[0].DriverNo)
}

func TestPoller_FetchQueryError(t *testing.T) {
	poller := &Poller{conn: &fakeRunner{err: errors.New("connection refused")}, table: "carData", limit: 20}
	_, err := poller.Fetch()
	assert.Error(t, err)
}

func TestPoller_FetchPinotException(t *testing.T) {
	resp := &pinot.BrokerResponse{
		Exceptions: []pinot.Exception{{ErrorCode: 150, Message: "SQLParsingError"}},
	}
	poller := &Poller{conn: &fakeRunner{resp: resp}, table: "carData", limit: 20}
	_, err := poller.Fetch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQLParsingError")
}

func TestLatestPerDriver(t *testing.T) {
	rows := []CarRow{
		{DriverNo: "44", RPM: 9000},
		{DriverNo: "16", RPM: 8000},
		{DriverNo: "44", RPM: 11000}, // newer row for 44
		{DriverNo: "7", RPM: 7000},
	}

	latest := LatestPerDriver(rows)
	require.Len(t, latest, 3)

	// Sorted numerically, keeping the last row per driver
	assert.Equal(t, "7", latest[0].DriverNo)
	assert.Equal(t, "16", latest[1].DriverNo)
	assert.Equal(t, "44", latest[2].DriverNo)
	assert.Equal(t, 11000.0, latest[2].RPM)
}

func TestZone(t *testing.T) {
	tests := []struct {
		name       string
		value, max float64
		thresholds [2]float64
		expected   string
	}{
		{"low throttle", 30, 100, throttleThresholds, ZoneLow},
		{"medium throttle", 60, 100, throttleThresholds, ZoneMedium},
		{"high throttle", 85, 100, throttleThresholds, ZoneHigh},
		{"low brake", 20, 100, brakeThresholds, ZoneLow},
		{"medium brake", 40, 100, brakeThresholds, ZoneMedium},
		{"high brake", 70, 100, brakeThresholds, ZoneHigh},
		{"rpm default thresholds", 14000, MaxRPM, defaultThresholds, ZoneHigh},
		{"zero max", 1, 0, defaultThresholds, ZoneLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Zone(tt.value, tt.max, tt.thresholds))
		})
	}
}

func TestDRSStatus(t *testing.T) {
	assert.Equal(t, "ACTIVE", DRSStatus(12))
	assert.Equal(t, "INACTIVE", DRSStatus(8))
	assert.Equal(t, "INACTIVE", DRSStatus(0))
}

func TestBar(t *testing.T) {
	full := Bar(100, 100, 10)
	assert.Equal(t, strings.Repeat("█", 10), full)

	empty := Bar(0, 100, 10)
	assert.Equal(t, strings.Repeat("░", 10), empty)

	half := Bar(50, 100, 10)
	assert.Equal(t, strings.Repeat("█", 5)+strings.Repeat("░", 5), half)

	// Out-of-range values clamp
	assert.Equal(t, full, Bar(500, 100, 10))
	assert.Equal(t, empty, Bar(-5, 100, 10))
}

func TestRenderFrame(t *testing.T) {
	rows := []CarRow{
		{DriverNo: "44", DRS: 12, Gear: 7, RPM: 11000, Speed: 280, Throttle: 95, Brake: 0},
		{DriverNo: "16", DRS: 0, Gear: 3, RPM: 9000, Speed: 120, Throttle: 20, Brake: 80},
	}
	now := time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC)

	frame := RenderFrame(rows, "", now)
	assert.Contains(t, frame, "Driver #16")
	assert.Contains(t, frame, "Driver #44")
	assert.Contains(t, frame, "ACTIVE")

	focused := RenderFrame(rows, "44", now)
	assert.Contains(t, focused, "Driver #44")
	assert.NotContains(t, focused, "Driver #16")

	missing := RenderFrame(rows, "99", now)
	assert.Contains(t, missing, "No data for driver #99")

	empty := RenderFrame(nil, "", now)
	assert.Contains(t, empty, "No driver data available")
}
