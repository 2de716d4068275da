package dash

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/startreedata/pinot-client-go/pinot"
)

// queryRunner abstracts the Pinot connection for tests.
type queryRunner interface {
	ExecuteSQL(table string, query string) (*pinot.BrokerResponse, error)
}

// Interface is satisfied by the real connection.
var _ queryRunner = (*pinot.Connection)(nil)

// CarRow is one telemetry row from the carData table.
type CarRow struct {
	DriverNo   string
	SessionKey string
	Utc        string
	DRS        float64
	Gear       float64
	RPM        float64
	Speed      float64
	Throttle   float64
	Brake      float64
}

// Poller fetches the latest car telemetry rows from Pinot.
type Poller struct {
	conn  queryRunner
	table string
	limit int
}

// NewPoller connects to the Pinot broker list.
func NewPoller(brokers []string, table string, limit int) (*Poller, error) {
	conn, err := pinot.NewFromBrokerList(brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Pinot brokers %v: %w", brokers, err)
	}
	return &Poller{conn: conn, table: table, limit: limit}, nil
}

// Fetch runs the telemetry query and returns the decoded rows.
func (p *Poller) Fetch() ([]CarRow, error) {
	query := fmt.Sprintf(
		"SELECT DriverNo, SessionKey, drs, n_gear, Utc, rpm, speed, throttle, brake FROM %s ORDER BY DriverNo ASC LIMIT %d",
		p.table, p.limit)

	resp, err := p.conn.ExecuteSQL(p.table, query)
	if err != nil {
		return nil, fmt.Errorf("pinot query failed: %w", err)
	}
	if len(resp.Exceptions) > 0 {
		return nil, fmt.Errorf("pinot query returned error %d: %s",
			resp.Exceptions[0].ErrorCode, resp.Exceptions[0].Message)
	}
	if resp.ResultTable == nil {
		return nil, nil
	}

	return decodeRows(resp.ResultTable), nil
}

// decodeRows maps a Pinot result table onto CarRow values by column name.
func decodeRows(table *pinot.ResultTable) []CarRow {
	columns := make(map[string]int, table.GetColumnCount())
	for i := 0; i < table.GetColumnCount(); i++ {
		columns[table.GetColumnName(i)] = i
	}

	rows := make([]CarRow, 0, table.GetRowCount())
	for i := 0; i < table.GetRowCount(); i++ {
		rows = append(rows, CarRow{
			DriverNo:   asString(cell(table, columns, i, "DriverNo")),
			SessionKey: asString(cell(table, columns, i, "SessionKey")),
			Utc:        asString(cell(table, columns, i, "Utc")),
			DRS:        asFloat(cell(table, columns, i, "drs")),
			Gear:       asFloat(cell(table, columns, i, "n_gear")),
			RPM:        asFloat(cell(table, columns, i, "rpm")),
			Speed:      asFloat(cell(table, columns, i, "speed")),
			Throttle:   asFloat(cell(table, columns, i, "throttle")),
			Brake:      asFloat(cell(table, columns, i, "brake")),
		})
	}
	return rows
}

func cell(table *pinot.ResultTable, columns map[string]int, row int, name string) any {
	col, ok := columns[name]
	if !ok {
		return nil
	}
	return table.Get(row, col)
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// LatestPerDriver keeps the most recent row per driver (the query orders
// rows so the last occurrence is the newest) and returns them sorted by
// driver number, numerically where possible.
func LatestPerDriver(rows []CarRow) []CarRow {
	latest := make(map[string]CarRow, len(rows))
	for _, row := range rows {
		latest[row.DriverNo] = row
	}

	result := make([]CarRow, 0, len(latest))
	for _, row := range latest {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		a, errA := strconv.Atoi(result[i].DriverNo)
		b, errB := strconv.Atoi(result[j].DriverNo)
		if errA == nil && errB == nil {
			return a < b
		}
		return result[i].DriverNo < result[j].DriverNo
	})
	return result
}
