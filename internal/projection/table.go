package projection

import (
	"encoding/csv"
	"io"
	"strconv"

	"sensor_dashboard/internal/models"
)

// EmptyCell marks a metric the reading did not report.
const EmptyCell = "-"

const (
	columnID   = "id"
	columnDate = "date"
)

// Table is a flat, uniformly shaped export of readings.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// BuildTable flattens readings into rows of id, each metric of the set, then date.
// Every row has every column.
func BuildTable(metrics []models.Metric, readings []models.Reading, f Format) Table {
	metrics = metricsOrAll(metrics)

	cols := make([]string, 0, len(metrics)+2)
	cols = append(cols, columnID)
	for _, m := range metrics {
		cols = append(cols, string(m))
	}
	cols = append(cols, columnDate)

	rows := make([][]string, 0, len(readings))
	for _, r := range readings {
		row := make([]string, 0, len(cols))
		row = append(row, strconv.FormatInt(r.ID, 10))
		for _, m := range metrics {
			if v, ok := r.Value(m); ok {
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			} else {
				row = append(row, EmptyCell)
			}
		}
		row = append(row, f.Time(r.Timestamp))
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

// LatestTable is BuildTable over the latest reading only; nil gives a header-only table.
func LatestTable(metrics []models.Metric, latest *models.Reading, f Format) Table {
	if latest == nil {
		return BuildTable(metrics, nil, f)
	}
	return BuildTable(metrics, []models.Reading{*latest}, f)
}

// WriteCSV serializes t with a header row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
