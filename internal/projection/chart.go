// Package projection turns store snapshots into chart-ready series and flat tables.
// Every function is pure: inputs are never mutated and equal inputs give equal output.
package projection

import (
	"fmt"
	"strconv"
	"time"

	"sensor_dashboard/internal/models"
)

const (
	snapshotTitle  = "Sensor Data Visualization"
	trendTitle     = "Sensor Data Trends Over Time"
	noDataTemplate = "No data available for %s chart"
)

// DefaultLayout formats trend labels as a short day/month/year and time.
const DefaultLayout = "2/1/2006 15:04"

// Point is one chart value; an invalid point serializes as null.
type Point struct {
	Value float64
	Valid bool
}

// Val is a present point.
func Val(v float64) Point { return Point{Value: v, Valid: true} }

func (p Point) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, p.Value, 'f', -1, 64), nil
}

// Dataset is one series of a chart.
type Dataset struct {
	Metric models.Metric `json:"metric"`
	Label  string        `json:"label"`
	Data   []Point       `json:"data"`
	Share  *float64      `json:"share,omitempty"` // split view: fraction of the total
	NoData bool          `json:"no_data,omitempty"`
}

// Chart is the view layer's input for one chart widget. NoData is the "no data" sentinel.
type Chart struct {
	Title    string    `json:"title"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
	NoData   bool      `json:"no_data"`
	Message  string    `json:"message,omitempty"`
}

// Format controls how timestamps are rendered for the viewer.
type Format struct {
	Location *time.Location
	Layout   string
}

// Time renders t in the viewer's location.
func (f Format) Time(t time.Time) string {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	return t.In(loc).Format(layout)
}

func noData(title, label string) Chart {
	return Chart{
		Title:    title,
		Labels:   []string{},
		Datasets: []Dataset{},
		NoData:   true,
		Message:  fmt.Sprintf(noDataTemplate, label),
	}
}

func metricsOrAll(metrics []models.Metric) []models.Metric {
	if len(metrics) == 0 {
		return models.AllMetrics
	}
	return metrics
}

func setLabel(metrics []models.Metric) string {
	if len(metrics) == 1 {
		return metrics[0].Label()
	}
	return "sensor"
}

// Snapshot builds the single-bar view of one metric from the latest reading.
func Snapshot(metric models.Metric, latest *models.Reading) Chart {
	title := "Latest " + metric.Label() + " Data"
	if latest == nil {
		return noData(title, metric.Label())
	}
	v, ok := latest.Value(metric)
	if !ok {
		return noData(title, metric.Label())
	}
	return Chart{
		Title:  title,
		Labels: []string{metric.Label()},
		Datasets: []Dataset{{
			Metric: metric,
			Label:  metric.Label(),
			Data:   []Point{Val(v)},
		}},
	}
}

// Split builds parallel one-point series for several metrics, for proportional views.
// Each metric's absence is reported on its own dataset; the chart is NoData only when
// no metric has a value.
func Split(metrics []models.Metric, latest *models.Reading) Chart {
	metrics = metricsOrAll(metrics)
	if latest == nil {
		return noData(snapshotTitle, setLabel(metrics))
	}

	var total float64
	present := 0
	for _, m := range metrics {
		if v, ok := latest.Value(m); ok {
			total += v
			present++
		}
	}
	if present == 0 {
		return noData(snapshotTitle, setLabel(metrics))
	}

	c := Chart{
		Title:    snapshotTitle,
		Labels:   make([]string, 0, len(metrics)),
		Datasets: make([]Dataset, 0, len(metrics)),
	}
	for _, m := range metrics {
		c.Labels = append(c.Labels, m.Label())
		ds := Dataset{Metric: m, Label: m.Label()}
		if v, ok := latest.Value(m); ok {
			ds.Data = []Point{Val(v)}
			if total != 0 {
				share := v / total
				ds.Share = &share
			}
		} else {
			ds.Data = []Point{{}}
			ds.NoData = true
		}
		c.Datasets = append(c.Datasets, ds)
	}
	return c
}

// Trend builds one series per metric over the history window, in history order, with
// x labels formatted for the viewer. Readings missing a metric give null points.
func Trend(metrics []models.Metric, history []models.Reading, f Format) Chart {
	metrics = metricsOrAll(metrics)
	title := trendTitle
	if len(metrics) == 1 {
		title = metrics[0].Label() + " Trends"
	}
	if len(history) == 0 {
		return noData(title, setLabel(metrics)+" trends")
	}

	c := Chart{
		Title:    title,
		Labels:   make([]string, len(history)),
		Datasets: make([]Dataset, 0, len(metrics)),
	}
	for i, r := range history {
		c.Labels[i] = f.Time(r.Timestamp)
	}
	for _, m := range metrics {
		ds := Dataset{Metric: m, Label: m.Label(), Data: make([]Point, len(history)), NoData: true}
		for i, r := range history {
			if v, ok := r.Value(m); ok {
				ds.Data[i] = Val(v)
				ds.NoData = false
			}
		}
		c.Datasets = append(c.Datasets, ds)
	}
	return c
}
