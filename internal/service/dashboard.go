package service

import (
	"errors"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/projection"
	"sensor_dashboard/internal/store"
)

var errInvalidSource = errors.New("invalid source: must be history or latest")

// DashboardService projects the store into view models. Requests without an explicit
// metric set use the configured dashboard metrics.
type DashboardService struct {
	store   *store.ReadingStore
	format  projection.Format
	metrics []models.Metric
}

func NewDashboardService(s *store.ReadingStore, f projection.Format, metrics []models.Metric) *DashboardService {
	if len(metrics) == 0 {
		metrics = models.AllMetrics
	}
	return &DashboardService{store: s, format: f, metrics: metrics}
}

func (s *DashboardService) metricSet(requested []models.Metric) []models.Metric {
	if len(requested) == 0 {
		return s.metrics
	}
	return requested
}

func (s *DashboardService) LatestChart(metric models.Metric) projection.Chart {
	return projection.Snapshot(metric, s.store.Latest())
}

func (s *DashboardService) SplitChart(metrics []models.Metric) projection.Chart {
	return projection.Split(s.metricSet(metrics), s.store.Latest())
}

func (s *DashboardService) TrendChart(metrics []models.Metric) projection.Chart {
	return projection.Trend(s.metricSet(metrics), s.store.History(), s.format)
}

func (s *DashboardService) Table(source TableSource, metrics []models.Metric) (projection.Table, error) {
	switch source {
	case SourceHistory, "":
		return projection.BuildTable(s.metricSet(metrics), s.store.History(), s.format), nil
	case SourceLatest:
		return projection.LatestTable(s.metricSet(metrics), s.store.Latest(), s.format), nil
	default:
		return projection.Table{}, errInvalidSource
	}
}

// IsInvalidSource reports whether err is an unknown table source.
func IsInvalidSource(err error) bool { return errors.Is(err, errInvalidSource) }
