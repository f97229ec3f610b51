package service

import (
	"testing"
	"time"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/poller"
	"sensor_dashboard/internal/projection"
	"sensor_dashboard/internal/store"
)

func seededStore() *store.ReadingStore {
	s := store.New()
	s.SetLatest(&models.Reading{
		ID:        7,
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Values:    map[models.Metric]float64{models.MetricVR: 512, models.MetricTemp: 26.4},
	})
	s.SetHistory([]models.Reading{
		{ID: 1, Timestamp: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), Values: map[models.Metric]float64{models.MetricVR: 100}},
		{ID: 2, Timestamp: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), Values: map[models.Metric]float64{models.MetricVR: 200}},
	})
	return s
}

func TestDashboardService_DefaultMetricSet(t *testing.T) {
	t.Parallel()

	svc := NewDashboardService(seededStore(), projection.Format{Location: time.UTC}, []models.Metric{models.MetricVR, models.MetricTemp})

	split := svc.SplitChart(nil)
	if len(split.Datasets) != 2 {
		t.Fatalf("expected configured metrics to be used, got %d datasets", len(split.Datasets))
	}
	trend := svc.TrendChart([]models.Metric{models.MetricVR})
	if trend.Title != "VR Trends" || len(trend.Labels) != 2 {
		t.Fatalf("unexpected trend %+v", trend)
	}
	if c := svc.LatestChart(models.MetricLDR); !c.NoData {
		t.Fatalf("missing metric must be no-data, got %+v", c)
	}
}

func TestDashboardService_Table(t *testing.T) {
	t.Parallel()

	svc := NewDashboardService(seededStore(), projection.Format{Location: time.UTC}, nil)

	tests := []struct {
		name     string
		source   TableSource
		wantRows int
		wantErr  bool
	}{
		{name: "default is history", source: "", wantRows: 2},
		{name: "history", source: SourceHistory, wantRows: 2},
		{name: "latest", source: SourceLatest, wantRows: 1},
		{name: "unknown", source: "archive", wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tbl, err := svc.Table(tc.source, []models.Metric{models.MetricVR})
			if tc.wantErr {
				if !IsInvalidSource(err) {
					t.Fatalf("expected invalid source error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tbl.Rows) != tc.wantRows {
				t.Fatalf("rows: want %d, got %d", tc.wantRows, len(tbl.Rows))
			}
		})
	}
}

type stubCycles struct {
	running bool
	cycles  []poller.CycleStatus
}

func (s stubCycles) Running() bool                { return s.running }
func (s stubCycles) Status() []poller.CycleStatus { return s.cycles }

func TestMonitoringService(t *testing.T) {
	t.Parallel()

	cycles := []poller.CycleStatus{{Name: poller.CycleLatest, Interval: 10 * time.Second}}
	svc := NewMonitoringService(seededStore(), stubCycles{running: true, cycles: cycles})

	snap := svc.Snapshot()
	if snap.Latest == nil || snap.Latest.ID != 7 || len(snap.History) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	st := svc.PollStatus()
	if !st.Running || len(st.Cycles) != 1 || st.Cycles[0].Name != poller.CycleLatest {
		t.Fatalf("unexpected poll status %+v", st)
	}

	if st := NewMonitoringService(store.New(), nil).PollStatus(); st.Running {
		t.Fatal("no poller means not running")
	}
}
