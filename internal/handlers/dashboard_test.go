package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sensor_dashboard/internal/metrics"
	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/projection"
	"sensor_dashboard/internal/service"
	"sensor_dashboard/internal/store"
)

func TestDashboardHandlers_Charts(t *testing.T) {
	dash := &mockDashboard{chart: projection.Chart{
		Title:    "Latest VR Data",
		Labels:   []string{"VR"},
		Datasets: []projection.Dataset{{Metric: models.MetricVR, Label: "VR", Data: []projection.Point{projection.Val(512)}}},
	}}
	s := newMockService()
	s.Dashboard = dash
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/charts/latest/VR", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("latest status=%d body=%s", w.Code, w.Body.String())
	}
	if dash.lastMetric != models.MetricVR {
		t.Fatalf("metric not normalized: %q", dash.lastMetric)
	}
	if !strings.Contains(w.Body.String(), `"labels":["VR"]`) || !strings.Contains(w.Body.String(), `"data":[512]`) {
		t.Fatalf("unexpected chart body %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/charts/latest/humidity", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown metric: want 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/charts/trend?metrics=vr,temp,vr", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("trend status=%d", w.Code)
	}
	if want := []models.Metric{models.MetricVR, models.MetricTemp}; !reflect.DeepEqual(dash.lastMetrics, want) {
		t.Fatalf("metrics: got %v want %v", dash.lastMetrics, want)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/charts/split", nil))
	if w.Code != http.StatusOK || dash.lastMetrics != nil {
		t.Fatalf("split without metrics must pass an empty set, got %v (status %d)", dash.lastMetrics, w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/charts/split?metrics=vr,nope", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad metric list: want 400, got %d", w.Code)
	}
}

func TestDashboardHandlers_NoDataIs200(t *testing.T) {
	s := newMockService()
	s.Dashboard = &mockDashboard{chart: projection.Chart{
		Title:   "Latest Temperature Data",
		NoData:  true,
		Message: "No data available for Temperature chart",
	}}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/charts/latest/temp", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var c projection.Chart
	_ = json.Unmarshal(w.Body.Bytes(), &c)
	if !c.NoData || c.Message != "No data available for Temperature chart" {
		t.Fatalf("unexpected chart %+v", c)
	}
}

func TestDashboardHandlers_TableAndCSV(t *testing.T) {
	dash := &mockDashboard{table: projection.Table{
		Columns: []string{"id", "vr", "date"},
		Rows:    [][]string{{"7", "512", "1/5/2024 17:00"}},
	}}
	s := newMockService()
	s.Dashboard = dash
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/table?source=latest&metrics=vr", nil))
	if w.Code != http.StatusOK || dash.lastSource != service.SourceLatest {
		t.Fatalf("table status=%d source=%q", w.Code, dash.lastSource)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/export.csv", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("csv status=%d", w.Code)
	}
	if dash.lastSource != service.SourceHistory {
		t.Fatalf("default source: got %q", dash.lastSource)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type %q", ct)
	}
	if got, want := w.Body.String(), "id,vr,date\n7,512,1/5/2024 17:00\n"; got != want {
		t.Fatalf("csv body: got %q want %q", got, want)
	}

	dash.tableErr = errInvalidSourceForTest
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/table?source=archive", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad source: want 400, got %d", w.Code)
	}
}

var errInvalidSourceForTest = func() error {
	_, err := service.NewDashboardService(store.New(), projection.Format{}, nil).Table("archive", nil)
	return err
}()

func TestSnapshotHandler(t *testing.T) {
	n := int64(4)
	s := newMockService()
	s.Monitoring = &mockMonitoring{
		snapshot: store.Snapshot{EventCounter: &n},
		status:   service.PollStatus{Running: true},
	}
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var v struct {
		Snapshot struct {
			EventCounter *int64 `json:"event_counter"`
		} `json:"snapshot"`
		Poller service.PollStatus `json:"poller"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Snapshot.EventCounter == nil || *v.Snapshot.EventCounter != 4 || !v.Poller.Running {
		t.Fatalf("unexpected view %s", w.Body.String())
	}
}

func TestMetricsRouteAndMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := newTestRouter(newMockService(), WithMetrics(m, reg))

	for _, p := range []string{"/api/v1/charts/latest/vr", "/api/v1/charts/latest/temp", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`sensor_dashboard_http_requests_total{method="GET",path="/api/v1/charts/latest/:metric",status="200"} 2`,
		`sensor_dashboard_http_requests_total{method="GET",path="unmatched",status="404"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, body)
		}
	}
}

type recordingObserver struct{ paths []string }

func (r *recordingObserver) ObserveHTTP(method, path string, status int, d time.Duration) {
	r.paths = append(r.paths, path)
}

func TestRequestMetrics_UsesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRouter(newMockService(), WithMetrics(obs, nil))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/charts/latest/ldr", nil))
	if len(obs.paths) != 1 || obs.paths[0] != "/api/v1/charts/latest/:metric" {
		t.Fatalf("unexpected paths %v", obs.paths)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("/metrics must not be served without a gatherer, got %d", w.Code)
	}
}
