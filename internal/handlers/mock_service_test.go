package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/projection"
	"sensor_dashboard/internal/service"
	"sensor_dashboard/internal/store"
)

// ---- Service Mocks ----

type mockMonitoring struct {
	snapshot store.Snapshot
	status   service.PollStatus
}

func (m *mockMonitoring) Snapshot() store.Snapshot       { return m.snapshot }
func (m *mockMonitoring) PollStatus() service.PollStatus { return m.status }

type mockDashboard struct {
	chart       projection.Chart
	table       projection.Table
	tableErr    error
	lastMetric  models.Metric
	lastMetrics []models.Metric
	lastSource  service.TableSource
}

func (m *mockDashboard) LatestChart(metric models.Metric) projection.Chart {
	m.lastMetric = metric
	return m.chart
}
func (m *mockDashboard) SplitChart(metrics []models.Metric) projection.Chart {
	m.lastMetrics = metrics
	return m.chart
}
func (m *mockDashboard) TrendChart(metrics []models.Metric) projection.Chart {
	m.lastMetrics = metrics
	return m.chart
}
func (m *mockDashboard) Table(source service.TableSource, metrics []models.Metric) (projection.Table, error) {
	m.lastSource = source
	m.lastMetrics = metrics
	return m.table, m.tableErr
}

type mockDevice struct {
	mu           sync.Mutex
	status       models.DeviceStatus
	issueErr     error
	reconcileErr error
	issued       []models.Command
	reconciles   int
}

func (m *mockDevice) Issue(ctx context.Context, cmd models.Command) (models.DeviceStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued = append(m.issued, cmd)
	if m.issueErr == nil {
		m.status.Pending = &cmd
	}
	return m.status, m.issueErr
}
func (m *mockDevice) Reconcile(ctx context.Context) (models.DeviceStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciles++
	return m.status, m.reconcileErr
}
func (m *mockDevice) Status() models.DeviceStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

type mockEventLog struct {
	resp     []models.CommandEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CommandEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newMockService() *service.Service {
	return &service.Service{
		Monitoring: &mockMonitoring{},
		Dashboard:  &mockDashboard{},
		Device:     &mockDevice{},
		EventLog:   &mockEventLog{},
	}
}

func newTestRouter(s *service.Service, opts ...Option) *gin.Engine {
	h := NewHandler(s, nil, opts...)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
