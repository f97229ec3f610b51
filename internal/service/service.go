package service

import (
	"context"

	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/poller"
	"sensor_dashboard/internal/projection"
	"sensor_dashboard/internal/repository"
	"sensor_dashboard/internal/store"
)

// Monitoring exposes the synced telemetry and the health of the poll cycles.
type Monitoring interface {
	Snapshot() store.Snapshot
	PollStatus() PollStatus
}

// Dashboard builds chart and table projections from the current snapshot.
type Dashboard interface {
	LatestChart(metric models.Metric) projection.Chart
	SplitChart(metrics []models.Metric) projection.Chart
	TrendChart(metrics []models.Metric) projection.Chart
	Table(source TableSource, metrics []models.Metric) (projection.Table, error)
}

// Device sends commands to the actuator and reports its reconciled status.
type Device interface {
	Issue(ctx context.Context, cmd models.Command) (models.DeviceStatus, error)
	Reconcile(ctx context.Context) (models.DeviceStatus, error)
	Status() models.DeviceStatus
}

// EventLog exposes the command audit log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CommandEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Monitoring
	Dashboard
	Device
	EventLog
}

// Deps are the long-lived components the services read from.
type Deps struct {
	Repos   *repository.Repository
	Store   *store.ReadingStore
	Poller  CycleReporter
	Device  Device
	Format  projection.Format
	Metrics []models.Metric
}

// CycleReporter is the part of the poller that reports cycle health.
type CycleReporter interface {
	Running() bool
	Status() []poller.CycleStatus
}

func NewService(d Deps) *Service {
	return &Service{
		Monitoring: NewMonitoringService(d.Store, d.Poller),
		Dashboard:  NewDashboardService(d.Store, d.Format, d.Metrics),
		Device:     d.Device,
		EventLog:   NewEventLogService(d.Repos.EventRepo),
	}
}
