package service

import (
	"sensor_dashboard/internal/store"
)

type MonitoringService struct {
	store  *store.ReadingStore
	poller CycleReporter
}

func NewMonitoringService(s *store.ReadingStore, p CycleReporter) *MonitoringService {
	return &MonitoringService{store: s, poller: p}
}

// Snapshot returns a consistent copy of everything the poller has synced.
func (s *MonitoringService) Snapshot() store.Snapshot {
	return s.store.Snapshot()
}

// PollStatus reports whether polling runs and how each cycle is doing.
func (s *MonitoringService) PollStatus() PollStatus {
	if s.poller == nil {
		return PollStatus{}
	}
	return PollStatus{Running: s.poller.Running(), Cycles: s.poller.Status()}
}
