package poller

import (
	"context"
	"time"

	"sensor_dashboard/internal/logger"
	"sensor_dashboard/internal/models"
	"sensor_dashboard/internal/store"
)

// Cycle names.
const (
	CycleLatest       = "latest"
	CycleHistory      = "history"
	CycleEventCounter = "event_counter"
	CycleDeviceStatus = "device_status"
)

type LatestFetcher interface {
	FetchLatest(ctx context.Context) (*models.Reading, error)
}

type HistoryFetcher interface {
	FetchHistory(ctx context.Context) ([]models.Reading, error)
}

type EventCountFetcher interface {
	FetchEventCount(ctx context.Context) (int64, error)
}

// StatusReconciler fetches the device status and returns the reconciliation step to apply.
type StatusReconciler interface {
	PrepareReconcile(ctx context.Context) (apply func(), err error)
}

// LatestJob keeps the store's latest reading in sync.
func LatestJob(f LatestFetcher, s *store.ReadingStore, every time.Duration) Job {
	return Job{
		Name:     CycleLatest,
		Interval: every,
		Run: func(ctx context.Context) (func(), error) {
			r, err := f.FetchLatest(ctx)
			if err != nil {
				return nil, err
			}
			return func() { s.SetLatest(r) }, nil
		},
		Stale: func() { s.SetLatest(nil) },
	}
}

// HistoryJob replaces the store's history window on every successful fetch.
func HistoryJob(f HistoryFetcher, s *store.ReadingStore, every time.Duration) Job {
	return Job{
		Name:     CycleHistory,
		Interval: every,
		Run: func(ctx context.Context) (func(), error) {
			h, err := f.FetchHistory(ctx)
			if err != nil {
				return nil, err
			}
			return func() { s.SetHistory(h) }, nil
		},
		Stale: func() { s.SetHistory(nil) },
	}
}

// EventCounterJob tracks the server's event counter. A decrease is stored anyway and logged.
func EventCounterJob(f EventCountFetcher, s *store.ReadingStore, every time.Duration, log *logger.Logger) Job {
	log = logger.OrNop(log)
	return Job{
		Name:     CycleEventCounter,
		Interval: every,
		Run: func(ctx context.Context) (func(), error) {
			n, err := f.FetchEventCount(ctx)
			if err != nil {
				return nil, err
			}
			return func() {
				if prev := s.EventCounter(); prev != nil && n < *prev {
					log.Warnw("event_counter_decreased", "previous", *prev, "current", n)
				}
				s.SetEventCounter(&n)
			}, nil
		},
		Stale: func() { s.SetEventCounter(nil) },
	}
}

// DeviceStatusJob drives command reconciliation. Device status has no stale state;
// failures leave it untouched.
func DeviceStatusJob(r StatusReconciler, every time.Duration) Job {
	return Job{
		Name:     CycleDeviceStatus,
		Interval: every,
		Run:      r.PrepareReconcile,
	}
}
