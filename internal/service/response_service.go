package service

import (
	"time"

	"sensor_dashboard/internal/poller"
)

// LogFilter narrows the command audit log by time range and notice kind.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "ACCEPTED", "FAILED", "CONFIRMED", "UNCONFIRMED", "SUPERSEDED"
}

// PollStatus is the health report of the poller.
type PollStatus struct {
	Running bool                 `json:"running"`
	Cycles  []poller.CycleStatus `json:"cycles"`
}

// TableSource selects which readings a table is built from.
type TableSource string

const (
	SourceHistory TableSource = "history"
	SourceLatest  TableSource = "latest"
)
