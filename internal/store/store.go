// Package store holds the dashboard's view-state: the latest reading, the server's
// reading window and the event counter. Setters replace a field wholesale and
// accessors hand out copies, so readers never observe a half-applied update.
package store

import (
	"sync"
	"time"

	"sensor_dashboard/internal/models"
)

// Snapshot is an immutable copy of the store taken under a single lock.
type Snapshot struct {
	Latest       *models.Reading  `json:"latest"`
	History      []models.Reading `json:"history"`
	EventCounter *int64           `json:"event_counter"`

	LatestUpdatedAt       time.Time `json:"latest_updated_at,omitempty"`
	HistoryUpdatedAt      time.Time `json:"history_updated_at,omitempty"`
	EventCounterUpdatedAt time.Time `json:"event_counter_updated_at,omitempty"`
}

// ReadingStore is safe for concurrent use. Each poll cycle writes a disjoint field.
type ReadingStore struct {
	mu  sync.RWMutex
	now func() time.Time

	latest       *models.Reading
	history      []models.Reading
	eventCounter *int64

	latestAt, historyAt, counterAt time.Time
}

// New returns an empty store.
func New() *ReadingStore {
	return &ReadingStore{now: time.Now}
}

// SetLatest replaces the latest reading. nil means "no data".
func (s *ReadingStore) SetLatest(r *models.Reading) {
	var cp *models.Reading
	if r != nil {
		c := r.Clone()
		cp = &c
	}
	s.mu.Lock()
	s.latest = cp
	s.latestAt = s.now()
	s.mu.Unlock()
}

// SetHistory replaces the history window, keeping the given order and dropping
// earlier duplicates of an id so the last-seen reading wins.
func (s *ReadingStore) SetHistory(readings []models.Reading) {
	h := dedupKeepLast(readings)
	s.mu.Lock()
	s.history = h
	s.historyAt = s.now()
	s.mu.Unlock()
}

// SetEventCounter replaces the event counter. nil means "no data".
func (s *ReadingStore) SetEventCounter(n *int64) {
	var cp *int64
	if n != nil {
		v := *n
		cp = &v
	}
	s.mu.Lock()
	s.eventCounter = cp
	s.counterAt = s.now()
	s.mu.Unlock()
}

// Latest returns a copy of the latest reading, or nil.
func (s *ReadingStore) Latest() *models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReading(s.latest)
}

// History returns a copy of the history window.
func (s *ReadingStore) History() []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReadings(s.history)
}

// EventCounter returns a copy of the event counter, or nil.
func (s *ReadingStore) EventCounter() *int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneInt(s.eventCounter)
}

// Snapshot returns every field at once.
func (s *ReadingStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Latest:                cloneReading(s.latest),
		History:               cloneReadings(s.history),
		EventCounter:          cloneInt(s.eventCounter),
		LatestUpdatedAt:       s.latestAt,
		HistoryUpdatedAt:      s.historyAt,
		EventCounterUpdatedAt: s.counterAt,
	}
}

// Reset drops all data, as on dashboard teardown.
func (s *ReadingStore) Reset() {
	s.mu.Lock()
	s.latest, s.history, s.eventCounter = nil, nil, nil
	s.latestAt, s.historyAt, s.counterAt = time.Time{}, time.Time{}, time.Time{}
	s.mu.Unlock()
}

// dedupKeepLast removes every reading whose id appears again later in the slice.
func dedupKeepLast(in []models.Reading) []models.Reading {
	if len(in) == 0 {
		return []models.Reading{}
	}
	last := make(map[int64]int, len(in))
	for i, r := range in {
		last[r.ID] = i
	}
	out := make([]models.Reading, 0, len(last))
	for i, r := range in {
		if last[r.ID] == i {
			out = append(out, r.Clone())
		}
	}
	return out
}

func cloneReading(r *models.Reading) *models.Reading {
	if r == nil {
		return nil
	}
	c := r.Clone()
	return &c
}

func cloneReadings(in []models.Reading) []models.Reading {
	out := make([]models.Reading, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

func cloneInt(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
