package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"sensor_dashboard/internal/models"
)

const defaultSubscriberBuffer = 16

// Hub broadcasts notices to in-process subscribers such as WebSocket connections.
// A subscriber whose buffer is full misses the notice; publishers never wait.
type Hub struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    map[uint64]chan models.Notice
	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan models.Notice)}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it and closes
// the channel; it is safe to call more than once.
func (h *Hub) Subscribe(buffer int) (<-chan models.Notice, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	ch := make(chan models.Notice, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Notify(_ context.Context, n models.Notice) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped counts notices not delivered because a subscriber was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }
