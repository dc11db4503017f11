package Services

import (
	"context"
	"sync"
)

// Hub fans a snapshot out to every subscriber. Each subscriber owns a
// one-slot channel; a slow reader only ever sees the most recent snapshot and
// never blocks Publish. Snapshots are shared and must not be modified.
type Hub[T any] struct {
	mu      sync.Mutex
	subs    map[uint64]chan []T
	next    uint64
	last    []T
	hasLast bool
	closed  bool
	done    chan struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[uint64]chan []T),
		done: make(chan struct{}),
	}
}

// Subscribe registers a subscriber whose channel already holds the latest
// published snapshot, or initial when nothing was published yet. The channel
// is closed once ctx is done or the hub is closed.
func (h *Hub[T]) Subscribe(ctx context.Context, initial []T) <-chan []T {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan []T, 1)
	if h.closed {
		close(ch)
		return ch
	}

	if h.hasLast {
		ch <- h.last
	} else {
		ch <- initial
	}

	id := h.next
	h.next++
	h.subs[id] = ch

	go func() {
		select {
		case <-ctx.Done():
			h.unsubscribe(id)
		case <-h.done:
		}
	}()

	return ch
}

// Publish replaces whatever each subscriber has not read yet with list.
func (h *Hub[T]) Publish(list []T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.last = list
	h.hasLast = true

	for _, ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		// only Publish sends, under h.mu, so the slot is free now
		ch <- list
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub[T]) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Closed reports whether Close was called.
func (h *Hub[T]) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub[T]) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}
