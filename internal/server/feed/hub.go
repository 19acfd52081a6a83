// Package feed fans "entries changed for recipient X" signals out to the
// live subscriptions watching X. Signals carry no data: a woken subscriber
// re-reads the full list, so any number of signals collapse into one read.
package feed

import (
	"context"
	"sync"
)

// Notifier is told after an entry has been stored for recipientID.
type Notifier interface {
	Notify(ctx context.Context, recipientID string) error
}

// Listener is one live subscription's wake-up channel.
type Listener struct {
	RecipientID string

	id uint64
	ch chan struct{}
}

// C fires at least once after every Publish for the listener's recipient.
// Bursts collapse into a single wake-up.
func (l *Listener) C() <-chan struct{} {
	return l.ch
}

// Hub routes change signals to listeners by recipient id.
type Hub struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]*Listener
}

func NewHub() *Hub {
	return &Hub{listeners: make(map[string]map[uint64]*Listener)}
}

// Subscribe registers a listener. Every call gets its own listener; callers
// must Unsubscribe.
func (h *Hub) Subscribe(recipientID string) *Listener {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	l := &Listener{RecipientID: recipientID, id: h.nextID, ch: make(chan struct{}, 1)}

	byID, ok := h.listeners[recipientID]
	if !ok {
		byID = make(map[uint64]*Listener)
		h.listeners[recipientID] = byID
	}
	byID[l.id] = l
	return l
}

// Unsubscribe removes l. The channel is not closed: a publisher may already
// hold it.
func (h *Hub) Unsubscribe(l *Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byID := h.listeners[l.RecipientID]
	delete(byID, l.id)
	if len(byID) == 0 {
		delete(h.listeners, l.RecipientID)
	}
}

// Publish wakes every listener of recipientID without blocking.
func (h *Hub) Publish(recipientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, l := range h.listeners[recipientID] {
		wake(l)
	}
}

// PublishAll wakes every listener. Used after the change source reconnects
// and may have missed signals.
func (h *Hub) PublishAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, byID := range h.listeners {
		for _, l := range byID {
			wake(l)
		}
	}
}

// Notify lets the hub serve as a Notifier in single-process mode.
func (h *Hub) Notify(_ context.Context, recipientID string) error {
	h.Publish(recipientID)
	return nil
}

// Count returns the number of live listeners for recipientID.
func (h *Hub) Count(recipientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[recipientID])
}

func wake(l *Listener) {
	select {
	case l.ch <- struct{}{}:
	default:
	}
}
