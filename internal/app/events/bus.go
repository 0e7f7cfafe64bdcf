// Package events implements the in-process update notification bus.
//
// Publish is synchronous and fire-and-forget: every handler registered at
// the time of the call runs before Publish returns. Handlers may subscribe
// or unsubscribe at any time, including from inside a handler.
package events

import (
	"sync"

	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
	"github.com/greenpoint-eco/greenpoint/internal/infra/observability"
)

// Handler receives every event published after it subscribed.
type Handler func(domain.Event)

// Publisher is the write side of the bus, accepted by services that emit events.
type Publisher interface {
	Publish(ev domain.Event)
}

// Bus fans events out to subscribers.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]Handler
	log      *logger.Logger
}

// NewBus creates an empty bus. log may be nil.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[uint64]Handler),
		log:      logger.OrNop(log).Component("events"),
	}
}

// Subscribe registers h. The returned func removes it and is safe to call twice.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber. A panicking handler is
// logged and counted and does not stop delivery to the others.
func (b *Bus) Publish(ev domain.Event) {
	if ev == nil {
		return
	}
	b.mu.RLock()
	snapshot := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		snapshot = append(snapshot, h)
	}
	b.mu.RUnlock()

	observability.EventsPublished.WithLabelValues(string(ev.Kind())).Inc()
	for _, h := range snapshot {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			observability.EventHandlerPanics.WithLabelValues(string(ev.Kind())).Inc()
			b.log.Error("event handler panicked", "kind", ev.Kind(), "panic", r)
		}
	}()
	h(ev)
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// ─── Channel Adapter ────────────────────────────────────────────────────────

// SubscribeChan registers a buffered channel subscriber for streaming
// consumers. Events are dropped when the buffer is full. The returned func
// unsubscribes; the channel is never closed so late publishes cannot panic.
func (b *Bus) SubscribeChan(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan domain.Event, buffer)
	unsub := b.Subscribe(func(ev domain.Event) {
		select {
		case ch <- ev:
		default:
			// Client too slow, drop the event.
			observability.EventsDropped.Inc()
		}
	})
	return ch, unsub
}

// Nop is a Publisher that discards events.
type Nop struct{}

func (Nop) Publish(domain.Event) {}
