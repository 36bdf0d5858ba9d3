package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler consumes one event. Handlers must be idempotent keyed by
// Meta().EventID: delivery is at-least-once within the process.
type Handler func(ctx context.Context, e Event)

// Bus is a single-process fan-out. Publish delivers synchronously to
// every subscriber in subscription order; a subscriber failure or panic
// is logged and dropped, never propagated to the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// NewBus creates a bus. A nil logger uses slog's default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers each event to every subscriber. Events from a single
// (student, skill) pair are published by the tracker under its per-pair
// lock, so each subscriber observes them in causal order.
func (b *Bus) Publish(ctx context.Context, evts ...Event) {
	b.mu.RLock()
	handlers := b.handlers
	b.mu.RUnlock()

	for _, e := range evts {
		for _, h := range handlers {
			b.deliver(ctx, h, e)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				"event_kind", string(e.Kind()),
				"event_id", e.Meta().EventID,
				"panic", fmt.Sprint(r))
		}
	}()
	h(ctx, e)
}
