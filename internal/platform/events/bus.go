// Package events provides a small in-process publish/subscribe bus for domain
// events. Handlers run asynchronously on their own goroutines so publishing
// never blocks or fails the triggering command; a panicking handler is
// recovered and logged. Delivery is at-least-once from the handlers' point of
// view, so subscribers must be idempotent.
package events

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Handler consumes one published event payload.
type Handler func(ctx context.Context, payload interface{})

// Bus routes published events to topic subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for a topic. Subscriptions are expected at
// startup; there is no unsubscribe.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish dispatches the payload to every subscriber of the topic, each on
// its own goroutine, and returns immediately. Handlers outlive the
// triggering request: they receive a context that keeps the caller's values
// (request id, acting user) but is detached from its cancellation, so a
// request finishing does not abort the handler's store calls mid-flight.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}) {
	b.mu.RLock()
	subs := b.handlers[topic]
	b.mu.RUnlock()

	hctx := context.WithoutCancel(ctx)
	for _, h := range subs {
		h := h
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)
					b.logger.Error().
						Str("topic", topic).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("event handler panicked")
				}
			}()
			h(hctx, payload)
		}()
	}
}

// Wait blocks until all in-flight handlers have returned. Used during
// shutdown and in tests.
func (b *Bus) Wait() {
	b.wg.Wait()
}
