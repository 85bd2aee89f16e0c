package event

import (
	"sync"

	"github.com/storefront/backend/internal/domain/shared"
)

type subscription struct {
	handler shared.EventHandler
	async   bool
}

// HandlerRegistry maps event types to subscribed handlers. Handlers
// registered without event types receive every event.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	wildcard []subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]subscription)}
}

// Register adds a synchronous handler
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.add(subscription{handler: handler}, eventTypes)
}

// RegisterAsync adds a handler the bus runs off the publishing goroutine
func (r *HandlerRegistry) RegisterAsync(handler shared.EventHandler, eventTypes ...string) {
	r.add(subscription{handler: handler, async: true}, eventTypes)
}

func (r *HandlerRegistry) add(sub subscription, eventTypes []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, sub)
		return
	}
	for _, eventType := range eventTypes {
		r.handlers[eventType] = append(r.handlers[eventType], sub)
	}
}

// Unregister removes a handler from every event type
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wildcard = without(r.wildcard, handler)
	for eventType, subs := range r.handlers {
		if rest := without(subs, handler); len(rest) > 0 {
			r.handlers[eventType] = rest
		} else {
			delete(r.handlers, eventType)
		}
	}
}

// GetHandlers returns the type-specific handlers followed by the wildcard ones
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	subs := r.subscriptions(eventType)
	out := make([]shared.EventHandler, len(subs))
	for i, s := range subs {
		out[i] = s.handler
	}
	return out
}

func (r *HandlerRegistry) subscriptions(eventType string) []subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typed := r.handlers[eventType]
	out := make([]subscription, 0, len(typed)+len(r.wildcard))
	out = append(out, typed...)
	return append(out, r.wildcard...)
}

// Count returns the number of distinct handlers
func (r *HandlerRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[shared.EventHandler]struct{})
	for _, s := range r.wildcard {
		seen[s.handler] = struct{}{}
	}
	for _, subs := range r.handlers {
		for _, s := range subs {
			seen[s.handler] = struct{}{}
		}
	}
	return len(seen)
}

func without(subs []subscription, target shared.EventHandler) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.handler != target {
			out = append(out, s)
		}
	}
	return out
}
