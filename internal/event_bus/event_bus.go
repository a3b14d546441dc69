// Package event_bus is a synchronous in-process notification bus. The
// command dispatcher publishes a notification after every calendar mutation;
// listeners run sequentially on the caller's goroutine, which keeps the
// single-threaded execution model intact.
package event_bus

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// EventType is an identifier for notifications.
type EventType string

// Event is the envelope published on the bus.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      any
}

func NewEvent(eventType EventType, data any) Event {
	return Event{Type: eventType, Timestamp: time.Now(), Data: data}
}

type handler func(Event) error

// EventBus dispatches published events to subscribed handlers, in
// subscription order, synchronously.
type EventBus struct {
	subscribers map[EventType][]handler
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[EventType][]handler)}
}

// Subscribe registers a handler for the given event type.
func (eb *EventBus) Subscribe(eventType EventType, h func(Event) error) {
	eb.subscribers[eventType] = append(eb.subscribers[eventType], handler(h))
}

// EventT is the typed envelope delivered to typed handlers.
type EventT[T any] struct {
	Type      EventType
	Timestamp time.Time
	Data      T
}

// SubscribeTyped registers a handler expecting a specific payload type T.
// Events whose payload is not a T are ignored by this handler. It is a free
// function because Go does not allow type parameters on methods.
func SubscribeTyped[T any](eb *EventBus, eventType EventType, h func(EventT[T]) error) {
	eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("event bus: type mismatch for %s: expected %T, got %T", eventType, *new(T), e.Data)
			return nil
		}
		return h(EventT[T]{Type: e.Type, Timestamp: e.Timestamp, Data: payload})
	})
}

// Publish delivers the event to every handler registered for its type. All
// handlers run; their errors are collected into one.
func (eb *EventBus) Publish(e Event) error {
	var errs []error
	for _, h := range eb.subscribers[e.Type] {
		if err := h(e); err != nil {
			log.Errorf("event bus: handler error for %s: %v", e.Type, err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %v", e.Type, len(errs), errs)
	}
	return nil
}
