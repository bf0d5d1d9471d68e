// Package events carries the in-process event plumbing the modules talk
// over: batch runs announcing their summaries, schedules announcing state
// transitions, downtime reports fanning out to alerting. It is pure
// infrastructure; the event types themselves live with the domains.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event that rides the bus.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	// OccurredAt is when the event happened, not when it was delivered.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp plumbing so event types only declare
// their payload fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one EventName.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus connects publishers to subscribers within one process.
type Bus interface {
	// Publish delivers the event to every subscriber of its EventName.
	// Delivery is asynchronous; a slow alert handler must not stall a
	// batch run.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for every handler,
	// returning the first handler error. Used where the caller needs the
	// side effects to have happened.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the given EventName.
	Subscribe(eventName string, handler Handler)
}
