// Package events carries domain events between modules that must not
// import each other.
package events

import (
	"context"
	"time"
)

// Event is anything published on a Bus.
type Event interface {
	// EventName is the subscription key, e.g. "leads.lead.transferred".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events to carry the publish time.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe to a Bus.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Bus routes events to the handlers subscribed under their name.
type Bus interface {
	// Publish returns immediately; handler failures never reach the caller.
	Publish(ctx context.Context, event Event)
	Subscribe(eventName string, handler Handler)
}
