// Package eventbus publishes automation lifecycle events and dispatches them to handlers.
package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukex/autoflow/pkg/events"
)

// ErrUnexpectedEvent is returned by a typed handler given a payload of another type.
var ErrUnexpectedEvent = errors.New("unexpected event payload")

type Event interface {
	GetType() events.EventType
}

// EventPublisher sends an event keyed by the automation it concerns.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber routes decoded events to at most one handler per event type.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the decoded event payload.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}

// Typed adapts a handler of one concrete event type.
func Typed[T any](handler func(ctx context.Context, event *T) error) EventHandler {
	return func(ctx context.Context, event any) error {
		typed, ok := event.(*T)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnexpectedEvent, event)
		}

		return handler(ctx, typed)
	}
}
