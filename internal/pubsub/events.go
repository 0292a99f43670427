// Package pubsub provides a small generic publish/subscribe broker and the
// Bubble Tea glue to consume it from an update loop.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// LoggedEvent carries a log entry.
	LoggedEvent EventType = "logged"
	// ProgressEvent carries a submission step change.
	ProgressEvent EventType = "progress"
	// ReloadedEvent carries a configuration reload.
	ReloadedEvent EventType = "reloaded"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
