package bus

import "time"

// EventBus is an in-process pub/sub bus for engine lifecycle notifications.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type() string.
// - Synchronous delivery in subscription order, in the publisher's goroutine.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Metrics are only collected while at least one observer is registered.
//
// All methods are safe for concurrent use, but the engine itself publishes
// from its single update goroutine.
type EventBus interface {
	// Publish delivers the event to every active subscriber of event.Type().
	Publish(event Event) error
	// PublishBatch publishes events in order and joins every handler error.
	PublishBatch(events ...Event) error
	// Subscribe registers a handler for eventType and returns a handle to cancel it.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels the given Subscription. It is safe to call with nil.
	Unsubscribe(Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns a snapshot of the counters collected while observed.
	GetMetrics() EventBusMetrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type (
	// EventHandler is invoked per delivered event. A returned error is
	// aggregated by Publish.
	EventHandler func(event Event) error
)

// Subscription represents a registered handler bound to an event type.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnDelivered(eventType string, handlers int, err error)
}

type EventBusMetrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
