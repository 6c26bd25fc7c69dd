package bus

import (
	"time"

	"github.com/google/uuid"
)

// EventBus is a thread-safe, in-process pub/sub bus for scene lifecycle events.
//
// Key characteristics:
// - Type-based fan-out: handlers subscribe by Event.Type; AnyType receives everything.
// - Synchronous delivery: Publish calls handlers in the caller goroutine, in
//   subscription order.
// - Error aggregation: handler errors are joined and returned from Publish.
// - Optional observability: metrics are produced only when observers are registered.
//
// Handlers run inside the scene tick and should offload heavy work.
type EventBus interface {
	// Publish delivers the event synchronously to all active subscribers of
	// event.Type and of AnyType.
	Publish(event Event) error
	// PublishBatch publishes events sequentially and joins their errors.
	PublishBatch(events ...Event) error

	// Subscribe registers handler for eventType.
	Subscribe(eventType Type, handler Handler) (Subscription, error)
	// Unsubscribe cancels sub. A nil sub is ignored.
	Unsubscribe(sub Subscription) error

	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
	// Metrics returns a snapshot of the counters collected while observed.
	Metrics() Metrics
}

// Type is the routing key of an Event.
type Type string

const (
	// AnyType subscribes to every event type.
	AnyType Type = "*"

	// ObjectQueued is published when a game object enters the activation buffer.
	ObjectQueued Type = "object.queued"
	// ObjectActivated is published when a queued object joins the live set.
	ObjectActivated Type = "object.activated"
	// ObjectRemoving is published when a game object enters the deactivation buffer.
	ObjectRemoving Type = "object.removing"
	// ObjectDeactivated is published once the object has left the live set.
	ObjectDeactivated Type = "object.deactivated"
	// SceneDestroyed is published after a scene destroyed its objects.
	SceneDestroyed Type = "scene.destroyed"
)

// Event is an immutable lifecycle notification.
type Event struct {
	Type     Type           `json:"type"`
	Scene    string         `json:"scene"`
	ObjectID uuid.UUID      `json:"object_id"`
	Object   string         `json:"object,omitempty"`
	Frame    uint64         `json:"frame"`
	Time     time.Time      `json:"time"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Handler is invoked per delivered event; its error is aggregated by Publish.
type Handler func(event Event) error

// Subscription is a registered handler bound to an event type.
type Subscription interface {
	ID() uuid.UUID
	EventType() Type
	IsActive() bool
	// Cancel de-registers the handler. Multiple calls are safe.
	Cancel() error
}

// Observer is notified about deliveries. Observers should return quickly.
type Observer interface {
	OnPublish(event Event)
	OnDelivered(event Event, handlers int, err error, took time.Duration)
}

// Metrics holds the counters maintained while at least one observer is registered.
type Metrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribers_active"`
}
