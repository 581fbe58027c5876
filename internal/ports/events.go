package ports

import "context"

const (
	// EventThemeApplied is emitted after a composition has been written to the document root.
	EventThemeApplied = "theme.applied"
	// EventThemeCommitted is emitted when a transition settles and subscribers are notified.
	EventThemeCommitted = "theme.committed"
	// EventThemeReconciled is emitted when a change from another context has been adopted.
	EventThemeReconciled = "theme.reconciled"
	// EventThemeApplyFailed is emitted when the document root rejected a write.
	EventThemeApplyFailed = "theme.apply_failed"
	// EventThemeFallback is emitted when invalid input was replaced by the default composition.
	EventThemeFallback = "theme.fallback"
	// EventStorageFailed is emitted when persisting theme state failed.
	EventStorageFailed = "theme.storage_failed"
	// EventAmbientChanged is emitted when the host appearance signal flips while in system mode.
	EventAmbientChanged = "theme.ambient_changed"
)

// DomainEvent represents a significant occurrence within the engine. Events
// carry structured payloads that downstream subscribers can use for logging,
// UI updates, or integrations.
type DomainEvent interface {
	EventType() string
	Payload() interface{}
}

// EventPublisher distributes events to interested subscribers. Dispatch is
// synchronous: Publish blocks until all handlers run. Handlers may spawn
// goroutines for async processing if work should continue in the background.
// Implementations must be thread-safe.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
}

// EventHandler processes an event of a specific type. Handlers should avoid
// panicking; failures should be surfaced via returned errors so publishers can
// log diagnostics and continue delivering to remaining subscribers.
type EventHandler func(context.Context, DomainEvent) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events and release resources.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain function to the Subscription interface.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}
