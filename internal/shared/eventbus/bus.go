package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pocketmirror/internal/shared/logger"
)

// Event is a discrete message delivered to subscribers. Data carries the
// decoded payload; Source names the producer (e.g. the realtime listener).
type Event struct {
	Type      string
	Data      interface{}
	Source    string
	Timestamp time.Time
}

// NewEvent builds an event stamped with the current time.
func NewEvent(eventType string, data interface{}, source string) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// Handler processes a single event.
type Handler func(ctx context.Context, event Event) error

// Bus is an in-process event dispatcher. Handlers for one event type run
// sequentially in subscription order; a failing handler is retried before
// the publish fails.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      logger.Logger

	maxRetries int
	retryDelay time.Duration
}

// NewBus creates a bus with default retry behavior.
func NewBus(log logger.Logger) *Bus {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Bus{
		handlers:   make(map[string][]Handler),
		log:        log,
		maxRetries: 3,
		retryDelay: 100 * time.Millisecond,
	}
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.log.Debugf("subscribed handler for event type %s", eventType)
}

// Unsubscribe removes all handlers for an event type.
func (b *Bus) Unsubscribe(eventType string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, eventType)
}

// SubscriberCount returns the number of handlers for an event type.
func (b *Bus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Publish delivers the event to every registered handler, retrying each
// failing handler up to maxRetries times.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debugf("no handlers for event type %s", event.Type)
		return nil
	}

	for i, handler := range handlers {
		if err := b.runHandler(ctx, event, handler, i); err != nil {
			return err
		}
	}
	return nil
}

// PublishAndForget delivers the event asynchronously, logging failures.
func (b *Bus) PublishAndForget(ctx context.Context, event Event) {
	go func() {
		if err := b.Publish(ctx, event); err != nil {
			b.log.Errorf("failed to publish event %s: %v", event.Type, err)
		}
	}()
}

func (b *Bus) runHandler(ctx context.Context, event Event, handler Handler, idx int) error {
	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			b.log.Warnf("retrying handler %d for event %s (attempt %d/%d)",
				idx, event.Type, attempt+1, b.maxRetries+1)
			select {
			case <-time.After(b.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := handler(ctx, event); err != nil {
			lastErr = err
			b.log.Errorf("handler %d failed for event %s: %v", idx, event.Type, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("handler failed after %d attempts: %w", b.maxRetries+1, lastErr)
}

// Event types published by the realtime listener.
const (
	EventTypeRecordCreated = "record.create"
	EventTypeRecordUpdated = "record.update"
	EventTypeRecordDeleted = "record.delete"

	// EventTypeResyncNeeded signals that push events may have been missed
	// and the next pass must not rely on the realtime short-circuit.
	EventTypeResyncNeeded = "sync.resync"
)
