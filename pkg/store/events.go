package store

import (
	"context"
	"time"

	"github.com/wilhg/statebox/pkg/errmodel"
	"github.com/wilhg/statebox/pkg/observability"
)

const (
	// Store lifecycle
	EventStoreCreate  observability.EventType = "store.create"
	EventStoreEnhance observability.EventType = "store.enhance"
	EventSubscribe    observability.EventType = "store.subscribe"
	EventUnsubscribe  observability.EventType = "store.unsubscribe"

	// Dispatch
	EventDispatchStart    observability.EventType = "store.dispatch.start"
	EventDispatchComplete observability.EventType = "store.dispatch.complete"
	EventDispatchError    observability.EventType = "store.dispatch.error"
	EventNotify           observability.EventType = "store.notify"

	// Built-in middleware
	EventSequenceDrain   observability.EventType = "middleware.sequence.drain"
	EventDeferredResolve observability.EventType = "middleware.deferred.resolve"
	EventDeferredReject  observability.EventType = "middleware.deferred.reject"
	EventStreamComplete  observability.EventType = "middleware.stream.complete"
	EventStreamError     observability.EventType = "middleware.stream.error"
)

func (c *core[S]) observe(ctx context.Context, t observability.EventType, level observability.Level, data map[string]any) {
	c.emit(ctx, observability.Event{Type: t, Level: level, Data: data})
}

// observeAction emits an event about the handling of an action of the given
// kind.
func (c *core[S]) observeAction(ctx context.Context, t observability.EventType, level observability.Level, kind Kind, data map[string]any) {
	c.emit(ctx, observability.Event{Type: t, Level: level, Action: kind.String(), Data: data})
}

func (c *core[S]) observeError(ctx context.Context, t observability.EventType, kind Kind, err error) {
	c.observeAction(ctx, t, observability.LevelError, kind, map[string]any{
		"error": errmodel.WithTrace(ctx, err),
	})
}

func (c *core[S]) emit(ctx context.Context, e observability.Event) {
	if c.silent {
		return
	}
	e.Timestamp = time.Now()
	e.Store, e.StoreID = c.name, c.id
	c.observer.OnEvent(ctx, e)
}
