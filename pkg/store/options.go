package store

import (
	"github.com/wilhg/statebox/pkg/observability"
	"go.opentelemetry.io/otel/trace"
)

type options[S any] struct {
	name       string
	initial    S
	observer   observability.Observer
	equal      func(a, b S) bool
	middleware []Middleware[S]
}

// Option configures a Store at construction time.
type Option[S any] func(*options[S])

// WithName sets the store name used in events and spans. Empty names are
// ignored.
func WithName[S any](name string) Option[S] {
	return func(o *options[S]) {
		if name != "" {
			o.name = name
		}
	}
}

// WithInitialState sets the state the store starts with.
func WithInitialState[S any](state S) Option[S] {
	return func(o *options[S]) { o.initial = state }
}

// WithObserver sets the observer that receives store events.
func WithObserver[S any](obs observability.Observer) Option[S] {
	return func(o *options[S]) { o.observer = obs }
}

// WithEqual replaces the change test used to decide whether listeners are
// notified. The default is Identical.
func WithEqual[S any](eq func(a, b S) bool) Option[S] {
	return func(o *options[S]) { o.equal = eq }
}

// WithMiddleware appends middleware to the store's pipeline. Middleware added
// first run first.
func WithMiddleware[S any](ms ...Middleware[S]) Option[S] {
	return func(o *options[S]) { o.middleware = append(o.middleware, ms...) }
}

// WithTracing puts a tracing middleware in front of the pipeline, so its
// span covers every other middleware. A nil tracer uses the global provider.
func WithTracing[S any](tracer trace.Tracer) Option[S] {
	return func(o *options[S]) {
		o.middleware = append([]Middleware[S]{Tracing[S](tracer)}, o.middleware...)
	}
}
