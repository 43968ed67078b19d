package store

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/wilhg/statebox/pkg/store"

// Tracing returns a middleware that records a span per dispatch. Nested
// dispatches become child spans of the dispatch that issued them.
func Tracing[S any](tracer trace.Tracer) Middleware[S] {
	return func(next Handler[S]) Handler[S] {
		return func(ctx context.Context, mc MiddlewareContext[S], action Action[S]) error {
			tr := tracer
			if tr == nil {
				tr = otel.Tracer(tracerName)
			}
			ctx, span := tr.Start(ctx, "Store.Dispatch", trace.WithAttributes(
				attribute.String("store.name", mc.store.Name()),
				attribute.String("store.id", mc.store.ID()),
				attribute.String("action.kind", KindOf(action).String()),
				attribute.Bool("dispatch.nested", mc.Nested()),
			))
			defer span.End()

			err := next(ctx, mc, action)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return err
		}
	}
}
