package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/wilhg/statebox/pkg/observability"
)

// SequenceMiddleware drains Sequence actions and dispatches every element
// through mc, in order. It stops at the first element that fails and returns
// that error; elements already dispatched stay applied. Other actions pass
// through.
//
// Outside of a Reducer each element is an outermost dispatch of its own, so
// listeners are notified once per changing element.
func SequenceMiddleware[S any]() Middleware[S] {
	return func(next Handler[S]) Handler[S] {
		return func(ctx context.Context, mc MiddlewareContext[S], action Action[S]) error {
			seq, ok := action.(Sequence[S])
			if !ok {
				return next(ctx, mc, action)
			}
			if seq == nil {
				return &InvalidActionError{Kind: KindSequence, Reason: "nil sequence"}
			}
			n := 0
			for a := range seq {
				if err := mc.Dispatch(ctx, a); err != nil {
					return err
				}
				n++
			}
			mc.store.core.observeAction(ctx, EventSequenceDrain, observability.LevelVerbose, KindSequence, map[string]any{
				"actions": n,
			})
			return nil
		}
	}
}

// DeferredMiddleware resolves Deferred actions on a new goroutine and
// dispatches the result at the top level. Dispatch returns as soon as the
// goroutine has started. Resolve failures, panics included, are reported on
// the Deferred itself as a *MiddlewareError and leave state untouched. Other
// actions pass through.
func DeferredMiddleware[S any]() Middleware[S] {
	return func(next Handler[S]) Handler[S] {
		return func(ctx context.Context, mc MiddlewareContext[S], action Action[S]) error {
			d, ok := action.(*Deferred[S])
			if !ok {
				return next(ctx, mc, action)
			}
			if d == nil || d.resolve == nil {
				return &InvalidActionError{Kind: KindDeferred, Reason: "nil resolve function"}
			}
			if !d.claim() {
				return &InvalidActionError{Kind: KindDeferred, Reason: "already dispatched"}
			}

			root := mc.Root()
			c := mc.store.core
			ctx = context.WithoutCancel(ctx)
			go func() {
				defer c.recoverAsync(ctx, KindDeferred, EventDeferredReject, d.settle)
				resolved, err := d.resolve(ctx)
				if err != nil {
					err = &MiddlewareError{Kind: KindDeferred, Err: err}
					c.observeError(ctx, EventDeferredReject, KindDeferred, err)
					d.settle(err)
					return
				}
				c.observeAction(ctx, EventDeferredResolve, observability.LevelVerbose, KindDeferred, map[string]any{
					"resolved_kind": KindOf(resolved).String(),
				})
				d.settle(root.Dispatch(ctx, resolved))
			}()
			return nil
		}
	}
}

// StreamMiddleware runs the producer of Stream actions on a new goroutine.
// Every emitted action is dispatched at the top level, in emission order, and
// emit returns that dispatch's error. The stream's outcome is settled when
// the producer returns; a producer panic settles it with a *MiddlewareError.
// Other actions pass through.
func StreamMiddleware[S any]() Middleware[S] {
	return func(next Handler[S]) Handler[S] {
		return func(ctx context.Context, mc MiddlewareContext[S], action Action[S]) error {
			s, ok := action.(*Stream[S])
			if !ok {
				return next(ctx, mc, action)
			}
			if s == nil || s.produce == nil {
				return &InvalidActionError{Kind: KindStream, Reason: "nil producer"}
			}
			if !s.claim() {
				return &InvalidActionError{Kind: KindStream, Reason: "already dispatched"}
			}

			root := mc.Root()
			c := mc.store.core
			ctx = context.WithoutCancel(ctx)
			go func() {
				defer c.recoverAsync(ctx, KindStream, EventStreamError, s.settle)
				emitted := 0
				err := s.produce(ctx, func(ctx context.Context, a Action[S]) error {
					emitted++
					return root.Dispatch(ctx, a)
				})
				if err != nil {
					err = &MiddlewareError{Kind: KindStream, Err: err}
					c.observeError(ctx, EventStreamError, KindStream, err)
					s.settle(err)
					return
				}
				c.observeAction(ctx, EventStreamComplete, observability.LevelVerbose, KindStream, map[string]any{
					"actions": emitted,
				})
				s.settle(nil)
			}()
			return nil
		}
	}
}

// recoverAsync is deferred by middleware goroutines. A panic there has no
// caller to unwind to, so it settles the action's outcome instead.
func (c *core[S]) recoverAsync(ctx context.Context, kind Kind, t observability.EventType, settle func(error)) {
	r := recover()
	if r == nil {
		return
	}
	err := &MiddlewareError{Kind: kind, Err: fmt.Errorf("%w: %v", ErrPanicked, r)}
	c.observeError(ctx, t, kind, err)
	settle(err)
}

// AsyncActionMiddleware bundles the sequence, deferred and stream
// middleware, in that order.
func AsyncActionMiddleware[S any]() Middleware[S] {
	return ReduceMiddleware(
		SequenceMiddleware[S](),
		DeferredMiddleware[S](),
		StreamMiddleware[S](),
	)
}

// MiddlewareByName returns a built-in middleware by its configuration name:
// "sequence", "deferred", "stream", "async" or "tracing".
func MiddlewareByName[S any](name string) (Middleware[S], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sequence":
		return SequenceMiddleware[S](), nil
	case "deferred":
		return DeferredMiddleware[S](), nil
	case "stream":
		return StreamMiddleware[S](), nil
	case "async":
		return AsyncActionMiddleware[S](), nil
	case "tracing":
		return Tracing[S](nil), nil
	default:
		return nil, fmt.Errorf("unknown middleware %q", name)
	}
}
