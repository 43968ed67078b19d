package store

import (
	"context"

	"github.com/wilhg/statebox/pkg/observability"
)

// Handler processes one dispatched action.
type Handler[S any] func(ctx context.Context, mc MiddlewareContext[S], action Action[S]) error

// Middleware wraps a Handler. A middleware may pass the action on with next,
// replace it, dispatch other actions through mc, or drop it by returning
// without calling next.
type Middleware[S any] func(next Handler[S]) Handler[S]

// Chain wraps h with ms. The first middleware is the outermost: it sees an
// action before the others do.
func Chain[S any](h Handler[S], ms ...Middleware[S]) Handler[S] {
	for i := len(ms) - 1; i >= 0; i-- {
		if ms[i] == nil {
			continue
		}
		h = ms[i](h)
	}
	return h
}

// ReduceMiddleware combines ms into a single middleware that runs them in
// order.
func ReduceMiddleware[S any](ms ...Middleware[S]) Middleware[S] {
	ms = append([]Middleware[S](nil), ms...)
	return func(next Handler[S]) Handler[S] {
		return Chain(next, ms...)
	}
}

// Enhancer derives a store from another one.
type Enhancer[S any] func(*Store[S]) *Store[S]

// ApplyMiddleware returns an enhancer that puts ms in front of a store's
// pipeline. The derived store shares state, listeners and the dispatch lock
// with the original; the original keeps its own pipeline.
func ApplyMiddleware[S any](ms ...Middleware[S]) Enhancer[S] {
	ms = append([]Middleware[S](nil), ms...)
	return func(s *Store[S]) *Store[S] {
		out := &Store[S]{core: s.core, handler: Chain(s.handler, ms...)}
		s.core.observe(context.Background(), EventStoreEnhance, observability.LevelInfo, map[string]any{
			"middleware": len(ms),
		})
		return out
	}
}

// Enhance applies enhancers left to right.
func (s *Store[S]) Enhance(enhancers ...Enhancer[S]) *Store[S] {
	out := s
	for _, e := range enhancers {
		if e != nil {
			out = e(out)
		}
	}
	return out
}
