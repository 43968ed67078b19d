package store

import "context"

// MiddlewareContext is the view of the store handed to middleware and
// reducers. Dispatch re-enters the pipeline at its top, so nested actions
// pass through every middleware of the store they were dispatched on.
type MiddlewareContext[S any] struct {
	store *Store[S]
	frame *frame
}

// Dispatch submits a nested action. Inside a running Reducer the nested
// transition happens under the current dispatch and listeners are not
// notified until the outermost one settles. Outside of a Reducer it behaves
// like Store.Dispatch.
func (mc MiddlewareContext[S]) Dispatch(ctx context.Context, action Action[S]) error {
	return mc.store.handler(ctx, mc, action)
}

// GetState returns the current state, including changes made by nested
// dispatches that already completed.
func (mc MiddlewareContext[S]) GetState() S {
	return mc.store.core.cell.load()
}

// Nested reports whether mc belongs to a dispatch that is still running.
func (mc MiddlewareContext[S]) Nested() bool { return mc.frame.active() }

// Root returns a context that dispatches at the top level, as if through
// Store.Dispatch. Middleware that resolve actions on other goroutines
// dispatch through it.
func (mc MiddlewareContext[S]) Root() MiddlewareContext[S] {
	return MiddlewareContext[S]{store: mc.store}
}

// Store returns the store the dispatch entered through.
func (mc MiddlewareContext[S]) Store() *Store[S] { return mc.store }
