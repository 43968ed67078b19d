// Package store implements an immutable state container with a middleware
// pipeline.
//
// A Store holds one state value of type S. State changes only by dispatching
// actions; every transition returns a new value and never mutates the old one.
// Subscribers are notified with the settled state after each outermost
// dispatch that changed it.
//
// Actions form a closed union discriminated by Kind:
//   - Immediate: a pure func(S) S transition
//   - Reducer: a transition that also receives a MiddlewareContext so it can
//     dispatch nested actions and read the current state
//   - Deferred: a single future action, resolved by DeferredMiddleware
//   - Sequence: a lazy finite sequence, drained by SequenceMiddleware
//   - Stream: actions emitted over time, consumed by StreamMiddleware
//
// Only Immediate and Reducer actions reach the state cell. Composite kinds
// must be resolved by middleware; without it they fail with ErrInvalidAction.
//
// Example usage:
//
//	st := store.New[int](store.WithMiddleware(store.AsyncActionMiddleware[int]()))
//	unsubscribe := st.Subscribe(func(n int) { fmt.Println("count:", n) })
//	defer unsubscribe()
//
//	inc := store.Immediate[int](func(n int) int { return n + 1 })
//	_ = st.Dispatch(ctx, store.Seq[int](inc, inc, inc))
package store

import (
	"context"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
)

// Kind discriminates the action variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindImmediate
	KindReducer
	KindDeferred
	KindSequence
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindImmediate:
		return "immediate"
	case KindReducer:
		return "reducer"
	case KindDeferred:
		return "deferred"
	case KindSequence:
		return "sequence"
	case KindStream:
		return "stream"
	default:
		return "invalid"
	}
}

// Action is a dispatchable value for a store of state type S. The set of
// implementations is closed: Immediate, Reducer, *Deferred, Sequence and
// *Stream.
type Action[S any] interface {
	Kind() Kind
	action(S)
}

// KindOf reports the kind of a, or KindInvalid for a nil action.
func KindOf[S any](a Action[S]) Kind {
	if a == nil {
		return KindInvalid
	}
	return a.Kind()
}

// Immediate is the simplest transition: a pure function of the current state.
type Immediate[S any] func(state S) S

func (Immediate[S]) Kind() Kind { return KindImmediate }
func (Immediate[S]) action(S)   {}

// Reducer is a transition that can dispatch nested actions through mc.
// Nested dispatches are depth-counted: listeners see only the state settled
// by the outermost dispatch. A Reducer that dispatches nested actions should
// return mc.GetState() (or something derived from it), not the stale state
// argument.
//
// mc is only valid on the calling goroutine and only until the Reducer
// returns. Calling mc.Root().Dispatch synchronously from a Reducer deadlocks;
// use mc.Dispatch instead.
type Reducer[S any] func(ctx context.Context, state S, mc MiddlewareContext[S]) (S, error)

func (Reducer[S]) Kind() Kind { return KindReducer }
func (Reducer[S]) action(S)   {}

// Sequence is a lazy, finite sequence of actions. SequenceMiddleware drains it
// eagerly and dispatches each element in production order.
type Sequence[S any] iter.Seq[Action[S]]

func (Sequence[S]) Kind() Kind { return KindSequence }
func (Sequence[S]) action(S)   {}

// Seq returns a Sequence over the given actions.
func Seq[S any](actions ...Action[S]) Sequence[S] {
	return Sequence[S](slices.Values(slices.Clone(actions)))
}

// outcome records how an asynchronous action finished.
type outcome struct {
	done chan struct{}
	once sync.Once
	err  error
}

func (o *outcome) settle(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Done is closed once the action has been fully resolved.
func (o *outcome) Done() <-chan struct{} { return o.done }

// Err returns the resolution error, or nil while still pending.
func (o *outcome) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until the action is resolved or ctx is done.
func (o *outcome) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Deferred is a single-future action. When dispatched through
// DeferredMiddleware the resolve function runs on its own goroutine and the
// action it produces is dispatched through the store's top-level entry.
// Dispatch returns immediately; the outcome is reported by Wait, Done and Err.
// A Deferred can be dispatched once.
type Deferred[S any] struct {
	resolve func(ctx context.Context) (Action[S], error)
	claimed atomic.Bool
	outcome
}

// Defer creates a Deferred action from a resolve function.
func Defer[S any](resolve func(ctx context.Context) (Action[S], error)) *Deferred[S] {
	d := &Deferred[S]{resolve: resolve}
	d.done = make(chan struct{})
	return d
}

// Resolved creates a Deferred that resolves to a without waiting.
func Resolved[S any](a Action[S]) *Deferred[S] {
	return Defer(func(context.Context) (Action[S], error) { return a, nil })
}

func (*Deferred[S]) Kind() Kind { return KindDeferred }
func (*Deferred[S]) action(S)   {}

func (d *Deferred[S]) claim() bool { return d.claimed.CompareAndSwap(false, true) }

// Emit dispatches one action produced by a Stream.
type Emit[S any] func(ctx context.Context, action Action[S]) error

// Stream is an action that produces zero or more actions over time. When
// dispatched through StreamMiddleware the producer runs on its own goroutine;
// each emitted action is dispatched in emission order, and the stream
// completes when the producer returns. A Stream can be dispatched once.
type Stream[S any] struct {
	produce func(ctx context.Context, emit Emit[S]) error
	claimed atomic.Bool
	outcome
}

// NewStream creates a Stream from a producer. The producer should stop and
// return the error if emit fails.
func NewStream[S any](produce func(ctx context.Context, emit Emit[S]) error) *Stream[S] {
	s := &Stream[S]{produce: produce}
	s.done = make(chan struct{})
	return s
}

// StreamOf creates a Stream that emits every action received from c until c
// is closed. It stops reading at the first failed dispatch.
func StreamOf[S any](c <-chan Action[S]) *Stream[S] {
	return NewStream(func(ctx context.Context, emit Emit[S]) error {
		for a := range c {
			if err := emit(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (*Stream[S]) Kind() Kind { return KindStream }
func (*Stream[S]) action(S)   {}

func (s *Stream[S]) claim() bool { return s.claimed.CompareAndSwap(false, true) }
