package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/wilhg/statebox/pkg/observability"
)

// core is the state shared by a store and every store derived from it with
// ApplyMiddleware: the live state cell, the listener registry with the last
// settled state, and the dispatch lock.
type core[S any] struct {
	id       string
	name     string
	cell     cell[S]
	subs     registry[S]
	equal    func(a, b S) bool
	observer observability.Observer
	silent   bool

	// mu serializes outermost dispatches. depth is only touched while mu is
	// held, by the goroutine holding it.
	mu    sync.Mutex
	depth int

	notifyMu  sync.Mutex
	notifying bool
	pending   bool
}

// frame marks one outermost dispatch. Contexts handed to reducers carry the
// frame; while it is live, dispatches through them run under the lock the
// outermost dispatch already holds.
type frame struct {
	live atomic.Bool
}

func (f *frame) active() bool { return f != nil && f.live.Load() }

// Store is an immutable state container. It is safe for concurrent use:
// outermost dispatches are serialized, and GetState never blocks.
type Store[S any] struct {
	core    *core[S]
	handler Handler[S]
}

// New creates a store. Without WithInitialState the state starts as the zero
// value of S.
func New[S any](opts ...Option[S]) *Store[S] {
	o := options[S]{name: "store"}
	for _, opt := range opts {
		opt(&o)
	}

	c := &core[S]{
		id:       uuid.Must(uuid.NewV7()).String(),
		name:     o.name,
		equal:    o.equal,
		observer: o.observer,
	}
	if c.equal == nil {
		c.equal = Identical[S]
	}
	if c.observer == nil {
		c.observer = observability.NoOpObserver{}
	}
	c.silent = observability.IsNoOp(c.observer)
	c.cell.store(o.initial)
	c.subs.commit(o.initial)

	s := &Store[S]{core: c, handler: Chain(c.apply, o.middleware...)}

	c.observe(context.Background(), EventStoreCreate, observability.LevelInfo, map[string]any{
		"middleware": len(o.middleware),
	})

	return s
}

// ID returns the store's unique identifier. Stores derived with
// ApplyMiddleware share it.
func (s *Store[S]) ID() string { return s.core.id }

// Name returns the configured store name.
func (s *Store[S]) Name() string { return s.core.name }

// GetState returns the current state. The value is shared, not copied:
// callers must treat it as read-only. While a reducer runs on another
// goroutine, GetState may return a nested result its listeners never see.
func (s *Store[S]) GetState() S { return s.core.cell.load() }

// Listeners returns the number of registered listeners.
func (s *Store[S]) Listeners() int { return s.core.subs.len() }

// Subscribe registers l and calls it once, synchronously, with the last
// settled state before returning. If a newer state is being broadcast on
// another goroutine at the same moment, that call may deliver the newer state
// instead. The returned function removes this registration; calling it again
// is a no-op.
func (s *Store[S]) Subscribe(l Listener[S]) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	c := s.core
	sub := &subscription[S]{id: uuid.Must(uuid.NewV7()).String(), fn: l}
	settled, v := c.subs.add(sub)
	c.observe(context.Background(), EventSubscribe, observability.LevelVerbose, map[string]any{
		"subscription_id": sub.id,
	})

	sub.deliver(v, settled)

	var once sync.Once
	return func() {
		once.Do(func() {
			if c.subs.remove(sub) {
				c.observe(context.Background(), EventUnsubscribe, observability.LevelVerbose, map[string]any{
					"subscription_id": sub.id,
				})
			}
		})
	}
}

// Dispatch submits action to the middleware pipeline. It returns an
// *InvalidActionError if the action cannot be applied, an
// *ActionExecutionError if the transition failed, or whatever a middleware
// returned. Deferred and stream actions return as soon as resolution has
// started.
//
// Dispatch must not be called from inside a Reducer on the same goroutine;
// reducers dispatch through their MiddlewareContext.
func (s *Store[S]) Dispatch(ctx context.Context, action Action[S]) error {
	return s.handler(ctx, MiddlewareContext[S]{store: s}, action)
}

// Batch runs fn as a single transition: every dispatch fn makes through mc is
// nested, so listeners are notified at most once, after fn returns.
func (s *Store[S]) Batch(ctx context.Context, fn func(ctx context.Context, mc MiddlewareContext[S]) error) error {
	return s.Dispatch(ctx, CreateAsyncAction(fn))
}

// apply is the base handler at the end of every pipeline.
func (c *core[S]) apply(ctx context.Context, mc MiddlewareContext[S], action Action[S]) error {
	kind := KindOf(action)
	run, err := transition(action)
	if err != nil {
		c.observeError(ctx, EventDispatchError, kind, err)
		return err
	}

	if mc.frame.active() {
		_, err := c.run(ctx, mc, kind, run)
		return err
	}

	f := &frame{}
	changed, err := func() (bool, error) {
		c.mu.Lock()
		f.live.Store(true)
		defer func() {
			f.live.Store(false)
			c.mu.Unlock()
		}()
		mc.frame = f
		changed, err := c.run(ctx, mc, kind, run)
		if changed {
			c.subs.commit(c.cell.load())
		}
		return changed, err
	}()
	if err != nil {
		return err
	}
	if changed {
		c.publish(ctx)
	}
	return nil
}

// run applies one transition and stores its result. It reports whether the
// state changed and this was the outermost level.
func (c *core[S]) run(ctx context.Context, mc MiddlewareContext[S], kind Kind, fn Reducer[S]) (bool, error) {
	prev := c.cell.load()
	c.observeAction(ctx, EventDispatchStart, observability.LevelVerbose, kind, map[string]any{
		"depth": c.depth,
	})

	next, err := func() (S, error) {
		defer c.enter()()
		return fn(ctx, prev, mc)
	}()
	if err != nil {
		if !passthrough(err) {
			err = &ActionExecutionError{Kind: kind, Err: err}
		}
		c.observeError(ctx, EventDispatchError, kind, err)
		return false, err
	}

	c.cell.store(next)
	changed := c.depth == 0 && !c.equal(prev, next)

	c.observeAction(ctx, EventDispatchComplete, observability.LevelVerbose, kind, map[string]any{
		"depth":   c.depth,
		"changed": changed,
	})
	return changed, nil
}

// enter increments the depth counter and returns its release.
func (c *core[S]) enter() (release func()) {
	c.depth++
	return func() { c.depth-- }
}

// publish broadcasts the latest settled state. Only one goroutine broadcasts
// at a time; a change published while a broadcast is running (by a listener,
// or by another goroutine) is picked up by the running broadcaster, which
// repeats until no change is pending.
func (c *core[S]) publish(ctx context.Context) {
	c.notifyMu.Lock()
	c.pending = true
	if c.notifying {
		c.notifyMu.Unlock()
		return
	}
	c.notifying = true
	c.notifyMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.notifyMu.Lock()
			c.notifying = false
			c.pending = false
			c.notifyMu.Unlock()
			panic(r)
		}
	}()

	for {
		c.notifyMu.Lock()
		if !c.pending {
			c.notifying = false
			c.notifyMu.Unlock()
			return
		}
		c.pending = false
		c.notifyMu.Unlock()

		n := c.subs.broadcast()
		c.observe(ctx, EventNotify, observability.LevelVerbose, map[string]any{"listeners": n})
	}
}

// transition returns the runnable form of a callable action.
func transition[S any](action Action[S]) (Reducer[S], error) {
	switch a := action.(type) {
	case Immediate[S]:
		if a == nil {
			return nil, &InvalidActionError{Kind: KindImmediate, Reason: "nil function"}
		}
		return func(_ context.Context, state S, _ MiddlewareContext[S]) (S, error) {
			return a(state), nil
		}, nil
	case Reducer[S]:
		if a == nil {
			return nil, &InvalidActionError{Kind: KindReducer, Reason: "nil function"}
		}
		return a, nil
	case nil:
		return nil, &InvalidActionError{Kind: KindInvalid, Reason: "nil action"}
	default:
		return nil, &InvalidActionError{Kind: a.Kind(), Reason: "not callable; no middleware resolved it"}
	}
}
