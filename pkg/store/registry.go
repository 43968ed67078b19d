package store

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Listener observes settled state after each change. A listener is never
// called concurrently with itself, and the states it receives never go
// backwards.
type Listener[S any] func(state S)

// cell is the live state. Only the base handler writes it, while holding the
// dispatch lock; reads are lock-free and may see a nested dispatch's result
// before the outermost one settles.
type cell[S any] struct {
	p atomic.Pointer[S]
}

func (c *cell[S]) load() S {
	if p := c.p.Load(); p != nil {
		return *p
	}
	var zero S
	return zero
}

func (c *cell[S]) store(v S) {
	c.p.Store(&v)
}

// subscription is a registration entry. Its address is the identity used for
// removal, so the same listener func may be registered more than once.
//
// Each entry is a one-slot mailbox. queued is the newest version handed to it
// and delivered the newest one passed to fn; running is set while a goroutine
// is draining the mailbox.
type subscription[S any] struct {
	id string
	fn Listener[S]

	mu        sync.Mutex
	next      S
	queued    uint64
	delivered uint64
	running   bool
	removed   bool
}

// deliver hands the settled state with version v to the listener unless it
// already has v or a later one. If another goroutine is inside fn, the state
// is left in the mailbox for that goroutine, replacing any older one.
func (sub *subscription[S]) deliver(v uint64, state S) {
	sub.mu.Lock()
	if sub.removed || v <= sub.queued {
		sub.mu.Unlock()
		return
	}
	sub.queued, sub.next = v, state
	if sub.running {
		sub.mu.Unlock()
		return
	}
	sub.running = true

	defer func() {
		if r := recover(); r != nil {
			sub.mu.Lock()
			sub.running = false
			sub.mu.Unlock()
			panic(r)
		}
	}()

	var zero S
	for !sub.removed && sub.queued > sub.delivered {
		cur := sub.next
		sub.delivered, sub.next = sub.queued, zero
		sub.mu.Unlock()
		sub.fn(cur)
		sub.mu.Lock()
	}
	sub.running = false
	sub.mu.Unlock()
}

func (sub *subscription[S]) cancel() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	var zero S
	sub.removed, sub.next = true, zero
}

// registry keeps listeners in insertion order together with the last settled
// state. The slice is copied on every write, so a snapshot taken for a
// broadcast never changes underneath it.
type registry[S any] struct {
	mu      sync.Mutex
	subs    []*subscription[S]
	settled S
	version uint64
}

// commit records next as the latest settled state. Callers hold the dispatch
// lock, so versions follow dispatch completion order.
func (r *registry[S]) commit(next S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled = next
	r.version++
}

// add registers sub and returns the settled state it starts from.
func (r *registry[S]) add(sub *subscription[S]) (S, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]*subscription[S], len(r.subs), len(r.subs)+1)
	copy(next, r.subs)
	r.subs = append(next, sub)
	return r.settled, r.version
}

// remove drops the first entry identical to sub and reports whether it was
// present. A removed entry receives nothing further, even from a broadcast
// already in progress.
func (r *registry[S]) remove(sub *subscription[S]) bool {
	r.mu.Lock()
	i := slices.Index(r.subs, sub)
	if i >= 0 {
		r.subs = slices.Delete(slices.Clone(r.subs), i, i+1)
	}
	r.mu.Unlock()
	if i < 0 {
		return false
	}
	sub.cancel()
	return true
}

// snapshot returns the listeners and the settled state they should see, read
// together.
func (r *registry[S]) snapshot() ([]*subscription[S], S, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subs, r.settled, r.version
}

func (r *registry[S]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// broadcast hands the latest settled state to every listener registered when
// it starts, in order, and returns how many there were.
func (r *registry[S]) broadcast() int {
	subs, state, v := r.snapshot()
	for _, sub := range subs {
		sub.deliver(v, state)
	}
	return len(subs)
}
