package observability

import "context"

// NoOpObserver drops every event.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(context.Context, Event) {}

// IsNoOp reports whether every event sent to obs would be dropped: obs is
// nil, a NoOpObserver, or a MultiObserver made only of those. Stores use it
// to skip building events nobody reads.
func IsNoOp(obs Observer) bool {
	switch o := obs.(type) {
	case nil, NoOpObserver, *NoOpObserver:
		return true
	case *MultiObserver:
		for _, inner := range o.observers {
			if !IsNoOp(inner) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
