package store

import (
	"errors"
	"fmt"

	"github.com/wilhg/statebox/pkg/errmodel"
)

// ErrInvalidAction matches every *InvalidActionError via errors.Is.
var ErrInvalidAction = errors.New("invalid action")

// ErrPanicked is wrapped by the *MiddlewareError that settles a deferred or
// stream action whose goroutine panicked.
var ErrPanicked = errors.New("panicked")

// InvalidActionError is returned when a dispatched value cannot be applied:
// a nil action, a nil function, a composite kind that no middleware resolved,
// or a deferred/stream action dispatched a second time. It is raised before
// any state change.
type InvalidActionError struct {
	Kind   Kind
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action (%s): %s", e.Kind, e.Reason)
}

func (e *InvalidActionError) Is(target error) bool { return target == ErrInvalidAction }

func (e *InvalidActionError) Compact() *errmodel.Error {
	return errmodel.Validation("invalid_action", e.Reason, map[string]any{"kind": e.Kind.String()})
}

// ActionExecutionError wraps an error returned by a transition. State is not
// rolled back: nested dispatches that completed before the failure stay
// applied.
type ActionExecutionError struct {
	Kind Kind
	Err  error
}

func (e *ActionExecutionError) Error() string {
	return fmt.Sprintf("action execution failed (%s): %v", e.Kind, e.Err)
}

func (e *ActionExecutionError) Unwrap() error { return e.Err }

func (e *ActionExecutionError) Compact() *errmodel.Error {
	return errmodel.Execution("action_failed", e.Err.Error(), map[string]any{"kind": e.Kind.String()}, e.Err)
}

// MiddlewareError reports a failure of the asynchronous primitive behind a
// deferred or stream action. It is only ever delivered on the action's own
// outcome (Wait, Err), never returned from Dispatch.
type MiddlewareError struct {
	Kind Kind
	Err  error
}

func (e *MiddlewareError) Error() string {
	return fmt.Sprintf("%s action failed: %v", e.Kind, e.Err)
}

func (e *MiddlewareError) Unwrap() error { return e.Err }

func (e *MiddlewareError) Compact() *errmodel.Error {
	code := "stream_failed"
	if e.Kind == KindDeferred {
		code = "deferred_rejected"
	}
	return errmodel.Middleware(code, e.Err.Error(), map[string]any{"kind": e.Kind.String()}, e.Err)
}

// passthrough reports whether err already carries store classification and
// must not be wrapped again by an enclosing dispatch.
func passthrough(err error) bool {
	var exec *ActionExecutionError
	return errors.Is(err, ErrInvalidAction) || errors.As(err, &exec)
}
