package store

import "context"

// CreateAsyncAction turns fn into a Reducer whose result is whatever state
// fn left behind through mc. Dispatches fn makes through mc are nested, so
// listeners see one notification for the whole function. A nil fn yields a
// Reducer that leaves state unchanged.
func CreateAsyncAction[S any](fn func(ctx context.Context, mc MiddlewareContext[S]) error) Reducer[S] {
	return func(ctx context.Context, state S, mc MiddlewareContext[S]) (S, error) {
		if fn == nil {
			return state, nil
		}
		if err := fn(ctx, mc); err != nil {
			return mc.GetState(), err
		}
		return mc.GetState(), nil
	}
}

// ReduceActions combines actions into one Reducer that dispatches them left
// to right as nested actions. It stops at the first failure; earlier actions
// stay applied.
func ReduceActions[S any](actions ...Action[S]) Reducer[S] {
	actions = append([]Action[S](nil), actions...)
	return CreateAsyncAction(func(ctx context.Context, mc MiddlewareContext[S]) error {
		for _, a := range actions {
			if err := mc.Dispatch(ctx, a); err != nil {
				return err
			}
		}
		return nil
	})
}
