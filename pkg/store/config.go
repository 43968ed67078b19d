package store

import (
	"fmt"

	"github.com/wilhg/statebox/pkg/config"
	"github.com/wilhg/statebox/pkg/observability"
)

// NewFromConfig creates a store assembled from cfg: the named observer, the
// named built-in middleware in order and, unless disabled, tracing in front
// of them. opts are applied after the configuration and may override it.
func NewFromConfig[S any](cfg config.Config, opts ...Option[S]) (*Store[S], error) {
	var obs observability.Observer = observability.NoOpObserver{}
	if cfg.Observer != "" {
		var err error
		if obs, err = observability.GetObserver(cfg.Observer); err != nil {
			return nil, fmt.Errorf("store %q: %w", cfg.Name, err)
		}
	}

	ms := make([]Middleware[S], 0, len(cfg.Middleware))
	for _, name := range cfg.Middleware {
		m, err := MiddlewareByName[S](name)
		if err != nil {
			return nil, fmt.Errorf("store %q: %w", cfg.Name, err)
		}
		ms = append(ms, m)
	}

	base := []Option[S]{
		WithName[S](cfg.Name),
		WithObserver[S](obs),
		WithMiddleware(ms...),
	}
	if cfg.Tracing() {
		base = append(base, WithTracing[S](nil))
	}
	return New(append(base, opts...)...), nil
}
