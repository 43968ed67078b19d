package observability

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
)

var (
	observersMu sync.RWMutex
	observers   = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
)

// GetObserver resolves an observer named in a store config. "noop" and
// "slog" (default logger) are always present.
func GetObserver(name string) (Observer, error) {
	observersMu.RLock()
	defer observersMu.RUnlock()

	obs, ok := observers[name]
	if !ok {
		return nil, fmt.Errorf("unknown observer %q (registered: %s)", name, strings.Join(names(), ", "))
	}
	return obs, nil
}

// RegisterObserver adds or replaces a named observer. The built-in "noop"
// cannot be replaced, since configs use it to turn events off.
func RegisterObserver(name string, observer Observer) error {
	if name == "" {
		return fmt.Errorf("observer name is empty")
	}
	if name == "noop" {
		return fmt.Errorf("observer %q is reserved", name)
	}
	if observer == nil {
		return fmt.Errorf("observer %q is nil", name)
	}
	observersMu.Lock()
	defer observersMu.Unlock()
	observers[name] = observer
	return nil
}

// Observers lists the registered names in sorted order.
func Observers() []string {
	observersMu.RLock()
	defer observersMu.RUnlock()
	return names()
}

func names() []string {
	return slices.Sorted(maps.Keys(observers))
}
