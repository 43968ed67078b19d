// Package observability carries store lifecycle events to pluggable sinks.
// Levels follow OpenTelemetry severity numbers so events can be forwarded to
// an OTel log pipeline without translation.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event severity in OTel SeverityNumber space.
type Level int

const (
	LevelVerbose Level = 5  // DEBUG range (5-8)
	LevelInfo    Level = 9  // INFO range (9-12)
	LevelWarning Level = 13 // WARN range (13-16)
	LevelError   Level = 17 // ERROR range (17-20)
)

// String returns the OTel severity text.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps the level onto slog.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names an event, e.g. "store.dispatch.complete".
type EventType string

// Event is a single observation emitted by a store. Store and StoreID
// identify the emitter; stores derived with ApplyMiddleware share both.
// Action is the kind of the action being handled, empty for events about the
// store itself.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Store     string
	StoreID   string
	Action    string
	Data      map[string]any
}

// Failed reports whether the event records an error.
func (e Event) Failed() bool { return e.Level >= LevelError }

// Observer receives events. Implementations must be safe for concurrent use:
// deferred and stream actions emit from their own goroutines.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) OnEvent(ctx context.Context, event Event) { f(ctx, event) }
