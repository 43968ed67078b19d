package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// SlogObserver writes events to a slog.Logger. The event type is the message,
// Data keys become attributes, and the active span (if any) contributes
// trace_id and span_id so log lines join up with traces.
type SlogObserver struct {
	logger *slog.Logger
}

func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	level := event.Level.SlogLevel()
	if !o.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(event.Data)+5)
	attrs = append(attrs, slog.String("store", event.Store), slog.String("store_id", event.StoreID))
	if event.Action != "" {
		attrs = append(attrs, slog.String("action", event.Action))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}

	o.logger.LogAttrs(ctx, level, string(event.Type), attrs...)
}
