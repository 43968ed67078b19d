package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/wilhg/statebox/pkg/observability"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		name  string
		level observability.Level
		want  string
	}{
		{name: "trace range", level: 2, want: "TRACE"},
		{name: "verbose", level: observability.LevelVerbose, want: "DEBUG"},
		{name: "info", level: observability.LevelInfo, want: "INFO"},
		{name: "warning", level: observability.LevelWarning, want: "WARN"},
		{name: "error", level: observability.LevelError, want: "ERROR"},
		{name: "fatal range", level: 24, want: "FATAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  slog.Level
	}{
		{observability.LevelVerbose, slog.LevelDebug},
		{observability.LevelInfo, slog.LevelInfo},
		{observability.LevelWarning, slog.LevelWarn},
		{observability.LevelError, slog.LevelError},
	}

	for _, tt := range tests {
		if got := tt.level.SlogLevel(); got != tt.want {
			t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestMultiObserver_FansOutAndSkipsNil(t *testing.T) {
	var a, b observability.Recorder
	multi := observability.NewMultiObserver(&a, nil, &b)

	multi.OnEvent(context.Background(), observability.Event{Type: "store.notify", Level: observability.LevelInfo})

	if a.Count("store.notify") != 1 || b.Count("store.notify") != 1 {
		t.Fatalf("fan-out counts = %d, %d, want 1, 1", a.Count("store.notify"), b.Count("store.notify"))
	}
}

func TestRecorder_Reset(t *testing.T) {
	var r observability.Recorder
	r.OnEvent(context.Background(), observability.Event{Type: "x"})
	r.OnEvent(context.Background(), observability.Event{Type: "y"})
	if len(r.Events()) != 2 {
		t.Fatalf("events = %d, want 2", len(r.Events()))
	}
	r.Reset()
	if len(r.Events()) != 0 {
		t.Fatalf("events after reset = %d, want 0", len(r.Events()))
	}
}

func TestSlogObserver_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		level     observability.Level
		minLevel  slog.Level
		expectLog bool
	}{
		{"verbose at debug", observability.LevelVerbose, slog.LevelDebug, true},
		{"verbose at info", observability.LevelVerbose, slog.LevelInfo, false},
		{"info at warn", observability.LevelInfo, slog.LevelWarn, false},
		{"error at error", observability.LevelError, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tt.minLevel}))

			observability.NewSlogObserver(logger).OnEvent(context.Background(), observability.Event{
				Type:      "store.dispatch.start",
				Level:     tt.level,
				Timestamp: time.Now(),
				Store:     "test",
			})

			if got := buf.Len() > 0; got != tt.expectLog {
				t.Errorf("logged = %v, want %v (%q)", got, tt.expectLog, buf.String())
			}
		})
	}
}

func TestSlogObserver_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "dispatch")
	defer span.End()

	observability.NewSlogObserver(logger).OnEvent(ctx, observability.Event{
		Type:    "store.dispatch.complete",
		Level:   observability.LevelInfo,
		Store:   "counter",
		StoreID: "0192",
		Action:  "immediate",
		Data:    map[string]any{"depth": 0},
	})

	out := buf.String()
	for _, want := range []string{
		"store.dispatch.complete",
		"store=counter",
		"store_id=0192",
		"action=immediate",
		"depth=0",
		"trace_id=" + span.SpanContext().TraceID().String(),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"noop", "slog"} {
		if obs, err := observability.GetObserver(name); err != nil || obs == nil {
			t.Errorf("GetObserver(%q) = %v, %v", name, obs, err)
		}
	}
	if _, err := observability.GetObserver("missing"); err == nil || !strings.Contains(err.Error(), "noop") || !strings.Contains(err.Error(), "slog") {
		t.Errorf("GetObserver(missing) error = %v, want the registered names", err)
	}

	var r observability.Recorder
	if err := observability.RegisterObserver("registry-test", &r); err != nil {
		t.Fatal(err)
	}
	obs, err := observability.GetObserver("registry-test")
	if err != nil {
		t.Fatal(err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "x"})
	if r.Count("x") != 1 {
		t.Fatalf("registered observer did not receive event")
	}

	if err := observability.RegisterObserver("", &r); err == nil {
		t.Error("empty name should fail")
	}
	if err := observability.RegisterObserver("nil", nil); err == nil {
		t.Error("nil observer should fail")
	}
	if err := observability.RegisterObserver("noop", &r); err == nil {
		t.Error("replacing noop should fail")
	}
	if names := observability.Observers(); !slices.Contains(names, "registry-test") || !slices.IsSorted(names) {
		t.Errorf("Observers() = %v", names)
	}
}

func TestIsNoOp(t *testing.T) {
	var r observability.Recorder
	tests := []struct {
		name string
		obs  observability.Observer
		want bool
	}{
		{"nil", nil, true},
		{"noop", observability.NoOpObserver{}, true},
		{"empty multi", observability.NewMultiObserver(), true},
		{"multi of noops", observability.NewMultiObserver(observability.NoOpObserver{}, nil), true},
		{"recorder", &r, false},
		{"multi with recorder", observability.NewMultiObserver(observability.NoOpObserver{}, &r), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := observability.IsNoOp(tt.obs); got != tt.want {
				t.Errorf("IsNoOp = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecorderFailures(t *testing.T) {
	var r observability.Recorder
	r.OnEvent(context.Background(), observability.Event{Type: "store.dispatch.complete", Level: observability.LevelVerbose})
	r.OnEvent(context.Background(), observability.Event{Type: "store.dispatch.error", Level: observability.LevelError})

	got := r.Failures()
	if len(got) != 1 || got[0].Type != "store.dispatch.error" {
		t.Fatalf("Failures() = %v, want the dispatch error only", got)
	}
}
