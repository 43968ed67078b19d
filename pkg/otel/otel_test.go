package otel_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	otto "github.com/wilhg/statebox/pkg/otel"
	"github.com/wilhg/statebox/pkg/store"
)

// Dispatches through a store with tracing enabled and checks the span reaches
// the stdout exporter once the provider is shut down.
func TestInitStdoutExportsStoreSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := otto.Init(t.Context(), otto.Config{ServiceName: "statebox-test", UseStdout: true, Writer: &buf})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	st := store.New(store.WithName[int]("otel-smoke"), store.WithTracing[int](nil))
	if err := st.Dispatch(t.Context(), store.Immediate[int](func(n int) int { return n + 1 })); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Store.Dispatch") {
		t.Fatalf("exported spans missing Store.Dispatch:\n%s", out)
	}
	if !strings.Contains(out, "statebox-test") {
		t.Fatalf("exported spans missing service name:\n%s", out)
	}
}

func TestInitDefaults(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := otto.Init(t.Context(), otto.Config{})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
