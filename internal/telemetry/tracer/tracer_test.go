package tracer

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withRecorder installs a recording provider for the duration of the test.
func withRecorder(t *testing.T) (*tracetest.SpanRecorder, *Provider) {
	t.Helper()
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	sr := tracetest.NewSpanRecorder()
	p, err := newProvider(context.Background(), Config{ServiceName: "test", Version: "v0.0.1"}, sdktrace.WithSpanProcessor(sr))
	if err != nil {
		t.Fatalf("newProvider() error = %v", err)
	}
	return sr, p
}

func TestSetup_Disabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"disabled", Config{Enabled: false, Endpoint: "http://localhost:4318"}},
		{"no endpoint", Config{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Setup(context.Background(), tt.cfg)
			if err != nil {
				t.Fatalf("Setup() error = %v", err)
			}
			if p.Enabled() {
				t.Error("provider should be disabled")
			}
			if err := p.Shutdown(context.Background()); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestStartSpan_Records(t *testing.T) {
	sr, p := withRecorder(t)

	ctx, parent := StartSpan(context.Background(), "parent", attribute.String("k", "v"))
	_, child := StartSpan(ctx, "child")
	EndSpan(child, errors.New("boom"))
	EndSpan(parent, nil)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("recorded %d spans, want 2", len(spans))
	}

	childSpan, parentSpan := spans[0], spans[1]
	if childSpan.Name() != "child" || parentSpan.Name() != "parent" {
		t.Errorf("span names = %q, %q", childSpan.Name(), parentSpan.Name())
	}
	if childSpan.Parent().SpanID() != parentSpan.SpanContext().SpanID() {
		t.Error("child span should be parented to parent span")
	}
	if childSpan.Status().Code != codes.Error {
		t.Errorf("child status = %v, want Error", childSpan.Status().Code)
	}
	if parentSpan.Status().Code == codes.Error {
		t.Error("parent status should not be Error")
	}

	found := false
	for _, kv := range parentSpan.Attributes() {
		if kv.Key == "k" && kv.Value.AsString() == "v" {
			found = true
		}
	}
	if !found {
		t.Error("parent span missing attribute k=v")
	}
}

func TestProvider_ShutdownTwice(t *testing.T) {
	_, p := withRecorder(t)
	ctx := context.Background()

	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("first Shutdown() error = %v", err)
	}
	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestStartSpan_NoProvider(t *testing.T) {
	// With the default global provider spans are non-recording but usable.
	_, span := StartSpan(context.Background(), "noop")
	span.SetAttributes(attribute.Int("n", 1))
	EndSpan(span, errors.New("ignored"))
}
