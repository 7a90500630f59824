package tracing

import (
	"context"
	"testing"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IsEnabled() {
		t.Fatalf("expected provider to report disabled")
	}
	if tr := p.Tracer("test"); tr == nil {
		t.Fatalf("expected a non-nil no-op tracer")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown on disabled provider should be a no-op: %v", err)
	}
}

func TestNew_Enabled(t *testing.T) {
	p, err := New(Config{Enabled: true, Endpoint: "unused"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsEnabled() {
		t.Fatalf("expected provider to report enabled")
	}
	tr := p.Tracer("snapbase/test")
	_, span := tr.Start(context.Background(), "op")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
