package source

import (
	"context"
	"testing"
	"time"

	"remold-hq/remold/pkg/rules"
)

func TestMemorySourceLoad(t *testing.T) {
	rs := []rules.Rule{
		{Fields: []rules.FieldRule{{Field: "title", Body: rules.Body{Remove: true}}}},
	}
	src := NewMemorySource(rs)

	got, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(got))
	}

	// The returned slice is a copy.
	got[0] = rules.Rule{}
	again, _ := src.Load(context.Background())
	if len(again[0].Fields) != 1 {
		t.Error("mutating the loaded slice must not affect the source")
	}
}

func TestMemorySourceSetRules(t *testing.T) {
	src := NewMemorySource(nil)
	src.SetRules([]rules.Rule{
		{Fields: []rules.FieldRule{{Field: "a", Body: rules.Body{Remove: true}}}},
	})

	got, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(got))
	}
}

func TestMemorySourceWatchClosesOnCancel(t *testing.T) {
	src := NewMemorySource(nil)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("expected channel close")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
