package id

import (
	"testing"
	"time"
)

func TestInstanceShape(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := NewGeneratorWithClock(func() time.Time { return fixed })

	got := g.Instance()
	if got != "App1700000000000" {
		t.Errorf("expected App1700000000000, got %s", got)
	}
	if !IsInstanceID(got) {
		t.Errorf("expected %s to be recognized as an instance id", got)
	}
}

func TestInstanceUniqueWithinMillisecond(t *testing.T) {
	fixed := time.UnixMilli(42)
	g := NewGeneratorWithClock(func() time.Time { return fixed })

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Instance()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestIsInstanceID(t *testing.T) {
	for _, bad := range []string{"", "App", "Appx123", "123", "app123"} {
		if IsInstanceID(bad) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestDebugSessionNameUnique(t *testing.T) {
	a := NewDebugSessionName("App1")
	b := NewDebugSessionName("App1")
	if a == b {
		t.Error("expected distinct debug session names")
	}
}
