package services

import (
	"sync"
	"testing"
	"time"
)

func TestSearchDebouncer_CollapsesBursts(t *testing.T) {
	var mu sync.Mutex
	var performed []string

	debouncer := NewSearchDebouncer(50*time.Millisecond, func(query string) {
		mu.Lock()
		performed = append(performed, query)
		mu.Unlock()
	})

	// A burst of keystrokes inside the quiet period
	debouncer.Trigger("b")
	debouncer.Trigger("bi")
	debouncer.Trigger("bit")
	debouncer.Trigger("bitcoin")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(performed) != 1 {
		t.Fatalf("expected a single search for the burst, got %d: %v", len(performed), performed)
	}
	if performed[0] != "bitcoin" {
		t.Errorf("expected the last query of the burst, got %q", performed[0])
	}
}

func TestSearchDebouncer_SeparateBurstsEachFire(t *testing.T) {
	var mu sync.Mutex
	var performed []string

	debouncer := NewSearchDebouncer(20*time.Millisecond, func(query string) {
		mu.Lock()
		performed = append(performed, query)
		mu.Unlock()
	})

	debouncer.Trigger("first")
	time.Sleep(50 * time.Millisecond)
	debouncer.Trigger("second")
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(performed) != 2 {
		t.Fatalf("expected both quiet periods to fire, got %v", performed)
	}
	if performed[0] != "first" || performed[1] != "second" {
		t.Errorf("unexpected queries: %v", performed)
	}
}

func TestSearchDebouncer_CancelDiscardsPending(t *testing.T) {
	var mu sync.Mutex
	fired := false

	debouncer := NewSearchDebouncer(30*time.Millisecond, func(query string) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	debouncer.Trigger("bitcoin")
	debouncer.Cancel()

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired {
		t.Error("a cancelled search must not fire")
	}
}

func TestSearchDebouncer_CancelWithoutPending(t *testing.T) {
	debouncer := NewSearchDebouncer(10*time.Millisecond, func(string) {})
	// Must not panic with nothing scheduled
	debouncer.Cancel()
}
