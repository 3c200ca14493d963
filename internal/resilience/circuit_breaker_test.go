package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend failed")

func fail() error    { return errBackend }
func succeed() error { return nil }

// trip drives cb into the open state
func trip(t *testing.T, cb *CircuitBreaker, failures int) {
	t.Helper()
	for i := 0; i < failures; i++ {
		if err := cb.Call(fail); !errors.Is(err, errBackend) {
			t.Fatalf("Expected backend error on failure %d, got %v", i+1, err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("Expected circuit to be open, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_PassesResultsThrough(t *testing.T) {
	cb := NewCircuitBreaker("transcriber", 3, time.Second)

	if err := cb.Call(succeed); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := cb.Call(fail); !errors.Is(err, errBackend) {
		t.Errorf("Expected backend error, got %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("Expected closed after one failure, got %s", cb.GetState())
	}
	if cb.Name() != "transcriber" {
		t.Errorf("Expected name transcriber, got %s", cb.Name())
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("transcriber", 2, time.Second)

	_ = cb.Call(fail)
	_ = cb.Call(succeed)
	_ = cb.Call(fail)

	if cb.GetState() != StateClosed {
		t.Errorf("Expected non-consecutive failures to keep the circuit closed, got %s", cb.GetState())
	}
}

func TestCircuitBreaker_OpenRejectsWithoutCalling(t *testing.T) {
	cb := NewCircuitBreaker("transcriber", 2, time.Minute)
	trip(t, cb, 2)

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})

	if !errors.Is(err, ErrOpen) {
		t.Errorf("Expected ErrOpen, got %v", err)
	}
	if called {
		t.Error("Expected the protected function not to run while open")
	}
}

func TestCircuitBreaker_Recovery(t *testing.T) {
	tests := []struct {
		name      string
		probes    []func() error
		wantState CircuitState
	}{
		{"successful probes close", []func() error{succeed, succeed, succeed}, StateClosed},
		{"partial probes stay half-open", []func() error{succeed}, StateHalfOpen},
		{"failed probe reopens", []func() error{succeed, fail}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb := NewCircuitBreaker("transcriber", 1, 30*time.Millisecond)
			trip(t, cb, 1)
			time.Sleep(50 * time.Millisecond)

			for _, probe := range tt.probes {
				_ = cb.Call(probe)
			}
			if cb.GetState() != tt.wantState {
				t.Errorf("Expected %s, got %s", tt.wantState, cb.GetState())
			}
		})
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb := NewCircuitBreaker("transcriber", 1, 30*time.Millisecond)
	trip(t, cb, 1)
	time.Sleep(50 * time.Millisecond)

	allowed := 0
	for i := 0; i < 5; i++ {
		if cb.allowRequest() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("Expected 3 half-open probes, got %d", allowed)
	}
}

func TestCircuitState_String(t *testing.T) {
	tests := map[CircuitState]string{
		StateClosed:      "closed",
		StateOpen:        "open",
		StateHalfOpen:    "half-open",
		CircuitState(42): "unknown",
	}
	for state, want := range tests {
		if state.String() != want {
			t.Errorf("Expected %q, got %q", want, state.String())
		}
	}
}
