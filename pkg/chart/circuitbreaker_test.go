package chart

import (
	"errors"
	"testing"
	"time"
)

var errLoad = errors.New("load failed")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int, timeout time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: threshold, Timeout: timeout})
	cb.now = clock.now
	return cb, clock
}

func TestCircuitStateString(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestCircuitBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	if cb.config.FailureThreshold != 3 || cb.config.Timeout != 10*time.Second {
		t.Errorf("defaults = %+v", cb.config)
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Second)
	fail := func() error { return errLoad }

	if err := cb.Execute(fail); !errors.Is(err, errLoad) {
		t.Fatalf("first call: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("state after one failure = %v", cb.State())
	}
	if err := cb.Execute(fail); !errors.Is(err, errLoad) {
		t.Fatalf("second call: %v", err)
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state after threshold = %v", cb.State())
	}

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("open circuit ran fn: err=%v called=%v", err, called)
	}
	if cb.Rejections() != 1 {
		t.Errorf("Rejections = %d, want 1", cb.Rejections())
	}
}

func TestCircuitBreakerRecovers(t *testing.T) {
	tests := []struct {
		name  string
		trial error
		want  CircuitState
	}{
		{"trial succeeds", nil, CircuitClosed},
		{"trial fails", errLoad, CircuitOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, clock := newTestBreaker(1, time.Second)
			_ = cb.Execute(func() error { return errLoad })
			if cb.State() != CircuitOpen {
				t.Fatalf("state = %v, want open", cb.State())
			}
			clock.advance(2 * time.Second)

			_ = cb.Execute(func() error { return tt.trial })
			if cb.State() != tt.want {
				t.Errorf("state = %v, want %v", cb.State(), tt.want)
			}
		})
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, time.Second)
	_ = cb.Execute(func() error { return errLoad })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errLoad })
	if cb.State() != CircuitClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreakerReset(t *testing.T) {
	changes := make(chan CircuitState, 4)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OnStateChange:    func(_, to CircuitState) { changes <- to },
	})
	_ = cb.Execute(func() error { return errLoad })
	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Fatalf("state after Reset = %v", cb.State())
	}
	// Callbacks run in their own goroutines and may arrive in any order.
	seen := make(map[CircuitState]bool)
	for range 2 {
		select {
		case to := <-changes:
			seen[to] = true
		case <-time.After(time.Second):
			t.Fatalf("state changes seen: %v", seen)
		}
	}
	if !seen[CircuitOpen] || !seen[CircuitClosed] {
		t.Errorf("state changes seen: %v", seen)
	}
}
