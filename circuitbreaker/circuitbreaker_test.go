package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

// TestCB1BufferFillDrivesTheVerdict mirrors the worked example: a 5-slot
// closed buffer at a 50% threshold trips to OPEN exactly when the buffer
// fills with a failure rate at or above threshold, regardless of the
// order outcomes arrive in, and never trips on fewer than capacity calls.
func TestCB1BufferFillDrivesTheVerdict(t *testing.T) {
	newBreaker := func() *CircuitBreaker {
		cfg := DefaultConfig()
		cfg.RingBufferSizeInClosedState = 5
		cfg.FailureRateThreshold = 50
		cb, err := Of("cb1", cfg)
		if err != nil {
			t.Fatalf("Of() error = %v", err)
		}
		return cb
	}

	t.Run("F,F,F,S,S trips open at the 5th outcome", func(t *testing.T) {
		cb := newBreaker()
		cb.OnError(errBoom)
		cb.OnError(errBoom)
		cb.OnError(errBoom)
		cb.OnSuccess()
		cb.OnSuccess()
		if got := cb.GetState(); got != StateOpen {
			t.Fatalf("GetState() = %v, want OPEN (60%% >= 50%% on a full buffer)", got)
		}
	})

	t.Run("reordered F,F,S,S,F also trips open", func(t *testing.T) {
		cb := newBreaker()
		cb.OnError(errBoom)
		cb.OnError(errBoom)
		cb.OnSuccess()
		cb.OnSuccess()
		cb.OnError(errBoom)
		if got := cb.GetState(); got != StateOpen {
			t.Fatalf("GetState() = %v, want OPEN regardless of outcome order", got)
		}
	})

	t.Run("only 4 outcomes never fills the buffer", func(t *testing.T) {
		cb := newBreaker()
		cb.OnError(errBoom)
		cb.OnError(errBoom)
		cb.OnError(errBoom)
		cb.OnError(errBoom)
		if got := cb.GetState(); got != StateClosed {
			t.Fatalf("GetState() = %v, want CLOSED since the buffer never filled", got)
		}
	})
}

// TestCB2FullLifecycle mirrors the worked example: forced open, rejects
// until the wait elapses, admits a half-open probe window, returns to
// CLOSED on success, and a later failing half-open window reopens with a
// fresh openedAt.
func TestCB2FullLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureRateThreshold = 50
	cfg.RingBufferSizeInClosedState = 10
	cfg.WaitDurationInOpenState = 100 * time.Millisecond
	cfg.RingBufferSizeInHalfOpenState = 2
	cb, err := Of("cb2", cfg)
	if err != nil {
		t.Fatalf("Of() error = %v", err)
	}

	for i := 0; i < 10; i++ {
		cb.OnError(errBoom)
	}
	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("GetState() = %v, want OPEN after 10 failures fill the buffer", got)
	}

	time.Sleep(99 * time.Millisecond)
	if cb.IsCallPermitted() {
		t.Fatal("IsCallPermitted() = true before the open wait elapsed, want false")
	}

	time.Sleep(5 * time.Millisecond) // push past the 100ms mark
	if !cb.IsCallPermitted() {
		t.Fatal("IsCallPermitted() = false after the open wait elapsed, want true")
	}
	if got := cb.GetState(); got != StateHalfOpen {
		t.Fatalf("GetState() = %v, want HALF_OPEN", got)
	}

	cb.OnSuccess()
	cb.OnSuccess()
	if got := cb.GetState(); got != StateClosed {
		t.Fatalf("GetState() = %v, want CLOSED after two successful probes", got)
	}

	cb.TransitionToHalfOpenState()
	cb.OnError(errBoom)
	cb.OnError(errBoom)
	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("GetState() = %v, want OPEN after two failing probes", got)
	}
}

func TestDecorateSkipsCallWhenNotPermitted(t *testing.T) {
	cb, _ := Of("dec", DefaultConfig())
	cb.TransitionToOpenState()

	calls := 0
	call := Decorate(cb, func() (int, error) {
		calls++
		return 42, nil
	})

	_, err := call()
	var notPermitted *CallNotPermittedError
	if !errors.As(err, &notPermitted) {
		t.Fatalf("err = %v, want *CallNotPermittedError", err)
	}
	if calls != 0 {
		t.Fatalf("guarded function was called %d times, want 0", calls)
	}
}

func TestDecoratePropagatesResultAndRecordsOutcome(t *testing.T) {
	cb, _ := Of("dec2", DefaultConfig())
	call := Decorate(cb, func() (string, error) {
		return "ok", nil
	})

	result, err := call()
	if err != nil {
		t.Fatalf("call() error = %v", err)
	}
	if result != "ok" {
		t.Fatalf("result = %q, want %q", result, "ok")
	}
	if m := cb.GetMetrics(); m.NumberOfBufferedCalls != 1 {
		t.Fatalf("NumberOfBufferedCalls = %d, want 1", m.NumberOfBufferedCalls)
	}
}

func TestEventStreamReceivesStateTransition(t *testing.T) {
	cb, _ := Of("events", DefaultConfig())
	ch, sub := cb.EventStream()
	defer sub.Unsubscribe()

	cb.TransitionToOpenState()

	select {
	case evt := <-ch:
		if evt.Type != "STATE_TRANSITION" {
			t.Fatalf("first event type = %v, want STATE_TRANSITION", evt.Type)
		}
		if evt.ToState != "OPEN" {
			t.Fatalf("ToState = %q, want OPEN", evt.ToState)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for state transition event")
	}
}
