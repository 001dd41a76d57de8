package breaker

import (
	"errors"
	"testing"
)

var errBoom = errors.New("boom")

func TestMetricsBeforeAnyCalls(t *testing.T) {
	cb, err := New("metrics-fresh", DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m := cb.Metrics()
	if m.State != StateClosed {
		t.Fatalf("State = %v, want CLOSED", m.State)
	}
	if m.FailureRate != -1 {
		t.Fatalf("FailureRate = %v, want -1 before warm-up", m.FailureRate)
	}
	if m.MaxBufferedCalls != DefaultConfig().RingBufferSizeInClosedState {
		t.Fatalf("MaxBufferedCalls = %d, want %d", m.MaxBufferedCalls, DefaultConfig().RingBufferSizeInClosedState)
	}
}

func TestMetricsReflectsActiveBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RingBufferSizeInClosedState = 4
	cfg.FailureRateThreshold = 50
	cb, err := New("metrics-active", cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	cb.OnError(errBoom)
	cb.OnError(errBoom)
	cb.OnSuccess()
	cb.OnSuccess()

	m := cb.Metrics()
	if m.NumberOfBufferedCalls != 4 {
		t.Fatalf("NumberOfBufferedCalls = %d, want 4", m.NumberOfBufferedCalls)
	}
	if m.NumberOfFailedCalls != 2 {
		t.Fatalf("NumberOfFailedCalls = %d, want 2", m.NumberOfFailedCalls)
	}
	if m.FailureRate != 50 {
		t.Fatalf("FailureRate = %v, want 50", m.FailureRate)
	}
	if m.State != StateOpen {
		t.Fatalf("State = %v, want OPEN once threshold is met on a full buffer", m.State)
	}
}
