package breaker

// Metrics is a point-in-time snapshot of the currently active ring buffer:
// whichever one state (closed or half-open) is live when Metrics is called.
// While disabled or open, this reflects the closed buffer. OnSuccess and
// OnError still update it while open; while disabled they record nothing.
type Metrics struct {
	State State

	// NumberOfBufferedCalls is how many outcomes the active buffer has
	// recorded since its last reset, capped at MaxBufferedCalls.
	NumberOfBufferedCalls int

	// NumberOfFailedCalls is how many of those outcomes were failures.
	NumberOfFailedCalls int

	// FailureRate is the percentage of failed calls in the active buffer,
	// or -1 if it has not yet filled once.
	FailureRate float64

	// MaxBufferedCalls is the active buffer's fixed capacity.
	MaxBufferedCalls int
}

// Metrics returns a snapshot of the breaker's currently active ring
// buffer. Reads are not atomic as a whole (the state, the occupancy and
// failure count pair, and the failure rate are each read separately), which
// is acceptable for
// monitoring but not for decisions requiring a single consistent instant.
func (cb *CircuitBreaker) Metrics() Metrics {
	state := State(cb.state.Load())
	buf := cb.bufferFor(state)
	buffered, failed := buf.Snapshot()
	return Metrics{
		State:                 state,
		NumberOfBufferedCalls: buffered,
		NumberOfFailedCalls:   failed,
		FailureRate:           buf.FailureRate(),
		MaxBufferedCalls:      buf.Capacity(),
	}
}
