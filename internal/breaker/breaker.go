// Package breaker is the engine behind the circuitbreaker facade package:
// the CLOSED/OPEN/HALF_OPEN(/DISABLED) state machine, its ring-buffer-backed
// failure accounting, and the event stream it publishes. State lives in an
// atomic cell with atomic transition timestamps, and transitions themselves
// are serialized under a mutex that reloads the current state fresh inside
// the critical section so a racing duplicate transition correctly no-ops.
package breaker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/guardrail/event"
	"github.com/vnykmshr/guardrail/glog"
	"github.com/vnykmshr/guardrail/internal/ringbuffer"
)

// CircuitBreaker is the core, dependency-free guard: callers consult
// IsCallPermitted before doing work and report the outcome through
// OnSuccess/OnError. It never blocks and never calls the guarded function
// itself — that belongs to the facade package's decorator helpers.
type CircuitBreaker struct {
	name   string
	config Config

	state    atomic.Int32
	openedAt atomic.Int64 // UnixNano of the last transition into StateOpen

	mu             sync.Mutex // serializes state transitions
	closedBuffer   *ringbuffer.RingBitBuffer
	halfOpenBuffer atomic.Pointer[ringbuffer.RingBitBuffer]

	bus *event.Bus[event.CircuitBreakerEvent]
}

// New constructs a CircuitBreaker named name with the given configuration,
// starting in StateClosed. Returns an error if cfg fails Validate.
func New(name string, cfg Config) (*CircuitBreaker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cb := &CircuitBreaker{
		name:         name,
		config:       cfg,
		closedBuffer: ringbuffer.New(cfg.RingBufferSizeInClosedState),
		bus:          event.NewBus[event.CircuitBreakerEvent](64),
	}
	cb.halfOpenBuffer.Store(ringbuffer.New(cfg.RingBufferSizeInHalfOpenState))
	cb.state.Store(int32(StateClosed))
	return cb, nil
}

// GetName returns the breaker's configured name.
func (cb *CircuitBreaker) GetName() string { return cb.name }

// GetConfig returns the breaker's immutable configuration.
func (cb *CircuitBreaker) GetConfig() Config { return cb.config }

// GetState returns the breaker's current state.
func (cb *CircuitBreaker) GetState() State {
	return State(cb.state.Load())
}

// Subscribe registers a new listener on the breaker's event stream.
func (cb *CircuitBreaker) Subscribe() (<-chan event.CircuitBreakerEvent, *event.Subscription) {
	return cb.bus.Subscribe()
}

// IsCallPermitted reports whether a call may proceed right now. Closed and
// half-open always permit; disabled always permits without recording;
// open permits only once WaitDurationInOpenState has elapsed, at which
// point it transitions itself to half-open and permits the call that
// discovered this.
func (cb *CircuitBreaker) IsCallPermitted() bool {
	switch State(cb.state.Load()) {
	case StateClosed, StateHalfOpen, StateDisabled:
		return true
	case StateOpen:
		openedAt := time.Unix(0, cb.openedAt.Load())
		if time.Since(openedAt) < cb.config.WaitDurationInOpenState {
			cb.publish(event.CircuitBreakerNotPermitted)
			return false
		}
		cb.transitionTo(StateHalfOpen)
		return true
	default:
		return false
	}
}

// OnSuccess records a successful call against the buffer for the current
// state (a no-op while disabled) and evaluates whether that completes the
// current ring buffer's window.
func (cb *CircuitBreaker) OnSuccess() {
	cb.OnSuccessElapsed(0)
}

// OnSuccessElapsed is OnSuccess with an explicit elapsed duration, used by
// decorators that measure the guarded call's wall time.
func (cb *CircuitBreaker) OnSuccessElapsed(elapsed time.Duration) {
	state := State(cb.state.Load())
	if state == StateDisabled {
		return
	}
	evt := event.NewCircuitBreakerEvent(cb.name, event.CircuitBreakerSuccess)
	evt.Elapsed = elapsed
	cb.bus.Publish(evt)

	buffered, failed := cb.bufferFor(state).Record(false)
	cb.evaluate(state, buffered, failed)
}

// OnError records a failed call if it matches the configured failure
// predicate, and evaluates whether that completes the current ring
// buffer's window. Errors the predicate rejects are reported as ignored
// and do not count toward the failure rate.
func (cb *CircuitBreaker) OnError(err error) {
	cb.OnErrorElapsed(err, 0)
}

// OnErrorElapsed is OnError with an explicit elapsed duration.
func (cb *CircuitBreaker) OnErrorElapsed(err error, elapsed time.Duration) {
	state := State(cb.state.Load())
	if state == StateDisabled {
		return
	}
	if !cb.config.recordFailure(err) {
		evt := event.NewCircuitBreakerEvent(cb.name, event.CircuitBreakerIgnoredError)
		evt.Error = err
		evt.Elapsed = elapsed
		cb.bus.Publish(evt)
		cb.config.logger().Debug("circuit breaker ignored error", glog.Fields{"name": cb.name, "error": err.Error()})
		return
	}

	evt := event.NewCircuitBreakerEvent(cb.name, event.CircuitBreakerError)
	evt.Error = err
	evt.Elapsed = elapsed
	cb.bus.Publish(evt)

	buffered, failed := cb.bufferFor(state).Record(true)
	cb.evaluate(state, buffered, failed)
}

// TransitionToOpenState forces the breaker open regardless of its current
// buffer occupancy.
func (cb *CircuitBreaker) TransitionToOpenState() { cb.transitionTo(StateOpen) }

// TransitionToHalfOpenState forces the breaker into a fresh half-open probe
// window.
func (cb *CircuitBreaker) TransitionToHalfOpenState() { cb.transitionTo(StateHalfOpen) }

// TransitionToClosedState forces the breaker closed and resets its closed
// buffer.
func (cb *CircuitBreaker) TransitionToClosedState() { cb.transitionTo(StateClosed) }

// TransitionToDisabledState forces the breaker to permit all calls without
// recording outcomes, for maintenance windows. Only reachable through this
// explicit call; never entered by automatic evaluation.
func (cb *CircuitBreaker) TransitionToDisabledState() { cb.transitionTo(StateDisabled) }

func (cb *CircuitBreaker) bufferFor(state State) *ringbuffer.RingBitBuffer {
	if state == StateHalfOpen {
		return cb.halfOpenBuffer.Load()
	}
	return cb.closedBuffer
}

// evaluate decides, after a recorded outcome, whether the buffer that just
// received it has filled and, if so, whether that completes the current
// window's verdict.
func (cb *CircuitBreaker) evaluate(state State, buffered, failed int) {
	switch state {
	case StateClosed:
		if buffered < cb.config.RingBufferSizeInClosedState {
			return
		}
		if rate := float64(failed) * 100 / float64(buffered); rate >= cb.config.FailureRateThreshold {
			cb.transitionTo(StateOpen)
		}
	case StateHalfOpen:
		if buffered < cb.config.RingBufferSizeInHalfOpenState {
			return
		}
		rate := float64(failed) * 100 / float64(buffered)
		if rate >= cb.config.FailureRateThreshold {
			cb.transitionTo(StateOpen)
		} else {
			cb.transitionTo(StateClosed)
		}
	}
}

// transitionTo performs one linearizable state change: the mutex ensures
// no observer can see an intermediate state and that exactly one
// transition happens even when evaluate and IsCallPermitted race to
// trigger it.
func (cb *CircuitBreaker) transitionTo(to State) {
	cb.mu.Lock()
	from := State(cb.state.Load())
	if from == to {
		cb.mu.Unlock()
		return
	}
	switch to {
	case StateOpen:
		cb.openedAt.Store(time.Now().UnixNano())
	case StateHalfOpen:
		cb.halfOpenBuffer.Store(ringbuffer.New(cb.config.RingBufferSizeInHalfOpenState))
	case StateClosed:
		cb.closedBuffer.Reset()
	}
	cb.state.Store(int32(to))
	cb.mu.Unlock()

	evt := event.NewCircuitBreakerEvent(cb.name, event.CircuitBreakerStateTransition)
	evt.FromState = from.String()
	evt.ToState = to.String()
	cb.bus.Publish(evt)

	cb.config.logger().Info("circuit breaker state transition", glog.Fields{
		"name": cb.name,
		"from": from.String(),
		"to":   to.String(),
	})
}

func (cb *CircuitBreaker) publish(typ event.CircuitBreakerEventType) {
	cb.bus.Publish(event.NewCircuitBreakerEvent(cb.name, typ))
}
