// Package circuitbreaker is the public face of guardrail's CircuitBreaker
// guard: a CLOSED/OPEN/HALF_OPEN state machine that stops calling a
// failing dependency once its failure rate crosses a threshold, and tries
// a small number of probe calls again after a cooldown. The state machine
// itself lives in internal/breaker; this package is the thin, documented
// surface applications import, plus the Decorate helper that wraps a
// function with the guard's permit/record protocol.
//
// A minimal use looks like:
//
//	cb, err := circuitbreaker.OfDefaults("payments-api")
//	if err != nil {
//		log.Fatal(err)
//	}
//	call := circuitbreaker.Decorate(cb, func() (*Response, error) {
//		return client.Do(req)
//	})
//	resp, err := call()
//
// Decorate is peripheral: the guard itself never calls the protected
// function. Callers that already own their own timing or retry loop can
// drive IsCallPermitted/OnSuccess/OnError directly instead.
package circuitbreaker

import (
	"errors"
	"fmt"
	"time"

	"github.com/vnykmshr/guardrail/event"
	"github.com/vnykmshr/guardrail/internal/breaker"
)

// Config configures a CircuitBreaker. See breaker.Config for field docs.
type Config = breaker.Config

// State is one of CLOSED, OPEN, HALF_OPEN or DISABLED.
type State = breaker.State

// Metrics is a point-in-time snapshot of a CircuitBreaker's active buffer.
type Metrics = breaker.Metrics

// Event is one outcome a CircuitBreaker publishes to its event stream.
type Event = event.CircuitBreakerEvent

const (
	StateClosed   = breaker.StateClosed
	StateOpen     = breaker.StateOpen
	StateHalfOpen = breaker.StateHalfOpen
	StateDisabled = breaker.StateDisabled
)

// DefaultConfig returns the package's baseline configuration.
var DefaultConfig = breaker.DefaultConfig

// ErrCallNotPermitted is the sentinel wrapped by every error Decorate
// returns when the circuit is open (or mid-cooldown).
var ErrCallNotPermitted = errors.New("circuitbreaker: call not permitted")

// CallNotPermittedError reports that a guarded call was rejected without
// ever reaching the underlying function.
type CallNotPermittedError struct {
	Name string
}

func (e *CallNotPermittedError) Error() string {
	return fmt.Sprintf("circuitbreaker %q: call not permitted", e.Name)
}

func (e *CallNotPermittedError) Unwrap() error { return ErrCallNotPermitted }

// CircuitBreaker guards calls to an unreliable dependency.
type CircuitBreaker struct {
	engine *breaker.CircuitBreaker
}

// OfDefaults constructs a named CircuitBreaker with DefaultConfig.
func OfDefaults(name string) (*CircuitBreaker, error) {
	return Of(name, DefaultConfig())
}

// Of constructs a named CircuitBreaker with the given configuration.
func Of(name string, cfg Config) (*CircuitBreaker, error) {
	eng, err := breaker.New(name, cfg)
	if err != nil {
		return nil, err
	}
	return &CircuitBreaker{engine: eng}, nil
}

// GetName returns the breaker's configured name.
func (cb *CircuitBreaker) GetName() string { return cb.engine.GetName() }

// GetConfig returns the breaker's immutable configuration.
func (cb *CircuitBreaker) GetConfig() Config { return cb.engine.GetConfig() }

// GetState returns the breaker's current state.
func (cb *CircuitBreaker) GetState() State { return cb.engine.GetState() }

// GetMetrics returns a snapshot of the breaker's active ring buffer.
func (cb *CircuitBreaker) GetMetrics() Metrics { return cb.engine.Metrics() }

// IsCallPermitted reports whether a call may proceed right now.
func (cb *CircuitBreaker) IsCallPermitted() bool { return cb.engine.IsCallPermitted() }

// OnSuccess records a successful call.
func (cb *CircuitBreaker) OnSuccess() { cb.engine.OnSuccess() }

// OnError records a failed call, subject to the configured
// RecordFailurePredicate.
func (cb *CircuitBreaker) OnError(err error) { cb.engine.OnError(err) }

// EventStream subscribes to the breaker's event stream.
func (cb *CircuitBreaker) EventStream() (<-chan Event, *event.Subscription) {
	return cb.engine.Subscribe()
}

// TransitionToOpenState forces the breaker open.
func (cb *CircuitBreaker) TransitionToOpenState() { cb.engine.TransitionToOpenState() }

// TransitionToHalfOpenState forces a fresh half-open probe window.
func (cb *CircuitBreaker) TransitionToHalfOpenState() { cb.engine.TransitionToHalfOpenState() }

// TransitionToClosedState forces the breaker closed and resets its buffer.
func (cb *CircuitBreaker) TransitionToClosedState() { cb.engine.TransitionToClosedState() }

// TransitionToDisabledState forces the breaker to permit every call without
// recording outcomes, for maintenance windows.
func (cb *CircuitBreaker) TransitionToDisabledState() { cb.engine.TransitionToDisabledState() }

// Decorate wraps fn so that each call first checks IsCallPermitted and
// then reports its outcome through OnSuccess/OnError, timing the call so
// the emitted event carries an accurate elapsed duration.
func Decorate[T any](cb *CircuitBreaker, fn func() (T, error)) func() (T, error) {
	return func() (T, error) {
		var zero T
		if !cb.IsCallPermitted() {
			return zero, &CallNotPermittedError{Name: cb.GetName()}
		}
		start := time.Now()
		result, err := fn()
		elapsed := time.Since(start)
		if err != nil {
			cb.engine.OnErrorElapsed(err, elapsed)
		} else {
			cb.engine.OnSuccessElapsed(elapsed)
		}
		return result, err
	}
}
