// Package guardrail is a library of fault-tolerance primitives for
// synchronous and asynchronous call sites in distributed applications: a
// CircuitBreaker, a RateLimiter, and a Retry, plus a thin cache-aside
// decorator for callers who want one.
//
// # Overview
//
// Each guard is a small, dependency-light state machine plus a decorator
// that wires it around a function call:
//
//   - CircuitBreaker stops calling a failing dependency once its failure
//     rate crosses a threshold over a fixed window of recent calls, and
//     probes recovery with a small number of half-open calls afterward.
//   - RateLimiter caps how many calls proceed per fixed time window,
//     optionally parking a caller until the next window has room.
//   - Retry calls a function again on failure, up to a bounded number of
//     attempts, waiting between attempts.
//
// # Quick start
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
// Guards compose: a single call site can be wrapped by a RateLimiter,
// then a CircuitBreaker, then a Retry, each decorator peripheral to the
// guard's own permit/record protocol.
//
// # Observability
//
// Every guard publishes an event for each outcome it observes (success,
// error, ignored error, state transition, or acquire attempt) on its own
// event.Bus. The guards do not export that Bus; their events are read from
// the channel each guard's EventStream returns. event.NewRingConsumer keeps
// a bounded rolling window of the events of an event.Bus it is given.
// Guards accept an optional glog.Logger for
// structured log output; the default is silent.
//
// # Registries
//
// Applications that look guards up by name rather than threading them
// through constructors can use the registry package's
// CircuitBreakerRegistry, RateLimiterRegistry and RetryRegistry, each a
// concurrent name-to-instance map with compute-if-absent semantics.
//
// This package re-exports the most commonly used names from
// circuitbreaker, ratelimiter and retry so a caller that only needs one
// guard can import guardrail alone; applications using more than one
// guard, or the generic Decorate/Execute helpers, should import the
// guard subpackages directly.
package guardrail

import (
	"github.com/vnykmshr/guardrail/circuitbreaker"
	"github.com/vnykmshr/guardrail/ratelimiter"
	"github.com/vnykmshr/guardrail/retry"
)

// CircuitBreaker guards calls to an unreliable dependency.
type CircuitBreaker = circuitbreaker.CircuitBreaker

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig = circuitbreaker.Config

// NewCircuitBreaker constructs a named CircuitBreaker with the given
// configuration.
var NewCircuitBreaker = circuitbreaker.Of

// DefaultCircuitBreakerConfig returns the package's baseline
// CircuitBreaker configuration.
var DefaultCircuitBreakerConfig = circuitbreaker.DefaultConfig

// RateLimiter paces calls to a rate-limited dependency.
type RateLimiter = ratelimiter.RateLimiter

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig = ratelimiter.Config

// NewRateLimiter constructs a named RateLimiter with the given
// configuration.
var NewRateLimiter = ratelimiter.Of

// DefaultRateLimiterConfig returns the package's baseline RateLimiter
// configuration.
var DefaultRateLimiterConfig = ratelimiter.DefaultConfig

// Retry is a shared, reusable attempt-and-backoff controller.
type Retry = retry.Retry

// RetryConfig configures a Retry.
type RetryConfig = retry.Config

// NewRetry constructs a named Retry with the given configuration.
var NewRetry = retry.Of

// DefaultRetryConfig returns the package's baseline Retry configuration.
var DefaultRetryConfig = retry.DefaultConfig
