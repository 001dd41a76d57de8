// Package event carries the guard-agnostic event stream shared by
// circuitbreaker, ratelimiter and retry: one producer, many subscribers,
// a non-blocking publish path and a bounded per-subscriber ring buffer
// that drops the oldest event on overflow rather than applying backpressure
// to the guard.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every guard's event type.
type Event interface {
	ID() uuid.UUID
	CreatedAt() time.Time
}

// base is embedded by every concrete event type to satisfy Event. Each
// event gets its own freshly generated id, usable to tell events apart;
// events from the same guard instance share the same Name.
type base struct {
	id        uuid.UUID
	createdAt time.Time
	name      string
}

func newBase(name string) base {
	return base{id: uuid.New(), createdAt: time.Now(), name: name}
}

func (b base) ID() uuid.UUID { return b.id }
func (b base) CreatedAt() time.Time { return b.createdAt }

// Name is the emitting guard's instance name.
func (b base) Name() string { return b.name }

// CircuitBreakerEventType enumerates the kinds of events a CircuitBreaker emits.
type CircuitBreakerEventType string

const (
	CircuitBreakerSuccess         CircuitBreakerEventType = "SUCCESS"
	CircuitBreakerError           CircuitBreakerEventType = "ERROR"
	CircuitBreakerIgnoredError    CircuitBreakerEventType = "IGNORED_ERROR"
	CircuitBreakerNotPermitted    CircuitBreakerEventType = "NOT_PERMITTED"
	CircuitBreakerStateTransition CircuitBreakerEventType = "STATE_TRANSITION"
)

// CircuitBreakerEvent is emitted on every outcome a CircuitBreaker observes.
type CircuitBreakerEvent struct {
	base
	Type      CircuitBreakerEventType
	Error     error
	Elapsed   time.Duration
	FromState string
	ToState   string
}

// RateLimiterEventType enumerates the kinds of events a RateLimiter emits.
type RateLimiterEventType string

const (
	RateLimiterSuccessfulAcquire RateLimiterEventType = "SUCCESSFUL_ACQUIRE"
	RateLimiterFailedAcquire     RateLimiterEventType = "FAILED_ACQUIRE"
)

// RateLimiterEvent is emitted on every acquire attempt a RateLimiter observes.
type RateLimiterEvent struct {
	base
	Type        RateLimiterEventType
	NanosToWait int64
	Reason      string
}

// RetryEventType enumerates the kinds of events a Retry emits.
type RetryEventType string

const (
	RetryEventRetry        RetryEventType = "RETRY"
	RetryEventSuccess      RetryEventType = "SUCCESS"
	RetryEventError        RetryEventType = "ERROR"
	RetryEventIgnoredError RetryEventType = "IGNORED_ERROR"
)

// RetryEvent is emitted on every attempt boundary a Retry observes.
type RetryEvent struct {
	base
	Type           RetryEventType
	AttemptNumber  int
	LastError      error
	WaitBeforeNext time.Duration
}

// NewCircuitBreakerEvent stamps a correlation id and timestamp onto a
// CircuitBreaker outcome. Guards call this rather than constructing the
// struct literal directly so every event is traceable back to its emitter.
func NewCircuitBreakerEvent(name string, typ CircuitBreakerEventType) CircuitBreakerEvent {
	return CircuitBreakerEvent{base: newBase(name), Type: typ}
}

// NewRateLimiterEvent stamps a correlation id and timestamp onto a
// RateLimiter acquire outcome.
func NewRateLimiterEvent(name string, typ RateLimiterEventType) RateLimiterEvent {
	return RateLimiterEvent{base: newBase(name), Type: typ}
}

// NewRetryEvent stamps a correlation id and timestamp onto a Retry attempt
// outcome.
func NewRetryEvent(name string, typ RetryEventType) RetryEvent {
	return RetryEvent{base: newBase(name), Type: typ}
}
