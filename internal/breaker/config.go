package breaker

import (
	"errors"
	"time"

	"github.com/vnykmshr/guardrail/glog"
)

// State is the current phase of a CircuitBreaker's state machine.
type State int32

const (
	// StateClosed permits all calls and accounts failures in the closed
	// ring buffer.
	StateClosed State = iota
	// StateOpen rejects all calls until WaitDurationInOpenState elapses.
	StateOpen
	// StateHalfOpen permits calls and accounts failures in a fresh ring
	// buffer to decide whether to return to StateClosed or StateOpen.
	StateHalfOpen
	// StateDisabled permits all calls and records nothing. Reachable only
	// through an explicit manual transition, never by automatic evaluation.
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// Config is the immutable configuration of a CircuitBreaker.
type Config struct {
	// FailureRateThreshold is the percentage (0, 100] of failed calls in a
	// full ring buffer at or above which the breaker trips to open.
	FailureRateThreshold float64
	// WaitDurationInOpenState is how long the breaker stays open before
	// the next call is allowed to probe the half-open state.
	WaitDurationInOpenState time.Duration
	// RingBufferSizeInClosedState is the fixed number of calls accounted
	// while closed before a failure rate becomes meaningful.
	RingBufferSizeInClosedState int
	// RingBufferSizeInHalfOpenState is the fixed number of probe calls
	// accounted while half-open before a decision is made.
	RingBufferSizeInHalfOpenState int
	// RecordFailurePredicate decides whether an error observed through
	// OnError counts against the failure rate. A nil predicate counts
	// every non-nil error as a failure.
	RecordFailurePredicate func(error) bool
	// Logger receives state transitions and ignored errors. Nil defaults
	// to glog.NoOp, so a breaker is silent unless a caller opts in.
	Logger glog.Logger
}

func (c Config) logger() glog.Logger {
	if c.Logger == nil {
		return glog.NoOp{}
	}
	return c.Logger
}

// DefaultConfig returns the package's baseline configuration: a 50% failure
// rate threshold, a 60 second open wait, a closed ring buffer of 100 calls
// and a half-open ring buffer of 10 calls.
func DefaultConfig() Config {
	return Config{
		FailureRateThreshold:          50,
		WaitDurationInOpenState:       60 * time.Second,
		RingBufferSizeInClosedState:   100,
		RingBufferSizeInHalfOpenState: 10,
		RecordFailurePredicate:        func(error) bool { return true },
		Logger:                        glog.NoOp{},
	}
}

// Validate checks the configuration for internal consistency, returning an
// error wrapping ErrInvalidConfig that describes the first problem found.
func (c Config) Validate() error {
	if c.FailureRateThreshold <= 0 || c.FailureRateThreshold > 100 {
		return newConfigurationError("FailureRateThreshold", "must be in (0, 100]")
	}
	if c.WaitDurationInOpenState <= 0 {
		return newConfigurationError("WaitDurationInOpenState", "must be positive")
	}
	if c.RingBufferSizeInClosedState <= 0 {
		return newConfigurationError("RingBufferSizeInClosedState", "must be positive")
	}
	if c.RingBufferSizeInHalfOpenState <= 0 {
		return newConfigurationError("RingBufferSizeInHalfOpenState", "must be positive")
	}
	return nil
}

func (c Config) recordFailure(err error) bool {
	if c.RecordFailurePredicate == nil {
		return err != nil
	}
	return err != nil && c.RecordFailurePredicate(err)
}

// ErrInvalidConfig is the sentinel wrapped by every configuration error this
// package returns.
var ErrInvalidConfig = errors.New("breaker: invalid configuration")

func newConfigurationError(field, reason string) error {
	return &configError{field: field, reason: reason}
}

type configError struct {
	field  string
	reason string
}

func (e *configError) Error() string {
	return "breaker: " + e.field + " " + e.reason
}

func (e *configError) Unwrap() error { return ErrInvalidConfig }
