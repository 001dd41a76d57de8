// Package retry is guardrail's attempt-and-backoff guard: it calls a
// function up to MaxAttempts times, waiting WaitDuration (optionally
// scaled by BackoffMultiplier and jittered by JitterFraction) between
// attempts, and
// rethrows the last error wrapped in a MaxRetriesExceededError once
// attempts are exhausted.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/guardrail/event"
	"github.com/vnykmshr/guardrail/glog"
)

// Config configures a Retry.
type Config struct {
	// MaxAttempts is the maximum number of times the guarded function is
	// called, including the first attempt.
	MaxAttempts int
	// WaitDuration is the base inter-attempt wait.
	WaitDuration time.Duration
	// BackoffMultiplier scales WaitDuration after each attempt (1.0 means
	// no backoff, a fixed wait every time).
	BackoffMultiplier float64
	// MaxWaitDuration caps the backed-off wait. Zero means uncapped.
	MaxWaitDuration time.Duration
	// JitterFraction adds up to this fraction of the computed wait as
	// random jitter (0.2 means +/-20%). Zero disables jitter.
	JitterFraction float64
	// RetryOnException decides whether an error is retryable. A nil
	// predicate retries every non-nil error.
	RetryOnException func(error) bool
	// RetryOnResult optionally decides whether a successful result should
	// still be retried (e.g. a degraded-but-non-error response). Nil
	// disables result-based retry.
	RetryOnResult func(any) bool
	// Logger receives exhausted-retry warnings. Nil defaults to glog.NoOp.
	Logger glog.Logger
}

// DefaultConfig returns 3 attempts, a 500ms base wait, no backoff, no
// jitter, retrying every error.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		WaitDuration:      500 * time.Millisecond,
		BackoffMultiplier: 1.0,
		RetryOnException:  func(error) bool { return true },
		Logger:            glog.NoOp{},
	}
}

func (c Config) logger() glog.Logger {
	if c.Logger == nil {
		return glog.NoOp{}
	}
	return c.Logger
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return newConfigurationError("MaxAttempts", "must be positive")
	}
	if c.WaitDuration < 0 {
		return newConfigurationError("WaitDuration", "must not be negative")
	}
	if c.BackoffMultiplier < 1.0 {
		return newConfigurationError("BackoffMultiplier", "must be at least 1.0")
	}
	if c.JitterFraction < 0 || c.JitterFraction > 1 {
		return newConfigurationError("JitterFraction", "must be in [0, 1]")
	}
	return nil
}

func (c Config) retryOnException(err error) bool {
	if c.RetryOnException == nil {
		return err != nil
	}
	return err != nil && c.RetryOnException(err)
}

func (c Config) waitFor(attempt int) time.Duration {
	wait := float64(c.WaitDuration)
	for i := 1; i < attempt; i++ {
		wait *= c.BackoffMultiplier
	}
	if c.MaxWaitDuration > 0 && wait > float64(c.MaxWaitDuration) {
		wait = float64(c.MaxWaitDuration)
	}
	if c.JitterFraction > 0 {
		delta := wait * c.JitterFraction
		wait += (rand.Float64()*2 - 1) * delta
		if wait < 0 {
			wait = 0
		}
	}
	return time.Duration(wait)
}

// ErrInvalidConfig is the sentinel wrapped by every configuration error
// this package returns.
var ErrInvalidConfig = errors.New("retry: invalid configuration")

func newConfigurationError(field, reason string) error {
	return fmt.Errorf("retry: %s %s: %w", field, reason, ErrInvalidConfig)
}

// ErrMaxRetriesExceeded is the sentinel wrapped by MaxRetriesExceededError.
var ErrMaxRetriesExceeded = errors.New("retry: max retries exceeded")

// MaxRetriesExceededError reports that every attempt failed, carrying the
// last underlying error as its cause.
type MaxRetriesExceededError struct {
	Name     string
	Attempts int
	Cause    error
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("retry %q: exhausted %d attempts, last error: %v", e.Name, e.Attempts, e.Cause)
}

func (e *MaxRetriesExceededError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrMaxRetriesExceeded, e.Cause}
	}
	return []error{ErrMaxRetriesExceeded}
}

// ErrRetryableResult is the synthetic error used internally to drive the
// attempt loop when RetryOnResult flags a non-error result for retry. It
// is the Cause wrapped by MaxRetriesExceededError when attempts are
// exhausted purely on a result predicate, with no underlying error ever
// observed.
var ErrRetryableResult = errors.New("retry: result predicate requested a retry")

// Metrics accumulates outcome counters across every call this Retry has
// guarded.
type Metrics struct {
	SuccessfulCallsWithoutRetry uint64
	SuccessfulCallsWithRetry    uint64
	FailedCallsWithoutRetry     uint64
	FailedCallsWithRetry        uint64
}

// Event is one attempt outcome a Retry publishes to its event stream.
type Event = event.RetryEvent

// Retry is a shared, reusable attempt-and-backoff controller. A single
// instance can guard many concurrent calls; its aggregate counters are
// atomic and its per-call state lives on the stack of Execute, never on
// the Retry itself.
type Retry struct {
	name   string
	config Config

	successWithoutRetry atomic.Uint64
	successWithRetry    atomic.Uint64
	failedWithoutRetry  atomic.Uint64
	failedWithRetry     atomic.Uint64

	bus *event.Bus[Event]
}

// OfDefaults constructs a named Retry with DefaultConfig.
func OfDefaults(name string) (*Retry, error) {
	return Of(name, DefaultConfig())
}

// Of constructs a named Retry with the given configuration.
func Of(name string, cfg Config) (*Retry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Retry{name: name, config: cfg, bus: event.NewBus[Event](64)}, nil
}

// GetName returns the retry's configured name.
func (r *Retry) GetName() string { return r.name }

// GetConfig returns the retry's immutable configuration.
func (r *Retry) GetConfig() Config { return r.config }

// GetMetrics returns the retry's aggregate outcome counters.
func (r *Retry) GetMetrics() Metrics {
	return Metrics{
		SuccessfulCallsWithoutRetry: r.successWithoutRetry.Load(),
		SuccessfulCallsWithRetry:    r.successWithRetry.Load(),
		FailedCallsWithoutRetry:     r.failedWithoutRetry.Load(),
		FailedCallsWithRetry:        r.failedWithRetry.Load(),
	}
}

// EventStream subscribes to the retry's event stream.
func (r *Retry) EventStream() (<-chan Event, *event.Subscription) {
	return r.bus.Subscribe()
}

func (r *Retry) publish(typ event.RetryEventType, attempt int, err error, wait time.Duration) {
	evt := event.NewRetryEvent(r.name, typ)
	evt.AttemptNumber = attempt
	evt.LastError = err
	evt.WaitBeforeNext = wait
	r.bus.Publish(evt)
}

// Execute runs op, retrying per r's configuration, and returns its final
// result, a MaxRetriesExceededError once attempts are exhausted, or, if op
// returns a non-retryable error, that error unwrapped. It is a
// package-level function rather than a
// method because Go methods cannot carry their own type parameters.
func Execute[T any](ctx context.Context, r *Retry, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := op()

		switch {
		case err != nil:
			lastErr = err
			if !r.config.retryOnException(err) {
				r.publish(event.RetryEventIgnoredError, attempt, err, 0)
				r.recordFailure(attempt)
				return zero, err
			}
		case r.config.RetryOnResult != nil && r.config.RetryOnResult(result):
			lastErr = ErrRetryableResult
		default:
			if attempt > 1 {
				r.successWithRetry.Add(1)
				r.publish(event.RetryEventSuccess, attempt, nil, 0)
			} else {
				r.successWithoutRetry.Add(1)
			}
			return result, nil
		}

		if attempt >= r.config.MaxAttempts {
			r.recordFailure(attempt)
			r.publish(event.RetryEventError, attempt, lastErr, 0)
			r.config.logger().Warn("retry exhausted all attempts", glog.Fields{
				"name":     r.name,
				"attempts": attempt,
				"error":    lastErr.Error(),
			})
			return zero, &MaxRetriesExceededError{Name: r.name, Attempts: attempt, Cause: lastErr}
		}

		wait := r.config.waitFor(attempt)
		r.publish(event.RetryEventRetry, attempt, lastErr, wait)

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}
	}
}

func (r *Retry) recordFailure(attempt int) {
	if attempt == 1 {
		r.failedWithoutRetry.Add(1)
	} else {
		r.failedWithRetry.Add(1)
	}
}

// ExecuteSupplier runs op, retrying per r's configuration, returning its
// result as any.
func (r *Retry) ExecuteSupplier(ctx context.Context, op func() (any, error)) (any, error) {
	return Execute(ctx, r, op)
}

// ExecuteRunnable runs op, retrying per r's configuration, discarding any
// result.
func (r *Retry) ExecuteRunnable(ctx context.Context, op func() error) error {
	_, err := Execute(ctx, r, func() (struct{}, error) { return struct{}{}, op() })
	return err
}

// Decorate wraps fn with Execute, giving callers a plain func() (T, error)
// shape to pass to call sites that don't want to see the retry loop.
func Decorate[T any](ctx context.Context, r *Retry, fn func() (T, error)) func() (T, error) {
	return func() (T, error) {
		return Execute(ctx, r, fn)
	}
}
