// Package ratelimiter is the public face of guardrail's RateLimiter
// guard: a lock-free, cycle-based limiter that grants up to
// LimitForPeriod permissions every LimitRefreshPeriod, parking callers
// that ask for more until the next cycle if they're willing to wait.
//
// Unlike a token-bucket limiter, permissions for a future cycle can be
// reserved ahead of time (activePermissions goes negative) and the
// limiter tells the caller exactly how long to wait for one, which is
// what makes Decorate's blocking wait and TryAcquire's non-blocking
// reservation both possible on top of the same core.
package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vnykmshr/guardrail/event"
	"github.com/vnykmshr/guardrail/glog"
	"github.com/vnykmshr/guardrail/internal/limiter"
)

// Config configures a RateLimiter.
type Config struct {
	// LimitRefreshPeriod is the fixed cycle length permissions are
	// granted per.
	LimitRefreshPeriod time.Duration
	// LimitForPeriod is how many permissions each cycle grants.
	LimitForPeriod int
	// TimeoutDuration is the default wait applied by Acquire when the
	// caller doesn't supply its own.
	TimeoutDuration time.Duration
	// Logger receives failed acquire attempts. Nil defaults to glog.NoOp.
	Logger glog.Logger
}

// DefaultConfig returns the resilience4j/javaslang baseline: 50
// permissions per 500ns cycle with a 5 second default wait.
func DefaultConfig() Config {
	return Config{
		LimitRefreshPeriod: 500 * time.Nanosecond,
		LimitForPeriod:     50,
		TimeoutDuration:    5 * time.Second,
		Logger:             glog.NoOp{},
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
	if c.LimitRefreshPeriod <= 0 {
		return newConfigurationError("LimitRefreshPeriod", "must be positive")
	}
	if c.LimitForPeriod <= 0 {
		return newConfigurationError("LimitForPeriod", "must be positive")
	}
	if c.TimeoutDuration < 0 {
		return newConfigurationError("TimeoutDuration", "must not be negative")
	}
	return nil
}

// ErrInvalidConfig is the sentinel wrapped by every configuration error
// this package returns.
var ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")

func newConfigurationError(field, reason string) error {
	return fmt.Errorf("ratelimiter: %s %s: %w", field, reason, ErrInvalidConfig)
}

// ErrRequestNotPermitted is the sentinel wrapped by Decorate's returned
// error when a permission could not be obtained within its timeout.
var ErrRequestNotPermitted = errors.New("ratelimiter: request not permitted")

// RequestNotPermittedError is returned by Decorate when Acquire gave up
// waiting for a permission.
type RequestNotPermittedError struct {
	Name        string
	NanosToWait int64
}

func (e *RequestNotPermittedError) Error() string {
	return fmt.Sprintf("ratelimiter %q: request not permitted, would need to wait %s",
		e.Name, time.Duration(e.NanosToWait))
}

func (e *RequestNotPermittedError) Unwrap() error { return ErrRequestNotPermitted }

// Metrics is a point-in-time snapshot of a RateLimiter's current cycle.
type Metrics = limiter.Metrics

// Event is one acquire outcome a RateLimiter publishes to its event stream.
type Event = event.RateLimiterEvent

// RateLimiter paces calls to a rate-limited dependency.
type RateLimiter struct {
	engine *limiter.RateLimiter
	bus    *event.Bus[Event]
	logger glog.Logger
}

// OfDefaults constructs a named RateLimiter with DefaultConfig.
func OfDefaults(name string) (*RateLimiter, error) {
	return Of(name, DefaultConfig())
}

// Of constructs a named RateLimiter with the given configuration.
func Of(name string, cfg Config) (*RateLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RateLimiter{
		engine: limiter.New(name, cfg.LimitRefreshPeriod, cfg.LimitForPeriod, cfg.TimeoutDuration),
		bus:    event.NewBus[Event](64),
		logger: cfg.logger(),
	}, nil
}

// GetName returns the limiter's configured name.
func (rl *RateLimiter) GetName() string { return rl.engine.GetName() }

// GetMetrics returns a snapshot of the limiter's current cycle.
func (rl *RateLimiter) GetMetrics() Metrics { return rl.engine.GetMetrics() }

// ChangeLimitForPeriod updates the per-cycle permission count effective
// from the next cycle boundary.
func (rl *RateLimiter) ChangeLimitForPeriod(limitForPeriod int) {
	rl.engine.ChangeLimitForPeriod(limitForPeriod)
}

// ChangeTimeoutDuration updates the default wait timeout.
func (rl *RateLimiter) ChangeTimeoutDuration(d time.Duration) {
	rl.engine.ChangeTimeoutDuration(d)
}

// EventStream subscribes to the limiter's event stream.
func (rl *RateLimiter) EventStream() (<-chan Event, *event.Subscription) {
	return rl.bus.Subscribe()
}

// TryAcquire performs a single non-blocking reservation attempt: it
// reports immediately whether a permission is available now, and if not,
// how long a caller would have to wait for one.
func (rl *RateLimiter) TryAcquire() (ok bool, nanosToWait int64) {
	out := rl.engine.TryAcquire()
	rl.publish(out)
	return out.Acquired, out.NanosToWait
}

// Acquire blocks, honoring ctx, up to the limiter's configured
// TimeoutDuration for a permission. It returns (false, nil) if no
// permission becomes available within that timeout, and a non-nil error
// only if ctx is canceled while parked.
func (rl *RateLimiter) Acquire(ctx context.Context) (bool, error) {
	return rl.AcquireTimeout(ctx, rl.engine.TimeoutDuration())
}

// AcquireTimeout is Acquire with an explicit timeout overriding the
// limiter's configured default.
func (rl *RateLimiter) AcquireTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	out, err := rl.engine.Acquire(ctx, timeout)
	rl.publish(out)
	return out.Acquired, err
}

func (rl *RateLimiter) publish(out limiter.Outcome) {
	typ := event.RateLimiterSuccessfulAcquire
	if !out.Acquired {
		typ = event.RateLimiterFailedAcquire
		rl.logger.Warn("rate limiter rejected acquire", glog.Fields{
			"name":          rl.GetName(),
			"reason":        out.Reason,
			"nanos_to_wait": out.NanosToWait,
		})
	}
	evt := event.NewRateLimiterEvent(rl.GetName(), typ)
	evt.NanosToWait = out.NanosToWait
	evt.Reason = out.Reason
	rl.bus.Publish(evt)
}

// Decorate wraps fn so that each call first blocks (up to the limiter's
// configured timeout, honoring ctx) for a permission before running fn.
func Decorate[T any](rl *RateLimiter, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var zero T
		ok, err := rl.Acquire(ctx)
		if err != nil {
			return zero, err
		}
		if !ok {
			m := rl.GetMetrics()
			return zero, &RequestNotPermittedError{Name: rl.GetName(), NanosToWait: m.NanosToWait}
		}
		return fn(ctx)
	}
}
