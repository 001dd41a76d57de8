// Package limiter is the engine behind the ratelimiter facade: a
// lock-free cycle/permission rate limiter built on a single
// atomic.Pointer holding an immutable snapshot. Every acquire attempt
// performs a compare-and-swap loop against that snapshot rather than
// taking a lock.
package limiter

import (
	"context"
	"sync/atomic"
	"time"
)

// snapshot is the limiter's entire mutable state, replaced atomically as
// a whole so a reader never observes a torn combination of its fields.
type snapshot struct {
	activeCycle       int64
	activePermissions int64
	nanosToWait       int64
}

// RateLimiter hands out up to limitForPeriod permissions per
// limitRefreshPeriod, lazily rolling over to a new cycle on whichever
// call first observes the boundary has passed. Permissions already
// claimed below zero represent reservations for a future cycle; a caller
// that times out waiting for one does not reclaim it early, it simply
// expires unclaimed once its cycle arrives.
type RateLimiter struct {
	name string

	limitRefreshPeriod int64 // nanoseconds, immutable after construction
	limitForPeriod     atomic.Int64
	timeoutDuration    atomic.Int64

	state     atomic.Pointer[snapshot]
	startedAt int64 // UnixNano reference point cycles are numbered from

	waitingThreads atomic.Int32
}

// New constructs a RateLimiter. limitRefreshPeriod must be positive;
// limitForPeriod must be positive.
func New(name string, limitRefreshPeriod time.Duration, limitForPeriod int, timeoutDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		name:               name,
		limitRefreshPeriod: int64(limitRefreshPeriod),
		startedAt:          time.Now().UnixNano(),
	}
	rl.limitForPeriod.Store(int64(limitForPeriod))
	rl.timeoutDuration.Store(int64(timeoutDuration))
	rl.state.Store(&snapshot{activeCycle: 0, activePermissions: int64(limitForPeriod)})
	return rl
}

func (rl *RateLimiter) now() int64 {
	return time.Now().UnixNano() - rl.startedAt
}

// reserve performs one CAS step of the cycle/permission algorithm at
// elapsed time t, returning the snapshot that step committed.
func (rl *RateLimiter) reserve(t int64) snapshot {
	period := rl.limitRefreshPeriod
	for {
		cur := rl.state.Load()
		limit := rl.limitForPeriod.Load()
		currentCycle := t / period

		var next snapshot
		if currentCycle > cur.activeCycle {
			next = snapshot{
				activeCycle:       currentCycle,
				activePermissions: limit - 1,
				nanosToWait:       0,
			}
		} else {
			perms := cur.activePermissions - 1
			var wait int64
			if perms < 0 {
				nanosUntilCycleEnd := period - (t % period)
				wait = (-perms - 1)/limit*period + nanosUntilCycleEnd
			}
			next = snapshot{
				activeCycle:       cur.activeCycle,
				activePermissions: perms,
				nanosToWait:       wait,
			}
		}

		if rl.state.CompareAndSwap(cur, &next) {
			return next
		}
	}
}

// Outcome is the result of one acquire attempt, carrying enough detail
// for the facade to publish an accurate event.
type Outcome struct {
	Acquired    bool
	NanosToWait int64
	Reason      string // "timeout", "cancelled", "no_wait_requested" (TryAcquire), or "" on success
}

// TryAcquire performs a single non-blocking reservation: it always
// consumes one permission slot from the CAS algorithm (possibly driving
// activePermissions negative) and reports immediately whether that
// permission is available now or how long a caller would have to wait
// for it.
func (rl *RateLimiter) TryAcquire() Outcome {
	next := rl.reserve(rl.now())
	if next.nanosToWait == 0 {
		return Outcome{Acquired: true}
	}
	return Outcome{Acquired: false, NanosToWait: next.nanosToWait, Reason: "no_wait_requested"}
}

// Acquire blocks up to timeout for a permission, honoring ctx
// cancellation. It returns Outcome.Acquired=false with no error if the
// reservation would need longer than timeout; it returns a non-nil error
// only if ctx was canceled while parked.
func (rl *RateLimiter) Acquire(ctx context.Context, timeout time.Duration) (Outcome, error) {
	next := rl.reserve(rl.now())
	if next.nanosToWait > int64(timeout) {
		return Outcome{Acquired: false, NanosToWait: next.nanosToWait, Reason: "timeout"}, nil
	}
	if next.nanosToWait <= 0 {
		return Outcome{Acquired: true}, nil
	}

	rl.waitingThreads.Add(1)
	defer rl.waitingThreads.Add(-1)

	timer := time.NewTimer(time.Duration(next.nanosToWait))
	defer timer.Stop()
	select {
	case <-timer.C:
		return Outcome{Acquired: true}, nil
	case <-ctx.Done():
		return Outcome{Acquired: false, NanosToWait: next.nanosToWait, Reason: "cancelled"}, ctx.Err()
	}
}

// ChangeLimitForPeriod updates how many permissions each cycle grants,
// effective from the next cycle boundary onward.
func (rl *RateLimiter) ChangeLimitForPeriod(limitForPeriod int) {
	rl.limitForPeriod.Store(int64(limitForPeriod))
}

// ChangeTimeoutDuration updates the default wait timeout used by Acquire
// callers that don't pass their own.
func (rl *RateLimiter) ChangeTimeoutDuration(d time.Duration) {
	rl.timeoutDuration.Store(int64(d))
}

// TimeoutDuration returns the currently configured default wait timeout.
func (rl *RateLimiter) TimeoutDuration() time.Duration {
	return time.Duration(rl.timeoutDuration.Load())
}

// LimitForPeriod returns the currently configured per-cycle permission
// count.
func (rl *RateLimiter) LimitForPeriod() int {
	return int(rl.limitForPeriod.Load())
}

// LimitRefreshPeriod returns the fixed cycle length.
func (rl *RateLimiter) LimitRefreshPeriod() time.Duration {
	return time.Duration(rl.limitRefreshPeriod)
}

// Metrics is a point-in-time snapshot of the limiter's internal state.
type Metrics struct {
	AvailablePermissions   int64
	NumberOfWaitingThreads int32
	NanosToWait            int64
}

// GetMetrics returns a snapshot of the limiter's current cycle state.
func (rl *RateLimiter) GetMetrics() Metrics {
	s := rl.state.Load()
	return Metrics{
		AvailablePermissions:   s.activePermissions,
		NumberOfWaitingThreads: rl.waitingThreads.Load(),
		NanosToWait:            s.nanosToWait,
	}
}

// GetName returns the limiter's configured name.
func (rl *RateLimiter) GetName() string { return rl.name }
