package limiter

import (
	"context"
	"testing"
	"time"
)

func TestTryAcquireGrantsUpToLimitThenFails(t *testing.T) {
	rl := New("rl1", time.Second, 3, 0)
	for i := 0; i < 3; i++ {
		out := rl.TryAcquire()
		if !out.Acquired {
			t.Fatalf("acquire %d: Acquired = false, want true", i)
		}
	}
	out := rl.TryAcquire()
	if out.Acquired {
		t.Fatal("4th acquire in the same cycle: Acquired = true, want false")
	}
	if out.NanosToWait <= 0 {
		t.Fatalf("NanosToWait = %d, want positive", out.NanosToWait)
	}
}

func TestAcquireTimesOutWithoutBlockingPastTimeout(t *testing.T) {
	rl := New("rl2", time.Second, 1, 0)
	ctx := context.Background()
	out, err := rl.Acquire(ctx, 0)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !out.Acquired {
		t.Fatal("first Acquire: Acquired = false, want true")
	}

	out, err = rl.Acquire(ctx, 0)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if out.Acquired {
		t.Fatal("second Acquire with zero timeout: Acquired = true, want false")
	}
	if out.Reason != "timeout" {
		t.Fatalf("Reason = %q, want timeout", out.Reason)
	}
}

func TestAcquireWaitsAcrossCycleBoundary(t *testing.T) {
	rl := New("rl3", 50*time.Millisecond, 1, time.Second)
	ctx := context.Background()

	out, err := rl.Acquire(ctx, time.Second)
	if err != nil || !out.Acquired {
		t.Fatalf("first Acquire = %+v, err = %v", out, err)
	}

	start := time.Now()
	out, err = rl.Acquire(ctx, time.Second)
	elapsed := time.Since(start)
	if err != nil || !out.Acquired {
		t.Fatalf("second Acquire = %+v, err = %v", out, err)
	}
	if elapsed < 40*time.Millisecond {
		t.Fatalf("second Acquire returned after %v, expected to park roughly one cycle", elapsed)
	}
}

func TestAcquireRespectsCancellation(t *testing.T) {
	rl := New("rl4", time.Second, 1, time.Second)
	ctx := context.Background()
	if out, err := rl.Acquire(ctx, time.Second); err != nil || !out.Acquired {
		t.Fatalf("first Acquire = %+v, err = %v", out, err)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	out, err := rl.Acquire(cancelCtx, time.Second)
	if err == nil {
		t.Fatal("Acquire() error = nil, want context.Canceled")
	}
	if out.Acquired {
		t.Fatal("Acquired = true on a canceled wait, want false")
	}
}

func TestChangeLimitForPeriodAppliesNextCycle(t *testing.T) {
	rl := New("rl5", 30*time.Millisecond, 1, 0)
	out := rl.TryAcquire()
	if !out.Acquired {
		t.Fatal("initial TryAcquire: Acquired = false, want true")
	}
	rl.ChangeLimitForPeriod(3)
	time.Sleep(40 * time.Millisecond)

	acquired := 0
	for i := 0; i < 3; i++ {
		if rl.TryAcquire().Acquired {
			acquired++
		}
	}
	if acquired != 3 {
		t.Fatalf("acquired %d permissions in the new cycle, want 3", acquired)
	}
}

func TestMetricsReflectsActiveSnapshot(t *testing.T) {
	rl := New("rl6", time.Second, 5, 0)
	rl.TryAcquire()
	m := rl.GetMetrics()
	if m.AvailablePermissions != 4 {
		t.Fatalf("AvailablePermissions = %d, want 4", m.AvailablePermissions)
	}
}
