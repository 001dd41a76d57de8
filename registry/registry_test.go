package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/guardrail/circuitbreaker"
	"github.com/vnykmshr/guardrail/ratelimiter"
	"github.com/vnykmshr/guardrail/retry"
)

func TestCircuitBreakerRegistryComputeIfAbsent(t *testing.T) {
	reg := NewCircuitBreakerRegistry(circuitbreaker.DefaultConfig())
	a, err := reg.CircuitBreaker("svc-a")
	require.NoError(t, err)
	b, err := reg.CircuitBreaker("svc-a")
	require.NoError(t, err)
	require.Same(t, a, b)

	all := reg.AllCircuitBreakers()
	require.Len(t, all, 1)
	require.Contains(t, all, "svc-a")
}

func TestRateLimiterRegistryPerNameIsolation(t *testing.T) {
	reg := NewRateLimiterRegistry(ratelimiter.DefaultConfig())
	a, err := reg.RateLimiter("svc-a")
	require.NoError(t, err)
	b, err := reg.RateLimiter("svc-b")
	require.NoError(t, err)
	require.NotSame(t, a, b)
	require.Equal(t, "svc-a", a.GetName())
	require.Equal(t, "svc-b", b.GetName())
}

func TestRetryRegistryWithConfigIgnoredAfterFirstBuild(t *testing.T) {
	reg := NewRetryRegistry(retry.DefaultConfig())
	custom := retry.DefaultConfig()
	custom.MaxAttempts = 99

	first, err := reg.Retry("r1")
	require.NoError(t, err)
	second, err := reg.RetryWithConfig("r1", custom)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.NotEqual(t, 99, second.GetConfig().MaxAttempts)
}
