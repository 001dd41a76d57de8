// Package registry gives every guard a shared home: a
// CircuitBreakerRegistry, RateLimiterRegistry and RetryRegistry, each a
// concurrent name to instance map with compute-if-absent semantics built
// on the same generic engine. Instances live for the process lifetime;
// there is no eviction, matching a guard registry's typical use as a
// small, stable set of named dependencies wired up once at startup.
package registry

import (
	"github.com/vnykmshr/guardrail/circuitbreaker"
	"github.com/vnykmshr/guardrail/internal/registry"
	"github.com/vnykmshr/guardrail/ratelimiter"
	"github.com/vnykmshr/guardrail/retry"
)

// CircuitBreakerRegistry is a name to CircuitBreaker map.
type CircuitBreakerRegistry struct {
	inner *registry.Registry[*circuitbreaker.CircuitBreaker, circuitbreaker.Config]
}

// NewCircuitBreakerRegistry constructs a registry whose GetOrCreate uses
// defaultConfig for any name it hasn't seen yet.
func NewCircuitBreakerRegistry(defaultConfig circuitbreaker.Config) *CircuitBreakerRegistry {
	return &CircuitBreakerRegistry{inner: registry.New(defaultConfig, circuitbreaker.Of)}
}

// CircuitBreaker returns the named breaker, constructing it with the
// registry's default configuration if this is the first reference.
func (r *CircuitBreakerRegistry) CircuitBreaker(name string) (*circuitbreaker.CircuitBreaker, error) {
	return r.inner.GetOrCreate(name)
}

// CircuitBreakerWithConfig returns the named breaker, constructing it
// with cfg only if this is the first reference; cfg is ignored if the
// breaker already exists.
func (r *CircuitBreakerRegistry) CircuitBreakerWithConfig(name string, cfg circuitbreaker.Config) (*circuitbreaker.CircuitBreaker, error) {
	return r.inner.GetOrCreateWithConfig(name, cfg)
}

// AllCircuitBreakers returns a snapshot of every breaker currently
// registered, keyed by name.
func (r *CircuitBreakerRegistry) AllCircuitBreakers() map[string]*circuitbreaker.CircuitBreaker {
	return r.inner.All()
}

// RateLimiterRegistry is a name to RateLimiter map.
type RateLimiterRegistry struct {
	inner *registry.Registry[*ratelimiter.RateLimiter, ratelimiter.Config]
}

// NewRateLimiterRegistry constructs a registry whose GetOrCreate uses
// defaultConfig for any name it hasn't seen yet.
func NewRateLimiterRegistry(defaultConfig ratelimiter.Config) *RateLimiterRegistry {
	return &RateLimiterRegistry{inner: registry.New(defaultConfig, ratelimiter.Of)}
}

// RateLimiter returns the named limiter, constructing it with the
// registry's default configuration if this is the first reference.
func (r *RateLimiterRegistry) RateLimiter(name string) (*ratelimiter.RateLimiter, error) {
	return r.inner.GetOrCreate(name)
}

// RateLimiterWithConfig returns the named limiter, constructing it with
// cfg only if this is the first reference.
func (r *RateLimiterRegistry) RateLimiterWithConfig(name string, cfg ratelimiter.Config) (*ratelimiter.RateLimiter, error) {
	return r.inner.GetOrCreateWithConfig(name, cfg)
}

// AllRateLimiters returns a snapshot of every limiter currently
// registered, keyed by name.
func (r *RateLimiterRegistry) AllRateLimiters() map[string]*ratelimiter.RateLimiter {
	return r.inner.All()
}

// RetryRegistry is a name to Retry map.
type RetryRegistry struct {
	inner *registry.Registry[*retry.Retry, retry.Config]
}

// NewRetryRegistry constructs a registry whose GetOrCreate uses
// defaultConfig for any name it hasn't seen yet.
func NewRetryRegistry(defaultConfig retry.Config) *RetryRegistry {
	return &RetryRegistry{inner: registry.New(defaultConfig, retry.Of)}
}

// Retry returns the named retry, constructing it with the registry's
// default configuration if this is the first reference.
func (r *RetryRegistry) Retry(name string) (*retry.Retry, error) {
	return r.inner.GetOrCreate(name)
}

// RetryWithConfig returns the named retry, constructing it with cfg only
// if this is the first reference.
func (r *RetryRegistry) RetryWithConfig(name string, cfg retry.Config) (*retry.Retry, error) {
	return r.inner.GetOrCreateWithConfig(name, cfg)
}

// AllRetries returns a snapshot of every retry currently registered,
// keyed by name.
func (r *RetryRegistry) AllRetries() map[string]*retry.Retry {
	return r.inner.All()
}
