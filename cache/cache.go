// Package cache is thin decorator glue, not a guard: a Provider
// abstraction and a Decorate helper that checks the cache before calling
// the wrapped function and populates it after, matching the breadth of a
// cache-aside pattern without guardrail owning any cache implementation
// or eviction policy itself.
package cache

import "context"

// Provider is the minimal storage surface Decorate needs. Applications
// supply their own (in-memory, Redis, etc.); guardrail ships none.
type Provider interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
}

// Decorate wraps fn with a cache-aside lookup against provider: a cache
// hit short-circuits fn, a miss calls fn and stores its encoded result.
// Decode/marshal errors are treated as a miss rather than a failure, so a
// stale or corrupt cache entry never prevents the guarded call itself
// from succeeding.
func Decorate[T any](provider Provider, key string, marshal func(T) ([]byte, error), unmarshal func([]byte) (T, error), fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var zero T
		if raw, found, err := provider.Get(ctx, key); err == nil && found {
			if v, decodeErr := unmarshal(raw); decodeErr == nil {
				return v, nil
			}
		}
		v, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		if raw, err := marshal(v); err == nil {
			_ = provider.Put(ctx, key, raw)
		}
		return v, nil
	}
}
