// Package registry is the generic engine behind guardrail's three
// per-guard registries: a concurrent name to instance map with
// compute-if-absent semantics. Entries are held until explicitly deleted
// with Remove; there is no automatic eviction, matching a guard registry's
// use as a long-lived, small, stable set of named instances.
package registry

import "sync"

// Registry maps names to instances of T, constructed on first use via
// build. C is the configuration type passed to build.
type Registry[T any, C any] struct {
	mu            sync.Mutex
	instances     map[string]T
	defaultConfig C
	build         func(name string, cfg C) (T, error)
}

// New constructs a Registry whose GetOrCreate uses defaultConfig and
// whose instances are built by build.
func New[T any, C any](defaultConfig C, build func(string, C) (T, error)) *Registry[T, C] {
	return &Registry[T, C]{
		instances:     make(map[string]T),
		defaultConfig: defaultConfig,
		build:         build,
	}
}

// GetOrCreate returns the named instance, constructing it with the
// registry's default configuration if it doesn't exist yet.
func (r *Registry[T, C]) GetOrCreate(name string) (T, error) {
	return r.GetOrCreateWithConfig(name, r.defaultConfig)
}

// GetOrCreateWithConfig returns the named instance if it already exists
// (ignoring cfg), or constructs and stores it with cfg if it doesn't.
func (r *Registry[T, C]) GetOrCreateWithConfig(name string, cfg C) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[name]; ok {
		return inst, nil
	}
	inst, err := r.build(name, cfg)
	if err != nil {
		var zero T
		return zero, err
	}
	r.instances[name] = inst
	return inst, nil
}

// Get returns the named instance and whether it exists, without
// constructing it.
func (r *Registry[T, C]) Get(name string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instances[name]
	return inst, ok
}

// All returns a snapshot copy of every instance currently registered,
// keyed by name.
func (r *Registry[T, C]) All() map[string]T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]T, len(r.instances))
	for k, v := range r.instances {
		out[k] = v
	}
	return out
}

// Remove deletes the named instance from the registry, if present.
func (r *Registry[T, C]) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, name)
}
