// Package ref implements cache-by-reference: process-wide singletons
// keyed by a construction recipe rather than by call arguments. It is
// the home of non-serializable cached objects (connections, clients,
// models) and of the storage handles the cache layer itself opens.
//
// Unlike cache-by-value callers, who always receive independent copies,
// everyone resolving the same key shares one mutable instance.
package ref

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/vnykmshr/fncache-go/internal/singleflight"
)

// Key identifies a singleton in a Registry
type Key string

// FuncKey derives a Key from a construction recipe's code pointer. It
// panics if fn is not a function.
//
// Sharp edge, by contract: closures produced by the same function body
// share a code pointer, so two differently configured recipes from the
// same constructor map to the same Key. The first resolution wins and
// every later caller receives that first instance. Pass an explicit Key
// whenever distinct instances are intended.
func FuncKey(fn any) Key {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("ref.FuncKey: not a function: %T", fn))
	}
	return Key(fmt.Sprintf("func:0x%x", v.Pointer()))
}

// ConstructionError reports a failed singleton construction. It is
// delivered to every caller waiting on that construction; the key stays
// unresolved so a later call may retry.
type ConstructionError struct {
	Key Key
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("ref: constructing %q: %v", string(e.Key), e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// Registry is a process-scoped mapping from Key to a lazily constructed
// instance. Entries live until Reset or Forget; nothing here evicts.
//
// All mutation goes through the singleflight construction guard, so
// concurrent first-time resolutions for one key run the recipe once.
type Registry struct {
	mu        sync.RWMutex
	instances map[Key]any
	guard     singleflight.Group[Key, any]
}

// New creates an empty Registry. Most callers want Global; New exists
// so tests can isolate their singletons.
func New() *Registry {
	return &Registry{instances: make(map[Key]any)}
}

var global = New()

// Global returns the process-wide Registry
func Global() *Registry {
	return global
}

// Resolve returns the instance stored under key, constructing it with
// the given recipe if absent. The recipe runs at most once per key; if
// it fails, the failure propagates to all concurrent callers and the
// key remains unresolved.
func (r *Registry) Resolve(key Key, construct func() (any, error)) (any, error) {
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	v, err, _ := r.guard.Do(key, r.buildFunc(key, construct))
	return v, err
}

// ResolveContext is like Resolve but stops waiting when ctx is done.
// Cancellation abandons the wait only: the construction keeps running
// for the callers still waiting on it, and its result is kept.
func (r *Registry) ResolveContext(ctx context.Context, key Key, construct func() (any, error)) (any, error) {
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	v, err, _ := r.guard.DoContext(ctx, key, r.buildFunc(key, construct))
	return v, err
}

func (r *Registry) buildFunc(key Key, construct func() (any, error)) func() (any, error) {
	return func() (any, error) {
		// A flight that completed between lookup and Do may have
		// stored the instance already.
		if v, ok := r.lookup(key); ok {
			return v, nil
		}

		v, err := construct()
		if err != nil {
			return nil, &ConstructionError{Key: key, Err: err}
		}

		r.mu.Lock()
		r.instances[key] = v
		r.mu.Unlock()
		return v, nil
	}
}

func (r *Registry) lookup(key Key) (any, bool) {
	r.mu.RLock()
	v, ok := r.instances[key]
	r.mu.RUnlock()
	return v, ok
}

// Has reports whether key has been resolved
func (r *Registry) Has(key Key) bool {
	_, ok := r.lookup(key)
	return ok
}

// Len returns the number of resolved singletons
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// Forget drops the instance stored under key so the next Resolve runs
// its recipe again. The dropped instance is not closed or finalized.
func (r *Registry) Forget(key Key) {
	r.mu.Lock()
	delete(r.instances, key)
	r.mu.Unlock()
}

// Reset drops every resolved instance. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.instances = make(map[Key]any)
	r.mu.Unlock()
}

// Resolve is the typed convenience form of Registry.Resolve
func Resolve[T any](r *Registry, key Key, construct func() (T, error)) (T, error) {
	v, err := r.Resolve(key, func() (any, error) {
		return construct()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// ResolveContext is the typed convenience form of Registry.ResolveContext
func ResolveContext[T any](ctx context.Context, r *Registry, key Key, construct func() (T, error)) (T, error) {
	v, err := r.ResolveContext(ctx, key, func() (any, error) {
		return construct()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
