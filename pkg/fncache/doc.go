// Package fncache caches function results by value.
//
// Wrap turns any function into a caching version of itself. Calls are
// keyed by a fingerprint of the function's identity, its declared
// parameters and its argument values, so equal calls hit and different
// calls never collide. Results are serialized on the way in and every
// hit decodes a fresh copy, which means callers can mutate what they
// get back without poisoning the cache.
//
//	cache, _ := fncache.New(nil)
//	lookup := fncache.Wrap(cache, fetchUser)
//	u, err := lookup(ctx, 42) // first call runs fetchUser
//	u, err = lookup(ctx, 42)  // second call decodes the cached copy
//
// Errors returned by the wrapped function are never cached, and
// concurrent misses for one key run the function once. Storage faults
// degrade to misses on reads and are dropped on writes, so a failing
// backend slows callers down but never breaks them.
//
// The backing store is opened through a storage factory resolved in a
// ref.Registry, so caches built from the same factory identity share
// one store handle. Memory and Redis stores are built in; anything
// implementing Store plugs in the same way.
package fncache
