package fncache

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/vnykmshr/fncache-go/pkg/metrics"
)

// KeyGenFunc defines a function that generates cache keys from bound
// function arguments, overriding fingerprinting entirely
type KeyGenFunc func(args []any) string

// WrapOptions holds configuration options for function wrapping
type WrapOptions struct {
	// TTL overrides the default TTL for this wrapped function
	TTL time.Duration

	// ParamNames names the function's parameters in declared order.
	// A leading underscore excludes that parameter from fingerprints.
	// Unnamed parameters default to arg0..argN.
	ParamNames []string

	// Encoders adds argument encoders for this function, layered over
	// the cache's shared table
	Encoders EncoderTable

	// KeyFunc overrides fingerprint-based key generation
	KeyFunc KeyGenFunc

	// DisableCache disables caching for this function (useful for testing)
	DisableCache bool

	// NoSingleflight disables call coalescing, letting concurrent
	// misses for one key each run the function
	NoSingleflight bool
}

// WrapOption is a function that configures WrapOptions
type WrapOption func(*WrapOptions)

// WithTTL sets a custom TTL for the wrapped function
func WithTTL(ttl time.Duration) WrapOption {
	return func(opts *WrapOptions) {
		opts.TTL = ttl
	}
}

// WithParamNames names the wrapped function's parameters. Prefix a
// name with an underscore to keep that argument out of the cache key.
func WithParamNames(names ...string) WrapOption {
	return func(opts *WrapOptions) {
		opts.ParamNames = names
	}
}

// WithArgEncoders adds argument encoders for the wrapped function
func WithArgEncoders(encoders EncoderTable) WrapOption {
	return func(opts *WrapOptions) {
		opts.Encoders = encoders
	}
}

// WithKeyFunc sets a custom key generation function for the wrapped function
func WithKeyFunc(keyFunc KeyGenFunc) WrapOption {
	return func(opts *WrapOptions) {
		opts.KeyFunc = keyFunc
	}
}

// WithoutCache disables caching for the wrapped function
func WithoutCache() WrapOption {
	return func(opts *WrapOptions) {
		opts.DisableCache = true
	}
}

// WithoutSingleflight disables call coalescing for the wrapped function
func WithoutSingleflight() WrapOption {
	return func(opts *WrapOptions) {
		opts.NoSingleflight = true
	}
}

// Wrap returns a caching version of fn with the same type. Results are
// keyed by a fingerprint of the function's identity and its arguments,
// so equal calls hit and different calls never collide.
//
// fn must return one value, or one value and an error. A leading
// context.Context parameter is threaded through to the store and is
// never part of the key. Errors are returned, not cached. Concurrent
// misses for one key run fn once unless WithoutSingleflight is set.
//
// Binding and fingerprinting failures surface through fn's error
// return; a function without one panics, since there is no channel to
// report through. ValidateWrappableFunction checks a function ahead
// of time.
func Wrap[T any](cache *Cache, fn T, options ...WrapOption) T {
	opts := &WrapOptions{
		TTL: cache.config.DefaultTTL,
	}
	for _, opt := range options {
		opt(opts)
	}

	return wrapFunction(cache, fn, opts)
}

// wrapFunction performs the actual function wrapping using reflection
func wrapFunction[T any](cache *Cache, fn T, opts *WrapOptions) T {
	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	if err := ValidateWrappableFunction(fn); err != nil {
		panic("fncache.Wrap: " + err.Error())
	}

	sig, err := FuncSignature(fn, opts.ParamNames...)
	if err != nil {
		panic("fncache.Wrap: " + err.Error())
	}

	encoders := cache.config.Encoders.Merge(opts.Encoders)

	w := &wrapper{
		cache:    cache,
		fnValue:  fnValue,
		fnType:   fnType,
		sig:      sig,
		encoders: encoders,
		opts:     opts,

		hasCtx:    fnType.NumIn() > 0 && fnType.In(0) == contextType,
		hasErr:    hasErrorReturn(fnType),
		valueType: fnType.Out(0),
	}

	wrapped := reflect.MakeFunc(fnType, w.call)
	return wrapped.Interface().(T)
}

// wrapper holds the per-function state shared by every call
type wrapper struct {
	cache    *Cache
	fnValue  reflect.Value
	fnType   reflect.Type
	sig      *Signature
	encoders EncoderTable
	opts     *WrapOptions

	hasCtx    bool
	hasErr    bool
	valueType reflect.Type
}

// computed is the singleflight result shared between coalesced
// callers. When the value could be serialized every caller decodes an
// independent copy from data; otherwise the live value itself is
// shared, since there is nothing to copy from.
type computed struct {
	data    []byte
	value   any
	encoded bool
}

func (w *wrapper) call(args []reflect.Value) []reflect.Value {
	start := time.Now()
	defer func() {
		w.cache.recordCacheOperation(metrics.OperationFunctionCall, time.Since(start))
	}()

	if w.opts.DisableCache {
		return w.fnValue.Call(args)
	}

	ctx, keyArgs := w.splitArgs(args)

	key, err := w.cacheKey(keyArgs)
	if err != nil {
		return w.fail(err)
	}
	fullKey := w.cache.fullKey(key)

	// Fast path: serve from the store
	if data, ok := w.cache.lookup(ctx, fullKey); ok {
		if result, err := w.decode(data); err == nil {
			w.cache.hit(ctx, key, data, keyArgs)
			return w.returnValue(result)
		} else {
			w.cache.logger.Warn("Undecodable payload treated as miss",
				F("key", key), F("error", err))
		}
	}
	w.cache.miss(ctx, key, keyArgs)

	w.cache.stats.incInFlight()
	defer w.cache.stats.decInFlight()

	compute := func() (any, error) {
		return w.compute(ctx, fullKey, args)
	}

	var result any
	if w.opts.NoSingleflight {
		result, err = compute()
	} else if w.hasCtx {
		result, err, _ = w.cache.sf.DoContext(ctx, fullKey, compute)
	} else {
		result, err, _ = w.cache.sf.Do(fullKey, compute)
	}
	if err != nil {
		return w.fail(err)
	}

	c := result.(*computed)
	if !c.encoded {
		return w.returnValue(reflect.ValueOf(c.value))
	}

	decoded, err := w.decode(c.data)
	if err != nil {
		return w.fail(fmt.Errorf("fncache: decoding computed value: %w", err))
	}
	return w.returnValue(decoded)
}

// compute runs the wrapped function once and writes its result
// through, best effort. Errors from the function propagate and are
// never cached; serialization failures only cost the cache write.
func (w *wrapper) compute(ctx context.Context, fullKey string, args []reflect.Value) (any, error) {
	results := w.fnValue.Call(args)

	if w.hasErr {
		if errResult := results[len(results)-1]; !errResult.IsNil() {
			return nil, errResult.Interface().(error)
		}
	}

	value := results[0].Interface()

	data, err := w.cache.codec.Marshal(value)
	if err != nil {
		w.cache.logger.Warn("Unserializable result not cached",
			F("key", fullKey), F("error", err))
		return &computed{value: value}, nil
	}

	w.cache.write(ctx, fullKey, data, w.opts.TTL)
	return &computed{data: data, encoded: true}, nil
}

// splitArgs separates a leading context from the fingerprinted args
func (w *wrapper) splitArgs(args []reflect.Value) (context.Context, []any) {
	ctx := context.Background()
	start := 0
	if w.hasCtx {
		if c, ok := args[0].Interface().(context.Context); ok && c != nil {
			ctx = c
		}
		start = 1
	}

	keyArgs := make([]any, len(args)-start)
	for i := start; i < len(args); i++ {
		keyArgs[i-start] = args[i].Interface()
	}
	return ctx, keyArgs
}

func (w *wrapper) cacheKey(keyArgs []any) (string, error) {
	if w.opts.KeyFunc != nil {
		return w.opts.KeyFunc(keyArgs), nil
	}
	return w.sig.Fingerprint(w.encoders, keyArgs, nil)
}

// decode deserializes a stored payload into a fresh value of the
// function's result type
func (w *wrapper) decode(data []byte) (reflect.Value, error) {
	out := reflect.New(w.valueType)
	if err := w.cache.codec.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return out.Elem(), nil
}

// returnValue assembles the function's return slice around a result
func (w *wrapper) returnValue(value reflect.Value) []reflect.Value {
	if !w.hasErr {
		return []reflect.Value{value}
	}
	return []reflect.Value{value, reflect.Zero(w.fnType.Out(1))}
}

// fail reports err through the function's error return, or panics when
// there is none
func (w *wrapper) fail(err error) []reflect.Value {
	if !w.hasErr {
		panic("fncache: " + err.Error())
	}
	return []reflect.Value{
		reflect.Zero(w.valueType),
		reflect.ValueOf(err),
	}
}

// hasErrorReturn checks if the function returns error as its last value
func hasErrorReturn(fnType reflect.Type) bool {
	return fnType.NumOut() == 2 &&
		fnType.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem())
}

// ValidateWrappableFunction checks if a function can be wrapped.
// Useful for failing fast during startup instead of at call time.
func ValidateWrappableFunction(fn any) error {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("not a function: %T", fn)
	}

	if fnType.IsVariadic() {
		return fmt.Errorf("variadic functions are not supported")
	}

	switch fnType.NumOut() {
	case 0:
		return fmt.Errorf("functions with no return values cannot be cached")
	case 1:
		if fnType.Out(0).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
			return fmt.Errorf("functions returning only an error cannot be cached")
		}
	case 2:
		if !fnType.Out(1).Implements(reflect.TypeOf((*error)(nil)).Elem()) {
			return fmt.Errorf("two-value functions must have error as the second return value")
		}
	default:
		return fmt.Errorf("functions with more than two return values are not supported")
	}

	return nil
}
