package gcache

import (
	"context"
	"fmt"
	"reflect"

	"github.com/rungalileo/gcache/controller"
	"github.com/rungalileo/gcache/errs"
	"github.com/rungalileo/gcache/key"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Registration is what Register returns: the same function shape T, twice
// over, wired to two different dispatch paths. spec.md's decorator
// auto-detects "native-async vs. sync" and picks one path per call; Go has
// no such distinction at the type level, so both paths are generated and
// the caller picks.
type Registration[T any] struct {
	// Call runs inline on the calling goroutine — the cheapest path, safe
	// to use even from inside a bridge worker.
	Call T

	// CallBlocking routes the call through the sync-to-async bridge,
	// matching spec.md §4.H's sync-cached-function behavior: useful when a
	// caller wants the call isolated onto the bridge's fixed worker pool
	// (e.g. to bound concurrency, or because the caller's own goroutine
	// must not perform the fallback's blocking work directly). Calling
	// CallBlocking from inside a bridge worker is rejected with a
	// GOCACHE_REENTRANT_SYNC_CALL error (see errs.IsReentrantSyncCall), and
	// a warning is logged.
	CallBlocking T
}

// Register wraps fn — an ordinary Go function whose first parameter is
// context.Context and which returns exactly (result, error) — against
// descriptor d. fn's remaining parameters, in order, must match
// d.ArgNames one-for-one; that positional correspondence is the one piece
// of registration Go requires that the original decorator-based
// implementation inferred automatically via signature introspection.
//
// T must be a function type (enforced at call time via reflection, since
// Go generics cannot constrain "any function type" structurally).
func Register[T any](c *Cache, fn T, d key.Descriptor) (*Registration[T], error) {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("gcache: Register requires a function value, got %s", fnType.Kind())
	}
	if fnType.NumIn() == 0 || fnType.In(0) != contextType {
		return nil, fmt.Errorf("gcache: registered function's first parameter must be context.Context")
	}
	if fnType.NumIn()-1 != len(d.ArgNames) {
		return nil, fmt.Errorf("gcache: descriptor has %d ArgNames but the function takes %d non-context arguments",
			len(d.ArgNames), fnType.NumIn()-1)
	}
	if fnType.NumOut() != 2 || fnType.Out(1) != errorType {
		return nil, fmt.Errorf("gcache: registered function must return exactly (result, error)")
	}

	// Validate the function's shape before consuming d.UseCase's
	// registration slot, so a caller fixing a bad signature can simply
	// retry Register with the same descriptor.
	if err := c.registerUseCase(d); err != nil {
		return nil, err
	}

	invoke := func(in []reflect.Value) (any, error) {
		out := fnVal.Call(in)
		if errVal := out[1]; !errVal.IsNil() {
			err, _ := errVal.Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	}

	argMap := func(rest []reflect.Value) map[string]any {
		m := make(map[string]any, len(d.ArgNames))
		for i, name := range d.ArgNames {
			m[name] = rest[i].Interface()
		}
		return m
	}

	inline := reflect.MakeFunc(fnType, func(in []reflect.Value) []reflect.Value {
		ctx := in[0].Interface().(context.Context)
		value, err := c.controller.Call(ctx, controller.Params{
			Descriptor: d,
			Args:       argMap(in[1:]),
			Fallback: func(fctx context.Context) (any, error) {
				return invoke(withCtx(in, fctx))
			},
		})
		return resultOut(fnType, value, err)
	}).Interface().(T)

	blocking := reflect.MakeFunc(fnType, func(in []reflect.Value) []reflect.Value {
		ctx := in[0].Interface().(context.Context)
		value, err := c.bridge.Submit(ctx, func(bctx context.Context) (any, error) {
			return c.controller.Call(bctx, controller.Params{
				Descriptor: d,
				Args:       argMap(in[1:]),
				Fallback: func(fctx context.Context) (any, error) {
					return invoke(withCtx(in, fctx))
				},
			})
		})
		if errs.IsReentrantSyncCall(err) {
			c.logger.Warn("sync cached function called from inside a bridge worker",
				"use_case", d.UseCase, "key_type", d.KeyType)
		}
		return resultOut(fnType, value, err)
	}).Interface().(T)

	return &Registration[T]{Call: inline, CallBlocking: blocking}, nil
}

// withCtx rebuilds fn's argument list with ctx substituted for in[0],
// so the fallback runs with the context the controller actually threaded
// through (carrying the bridge's "inside worker" marker when dispatched
// via CallBlocking).
func withCtx(in []reflect.Value, ctx context.Context) []reflect.Value {
	out := make([]reflect.Value, len(in))
	out[0] = reflect.ValueOf(ctx)
	copy(out[1:], in[1:])
	return out
}

// resultOut converts a controller result back into fn's native (result,
// error) return shape. A cache error or a fallback error zeroes the result
// slot; a genuinely nil cached value also zeroes it, which is the one
// place a registered function's nil result is indistinguishable from
// "nothing was cached yet" — acceptable for the result types this facade
// expects to cache (never a meaningful bare nil).
func resultOut(fnType reflect.Type, value any, err error) []reflect.Value {
	out := make([]reflect.Value, 2)
	if err != nil {
		out[0] = reflect.Zero(fnType.Out(0))
		out[1] = reflect.ValueOf(err).Convert(errorType)
		return out
	}
	if value == nil {
		out[0] = reflect.Zero(fnType.Out(0))
	} else {
		out[0] = reflect.ValueOf(value).Convert(fnType.Out(0))
	}
	out[1] = reflect.Zero(errorType)
	return out
}
