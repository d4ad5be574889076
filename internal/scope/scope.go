// Package scope implements the cache-enable ambient scope described in
// spec.md §5 as a context.Context value. Go has no thread-local or
// task-local storage primitive the way the original implementation's
// contextvars.ContextVar does, but context.Context already gives the same
// LIFO nesting for free: WithEnabled returns a derived context, so
// restoring the parent context on scope exit is just a matter of the
// caller holding onto it, which defer naturally provides.
package scope

import "context"

type ctxKey struct{}

// WithEnabled returns a context in which Active reports active. Nesting
// falls out of context.Context's own immutability: a child scope shadows
// its parent only for callees that receive the child context, and the
// parent's enablement is restored automatically once the caller resumes
// using its own context after the child's scope exits.
func WithEnabled(ctx context.Context, active bool) context.Context {
	return context.WithValue(ctx, ctxKey{}, active)
}

// Active reports whether the cache-enable scope is active for ctx. Absent
// any enclosing WithEnabled call, caching is disabled by default (spec.md
// Testable Property 1).
func Active(ctx context.Context) bool {
	active, _ := ctx.Value(ctxKey{}).(bool)
	return active
}
