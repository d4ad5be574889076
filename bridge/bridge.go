// Package bridge implements the sync-to-async bridge described in
// spec.md §4.H: a fixed pool of long-lived workers that a synchronous
// cached function dispatches onto so it can be awaited without a caller
// ever blocking the rest of the process. There is no teacher analogue —
// agilira-balios is fully synchronous — so this is grounded directly on
// spec.md and the Python original's ThreadPoolExecutor-of-event-loops
// pattern, adapted to Go's single execution model: Go has no separate
// "event loop" to own per worker, so the pool is just a fixed number of
// goroutines draining one job channel, and the cache-enable scope
// propagates for free because it already lives in the context.Context
// the caller passes through unchanged.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rungalileo/gcache/errs"
)

// DefaultWorkers is the default pool size, matching spec.md's "typical
// N=16".
const DefaultWorkers = 16

type job struct {
	ctx    context.Context
	fn     func(context.Context) (any, error)
	result chan jobResult
}

type jobResult struct {
	value    any
	err      error
	panicked bool
	panicVal any
}

// Bridge is a fixed pool of worker goroutines that run synchronous cached
// functions on behalf of callers that must block for the result.
type Bridge struct {
	size int

	once    sync.Once
	started atomic.Bool
	jobs    chan job
	stopped chan struct{}
	wg      sync.WaitGroup
}

// New constructs a Bridge with the given worker count. Workers are not
// started until the first Submit — construction must never spin up
// goroutines eagerly, since a Bridge is typically built once per process
// at facade-construction time, well before any caller needs it.
func New(size int) *Bridge {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &Bridge{size: size}
}

type insideWorkerKey struct{}

func insideWorker(ctx context.Context) bool {
	v, _ := ctx.Value(insideWorkerKey{}).(bool)
	return v
}

func markInsideWorker(ctx context.Context) context.Context {
	return context.WithValue(ctx, insideWorkerKey{}, true)
}

// Submit dispatches fn onto a worker and blocks until it completes. The
// caller's context — including any cache-enable scope it carries — is
// passed through unchanged into fn, so a sync caller observes identical
// enablement semantics to an async one (spec.md §5's critical invariant).
//
// A call already running on a bridge worker that tries to Submit again is
// rejected with ReentrantSyncCall: sync cached functions must not nest: the
// remediation is to make the inner function async (called directly,
// without going through the bridge).
func (b *Bridge) Submit(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if insideWorker(ctx) {
		return nil, errs.NewReentrantSyncCallError()
	}
	b.ensureStarted()

	j := job{ctx: markInsideWorker(ctx), fn: fn, result: make(chan jobResult, 1)}
	select {
	case b.jobs <- j:
	case <-b.stopped:
		return nil, fmt.Errorf("bridge: stopped")
	}
	select {
	case res := <-j.result:
		if res.panicked {
			// Re-panic in the caller's own goroutine, the only place the
			// original caller of CallBlocking actually observes it, so a
			// panicking fallback looks identical whether it ran inline or
			// through the bridge (spec.md §7: fallback panics pass through
			// untouched).
			panic(res.panicVal)
		}
		return res.value, res.err
	case <-b.stopped:
		return nil, fmt.Errorf("bridge: stopped")
	}
}

func (b *Bridge) ensureStarted() {
	b.once.Do(func() {
		b.jobs = make(chan job)
		b.stopped = make(chan struct{})
		b.started.Store(true)
		for i := 0; i < b.size; i++ {
			b.wg.Add(1)
			go b.work()
		}
	})
}

// work is one long-lived, daemon-equivalent worker: it exits only when the
// bridge is stopped. A goroutine never keeps a Go process alive on its own,
// so the workers never prevent process exit; Stop is how teardown ends
// them explicitly.
func (b *Bridge) work() {
	defer b.wg.Done()
	for {
		select {
		case j, ok := <-b.jobs:
			if !ok {
				return
			}
			j.result <- b.run(j)
		case <-b.stopped:
			return
		}
	}
}

// run recovers a panicking fn just long enough to carry its value back
// across the job-result channel instead of crashing the worker goroutine.
// This is a Go-specific necessity the original implementation doesn't
// need: an unrecovered panic in a spawned goroutine crashes the whole
// process, whereas the original's per-worker event loop naturally
// contains an exception inside the future it reports through. The panic
// itself is re-raised by Submit once it's back on the caller's own
// goroutine, not converted into an error here.
func (b *Bridge) run(j job) (result jobResult) {
	defer func() {
		if r := recover(); r != nil {
			result = jobResult{panicked: true, panicVal: r}
		}
	}()
	value, err := j.fn(j.ctx)
	return jobResult{value: value, err: err}
}

// Stop shuts the pool down, waiting up to ctx's deadline for in-flight
// workers to finish. If the pool was never started (no sync call was ever
// submitted), Stop returns immediately without starting one — per spec.md
// §4.H, teardown must never spin up a new worker pool.
func (b *Bridge) Stop(ctx context.Context) error {
	if !b.started.Load() {
		return nil
	}
	close(b.stopped)

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
