// Package workerpool bounds concurrent scoring fan-out to a fixed worker
// count, per spec.md §5's "parallelism... fans out independent scoring
// evaluations across worker threads (configured by core_number)". Grounded
// on hupe1980-vecgo's errgroup+semaphore resource-controller pattern
// (resource/controller.go, blobstore/caching_store.go).
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool caps in-flight work at a fixed concurrency limit.
type Pool struct {
	limit int64
}

// New returns a Pool bounded to coreNumber concurrent tasks; values below 1
// are clamped to 1 (no parallelism, but still correct).
func New(coreNumber int) *Pool {
	if coreNumber < 1 {
		coreNumber = 1
	}
	return &Pool{limit: int64(coreNumber)}
}

// Map runs fn(ctx, i) for every i in [0, n), with at most the pool's limit
// running concurrently, and returns their results indexed by i. Per
// spec.md §5, inputs are only ever read by fn — Map itself never mutates
// shared state, leaving that to the caller's post-join merge step. The
// first error returned by any task cancels the shared context and is
// returned to the caller; results for tasks that never got to run are the
// zero value of T.
func Map[T any](ctx context.Context, p *Pool, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	if n == 0 {
		return results, nil
	}

	sem := semaphore.NewWeighted(p.limit)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < n; i++ {
		i := i
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			r, err := fn(gctx, i)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
