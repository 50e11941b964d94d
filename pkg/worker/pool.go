// Package worker provides a bounded pool for running per-file jobs in parallel.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// ProgressFunc is called after each item is processed with (done, total).
type ProgressFunc func(done, total int)

// Process runs fn on each item using at most n concurrent goroutines.
// Results and errors are returned in the same order as items. A panic in fn
// becomes that item's error. Items not started before ctx is cancelled get
// ctx.Err() as their error.
func Process[T any, R any](ctx context.Context, items []T, n int, fn func(context.Context, T) (R, error), progress ProgressFunc) ([]R, []error) {
	total := len(items)
	if total == 0 {
		return nil, nil
	}
	if n < 1 {
		n = 1
	}

	results := make([]R, total)
	errs := make([]error, total)

	var done atomic.Int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, n)

	for i, item := range items {
		if !acquire(ctx, sem) {
			for j := i; j < total; j++ {
				errs[j] = ctx.Err()
			}
			break
		}

		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()
			defer func() { <-sem }()

			results[idx], errs[idx] = run(ctx, it, fn)

			current := int(done.Add(1))
			if progress != nil {
				progress(current, total)
			}
		}(i, item)
	}

	wg.Wait()

	return results, errs
}

// acquire takes a pool slot unless ctx is done first.
func acquire(ctx context.Context, sem chan struct{}) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case sem <- struct{}{}:
		return true
	}
}

func run[T any, R any](ctx context.Context, it T, fn func(context.Context, T) (R, error)) (r R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("worker panic: %v", p)
		}
	}()
	return fn(ctx, it)
}
