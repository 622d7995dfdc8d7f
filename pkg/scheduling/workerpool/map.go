package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Map runs fn(ctx, i) for every i in [0, n) on pool and returns the outputs
// indexed by submission order, independent of completion order.
//
// Map waits for every submitted task before returning. Once any task fails,
// tasks that have not started yet are skipped, and the error with the lowest
// index is returned together with a nil slice. Panics inside fn are
// recovered and reported as errors.
func Map[T any](ctx context.Context, pool Pool, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	if pool == nil {
		return nil, fmt.Errorf("workerpool: Map requires a pool")
	}

	outputs := make([]T, n)
	errs := make([]error, n)
	var failed atomic.Bool
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		task := TaskFunc(func(taskCtx context.Context) (err error) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("task %d panicked: %v\nStack trace:\n%s", i, r, debug.Stack())
				}
				if err != nil {
					errs[i] = err
					failed.Store(true)
				}
			}()

			if failed.Load() {
				return nil
			}
			out, err := fn(taskCtx, i)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})

		if err := pool.SubmitWithContext(ctx, task); err != nil {
			wg.Done()
			errs[i] = err
			failed.Store(true)
			break
		}
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return outputs, nil
}
