/*
Package workerpool provides the fixed-size worker pool used to run
independent process invocations in parallel.

A pool manages a fixed number of worker goroutines that execute tasks from a
bounded queue. Panics inside tasks are recovered and reported as errors.

Basic usage:

	pool := workerpool.New(4, 100) // 4 workers, queue size 100
	defer pool.Shutdown()

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	})

	if err := pool.Submit(task); err != nil {
		log.Printf("Failed to submit: %v", err)
	}

	result := <-pool.Results()

Ordered collection:

Map submits n indexed tasks and returns their outputs in submission order,
whatever order the workers finish in. The pipeline executor relies on this
to keep result-to-group correspondence deterministic:

	outs, err := workerpool.Map(ctx, pool, len(groups),
		func(ctx context.Context, i int) (process.Result, error) {
			return run(ctx, groups[i])
		})

Map waits for every task it submitted. After the first failure it skips
tasks that have not started and returns the lowest-indexed error.

Serial stand-in:

Serial returns a Pool that runs each task inline inside Submit. It lets
callers keep a single code path when parallelism is disabled.

Metrics:

NewWithMetrics and Instrument wrap a pool so every task records counts,
durations and pool gauges on a metrics.Registry.

Thread Safety:

All pool operations are safe for concurrent use from multiple goroutines.
*/
package workerpool
