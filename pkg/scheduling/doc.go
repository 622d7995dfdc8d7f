/*
Package scheduling groups the execution packages of tableflow.

  - workerpool: fixed-size worker pool, an inline serial pool, and Map for
    fan-out over indexed work
  - pipeline: the executor that applies a processing table to a data table

Worker Pool:

	pool := workerpool.New(4, 4)
	defer func() { <-pool.Shutdown() }()

	norms, err := workerpool.Map(ctx, pool, len(cols), func(ctx context.Context, i int) (float64, error) {
		return norm(cols[i]), nil
	})

Tables own their pool; the executor borrows it with table.Pool for the
duration of a run.

Pipeline:

	e, err := pipeline.New(reg, pipeline.Config{Logger: logger})
	err = e.Run(ctx, rows, t)

Both packages are safe for concurrent use and honour context
cancellation.
*/
package scheduling
