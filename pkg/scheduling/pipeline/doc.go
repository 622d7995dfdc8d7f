/*
Package pipeline applies a processing table to a data table.

An Executor walks the rows of a processtable.Table in order. For each row
it resolves the row's variable selector against the variables currently
present in the table, then runs the row's processes one after another on
the resulting groups.

# Basic Usage

	reg := registry.New(registry.Config{Logger: logger})
	if err := builtins.RegisterBuiltins(reg); err != nil {
		return err
	}

	p, err := parser.New(reg, parser.Config{})
	if err != nil {
		return err
	}
	rows, err := processtable.LoadTSV(f, p, process.Processor)
	if err != nil {
		return err
	}

	e, err := pipeline.New(reg, pipeline.Config{Logger: logger})
	if err != nil {
		return err
	}
	err = e.Run(ctx, rows, t)

# Ordering

Rows are applied strictly in order, and so are the processes within a
row. Each process sees the table as left by the previous one.

Groups are resolved once per row. A later process in the same row may be
handed a variable that an earlier one removed; the built-in processes
return no change in that case.

# Parallelism

When a row resolves to several single-variable groups, and the table was
created with more than one worker, the process runs on those groups
concurrently using the table's worker pool. Multi-variable groups run
serially. Processes only see a read-only table.View while running;
every change is collected and applied by the executor afterwards.

# Applying Results

Results from all groups of a process are validated and merged. Column
removals are applied first, then additions. A new column tagged with
table.NoVariable gets a fresh variable id.

# Errors

Execution stops at the first failing process. The returned error is a
*errors.OperationError naming the process, with the row in its context,
and wraps the process's own error. Results returned by a process that
break the result contract wrap errors.ErrContractViolation.

	if err := e.Run(ctx, rows, t); err != nil {
		var opErr *tferrors.OperationError
		if errors.As(err, &opErr) {
			log.Printf("process %s failed: %v", opErr.Operation, opErr.Cause)
		}
	}

A canceled context, or Config.Timeout elapsing, stops the run between
processes.

# Monitoring

	config := pipeline.Config{
		OnRowStart: func(index int, row processtable.Row) {
			log.Printf("row %d: %s", index, row)
		},
		OnProcessComplete: func(r pipeline.ProcessResult) {
			log.Printf("%s: -%d +%d columns in %v",
				r.Process.Name, r.Removed, r.Added, r.Duration)
		},
	}

Set Config.Metrics to export run, invocation and duration metrics to
Prometheus. Stats returns cumulative counters for the executor.

# Thread Safety

An Executor may be shared by several goroutines, each running against
its own table. A table must not be run by two executors at once.
*/
package pipeline
