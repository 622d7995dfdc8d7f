/*
Package tableflow applies declarative processing tables to in-memory data
tables.

A processing table is a list of rows, each naming a set of variables and a
comma-separated list of processes to run on them:

	Variable         Process
	all_independent  makeNa('<', 0), dropIfConstant
	4                binariseCategorical(acrossVisits=False)
	all              removeIfRedundant(0.95)

Data (pkg/table):
  - table: columns grouped by variable id, with a shared worker pool

Processes (pkg/process):
  - process: descriptors, argument values and process results
  - registry: named cleaner and processor functions
  - parser: process-list parsing with a result cache

Processing tables (pkg/processtable):
  - TSV and HCL loaders, variable selectors

Execution (pkg/scheduling):
  - pipeline: ordered, fail-fast application of a processing table
  - workerpool: bounded worker pool used for independent variables

Built-in processes live in pkg/builtins; Prometheus metrics in pkg/metrics.

Example usage:

	import (
		"github.com/vnykmshr/tableflow/pkg/builtins"
		"github.com/vnykmshr/tableflow/pkg/process"
		"github.com/vnykmshr/tableflow/pkg/process/parser"
		"github.com/vnykmshr/tableflow/pkg/process/registry"
		"github.com/vnykmshr/tableflow/pkg/processtable"
		"github.com/vnykmshr/tableflow/pkg/scheduling/pipeline"
	)

	reg := registry.New(registry.Config{})
	_ = builtins.RegisterBuiltins(reg)

	rows, _ := processtable.LoadTSV(f, parser.New(reg, parser.Config{}), process.Processor)
	e, _ := pipeline.New(reg, pipeline.Config{})
	err := e.Run(ctx, rows, t)
*/
package tableflow
