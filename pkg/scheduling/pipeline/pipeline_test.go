package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/tableflow/internal/testutil"
	"github.com/vnykmshr/tableflow/pkg/builtins"
	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/metrics"
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/process/parser"
	"github.com/vnykmshr/tableflow/pkg/process/registry"
	"github.com/vnykmshr/tableflow/pkg/processtable"
	"github.com/vnykmshr/tableflow/pkg/table"
)

// fixture bundles a registry with the built-ins plus test processes.
type fixture struct {
	reg    *registry.Registry
	parser *parser.Parser
	groups testutil.Recorder[[]int]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{reg: registry.New(registry.Config{})}
	testutil.AssertNoError(t, builtins.RegisterBuiltins(f.reg))

	// observe records the group it was called with.
	f.reg.MustRegister(process.Processor, "observe", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		f.groups.Record(append([]int(nil), group...))
		return process.NoChange(), nil
	})

	// addColumn adds a column of ones under a fresh variable id.
	f.reg.MustRegister(process.Processor, "addColumn", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		name, _ := args[0].AsString()
		data := make([]float64, view.NumRows())
		for i := range data {
			data[i] = 1
		}
		return process.Add([]table.Column{{Name: name, Data: data}}, nil), nil
	})

	// failOn fails for the variable given as its argument and removes
	// every other variable it sees.
	f.reg.MustRegister(process.Processor, "failOn", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		bad, _ := args[0].AsInt()
		var drop []string
		for _, vid := range group {
			if int64(vid) == bad {
				return process.Result{}, errBoom
			}
			for _, c := range view.Columns(vid) {
				drop = append(drop, c.Name)
			}
		}
		return process.RemoveColumns(drop...), nil
	})

	p, err := parser.New(f.reg, parser.Config{})
	testutil.AssertNoError(t, err)
	f.parser = p
	return f
}

var errBoom = errors.New("boom")

func (f *fixture) rows(t *testing.T, specs ...[2]string) processtable.Table {
	t.Helper()
	var rows processtable.Table
	for _, s := range specs {
		row, err := processtable.NewRow(f.parser, process.Processor, s[0], s[1])
		testutil.AssertNoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

func (f *fixture) executor(t *testing.T, config Config) *Executor {
	t.Helper()
	e, err := New(f.reg, config)
	testutil.AssertNoError(t, err)
	return e
}

func newTable(t *testing.T, workers int, cols ...table.Column) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(cols, table.Config{Workers: workers})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func threeVariables(t *testing.T, workers int) *table.Table {
	return newTable(t, workers,
		table.NewColumn(1, 0, 0, []float64{1, 2, 3, 4}),
		table.NewColumn(2, 0, 0, []float64{7, 7, 7, 7}),
		table.NewColumn(3, 0, 0, []float64{10, 20, math.NaN(), 40}),
	)
}

func TestNew(t *testing.T) {
	_, err := New(nil, Config{})
	testutil.AssertError(t, err)
	testutil.AssertEqual(t, tferrors.IsValidationError(err), true)

	var noRegistry *registry.Registry
	_, err = New(noRegistry, Config{})
	testutil.AssertEqual(t, tferrors.IsValidationError(err), true)

	_, err = New(registry.New(registry.Config{}), Config{Timeout: -time.Second})
	testutil.AssertError(t, err)

	e, err := New(registry.New(registry.Config{}), Config{})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, e.Stats().TotalRuns, int64(0))
}

func TestEndToEnd(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			f := newFixture(t)
			tbl := threeVariables(t, workers)
			rows := f.rows(t,
				[2]string{"all_independent", "dropIfConstant()"},
				[2]string{"all", "zscore()"},
			)

			err := f.executor(t, Config{}).Run(context.Background(), rows, tbl)
			testutil.AssertNoError(t, err)

			testutil.AssertSliceEqual(t, tbl.Variables(), []int{1, 3})
			_, ok := tbl.Column("2-0.0")
			testutil.AssertEqual(t, ok, false)

			sd1 := math.Sqrt(1.25)
			c1, _ := tbl.Column("1-0.0")
			testutil.AssertFloatsClose(t, c1.Data, []float64{-1.5 / sd1, -0.5 / sd1, 0.5 / sd1, 1.5 / sd1}, 1e-12)

			c3, _ := tbl.Column("3-0.0")
			mean, sd3 := 70.0/3, math.Sqrt((math.Pow(10-70.0/3, 2)+math.Pow(20-70.0/3, 2)+math.Pow(40-70.0/3, 2))/3)
			testutil.AssertFloatsClose(t, c3.Data, []float64{(10 - mean) / sd3, (20 - mean) / sd3, math.NaN(), (40 - mean) / sd3}, 1e-12)
			testutil.AssertEqual(t, c3.VID, 3)
			testutil.AssertEqual(t, tbl.PoolActive(), false)
		})
	}
}

func TestRowOrdering(t *testing.T) {
	t.Run("added column is seen by later rows", func(t *testing.T) {
		f := newFixture(t)
		tbl := threeVariables(t, 1)
		rows := f.rows(t,
			[2]string{"1", "addColumn('x')"},
			[2]string{"all", "observe"},
		)

		testutil.AssertNoError(t, f.executor(t, Config{}).Run(context.Background(), rows, tbl))
		testutil.AssertEqual(t, f.groups.Len(), 1)
		testutil.AssertSliceEqual(t, f.groups.Events()[0], []int{1, 2, 3, 4})
	})

	t.Run("reversed rows do not see it", func(t *testing.T) {
		f := newFixture(t)
		tbl := threeVariables(t, 1)
		rows := f.rows(t,
			[2]string{"all", "observe"},
			[2]string{"1", "addColumn('x')"},
		)

		testutil.AssertNoError(t, f.executor(t, Config{}).Run(context.Background(), rows, tbl))
		testutil.AssertSliceEqual(t, f.groups.Events()[0], []int{1, 2, 3})
		testutil.AssertSliceEqual(t, tbl.Variables(), []int{1, 2, 3, 4})
	})
}

func TestSelectorResolution(t *testing.T) {
	tests := []struct {
		selector string
		want     [][]int
	}{
		{"all_independent", [][]int{{1}, {2}, {3}}},
		{"all", [][]int{{1, 2, 3}}},
		{"1,4,2", [][]int{{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			f := newFixture(t)
			tbl := threeVariables(t, 1)
			rows := f.rows(t, [2]string{tt.selector, "observe"})

			testutil.AssertNoError(t, f.executor(t, Config{}).Run(context.Background(), rows, tbl))

			got := f.groups.Events()
			testutil.AssertEqual(t, len(got), len(tt.want))
			for i := range got {
				testutil.AssertSliceEqual(t, got[i], tt.want[i])
			}
		})
	}
}

func TestSkippedRow(t *testing.T) {
	f := newFixture(t)
	tbl := threeVariables(t, 1)
	rows := f.rows(t,
		[2]string{"7,8", "failOn(7)"},
		[2]string{"all", "observe"},
	)

	var skipped []RowResult
	e := f.executor(t, Config{
		OnRowComplete: func(r RowResult) {
			if r.Skipped {
				skipped = append(skipped, r)
			}
		},
	})

	testutil.AssertNoError(t, e.Run(context.Background(), rows, tbl))
	testutil.AssertEqual(t, len(skipped), 1)
	testutil.AssertEqual(t, skipped[0].Index, 0)

	stats := e.Stats()
	testutil.AssertEqual(t, stats.RowsSkipped, int64(1))
	testutil.AssertEqual(t, stats.RowsApplied, int64(1))
}

// snapshot captures every column of a table for comparison.
func snapshot(tbl *table.Table) map[string]table.Column {
	out := make(map[string]table.Column)
	for _, name := range tbl.ColumnNames() {
		c, _ := tbl.Column(name)
		out[name] = c
	}
	return out
}

func TestParallelMatchesSerial(t *testing.T) {
	build := func(workers int) *table.Table {
		var cols []table.Column
		for vid := 1; vid <= 40; vid++ {
			data := make([]float64, 12)
			for i := range data {
				data[i] = float64((vid*7 + i*3) % (vid%5 + 2))
			}
			cols = append(cols, table.NewColumn(vid, 0, 0, data))
		}
		return newTable(t, workers, cols...)
	}

	run := func(workers int) *table.Table {
		f := newFixture(t)
		tbl := build(workers)
		rows := f.rows(t,
			[2]string{"all_independent", "dropIfConstant, zscore"},
			[2]string{"1:20", "binariseCategorical"},
			[2]string{"all_independent", "removeIfSparse(minprop=0.5)"},
		)
		testutil.AssertNoError(t, f.executor(t, Config{}).Run(context.Background(), rows, tbl))
		return tbl
	}

	serial := run(1)
	parallel := run(8)

	testutil.AssertSliceEqual(t, parallel.ColumnNames(), serial.ColumnNames())
	testutil.AssertSliceEqual(t, parallel.Variables(), serial.Variables())
	want := snapshot(serial)
	for name, got := range snapshot(parallel) {
		testutil.AssertEqual(t, got.VID, want[name].VID)
		testutil.AssertFloatsClose(t, got.Data, want[name].Data, 0)
	}
}

func TestSingletonGroupsRunConcurrently(t *testing.T) {
	f := newFixture(t)
	const groups = 4

	var arrived atomic.Int32
	f.reg.MustRegister(process.Processor, "barrier", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		arrived.Add(1)
		if !testutil.Eventually(func() bool { return arrived.Load() == groups }, time.Second, time.Millisecond) {
			return process.Result{}, errors.New("groups did not run concurrently")
		}
		return process.NoChange(), nil
	})

	var cols []table.Column
	for vid := 1; vid <= groups; vid++ {
		cols = append(cols, table.NewColumn(vid, 0, 0, []float64{float64(vid)}))
	}
	tbl := newTable(t, groups, cols...)

	rows := f.rows(t, [2]string{"all_independent", "barrier"})
	testutil.AssertNoError(t, f.executor(t, Config{}).Run(context.Background(), rows, tbl))
}

func TestFailFast(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			f := newFixture(t)
			tbl := threeVariables(t, workers)
			rows := f.rows(t,
				[2]string{"all_independent", "dropIfConstant"},
				[2]string{"all_independent", "failOn(3)"},
				[2]string{"all", "observe"},
			)

			var failed []ProcessResult
			e := f.executor(t, Config{
				OnProcessComplete: func(r ProcessResult) {
					if r.Error != nil {
						failed = append(failed, r)
					}
				},
			})

			err := e.Run(context.Background(), rows, tbl)
			testutil.AssertErrorIs(t, err, errBoom)

			var opErr *tferrors.OperationError
			testutil.AssertEqual(t, errors.As(err, &opErr), true)
			testutil.AssertEqual(t, opErr.Operation, "failOn")

			// Row 0 was applied; nothing from row 1 was merged, even though
			// group {1} succeeded; row 2 never ran.
			testutil.AssertSliceEqual(t, tbl.Variables(), []int{1, 3})
			testutil.AssertEqual(t, f.groups.Len(), 0)
			testutil.AssertEqual(t, len(failed), 1)
			testutil.AssertEqual(t, failed[0].Row, 1)

			stats := e.Stats()
			testutil.AssertEqual(t, stats.FailedRuns, int64(1))
			testutil.AssertEqual(t, stats.ProcessStats["failOn"].ErrorCount, int64(1))
			testutil.AssertEqual(t, tbl.PoolActive(), false)
		})
	}
}

func TestContractViolation(t *testing.T) {
	f := newFixture(t)
	f.reg.MustRegister(process.Processor, "broken", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		return process.Result{
			Remove:  []string{"1-0.0"},
			Columns: []table.Column{{Name: "new", Data: make([]float64, view.NumRows())}},
		}, nil
	})
	tbl := threeVariables(t, 1)
	rows := f.rows(t, [2]string{"1", "broken"})

	err := f.executor(t, Config{}).Run(context.Background(), rows, tbl)
	testutil.AssertErrorIs(t, err, tferrors.ErrContractViolation)

	var ce *tferrors.ContractError
	testutil.AssertEqual(t, errors.As(err, &ce), true)
	testutil.AssertEqual(t, ce.Process, "broken")
	testutil.AssertEqual(t, tbl.NumColumns(), 3)
}

func TestRemovalsApplyBeforeAdditions(t *testing.T) {
	f := newFixture(t)

	// Group {3} re-creates the column that group {1} removes.
	f.reg.MustRegister(process.Processor, "swap", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		switch group[0] {
		case 1:
			return process.RemoveColumns("1-0.0"), nil
		case 3:
			col := table.NewColumn(1, 0, 0, []float64{9, 9, 9, 9})
			return process.Add([]table.Column{col}, []int{1}), nil
		}
		return process.NoChange(), nil
	})

	for _, workers := range []int{1, 4} {
		tbl := threeVariables(t, workers)
		rows := f.rows(t, [2]string{"all_independent", "swap"})

		testutil.AssertNoError(t, f.executor(t, Config{}).Run(context.Background(), rows, tbl))
		c, ok := tbl.Column("1-0.0")
		testutil.AssertEqual(t, ok, true)
		testutil.AssertFloatsClose(t, c.Data, []float64{9, 9, 9, 9}, 0)
	}
}

func TestFailedBatchLeavesTableUnchanged(t *testing.T) {
	f := newFixture(t)

	// Every group replaces its column with one named "summary", so the
	// merged batch adds the same name three times.
	f.reg.MustRegister(process.Processor, "summarise", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		var drop []string
		for _, c := range view.Columns(group[0]) {
			drop = append(drop, c.Name)
		}
		data := make([]float64, view.NumRows())
		return process.Replace(drop, []table.Column{{Name: "summary", Data: data}}, nil), nil
	})

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			tbl := threeVariables(t, workers)
			before := snapshot(tbl)
			rows := f.rows(t, [2]string{"all_independent", "summarise"})

			err := f.executor(t, Config{}).Run(context.Background(), rows, tbl)
			testutil.AssertError(t, err)

			var oe *tferrors.OperationError
			testutil.AssertEqual(t, errors.As(err, &oe), true)
			testutil.AssertSliceEqual(t, tbl.ColumnNames(), []string{"1-0.0", "2-0.0", "3-0.0"})
			testutil.AssertSliceEqual(t, tbl.Variables(), []int{1, 2, 3})
			for name, col := range before {
				got, ok := tbl.Column(name)
				testutil.AssertEqual(t, ok, true)
				testutil.AssertFloatsClose(t, got.Data, col.Data, 0)
			}
		})
	}
}

func TestPanicInMultiVariableGroup(t *testing.T) {
	f := newFixture(t)
	f.reg.MustRegister(process.Processor, "explode", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		panic("exploded")
	})
	tbl := threeVariables(t, 4)
	rows := f.rows(t, [2]string{"1,2", "explode"})

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic escaped Run: %v", r)
			}
		}()
		err = f.executor(t, Config{}).Run(context.Background(), rows, tbl)
	}()
	testutil.AssertError(t, err)

	var oe *tferrors.OperationError
	testutil.AssertEqual(t, errors.As(err, &oe), true)
	testutil.AssertEqual(t, strings.Contains(err.Error(), "exploded"), true)
	testutil.AssertEqual(t, tbl.NumColumns(), 3)
}

func TestMultiVariableGroup(t *testing.T) {
	f := newFixture(t)
	tbl := newTable(t, 4,
		table.NewColumn(1, 0, 0, []float64{1, 2, 3, 4}),
		table.NewColumn(2, 0, 0, []float64{2, 4, 6, 8}),
		table.NewColumn(3, 0, 0, []float64{4, 1, 3, 2}),
	)
	rows := f.rows(t, [2]string{"all", "removeIfRedundant(0.95)"})

	testutil.AssertNoError(t, f.executor(t, Config{}).Run(context.Background(), rows, tbl))
	testutil.AssertSliceEqual(t, tbl.Variables(), []int{1, 3})
}

func TestPartition(t *testing.T) {
	singles, multis := partition([][]int{{1}, {2, 3}, {4}, {5, 6, 7}})
	testutil.AssertEqual(t, len(singles), 2)
	testutil.AssertEqual(t, len(multis), 2)
	testutil.AssertSliceEqual(t, singles[1], []int{4})
	testutil.AssertSliceEqual(t, multis[0], []int{2, 3})
}

func TestCanceledContext(t *testing.T) {
	f := newFixture(t)
	tbl := threeVariables(t, 1)
	rows := f.rows(t, [2]string{"all_independent", "dropIfConstant"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.executor(t, Config{}).Run(ctx, rows, tbl)
	testutil.AssertErrorIs(t, err, context.Canceled)
	testutil.AssertEqual(t, tbl.NumColumns(), 3)
}

func TestTimeout(t *testing.T) {
	f := newFixture(t)
	f.reg.MustRegister(process.Processor, "slow", func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
		time.Sleep(30 * time.Millisecond)
		return process.NoChange(), nil
	})
	tbl := threeVariables(t, 1)
	rows := f.rows(t,
		[2]string{"1", "slow"},
		[2]string{"all", "observe"},
	)

	mreg := metrics.NewRegistry(prometheus.NewRegistry())
	err := f.executor(t, Config{Timeout: 5 * time.Millisecond, Metrics: mreg}).Run(context.Background(), rows, tbl)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
	testutil.AssertEqual(t, f.groups.Len(), 0)
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.PipelineRuns.WithLabelValues("timeout")), float64(1))
}

func TestCallbacksAndStats(t *testing.T) {
	f := newFixture(t)
	tbl := threeVariables(t, 2)
	rows := f.rows(t,
		[2]string{"all_independent", "dropIfConstant, observe"},
		[2]string{"all", "zscore"},
	)

	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	}

	e := f.executor(t, Config{
		OnRowStart:     func(i int, row processtable.Row) { record(fmt.Sprintf("row %d start", i)) },
		OnRowComplete:  func(r RowResult) { record(fmt.Sprintf("row %d done", r.Index)) },
		OnProcessStart: func(i int, d process.Descriptor, groups [][]int) { record(fmt.Sprintf("%s x%d", d.Name, len(groups))) },
		OnProcessComplete: func(r ProcessResult) {
			record(fmt.Sprintf("%s -%d +%d", r.Process.Name, r.Removed, r.Added))
		},
	})

	testutil.AssertNoError(t, e.Run(context.Background(), rows, tbl))
	testutil.AssertSliceEqual(t, events, []string{
		"row 0 start",
		"dropIfConstant x3",
		"dropIfConstant -1 +0",
		// Groups are resolved once per row, so observe still sees {2}.
		"observe x3",
		"observe -0 +0",
		"row 0 done",
		"row 1 start",
		"zscore x1",
		"zscore -2 +2",
		"row 1 done",
	})

	stats := e.Stats()
	testutil.AssertEqual(t, stats.TotalRuns, int64(1))
	testutil.AssertEqual(t, stats.SuccessfulRuns, int64(1))
	testutil.AssertEqual(t, stats.RowsApplied, int64(2))
	testutil.AssertEqual(t, stats.ProcessStats["dropIfConstant"].Invocations, int64(3))
	testutil.AssertEqual(t, stats.ProcessStats["zscore"].Invocations, int64(1))
	testutil.AssertEqual(t, stats.AverageDuration > 0, true)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	mreg := metrics.NewRegistry(prometheus.NewRegistry())
	tbl := threeVariables(t, 1)
	rows := f.rows(t,
		[2]string{"all_independent", "dropIfConstant"},
		[2]string{"99", "observe"},
	)

	e := f.executor(t, Config{Metrics: mreg})
	testutil.AssertNoError(t, e.Run(context.Background(), rows, tbl))

	testutil.AssertEqual(t, promtest.ToFloat64(mreg.RowsApplied), float64(1))
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.RowsSkipped), float64(1))
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.ProcessesExecuted.WithLabelValues("processor", "dropIfConstant")), float64(3))
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.PipelineRuns.WithLabelValues("success")), float64(1))
}

func TestRunAsync(t *testing.T) {
	f := newFixture(t)
	tbl := threeVariables(t, 1)
	rows := f.rows(t, [2]string{"all_independent", "dropIfConstant"})

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	select {
	case err := <-f.executor(t, Config{}).RunAsync(ctx, rows, tbl):
		testutil.AssertNoError(t, err)
	case <-ctx.Done():
		t.Fatal("pipeline did not finish")
	}
	testutil.AssertSliceEqual(t, tbl.Variables(), []int{1, 3})
}
