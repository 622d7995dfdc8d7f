package integration

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vnykmshr/tableflow/internal/testutil"
	"github.com/vnykmshr/tableflow/pkg/builtins"
	"github.com/vnykmshr/tableflow/pkg/metrics"
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/process/parser"
	"github.com/vnykmshr/tableflow/pkg/process/registry"
	"github.com/vnykmshr/tableflow/pkg/processtable"
	"github.com/vnykmshr/tableflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/tableflow/pkg/table"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(registry.Config{})
	testutil.AssertNoError(t, builtins.RegisterBuiltins(reg))
	return reg
}

func newParser(t *testing.T, reg *registry.Registry) *parser.Parser {
	t.Helper()
	p, err := parser.New(reg, parser.Config{})
	testutil.AssertNoError(t, err)
	return p
}

func sampleColumns() []table.Column {
	return []table.Column{
		table.NewColumn(1, 0, 0, []float64{1, 2, 3, 4}),
		table.NewColumn(2, 0, 0, []float64{5, 5, 5, 5}),
		table.NewColumn(3, 0, 0, []float64{1, math.NaN(), math.NaN(), 4}),
	}
}

func runRows(t *testing.T, reg *registry.Registry, rows processtable.Table, workers int, cols []table.Column) *table.Table {
	t.Helper()
	tbl, err := table.FromColumns(cols, table.Config{Workers: workers})
	testutil.AssertNoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })

	e, err := pipeline.New(reg, pipeline.Config{})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, e.Run(context.Background(), rows, tbl))
	return tbl
}

// TestTSVAndHCLAgree verifies that the two processing-table formats
// describe the same run.
func TestTSVAndHCLAgree(t *testing.T) {
	reg := newRegistry(t)
	p := newParser(t, reg)

	tsv := "Variable\tProcess\n" +
		"all_independent\tdropIfConstant\n" +
		"3\tremoveIfSparse(minpres=3)\n" +
		"all\tzscore\n"
	hclSrc := `
row {
  variables = "all_independent"
  process   = "dropIfConstant"
}
row {
  variables = 3
  process   = "removeIfSparse(minpres=3)"
}
row {
  variables = "all"
  process   = "zscore"
}
`

	fromTSV, err := processtable.LoadTSV(strings.NewReader(tsv), p, process.Processor)
	testutil.AssertNoError(t, err)
	fromHCL, err := processtable.LoadHCL([]byte(hclSrc), "processing.hcl", p, process.Processor)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(fromTSV), len(fromHCL))
	for i := range fromTSV {
		testutil.AssertEqual(t, fromTSV[i].Selector.String(), fromHCL[i].Selector.String())
		testutil.AssertEqual(t, process.FormatList(fromTSV[i].Process), process.FormatList(fromHCL[i].Process))
	}

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			a := runRows(t, reg, fromTSV, workers, sampleColumns())
			b := runRows(t, reg, fromHCL, workers, sampleColumns())

			testutil.AssertSliceEqual(t, a.Variables(), []int{1})
			testutil.AssertSliceEqual(t, a.ColumnNames(), b.ColumnNames())
			ca, _ := a.Column("1-0.0")
			cb, _ := b.Column("1-0.0")
			testutil.AssertFloatsClose(t, ca.Data, cb.Data, 0)
			sd := math.Sqrt(1.25)
			testutil.AssertFloatsClose(t, ca.Data, []float64{-1.5 / sd, -0.5 / sd, 0.5 / sd, 1.5 / sd}, 1e-9)
		})
	}
}

// TestCleanThenProcess runs a cleaning table and then a processing table
// against the same data table, sharing one registry.
func TestCleanThenProcess(t *testing.T) {
	reg := newRegistry(t)
	p := newParser(t, reg)

	cleaning, err := processtable.LoadTSV(strings.NewReader(
		"Variable\tProcess\n"+
			"1\tmakeNa('==', -1), fillMissing(0)\n"+
			"2\tremove\n"), p, process.Cleaner)
	testutil.AssertNoError(t, err)

	processing, err := processtable.LoadTSV(strings.NewReader(
		"Variable\tProcess\n"+
			"all_independent\tdropIfConstant\n"), p, process.Processor)
	testutil.AssertNoError(t, err)

	// A cleaner name is not a processor.
	_, err = processtable.LoadTSV(strings.NewReader("Variable\tProcess\n1\tremove\n"), p, process.Processor)
	testutil.AssertError(t, err)

	tbl, err := table.FromColumns([]table.Column{
		table.NewColumn(1, 0, 0, []float64{1, -1, 3, -1}),
		table.NewColumn(2, 0, 0, []float64{9, 8, 7, 6}),
		table.NewColumn(3, 0, 0, []float64{2, 2, 2, 2}),
	}, table.Config{Workers: 2})
	testutil.AssertNoError(t, err)
	defer tbl.Close()

	e, err := pipeline.New(reg, pipeline.Config{})
	testutil.AssertNoError(t, err)
	ctx := context.Background()
	testutil.AssertNoError(t, e.Run(ctx, cleaning, tbl))
	testutil.AssertSliceEqual(t, tbl.Variables(), []int{1, 3})
	testutil.AssertNoError(t, e.Run(ctx, processing, tbl))
	testutil.AssertSliceEqual(t, tbl.Variables(), []int{1})

	col, ok := tbl.Column("1-0.0")
	testutil.AssertEqual(t, ok, true)
	testutil.AssertFloatsClose(t, col.Data, []float64{1, 0, 3, 0}, 0)

	stats := e.Stats()
	testutil.AssertEqual(t, stats.TotalRuns, int64(2))
	testutil.AssertEqual(t, stats.SuccessfulRuns, int64(2))
}

// TestSharedExecutor runs one executor against several tables at once.
func TestSharedExecutor(t *testing.T) {
	reg := newRegistry(t)
	p := newParser(t, reg)
	rows, err := processtable.LoadTSV(strings.NewReader(
		"Variable\tProcess\n"+
			"all_independent\tdropIfConstant, zscore(ddof=1)\n"), p, process.Processor)
	testutil.AssertNoError(t, err)

	e, err := pipeline.New(reg, pipeline.Config{})
	testutil.AssertNoError(t, err)

	const tables = 8
	var wg sync.WaitGroup
	errs := make([]error, tables)
	results := make([][]int, tables)
	for i := 0; i < tables; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := table.FromColumns(sampleColumns(), table.Config{Workers: 3})
			if err != nil {
				errs[i] = err
				return
			}
			defer tbl.Close()
			errs[i] = e.Run(context.Background(), rows, tbl)
			results[i] = tbl.Variables()
		}(i)
	}
	wg.Wait()

	for i := 0; i < tables; i++ {
		testutil.AssertNoError(t, errs[i])
		testutil.AssertSliceEqual(t, results[i], []int{1, 3})
	}
	testutil.AssertEqual(t, e.Stats().TotalRuns, int64(tables))
}

// TestSharedMetrics records table and executor activity in one registry.
func TestSharedMetrics(t *testing.T) {
	reg := newRegistry(t)
	p := newParser(t, reg)
	rows, err := processtable.LoadTSV(strings.NewReader(
		"Variable\tProcess\n"+
			"all_independent\tdropIfConstant\n"+
			"1\tbinariseCategorical\n"), p, process.Processor)
	testutil.AssertNoError(t, err)

	mreg := metrics.NewRegistry(prometheus.NewRegistry())
	tbl, err := table.FromColumns([]table.Column{
		table.NewColumn(1, 0, 0, []float64{0, 1, 1, 0}),
		table.NewColumn(2, 0, 0, []float64{5, 5, 5, 5}),
	}, table.Config{Workers: 2, Metrics: mreg})
	testutil.AssertNoError(t, err)
	defer tbl.Close()

	e, err := pipeline.New(reg, pipeline.Config{Metrics: mreg})
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, e.Run(context.Background(), rows, tbl))

	testutil.AssertEqual(t, promtest.ToFloat64(mreg.RowsApplied), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.ColumnsRemoved), 2.0)
	// Two initial columns plus one indicator per category.
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.ColumnsAdded), 4.0)
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.TableColumns), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(mreg.PipelineRuns.WithLabelValues("success")), 1.0)
}
