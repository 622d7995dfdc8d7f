package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/processtable"
	"github.com/vnykmshr/tableflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/tableflow/pkg/table"
)

// applyRow resolves the row's groups once, then runs its processes in order.
func (e *Executor) applyRow(ctx context.Context, logger *zap.Logger, pool workerpool.Pool, index int, row processtable.Row, t *table.Table) error {
	start := time.Now()
	if e.config.OnRowStart != nil {
		e.config.OnRowStart(index, row)
	}

	groups := row.Selector.Groups(t.Variables())
	result := RowResult{Index: index, Source: row.Source, Groups: groups}
	rowLogger := logger.With(zap.Int("row", index), zap.Stringer("selector", row.Selector))

	if len(groups) == 0 {
		rowLogger.Warn("row selects no present variables, skipping")
		result.Skipped = true
		e.completeRow(result, start)
		return nil
	}

	rowLogger.Debug("applying row", zap.Int("groups", len(groups)), zap.Int("processes", len(row.Process)))
	for _, d := range row.Process {
		if err := ctx.Err(); err != nil {
			result.Error = err
			e.completeRow(result, start)
			return err
		}
		if err := e.applyProcess(ctx, rowLogger, pool, index, row, d, groups, t); err != nil {
			result.Error = err
			e.completeRow(result, start)
			return err
		}
	}

	e.completeRow(result, start)
	return nil
}

func (e *Executor) completeRow(result RowResult, start time.Time) {
	result.Duration = time.Since(start)
	if result.Error == nil {
		e.countRow(result.Skipped)
	}
	if e.config.OnRowComplete != nil {
		e.config.OnRowComplete(result)
	}
}

// applyProcess runs d on every group and merges the results into t.
// Singleton groups go through the pool; their results are kept in
// submission order. Multi-variable groups then run one at a time on the
// calling goroutine. All removals are applied before any additions.
func (e *Executor) applyProcess(ctx context.Context, logger *zap.Logger, pool workerpool.Pool, index int, row processtable.Row, d process.Descriptor, groups [][]int, t *table.Table) error {
	pr := ProcessResult{Row: index, Process: d, Groups: len(groups), StartTime: time.Now()}
	if e.config.OnProcessStart != nil {
		e.config.OnProcessStart(index, d, groups)
	}

	err := e.runProcess(ctx, pool, d, groups, t, &pr)

	pr.EndTime = time.Now()
	pr.Duration = pr.EndTime.Sub(pr.StartTime)
	if err != nil {
		err = tferrors.NewOperationError("pipeline", d.Name, err).WithContext(rowContext(index, row))
		pr.Error = err
	} else {
		logger.Debug("process applied",
			zap.Stringer("process", d),
			zap.Int("removed", pr.Removed),
			zap.Int("added", pr.Added),
			zap.Duration("duration", pr.Duration))
	}
	if e.config.OnProcessComplete != nil {
		e.config.OnProcessComplete(pr)
	}
	return err
}

func (e *Executor) runProcess(ctx context.Context, pool workerpool.Pool, d process.Descriptor, groups [][]int, t *table.Table, pr *ProcessResult) error {
	singles, multis := partition(groups)
	view := t.View()

	results, err := workerpool.Map(ctx, pool, len(singles), func(ctx context.Context, i int) (process.Result, error) {
		return e.invoke(ctx, d, view, singles[i])
	})
	if err != nil {
		return err
	}

	for _, group := range multis {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := e.invoke(ctx, d, view, group)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	var merged process.Result
	for _, res := range results {
		if err := res.Validate(d.Name); err != nil {
			return err
		}
		merged = merged.Merge(res)
	}

	if err := t.Apply(merged.Remove, merged.Columns, merged.VIDs); err != nil {
		return err
	}
	pr.Removed = countDistinct(merged.Remove)
	pr.Added = len(merged.Columns)
	return nil
}

// invoke runs d on a single group. A panic in the process function is
// returned as an error.
func (e *Executor) invoke(ctx context.Context, d process.Descriptor, view table.View, group []int) (res process.Result, err error) {
	start := time.Now()
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("process panicked: %v\nStack trace:\n%s", r, debug.Stack())
			}
		}()
		res, err = d.Run(ctx, e.runner, view, group)
	}()
	e.countInvocation(d, time.Since(start), err)
	if err != nil {
		return process.Result{}, fmt.Errorf("variables %v: %w", group, err)
	}
	return res, nil
}

func countDistinct(names []string) int {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	return len(seen)
}

func partition(groups [][]int) (singles, multis [][]int) {
	for _, g := range groups {
		if len(g) == 1 {
			singles = append(singles, g)
		} else {
			multis = append(multis, g)
		}
	}
	return singles, multis
}

func rowContext(index int, row processtable.Row) string {
	if row.Source != "" {
		return fmt.Sprintf("row %d, %s", index, row.Source)
	}
	return fmt.Sprintf("row %d", index)
}
