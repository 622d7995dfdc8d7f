package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	tfcontext "github.com/vnykmshr/tableflow/pkg/common/context"
	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/common/validation"
	"github.com/vnykmshr/tableflow/pkg/metrics"
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/processtable"
	"github.com/vnykmshr/tableflow/pkg/table"
)

// RowResult represents the outcome of applying one processing-table row.
type RowResult struct {
	// Index is the position of the row in the processing table.
	Index int

	// Source locates the row in its input, if known.
	Source string

	// Groups are the variable groups the row resolved to.
	Groups [][]int

	// Skipped is true when no selected variable was present.
	Skipped bool

	// Error is any error that stopped the row
	Error error

	// Duration is how long the row took
	Duration time.Duration
}

// ProcessResult represents one process run across all groups of a row.
type ProcessResult struct {
	// Row is the index of the row the process belongs to.
	Row int

	// Process is the descriptor that was run.
	Process process.Descriptor

	// Groups is the number of groups the process was invoked on.
	Groups int

	// Removed and Added count the columns changed in the table.
	Removed int
	Added   int

	// Error is any error from this process
	Error error

	// Duration is how long this process took
	Duration time.Duration

	// StartTime is when the process started
	StartTime time.Time

	// EndTime is when the process finished
	EndTime time.Time
}

// Stats holds executor statistics.
type Stats struct {
	TotalRuns       int64
	SuccessfulRuns  int64
	FailedRuns      int64
	RowsApplied     int64
	RowsSkipped     int64
	TotalDuration   time.Duration
	AverageDuration time.Duration
	ProcessStats    map[string]ProcessStats
	LastRunAt       time.Time
}

// ProcessStats holds statistics for one process name. Every invocation on a
// variable group counts once.
type ProcessStats struct {
	Name            string
	Invocations     int64
	SuccessCount    int64
	ErrorCount      int64
	TotalDuration   time.Duration
	AverageDuration time.Duration
}

// Config holds executor configuration options.
type Config struct {
	// Logger receives pipeline progress. Each run logs with its own run_id.
	// Nil disables logging.
	Logger *zap.Logger

	// Metrics records rows, processes and durations. Nil disables metrics.
	Metrics *metrics.Registry

	// Timeout bounds a whole run. Zero means no limit. Running process
	// functions are not interrupted; the run stops at the next row or
	// process boundary.
	Timeout time.Duration

	// OnRowStart is called before a row's selector is resolved.
	OnRowStart func(index int, row processtable.Row)

	// OnRowComplete is called when a row has been applied, skipped or failed.
	OnRowComplete func(result RowResult)

	// OnProcessStart is called before a process is run on a row's groups.
	OnProcessStart func(row int, d process.Descriptor, groups [][]int)

	// OnProcessComplete is called after a process has been run and, on
	// success, merged into the table.
	OnProcessComplete func(result ProcessResult)
}

// Executor applies processing tables to a data table.
type Executor struct {
	runner process.Runner
	config Config
	logger *zap.Logger

	mu    sync.RWMutex
	stats Stats
}

// New creates an executor that runs processes through runner, normally a
// *registry.Registry.
func New(runner process.Runner, config Config) (*Executor, error) {
	if err := validation.ValidateNotNil("pipeline", "runner", runner); err != nil {
		return nil, err
	}
	if config.Timeout < 0 {
		return nil, tferrors.NewValidationError("pipeline", "timeout", config.Timeout, "cannot be negative")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		runner: runner,
		config: config,
		logger: logger,
		stats: Stats{
			ProcessStats: make(map[string]ProcessStats),
		},
	}, nil
}

// Run applies every row of rows to t, in order. Rows are resolved against
// the variables present when they start, so later rows see the changes made
// by earlier ones.
//
// The first error aborts the run. Changes made by rows and processes that
// completed before it stay in t; nothing from the failing process is
// applied.
func (e *Executor) Run(ctx context.Context, rows processtable.Table, t *table.Table) error {
	start := time.Now()
	logger := e.logger.With(zap.String("run_id", uuid.NewString()))

	ctx, cancel := tfcontext.WithOptionalTimeout(ctx, e.config.Timeout)
	defer cancel()

	logger.Info("pipeline started",
		zap.Int("rows", len(rows)),
		zap.Int("variables", len(t.Variables())),
		zap.Int("columns", t.NumColumns()))

	err := e.run(ctx, logger, rows, t)
	duration := time.Since(start)

	e.updateStats(duration, err)
	if m := e.config.Metrics; m != nil {
		m.PipelineRuns.WithLabelValues(tfcontext.Outcome(err)).Inc()
		m.PipelineDuration.Observe(duration.Seconds())
	}

	if err != nil {
		logger.Error("pipeline failed",
			zap.Error(err),
			zap.String("outcome", tfcontext.Outcome(err)),
			zap.Duration("duration", duration))
		return err
	}
	logger.Info("pipeline complete",
		zap.Duration("duration", duration),
		zap.Int("variables", len(t.Variables())),
		zap.Int("columns", t.NumColumns()))
	return nil
}

// RunAsync runs the pipeline in a new goroutine and returns a channel that
// receives its error, or nil, and is then closed.
func (e *Executor) RunAsync(ctx context.Context, rows processtable.Table, t *table.Table) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		errCh <- e.Run(ctx, rows, t)
	}()
	return errCh
}

func (e *Executor) run(ctx context.Context, logger *zap.Logger, rows processtable.Table, t *table.Table) error {
	pool, release, err := t.Pool()
	if err != nil {
		return tferrors.NewOperationError("pipeline", "acquire pool", err)
	}
	defer release()

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.applyRow(ctx, logger, pool, i, row, t); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns executor statistics.
func (e *Executor) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	statsCopy := e.stats
	statsCopy.ProcessStats = make(map[string]ProcessStats, len(e.stats.ProcessStats))
	for k, v := range e.stats.ProcessStats {
		statsCopy.ProcessStats[k] = v
	}
	if statsCopy.TotalRuns > 0 {
		statsCopy.AverageDuration = time.Duration(int64(statsCopy.TotalDuration) / statsCopy.TotalRuns)
	}
	return statsCopy
}

func (e *Executor) updateStats(duration time.Duration, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.TotalRuns++
	e.stats.TotalDuration += duration
	e.stats.LastRunAt = time.Now()
	if err == nil {
		e.stats.SuccessfulRuns++
	} else {
		e.stats.FailedRuns++
	}
}

func (e *Executor) countRow(skipped bool) {
	e.mu.Lock()
	if skipped {
		e.stats.RowsSkipped++
	} else {
		e.stats.RowsApplied++
	}
	e.mu.Unlock()

	if m := e.config.Metrics; m != nil {
		if skipped {
			m.RowsSkipped.Inc()
		} else {
			m.RowsApplied.Inc()
		}
	}
}

func (e *Executor) countInvocation(d process.Descriptor, duration time.Duration, err error) {
	e.mu.Lock()
	stats, exists := e.stats.ProcessStats[d.Name]
	if !exists {
		stats = ProcessStats{Name: d.Name}
	}
	stats.Invocations++
	stats.TotalDuration += duration
	if err == nil {
		stats.SuccessCount++
	} else {
		stats.ErrorCount++
	}
	stats.AverageDuration = time.Duration(int64(stats.TotalDuration) / stats.Invocations)
	e.stats.ProcessStats[d.Name] = stats
	e.mu.Unlock()

	if m := e.config.Metrics; m != nil {
		kind := d.Kind.String()
		m.ProcessesExecuted.WithLabelValues(kind, d.Name).Inc()
		m.ProcessDuration.WithLabelValues(kind, d.Name).Observe(duration.Seconds())
		if err != nil {
			m.ProcessesFailed.WithLabelValues(kind, d.Name).Inc()
		}
	}
}
