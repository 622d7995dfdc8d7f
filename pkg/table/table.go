package table

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/common/validation"
	"github.com/vnykmshr/tableflow/pkg/metrics"
	"github.com/vnykmshr/tableflow/pkg/scheduling/workerpool"
)

// Config holds configuration options for a Table.
type Config struct {
	// Workers is the size of the worker pool handed out by Pool.
	// 1 selects the serial stand-in.
	Workers int

	// PoolName labels worker-pool metrics.
	PoolName string

	// Logger receives debug output about column changes. Nil disables logging.
	Logger *zap.Logger

	// Metrics, when set, records column counts and worker-pool activity.
	Metrics *metrics.Registry
}

// DefaultConfig returns a serial, unlogged configuration.
func DefaultConfig() Config {
	return Config{
		Workers:  1,
		PoolName: "table",
	}
}

// Table is an in-memory columnar data store keyed by column name and
// grouped by variable id.
//
// All methods are safe for concurrent use. The pipeline executor is the only
// writer; process functions see the table through View.
type Table struct {
	config Config
	logger *zap.Logger

	mu      sync.RWMutex
	rows    int
	columns map[string]*Column
	order   []string
	byVID   map[int][]string

	poolMu   sync.Mutex
	pool     workerpool.Pool
	poolRefs int
	closed   bool
}

// New creates an empty table with the given number of rows.
func New(rows int, config Config) (*Table, error) {
	if err := validation.ValidateNonNegative("table", "rows", float64(rows)); err != nil {
		return nil, err
	}
	if config.Workers == 0 {
		config.Workers = 1
	}
	if err := validation.ValidatePositive("table", "workers", config.Workers); err != nil {
		return nil, err
	}
	if config.PoolName == "" {
		config.PoolName = "table"
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Table{
		config:  config,
		logger:  logger,
		rows:    rows,
		columns: make(map[string]*Column),
		byVID:   make(map[int][]string),
	}, nil
}

// FromColumns creates a table holding cols, each keeping its own VID.
// The row count is taken from the first column.
func FromColumns(cols []Column, config Config) (*Table, error) {
	rows := 0
	if len(cols) > 0 {
		rows = len(cols[0].Data)
	}
	t, err := New(rows, config)
	if err != nil {
		return nil, err
	}
	vids := make([]int, len(cols))
	for i, c := range cols {
		if c.VID <= 0 {
			return nil, tferrors.NewValidationError("table", "vid", c.VID, "must be positive").
				WithHint("column " + c.Name + " needs a variable id")
		}
		vids[i] = c.VID
	}
	if err := t.AddColumns(cols, vids); err != nil {
		return nil, err
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// Variables returns the ids of variables with at least one column, ascending.
func (t *Table) Variables() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.variablesLocked()
}

func (t *Table) variablesLocked() []int {
	vids := make([]int, 0, len(t.byVID))
	for vid := range t.byVID {
		vids = append(vids, vid)
	}
	sort.Ints(vids)
	return vids
}

// Present reports whether vid has at least one column.
func (t *Table) Present(vid int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byVID[vid]
	return ok
}

// Columns returns copies of the columns of vid in insertion order.
func (t *Table) Columns(vid int) []Column {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := t.byVID[vid]
	out := make([]Column, 0, len(names))
	for _, name := range names {
		out = append(out, t.columns[name].Clone())
	}
	return out
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) (Column, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.columns[name]
	if !ok {
		return Column{}, false
	}
	return c.Clone(), true
}

// ColumnNames returns all column names in insertion order.
func (t *Table) ColumnNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// AddColumns adds cols to the table. vids[i] is the variable cols[i] is
// assigned to; NoVariable allocates a fresh id above every id in use, one
// per column. A nil vids assigns NoVariable to every column.
//
// The batch is validated as a whole before anything is added: names must be
// non-empty and unused, and every column must have NumRows values.
func (t *Table) AddColumns(cols []Column, vids []int) error {
	return t.Apply(nil, cols, vids)
}

// RemoveColumns removes the named columns. Unknown names are an error and
// nothing is removed. A variable whose last column is removed is no longer
// present.
func (t *Table) RemoveColumns(names []string) error {
	return t.Apply(names, nil, nil)
}

// Apply removes the named columns and then adds cols, as one change under a
// single lock. The whole batch is checked against the table as it would be
// after the removals; if any removal or addition is invalid the table is
// left untouched. Fresh ids for NoVariable columns are allocated after the
// removals. Arguments follow RemoveColumns and AddColumns.
func (t *Table) Apply(remove []string, cols []Column, vids []int) error {
	if vids == nil {
		vids = make([]int, len(cols))
	}
	if len(vids) != len(cols) {
		return fmt.Errorf("table: %d columns but %d variable ids", len(cols), len(vids))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	drop, err := t.checkRemovalsLocked(remove)
	if err != nil {
		return err
	}
	if err := t.checkAdditionsLocked(cols, vids, drop); err != nil {
		return err
	}

	if len(drop) > 0 {
		t.removeLocked(drop)
		if t.config.Metrics != nil {
			t.config.Metrics.ColumnsRemoved.Add(float64(len(drop)))
		}
	}
	if len(cols) > 0 {
		t.addLocked(cols, vids)
		if t.config.Metrics != nil {
			t.config.Metrics.ColumnsAdded.Add(float64(len(cols)))
		}
	}
	if len(drop) > 0 || len(cols) > 0 {
		t.updateGaugesLocked()
	}
	return nil
}

func (t *Table) checkRemovalsLocked(names []string) (map[string]struct{}, error) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := t.columns[name]; !ok {
			return nil, fmt.Errorf("table: no such column %s", name)
		}
		drop[name] = struct{}{}
	}
	return drop, nil
}

// checkAdditionsLocked validates cols as if the columns in drop were gone.
func (t *Table) checkAdditionsLocked(cols []Column, vids []int, drop map[string]struct{}) error {
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return fmt.Errorf("table: column %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table: column %s added twice in one batch", c.Name)
		}
		seen[c.Name] = struct{}{}
		if _, exists := t.columns[c.Name]; exists {
			if _, removed := drop[c.Name]; !removed {
				return fmt.Errorf("table: column %s already exists", c.Name)
			}
		}
		if len(c.Data) != t.rows {
			return fmt.Errorf("table: column %s has %d values, table has %d rows", c.Name, len(c.Data), t.rows)
		}
		if vids[i] < 0 {
			return fmt.Errorf("table: column %s has negative variable id %d", c.Name, vids[i])
		}
	}
	return nil
}

func (t *Table) removeLocked(drop map[string]struct{}) {
	for name := range drop {
		c := t.columns[name]
		delete(t.columns, name)
		t.byVID[c.VID] = without(t.byVID[c.VID], name)
		if len(t.byVID[c.VID]) == 0 {
			delete(t.byVID, c.VID)
		}
		t.logger.Debug("removed column", zap.String("column", name), zap.Int("vid", c.VID))
	}

	kept := t.order[:0]
	for _, name := range t.order {
		if _, gone := drop[name]; !gone {
			kept = append(kept, name)
		}
	}
	t.order = kept
}

func (t *Table) addLocked(cols []Column, vids []int) {
	next := t.maxVIDLocked() + 1
	for i, c := range cols {
		col := c.Clone()
		col.VID = vids[i]
		if col.VID == NoVariable {
			col.VID = next
			next++
		}
		t.columns[col.Name] = &col
		t.order = append(t.order, col.Name)
		t.byVID[col.VID] = append(t.byVID[col.VID], col.Name)
		t.logger.Debug("added column", zap.String("column", col.Name), zap.Int("vid", col.VID))
	}
}

func (t *Table) maxVIDLocked() int {
	max := 0
	for vid := range t.byVID {
		if vid > max {
			max = vid
		}
	}
	return max
}

func (t *Table) updateGaugesLocked() {
	if t.config.Metrics == nil {
		return
	}
	t.config.Metrics.TableVariables.Set(float64(len(t.byVID)))
	t.config.Metrics.TableColumns.Set(float64(len(t.order)))
}

func without(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
