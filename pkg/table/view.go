package table

// View is the read-only face of a Table handed to process functions.
type View interface {
	NumRows() int
	NumColumns() int
	Variables() []int
	Present(vid int) bool
	Columns(vid int) []Column
	Column(name string) (Column, bool)
	ColumnNames() []string
}

type readOnly struct {
	t *Table
}

// View returns a read-only view of t. The view reflects later changes.
func (t *Table) View() View {
	return readOnly{t: t}
}

func (v readOnly) NumRows() int                      { return v.t.NumRows() }
func (v readOnly) NumColumns() int                   { return v.t.NumColumns() }
func (v readOnly) Variables() []int                  { return v.t.Variables() }
func (v readOnly) Present(vid int) bool              { return v.t.Present(vid) }
func (v readOnly) Columns(vid int) []Column          { return v.t.Columns(vid) }
func (v readOnly) Column(name string) (Column, bool) { return v.t.Column(name) }
func (v readOnly) ColumnNames() []string             { return v.t.ColumnNames() }
