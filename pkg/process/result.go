package process

import (
	"fmt"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/table"
)

// Result is what a process function returns: columns to remove, and new
// columns to add together with the variable id each belongs to.
// table.NoVariable in VIDs asks the table to allocate a fresh id.
type Result struct {
	Remove  []string
	Columns []table.Column
	VIDs    []int
}

// NoChange returns an empty result.
func NoChange() Result {
	return Result{}
}

// RemoveColumns returns a result that only removes columns.
func RemoveColumns(names ...string) Result {
	return Result{Remove: names}
}

// Add returns a result that only adds columns. A nil vids assigns
// table.NoVariable to every column.
func Add(cols []table.Column, vids []int) Result {
	if vids == nil {
		vids = make([]int, len(cols))
	}
	return Result{Columns: cols, VIDs: vids}
}

// Replace returns a result that removes and adds columns.
func Replace(remove []string, cols []table.Column, vids []int) Result {
	r := Add(cols, vids)
	r.Remove = remove
	return r
}

// Empty reports whether r changes nothing.
func (r Result) Empty() bool {
	return len(r.Remove) == 0 && len(r.Columns) == 0
}

// Validate checks r against the result contract for the named process.
func (r Result) Validate(process string) error {
	if len(r.VIDs) != len(r.Columns) {
		return &tferrors.ContractError{
			Process: process,
			Reason:  fmt.Sprintf("%d columns added with %d variable ids", len(r.Columns), len(r.VIDs)),
		}
	}
	for i, c := range r.Columns {
		if c.Name == "" {
			return &tferrors.ContractError{
				Process: process,
				Reason:  fmt.Sprintf("added column %d has no name", i),
			}
		}
	}
	for _, name := range r.Remove {
		if name == "" {
			return &tferrors.ContractError{Process: process, Reason: "empty column name in removal list"}
		}
	}
	return nil
}

// Merge appends o to r, keeping removals and additions in order.
func (r Result) Merge(o Result) Result {
	return Result{
		Remove:  append(append([]string(nil), r.Remove...), o.Remove...),
		Columns: append(append([]table.Column(nil), r.Columns...), o.Columns...),
		VIDs:    append(append([]int(nil), r.VIDs...), o.VIDs...),
	}
}
