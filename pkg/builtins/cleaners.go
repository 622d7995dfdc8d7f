package builtins

import (
	"context"
	"fmt"

	"github.com/vnykmshr/tableflow/pkg/common/validation"
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/table"
)

var comparisons = map[string]func(a, b float64) bool{
	"==": func(a, b float64) bool { return a == b },
	"!=": func(a, b float64) bool { return a != b },
	"<":  func(a, b float64) bool { return a < b },
	"<=": func(a, b float64) bool { return a <= b },
	">":  func(a, b float64) bool { return a > b },
	">=": func(a, b float64) bool { return a >= b },
}

// Remove removes every column of the group.
func Remove(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	if _, err := bind("remove", args, kwargs); err != nil {
		return process.Result{}, err
	}
	cols := columnsOf(view, group)
	if len(cols) == 0 {
		return process.NoChange(), nil
	}
	return process.RemoveColumns(names(cols)...), nil
}

// FillMissing replaces missing values with value.
func FillMissing(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	p, err := bind("fillMissing", args, kwargs, "value")
	if err != nil {
		return process.Result{}, err
	}
	value, err := p.requiredFloat("value")
	if err != nil {
		return process.Result{}, err
	}

	return rewrite(view, group, func(v float64) (float64, bool) {
		if table.Missing(v) {
			return value, true
		}
		return v, false
	}), nil
}

// MakeNa marks values v for which "v expr value" holds as missing.
// expr is one of ==, !=, <, <=, > and >=.
func MakeNa(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	p, err := bind("makeNa", args, kwargs, "expr", "value")
	if err != nil {
		return process.Result{}, err
	}
	expr, err := p.stringArg("expr")
	if err != nil {
		return process.Result{}, err
	}
	if err := validation.ValidateOneOf("makeNa", "expr", expr, "==", "!=", "<", "<=", ">", ">="); err != nil {
		return process.Result{}, err
	}
	value, err := p.requiredFloat("value")
	if err != nil {
		return process.Result{}, err
	}
	cmp, ok := comparisons[expr]
	if !ok {
		return process.Result{}, fmt.Errorf("makeNa: unsupported expression %q", expr)
	}

	return rewrite(view, group, func(v float64) (float64, bool) {
		if !table.Missing(v) && cmp(v, value) {
			return table.NA(), true
		}
		return v, false
	}), nil
}

// rewrite applies fn to every value of the group's columns and replaces the
// columns in which fn reported a change.
func rewrite(view table.View, group []int, fn func(float64) (float64, bool)) process.Result {
	var remove []string
	var add []table.Column
	var vids []int
	for _, col := range columnsOf(view, group) {
		out := col.Clone()
		changed := false
		for i, v := range out.Data {
			if nv, ok := fn(v); ok {
				out.Data[i] = nv
				changed = true
			}
		}
		if !changed {
			continue
		}
		remove = append(remove, col.Name)
		add = append(add, out)
		vids = append(vids, col.VID)
	}
	if len(add) == 0 {
		return process.NoChange()
	}
	return process.Replace(remove, add, vids)
}
