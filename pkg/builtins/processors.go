package builtins

import (
	"context"
	"fmt"
	"math"

	"github.com/vnykmshr/tableflow/pkg/common/validation"
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/table"
)

// columnsOf returns the columns of every variable in group, in group order.
func columnsOf(view table.View, group []int) []table.Column {
	var cols []table.Column
	for _, vid := range group {
		cols = append(cols, view.Columns(vid)...)
	}
	return cols
}

func names(cols []table.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// DropIfConstant removes every column of a variable whose present values
// are all identical, or which has no present values at all.
func DropIfConstant(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	if _, err := bind("dropIfConstant", args, kwargs); err != nil {
		return process.Result{}, err
	}

	var drop []string
	for _, vid := range group {
		cols := view.Columns(vid)
		if len(cols) > 0 && len(distinct(cols...)) <= 1 {
			drop = append(drop, names(cols)...)
		}
	}
	if len(drop) == 0 {
		return process.NoChange(), nil
	}
	return process.RemoveColumns(drop...), nil
}

// ZScore replaces each column with (x - mean) / std. Columns with zero or
// undefined standard deviation are left alone.
func ZScore(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	p, err := bind("zscore", args, kwargs, "ddof")
	if err != nil {
		return process.Result{}, err
	}
	ddof, err := p.intArg("ddof", 0)
	if err != nil {
		return process.Result{}, err
	}
	if ddof < 0 {
		return process.Result{}, fmt.Errorf("zscore: ddof must be non-negative, got %d", ddof)
	}

	var remove []string
	var add []table.Column
	var vids []int
	for _, col := range columnsOf(view, group) {
		mean, std, _ := meanStd(col.Data, int(ddof))
		if math.IsNaN(std) || std == 0 {
			continue
		}
		out := col.Clone()
		for i, v := range out.Data {
			if !table.Missing(v) {
				out.Data[i] = (v - mean) / std
			}
		}
		remove = append(remove, col.Name)
		add = append(add, out)
		vids = append(vids, col.VID)
	}
	if len(add) == 0 {
		return process.NoChange(), nil
	}
	return process.Replace(remove, add, vids), nil
}

// RemoveIfSparse removes columns with fewer than minpres present values, or
// whose proportion of present values is below minprop.
func RemoveIfSparse(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	p, err := bind("removeIfSparse", args, kwargs, "minpres", "minprop")
	if err != nil {
		return process.Result{}, err
	}
	minpres, err := p.floatArg("minpres", 0)
	if err != nil {
		return process.Result{}, err
	}
	minprop, err := p.floatArg("minprop", 0)
	if err != nil {
		return process.Result{}, err
	}
	if err := validation.ValidateNonNegative("removeIfSparse", "minpres", minpres); err != nil {
		return process.Result{}, err
	}
	if err := validation.ValidateProportion("removeIfSparse", "minprop", minprop); err != nil {
		return process.Result{}, err
	}

	rows := float64(view.NumRows())
	var drop []string
	for _, col := range columnsOf(view, group) {
		present := float64(col.Present())
		switch {
		case present < minpres:
			drop = append(drop, col.Name)
		case rows > 0 && present/rows < minprop:
			drop = append(drop, col.Name)
		}
	}
	if len(drop) == 0 {
		return process.NoChange(), nil
	}
	return process.RemoveColumns(drop...), nil
}

// RemoveIfRedundant removes each column whose absolute correlation with an
// earlier, kept column of the group is at least corrthres. Columns are
// compared in group order.
func RemoveIfRedundant(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	p, err := bind("removeIfRedundant", args, kwargs, "corrthres")
	if err != nil {
		return process.Result{}, err
	}
	thres, err := p.requiredFloat("corrthres")
	if err != nil {
		return process.Result{}, err
	}
	if err := validation.ValidateProportion("removeIfRedundant", "corrthres", thres); err != nil {
		return process.Result{}, err
	}

	cols := columnsOf(view, group)
	var kept []table.Column
	var drop []string
	for _, col := range cols {
		if err := ctx.Err(); err != nil {
			return process.Result{}, err
		}
		redundant := false
		for _, k := range kept {
			if r := correlation(k.Data, col.Data); !math.IsNaN(r) && math.Abs(r) >= thres {
				redundant = true
				break
			}
		}
		if redundant {
			drop = append(drop, col.Name)
		} else {
			kept = append(kept, col)
		}
	}
	if len(drop) == 0 {
		return process.NoChange(), nil
	}
	return process.RemoveColumns(drop...), nil
}

// BinariseCategorical replaces categorical columns with one 0/1 column per
// distinct value. Missing values stay missing. With acrossVisits, each
// variable gets one column per value, set when any of its columns holds the
// value. New columns are given fresh variable ids.
func BinariseCategorical(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	p, err := bind("binariseCategorical", args, kwargs, "acrossVisits")
	if err != nil {
		return process.Result{}, err
	}
	acrossVisits, err := p.boolArg("acrossVisits", false)
	if err != nil {
		return process.Result{}, err
	}

	var remove []string
	var add []table.Column
	for _, vid := range group {
		cols := view.Columns(vid)
		if len(cols) == 0 {
			continue
		}
		remove = append(remove, names(cols)...)

		if acrossVisits {
			for _, value := range distinct(cols...) {
				add = append(add, table.Column{
					Name: fmt.Sprintf("%d_%s", vid, formatValue(value)),
					Data: indicator(value, cols...),
				})
			}
			continue
		}
		for _, col := range cols {
			for _, value := range distinct(col) {
				add = append(add, table.Column{
					Name:     fmt.Sprintf("%s_%s", col.Name, formatValue(value)),
					Visit:    col.Visit,
					Instance: col.Instance,
					Data:     indicator(value, col),
				})
			}
		}
	}
	if len(remove) == 0 {
		return process.NoChange(), nil
	}
	return process.Replace(remove, add, nil), nil
}

// indicator is 1 where any column equals value, 0 where some column is
// present, and missing elsewhere.
func indicator(value float64, cols ...table.Column) []float64 {
	rows := len(cols[0].Data)
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = table.NA()
		for _, c := range cols {
			v := c.Data[i]
			if table.Missing(v) {
				continue
			}
			if v == value {
				out[i] = 1
				break
			}
			out[i] = 0
		}
	}
	return out
}
