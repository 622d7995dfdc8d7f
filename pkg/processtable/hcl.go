package processtable

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vnykmshr/tableflow/pkg/process"
)

// hclRoot decodes every top-level row block of a processing table file.
type hclRoot struct {
	Rows []*hclRow `hcl:"row,block"`
}

type hclRow struct {
	Variables hcl.Expression `hcl:"variables"`
	Process   string         `hcl:"process"`
}

// LoadHCL reads a processing table written as HCL row blocks:
//
//	row {
//	  variables = "all_independent"
//	  process   = "dropIfConstant"
//	}
//
//	row {
//	  variables = [1, 4, 2]
//	  process   = "removeIfRedundant(0.9)"
//	}
//
// variables is a selector string as accepted by ParseSelector, a single id,
// or a list of ids. Rows keep their order in the file.
func LoadHCL(src []byte, filename string, p ListParser, kind process.Kind) (Table, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("processtable: failed to parse HCL file %s: %w", filename, diags)
	}

	var root hclRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("processtable: failed to decode HCL file %s: %w", filename, diags)
	}

	table := make(Table, 0, len(root.Rows))
	for _, block := range root.Rows {
		source := block.Variables.Range().String()

		sel, diags := selectorFromExpr(block.Variables)
		if diags.HasErrors() {
			return nil, fmt.Errorf("processtable: %w", diags)
		}
		ds, err := p.Parse(kind, block.Process)
		if err != nil {
			return nil, fmt.Errorf("processtable: %s: %w", source, err)
		}
		table = append(table, Row{Selector: sel, Process: ds, Source: source})
	}
	return table, nil
}

// selectorFromExpr evaluates a literal variables expression.
func selectorFromExpr(expr hcl.Expression) (Selector, hcl.Diagnostics) {
	invalid := func(detail string) hcl.Diagnostics {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid variables value",
			Detail:   detail,
			Subject:  expr.Range().Ptr(),
		}}
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return Selector{}, diags
	}
	if !val.IsKnown() || val.IsNull() {
		return Selector{}, invalid("The 'variables' attribute must be set.")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		sel, err := ParseSelector(val.AsString())
		if err != nil {
			return Selector{}, invalid(err.Error())
		}
		return sel, nil

	case ty == cty.Number:
		vid, ok := vidFromNumber(val)
		if !ok {
			return Selector{}, invalid("A variable id must be a positive whole number.")
		}
		return Explicit(vid), nil

	case ty.IsTupleType() || ty.IsListType():
		var vids []int
		it := val.ElementIterator()
		for it.Next() {
			_, v := it.Element()
			if v.Type() != cty.Number {
				return Selector{}, invalid("When using a list for variables, all elements must be numbers.")
			}
			vid, ok := vidFromNumber(v)
			if !ok {
				return Selector{}, invalid("A variable id must be a positive whole number.")
			}
			vids = append(vids, vid)
		}
		if len(vids) == 0 {
			return Selector{}, invalid("The variables list cannot be empty.")
		}
		return Explicit(vids...), nil
	}

	return Selector{}, invalid("The 'variables' attribute must be a string, a number or a list of numbers.")
}

func vidFromNumber(v cty.Value) (int, bool) {
	if v.IsNull() {
		return 0, false
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, false
	}
	i, _ := bf.Int64()
	if i <= 0 || int64(int(i)) != i {
		return 0, false
	}
	return int(i), true
}
