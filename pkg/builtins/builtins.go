package builtins

import (
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/process/registry"
)

type builtin struct {
	kind process.Kind
	name string
	fn   registry.Func
}

var builtinProcesses = []builtin{
	{process.Processor, "dropIfConstant", DropIfConstant},
	{process.Processor, "zscore", ZScore},
	{process.Processor, "removeIfSparse", RemoveIfSparse},
	{process.Processor, "removeIfRedundant", RemoveIfRedundant},
	{process.Processor, "binariseCategorical", BinariseCategorical},
	{process.Cleaner, "remove", Remove},
	{process.Cleaner, "fillMissing", FillMissing},
	{process.Cleaner, "makeNa", MakeNa},
}

// RegisterBuiltins adds the built-in cleaners and processors to reg. It
// fails if any of their names is already taken.
func RegisterBuiltins(reg *registry.Registry) error {
	for _, b := range builtinProcesses {
		if err := reg.Register(b.kind, b.name, b.fn); err != nil {
			return err
		}
	}
	return nil
}
