package process

import (
	"context"
	"strings"

	"github.com/vnykmshr/tableflow/pkg/table"
)

// Kind is the family a process belongs to. Names are unique per kind.
type Kind int

const (
	// Cleaner processes run per column during data cleaning.
	Cleaner Kind = iota
	// Processor processes run on groups of variables from a processing table.
	Processor
)

func (k Kind) String() string {
	switch k {
	case Cleaner:
		return "cleaner"
	case Processor:
		return "processor"
	default:
		return "unknown"
	}
}

// Kwarg is one keyword argument. Order is preserved as written.
type Kwarg struct {
	Name  string
	Value Value
}

// Runner executes registered process functions by kind and name.
type Runner interface {
	Run(ctx context.Context, kind Kind, name string, view table.View, group []int, args []Value, kwargs []Kwarg) (Result, error)
}

// Descriptor is one parsed process invocation: which function to call and
// with what literal arguments. Descriptors are immutable once built.
type Descriptor struct {
	Kind   Kind
	Name   string
	Args   []Value
	Kwargs []Kwarg
}

// Kwarg returns the keyword argument called name.
func (d Descriptor) Kwarg(name string) (Value, bool) {
	for _, kw := range d.Kwargs {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return Value{}, false
}

// Run invokes the described function through r on the given variable group.
func (d Descriptor) Run(ctx context.Context, r Runner, view table.View, group []int) (Result, error) {
	return r.Run(ctx, d.Kind, d.Name, view, group, d.Args, d.Kwargs)
}

// Equal reports whether d and o describe the same invocation.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.Kind != o.Kind || d.Name != o.Name || len(d.Args) != len(o.Args) || len(d.Kwargs) != len(o.Kwargs) {
		return false
	}
	for i := range d.Args {
		if !d.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	for i := range d.Kwargs {
		if d.Kwargs[i].Name != o.Kwargs[i].Name || !d.Kwargs[i].Value.Equal(o.Kwargs[i].Value) {
			return false
		}
	}
	return true
}

// Clone returns a copy of d that shares no slices with it.
func (d Descriptor) Clone() Descriptor {
	out := d
	if d.Args != nil {
		out.Args = append([]Value(nil), d.Args...)
	}
	if d.Kwargs != nil {
		out.Kwargs = append([]Kwarg(nil), d.Kwargs...)
	}
	return out
}

// String formats d in process-list syntax.
func (d Descriptor) String() string {
	var sb strings.Builder
	sb.WriteString(d.Name)
	if len(d.Args) == 0 && len(d.Kwargs) == 0 {
		return sb.String()
	}
	sb.WriteByte('(')
	for i, a := range d.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	for i, kw := range d.Kwargs {
		if i > 0 || len(d.Args) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(kw.Name)
		sb.WriteByte('=')
		sb.WriteString(kw.Value.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// FormatList formats descriptors as a comma separated process list.
func FormatList(ds []Descriptor) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
