package builtins

import (
	"fmt"

	"github.com/vnykmshr/tableflow/pkg/process"
)

// params binds positional and keyword arguments to named parameters.
type params struct {
	process string
	names   []string
	values  map[string]process.Value
}

// bind matches args and kwargs against names, in order. Unknown keywords,
// surplus positional arguments and arguments given twice are errors.
func bind(proc string, args []process.Value, kwargs []process.Kwarg, names ...string) (*params, error) {
	if len(args) > len(names) {
		return nil, fmt.Errorf("%s takes at most %d arguments, got %d", proc, len(names), len(args))
	}
	p := &params{process: proc, names: names, values: make(map[string]process.Value, len(names))}
	for i, a := range args {
		p.values[names[i]] = a
	}
	for _, kw := range kwargs {
		if !p.known(kw.Name) {
			return nil, fmt.Errorf("%s got an unexpected keyword argument %s", proc, kw.Name)
		}
		if _, dup := p.values[kw.Name]; dup {
			return nil, fmt.Errorf("%s got multiple values for argument %s", proc, kw.Name)
		}
		p.values[kw.Name] = kw.Value
	}
	return p, nil
}

func (p *params) known(name string) bool {
	for _, n := range p.names {
		if n == name {
			return true
		}
	}
	return false
}

// set reports whether name was given a non-null value.
func (p *params) set(name string) bool {
	v, ok := p.values[name]
	return ok && !v.IsNull()
}

func (p *params) floatArg(name string, def float64) (float64, error) {
	if !p.set(name) {
		return def, nil
	}
	f, ok := p.values[name].AsFloat()
	if !ok {
		return 0, fmt.Errorf("%s: %s must be a number, got %s", p.process, name, p.values[name])
	}
	return f, nil
}

func (p *params) intArg(name string, def int64) (int64, error) {
	if !p.set(name) {
		return def, nil
	}
	i, ok := p.values[name].AsInt()
	if !ok {
		return 0, fmt.Errorf("%s: %s must be an integer, got %s", p.process, name, p.values[name])
	}
	return i, nil
}

func (p *params) boolArg(name string, def bool) (bool, error) {
	if !p.set(name) {
		return def, nil
	}
	b, ok := p.values[name].AsBool()
	if !ok {
		return false, fmt.Errorf("%s: %s must be True or False, got %s", p.process, name, p.values[name])
	}
	return b, nil
}

func (p *params) stringArg(name string) (string, error) {
	if !p.set(name) {
		return "", fmt.Errorf("%s: missing required argument %s", p.process, name)
	}
	s, ok := p.values[name].AsString()
	if !ok {
		return "", fmt.Errorf("%s: %s must be a string, got %s", p.process, name, p.values[name])
	}
	return s, nil
}

func (p *params) requiredFloat(name string) (float64, error) {
	if !p.set(name) {
		return 0, fmt.Errorf("%s: missing required argument %s", p.process, name)
	}
	return p.floatArg(name, 0)
}
