package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	tferrors "github.com/vnykmshr/tableflow/pkg/common/errors"
	"github.com/vnykmshr/tableflow/pkg/common/validation"
	"github.com/vnykmshr/tableflow/pkg/process"
	"github.com/vnykmshr/tableflow/pkg/table"
)

// Func is the signature of a registered process. It receives a read-only
// view of the table, the variable group it was invoked on and the literal
// arguments from the process list.
type Func func(ctx context.Context, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error)

// Config holds configuration options for a Registry.
type Config struct {
	// Logger receives registration events. Nil disables logging.
	Logger *zap.Logger
}

type key struct {
	kind process.Kind
	name string
}

// Registry maps (kind, name) pairs to process functions. It is safe for
// concurrent use; registration normally happens once at startup.
type Registry struct {
	logger *zap.Logger

	mu    sync.RWMutex
	funcs map[key]Func
}

// New creates an empty registry.
func New(config Config) *Registry {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		funcs:  make(map[key]Func),
	}
}

// Register adds fn under kind and name. Names must be identifiers and may
// only be registered once per kind.
func (r *Registry) Register(kind process.Kind, name string, fn Func) error {
	if err := validation.ValidateIdentifier("registry", "name", name); err != nil {
		return err
	}
	if fn == nil {
		return tferrors.NewValidationError("registry", "fn", nil, "cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{kind: kind, name: name}
	if _, exists := r.funcs[k]; exists {
		return fmt.Errorf("registry: %s %s already registered", kind, name)
	}
	r.funcs[k] = fn
	r.logger.Debug("registered process", zap.Stringer("kind", kind), zap.String("name", name))
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(kind process.Kind, name string, fn Func) {
	if err := r.Register(kind, name, fn); err != nil {
		panic(err)
	}
}

// Exists reports whether name is registered for kind.
func (r *Registry) Exists(kind process.Kind, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[key{kind: kind, name: name}]
	return ok
}

// Lookup returns the function registered under kind and name.
func (r *Registry) Lookup(kind process.Kind, name string) (Func, error) {
	r.mu.RLock()
	fn, ok := r.funcs[key{kind: kind, name: name}]
	r.mu.RUnlock()
	if !ok {
		return nil, &tferrors.NoSuchProcessError{Kind: kind.String(), Name: name}
	}
	return fn, nil
}

// Run invokes the function registered under kind and name.
func (r *Registry) Run(ctx context.Context, kind process.Kind, name string, view table.View, group []int, args []process.Value, kwargs []process.Kwarg) (process.Result, error) {
	fn, err := r.Lookup(kind, name)
	if err != nil {
		return process.Result{}, err
	}
	return fn(ctx, view, group, args, kwargs)
}

// Names returns the registered names for kind in sorted order.
func (r *Registry) Names(kind process.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for k := range r.funcs {
		if k.kind == kind {
			names = append(names, k.name)
		}
	}
	sort.Strings(names)
	return names
}

var _ process.Runner = (*Registry)(nil)
