// Package registry maps process names to the Go functions that implement
// them.
//
// A Registry is built once at startup and passed to the parser, which
// rejects unknown names, and to the pipeline executor, which runs them:
//
//	reg := registry.New(registry.Config{Logger: logger})
//	reg.MustRegister(process.Processor, "zscore", zscore)
//
//	res, err := reg.Run(ctx, process.Processor, "zscore", view, []int{42}, nil, nil)
//
// Names are unique per process.Kind, so a cleaner and a processor may share
// a name.
package registry
