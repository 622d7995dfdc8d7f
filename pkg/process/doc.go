// Package process defines the values shared by process registration,
// parsing and execution.
//
// A Descriptor names a registered function and carries the literal
// arguments it will be called with:
//
//	d := process.Descriptor{
//		Kind:   process.Processor,
//		Name:   "removeIfSparse",
//		Kwargs: []process.Kwarg{{Name: "minpres", Value: process.Int(100)}},
//	}
//	fmt.Println(d) // removeIfSparse(minpres=100)
//
// Process functions report their effect on the data table as a Result.
package process
