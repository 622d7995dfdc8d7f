// Package processtable loads processing tables: ordered rows that each pair
// a variable selector with a list of processes.
//
// Tables can be written as tab separated text:
//
//	Variable	Process
//	all_independent	dropIfConstant
//	1,4,10:12	removeIfRedundant(0.9)
//
// or as HCL row blocks (see LoadHCL). Process lists are parsed while
// loading, so unknown processes and syntax errors are reported before any
// data is touched.
package processtable
