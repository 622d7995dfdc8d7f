// Package builtins provides a small library of cleaning and processing
// functions for data tables.
//
// Processors:
//
//	dropIfConstant()                      drop variables with a single value
//	zscore(ddof=0)                        standardise columns
//	removeIfSparse(minpres, minprop)      drop columns with too few values
//	removeIfRedundant(corrthres)          drop correlated columns
//	binariseCategorical(acrossVisits)     one 0/1 column per category
//
// Cleaners:
//
//	remove()                              drop the variable
//	fillMissing(value)                    replace missing values
//	makeNa(expr, value)                   mark matching values as missing
//
// Register them with RegisterBuiltins before parsing processing tables.
package builtins
