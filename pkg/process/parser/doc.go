// Package parser turns process-list strings from configuration tables into
// process descriptors.
//
// The grammar is:
//
//	processList    := process ("," process)*
//	process        := identifier ["(" argList ")"]
//	argList        := [positionalArgs] ["," keywordArgs] | keywordArgs
//	positionalArgs := literal ("," literal)*
//	keywordArgs    := identifier "=" literal ("," identifier "=" literal)*
//	literal        := quotedString | number | "True" | "False" | "None"
//
// Strings may use single or double quotes and backslash escapes. Numbers
// without a decimal point or exponent are integers.
//
// Names are checked against a Resolver as they are parsed:
//
//	p, err := parser.New(reg, parser.Config{})
//	if err != nil {
//		return err
//	}
//	ds, err := p.Parse(process.Processor, "dropIfConstant, zscore(ddof=1)")
//
// A Parser caches results per (kind, input), since the same process list is
// usually repeated across many rows of a processing table.
package parser
