package processtable

import (
	"fmt"

	"github.com/vnykmshr/tableflow/pkg/process"
)

// ListParser parses a process list for a kind. *parser.Parser implements it.
type ListParser interface {
	Parse(kind process.Kind, input string) ([]process.Descriptor, error)
}

// Row is one line of a processing table: the variables it applies to and
// the processes to run on them, in order.
type Row struct {
	Selector Selector
	Process  []process.Descriptor

	// Source locates the row in its input for error messages, e.g. "line 4".
	Source string
}

// String formats the row as its selector and process list.
func (r Row) String() string {
	return fmt.Sprintf("%s\t%s", r.Selector, process.FormatList(r.Process))
}

// Table is an ordered processing table. Rows are applied top to bottom.
type Table []Row

// NewRow parses selector and processes into a row.
func NewRow(p ListParser, kind process.Kind, selector, processes string) (Row, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return Row{}, err
	}
	ds, err := p.Parse(kind, processes)
	if err != nil {
		return Row{}, err
	}
	return Row{Selector: sel, Process: ds}, nil
}
