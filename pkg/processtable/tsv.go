package processtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vnykmshr/tableflow/pkg/process"
)

// LoadTSV reads a tab separated processing table. The header must name a
// Variable and a Process column (case-insensitive); other columns are
// ignored. Blank lines and lines starting with # are skipped.
func LoadTSV(r io.Reader, p ListParser, kind process.Kind) (Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("processtable: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("processtable: reading header: %w", err)
	}

	varCol, procCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "variable":
			varCol = i
		case "process":
			procCol = i
		}
	}
	if varCol < 0 || procCol < 0 {
		return nil, fmt.Errorf("processtable: header must contain Variable and Process columns, got %v", header)
	}

	var table Table
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("processtable: %w", err)
		}
		line, _ := cr.FieldPos(0)
		source := fmt.Sprintf("line %d", line)

		if blank(record) {
			continue
		}
		if len(record) <= varCol || len(record) <= procCol {
			return nil, fmt.Errorf("processtable: %s: expected at least %d fields, got %d", source, max(varCol, procCol)+1, len(record))
		}

		row, err := NewRow(p, kind, record[varCol], record[procCol])
		if err != nil {
			return nil, fmt.Errorf("processtable: %s: %w", source, err)
		}
		row.Source = source
		table = append(table, row)
	}
	return table, nil
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
