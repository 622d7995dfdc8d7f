package table

import (
	"fmt"
	"math"
)

// NoVariable is the placeholder vid for a new column that does not belong
// to an existing variable. AddColumns allocates a fresh vid for it.
// Real variable ids are positive.
const NoVariable = 0

// Column is one named series of values belonging to a variable. Missing
// values are NaN.
type Column struct {
	Name     string
	VID      int
	Visit    int
	Instance int
	Data     []float64
}

// ColumnName returns the conventional "<vid>-<visit>.<instance>" name.
func ColumnName(vid, visit, instance int) string {
	return fmt.Sprintf("%d-%d.%d", vid, visit, instance)
}

// NewColumn creates a column named by ColumnName.
func NewColumn(vid, visit, instance int, data []float64) Column {
	return Column{
		Name:     ColumnName(vid, visit, instance),
		VID:      vid,
		Visit:    visit,
		Instance: instance,
		Data:     data,
	}
}

// Clone returns a deep copy of c.
func (c Column) Clone() Column {
	out := c
	out.Data = make([]float64, len(c.Data))
	copy(out.Data, c.Data)
	return out
}

// Present returns the number of non-missing values.
func (c Column) Present() int {
	n := 0
	for _, v := range c.Data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Missing reports whether v is the missing-value marker.
func Missing(v float64) bool {
	return math.IsNaN(v)
}

// NA returns the missing-value marker.
func NA() float64 {
	return math.NaN()
}
