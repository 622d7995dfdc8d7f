package builtins

import (
	"math"
	"sort"
	"strconv"

	"github.com/vnykmshr/tableflow/pkg/table"
)

// meanStd returns the mean and standard deviation of the present values in
// data, with ddof delta degrees of freedom. n is the number of present
// values.
func meanStd(data []float64, ddof int) (mean, std float64, n int) {
	var sum float64
	for _, v := range data {
		if !table.Missing(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN(), math.NaN(), 0
	}
	mean = sum / float64(n)
	if n-ddof <= 0 {
		return mean, math.NaN(), n
	}

	var ss float64
	for _, v := range data {
		if !table.Missing(v) {
			d := v - mean
			ss += d * d
		}
	}
	return mean, math.Sqrt(ss / float64(n-ddof)), n
}

// correlation returns the Pearson correlation of a and b over the rows
// where both are present. It is NaN when fewer than two such rows exist or
// either side is constant.
func correlation(a, b []float64) float64 {
	var sa, sb float64
	n := 0
	for i := range a {
		if table.Missing(a[i]) || table.Missing(b[i]) {
			continue
		}
		sa += a[i]
		sb += b[i]
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	ma, mb := sa/float64(n), sb/float64(n)

	var cov, va, vb float64
	for i := range a {
		if table.Missing(a[i]) || table.Missing(b[i]) {
			continue
		}
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(va*vb)
}

// distinct returns the present values of the given columns, ascending.
func distinct(cols ...table.Column) []float64 {
	seen := make(map[float64]struct{})
	for _, c := range cols {
		for _, v := range c.Data {
			if !table.Missing(v) {
				seen[v] = struct{}{}
			}
		}
	}
	out := make([]float64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
