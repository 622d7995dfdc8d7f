package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates recording pipeline metrics on an isolated registry.
func Example_basicUsage() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.RowsApplied.Add(3)
	registry.RowsSkipped.Inc()
	registry.ProcessesExecuted.WithLabelValues("processor", "zscore").Add(2)

	fmt.Println("rows applied:", promtest.ToFloat64(registry.RowsApplied))
	fmt.Println("zscore calls:", promtest.ToFloat64(registry.ProcessesExecuted.WithLabelValues("processor", "zscore")))

	// Output:
	// rows applied: 3
	// zscore calls: 2
}

// Example_customNamespace demonstrates overriding the metric namespace.
func Example_customNamespace() {
	reg := prometheus.NewRegistry()
	registry := NewRegistryWithConfig(Config{
		Enabled:   true,
		Registry:  reg,
		Namespace: "ukb",
		Labels:    prometheus.Labels{"dataset": "demo"},
	})
	registry.ColumnsAdded.Add(4)

	families, _ := reg.Gather()
	for _, mf := range families {
		if mf.GetName() == "ukb_table_columns_added_total" {
			fmt.Println(mf.GetName(), mf.GetMetric()[0].GetCounter().GetValue())
		}
	}

	// Output:
	// ukb_table_columns_added_total 4
}
