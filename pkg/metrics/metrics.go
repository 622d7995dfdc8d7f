// Package metrics provides Prometheus instrumentation for tableflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for tableflow components.
type Registry struct {
	// Pipeline Metrics
	RowsApplied       prometheus.Counter
	RowsSkipped       prometheus.Counter
	ProcessesExecuted *prometheus.CounterVec
	ProcessesFailed   *prometheus.CounterVec
	ProcessDuration   *prometheus.HistogramVec
	ColumnsAdded      prometheus.Counter
	ColumnsRemoved    prometheus.Counter
	PipelineRuns      *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	TableVariables    prometheus.Gauge
	TableColumns      prometheus.Gauge

	// Worker Pool Metrics
	TasksExecuted         *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	TaskQueueDuration     *prometheus.HistogramVec
	WorkerPoolSize        *prometheus.GaugeVec
	WorkerPoolActive      *prometheus.GaugeVec
	WorkerPoolQueued      *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by tableflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg, Namespace: defaultNamespace})
}

// NewRegistryWithConfig creates a metrics registry honouring the namespace
// and constant labels in config.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	factory := promauto.With(reg)
	labels := config.Labels

	return &Registry{
		RowsApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "pipeline",
			Name:        "rows_applied_total",
			Help:        "Total number of processing-table rows applied",
			ConstLabels: labels,
		}),

		RowsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "pipeline",
			Name:        "rows_skipped_total",
			Help:        "Total number of rows skipped because no selected variable was present",
			ConstLabels: labels,
		}),

		ProcessesExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "processes_executed_total",
				Help:        "Total number of process invocations, one per variable group",
				ConstLabels: labels,
			},
			[]string{"kind", "process"},
		),

		ProcessesFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "processes_failed_total",
				Help:        "Total number of process invocations that returned an error",
				ConstLabels: labels,
			},
			[]string{"kind", "process"},
		),

		ProcessDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "process_duration_seconds",
				Help:        "Time spent applying one process descriptor to all groups of a row",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"kind", "process"},
		),

		ColumnsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "table",
			Name:        "columns_added_total",
			Help:        "Total number of columns added to the data table",
			ConstLabels: labels,
		}),

		ColumnsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "table",
			Name:        "columns_removed_total",
			Help:        "Total number of columns removed from the data table",
			ConstLabels: labels,
		}),

		PipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "pipeline",
				Name:        "runs_total",
				Help:        "Total number of pipeline runs by outcome",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),

		PipelineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "pipeline",
			Name:        "run_duration_seconds",
			Help:        "Time spent applying a whole processing table",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}),

		TableVariables: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "table",
			Name:        "variables",
			Help:        "Number of variables currently present in the data table",
			ConstLabels: labels,
		}),

		TableColumns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "table",
			Name:        "columns",
			Help:        "Number of columns currently present in the data table",
			ConstLabels: labels,
		}),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_executed_total",
				Help:        "Total number of tasks executed",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_completed_total",
				Help:        "Total number of tasks completed successfully",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "tasks_failed_total",
				Help:        "Total number of tasks that failed",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "task_duration_seconds",
				Help:        "Time spent executing tasks",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		TaskQueueDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "task_queue_seconds",
				Help:        "Time tasks spent queued before a worker picked them up",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "size",
				Help:        "Current worker pool size",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "active_workers",
				Help:        "Number of active workers",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "queued_tasks",
				Help:        "Number of queued tasks",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),
	}
}
