// Package metrics provides Prometheus instrumentation for tableflow components.
//
// The pipeline executor records rows applied and skipped, per-process
// invocation counts, failures and durations, and the number of columns added
// to and removed from the data table. Worker pools created with
// workerpool.NewWithMetrics record task counts, durations and pool gauges.
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//
//	exec, err := pipeline.New(registry, pipeline.Config{Metrics: m})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Available Metrics
//
// Pipeline:
//   - tableflow_pipeline_rows_applied_total
//   - tableflow_pipeline_rows_skipped_total
//   - tableflow_pipeline_processes_executed_total{kind,process}
//   - tableflow_pipeline_processes_failed_total{kind,process}
//   - tableflow_pipeline_process_duration_seconds{kind,process}
//   - tableflow_pipeline_runs_total{outcome}, outcome is success, failure, timeout or canceled
//   - tableflow_pipeline_run_duration_seconds
//
// Table:
//   - tableflow_table_columns_added_total
//   - tableflow_table_columns_removed_total
//   - tableflow_table_variables
//   - tableflow_table_columns
//
// Worker pool:
//   - tableflow_workerpool_tasks_executed_total{pool_name}
//   - tableflow_workerpool_tasks_completed_total{pool_name}
//   - tableflow_workerpool_tasks_failed_total{pool_name}
//   - tableflow_workerpool_task_duration_seconds{pool_name}
//   - tableflow_workerpool_task_queue_seconds{pool_name}
//   - tableflow_workerpool_size{pool_name}
//   - tableflow_workerpool_active_workers{pool_name}
//   - tableflow_workerpool_queued_tasks{pool_name}
package metrics
