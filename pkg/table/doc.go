// Package table provides the shared in-memory data table that processing
// pipelines read and modify.
//
// A Table holds float64 columns of equal length. Each column belongs to a
// variable, identified by a positive integer id, and a variable may have many
// columns (one per visit and instance). Missing values are NaN.
//
// Basic usage:
//
//	t, err := table.FromColumns([]table.Column{
//		table.NewColumn(1, 0, 0, []float64{1, 2, 3}),
//		table.NewColumn(2, 0, 0, []float64{5, 5, 5}),
//	}, table.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer t.Close()
//
//	fmt.Println(t.Variables()) // [1 2]
//
// Process functions receive a View, which exposes only the read methods.
// Columns are changed through AddColumns and RemoveColumns, which the
// pipeline executor calls between steps.
//
// The table also owns a worker pool, acquired with Pool. Acquisitions are
// reference counted so one pool serves a whole pipeline run.
package table
