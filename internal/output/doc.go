// Package output provides formatters for displaying vmpower run results.
//
// The package supports multiple output formats (table, JSON, YAML) and
// provides a unified interface for formatting single data items and
// complete bulk-run result sets with their metrics.
//
// # Basic Usage
//
//	// Create a table formatter
//	formatter := output.NewFormatter(output.FormatTable)
//
//	// Format single data item
//	data := map[string]interface{}{"key": "value"}
//	formatter.Format(os.Stdout, data)
//
//	// Format a completed run
//	formatter.FormatRun(os.Stdout, results, metrics)
//
// # Options
//
// Formatters can be configured with functional options:
//
//	formatter := output.NewFormatter(
//	    output.FormatTable,
//	    output.WithNoColor(true),
//	    output.WithWide(true),
//	)
//
// # Reports
//
// Beyond terminal formatting, WriteTextReport and ExportCSV produce
// archivable artifacts for a run. The CSV export uses the same column
// names as the input file, so the failed rows of one run can be fed
// back in as the next run's input.
//
// # Color Support
//
// Colors are automatically enabled for TTY outputs and can be disabled
// with WithNoColor(true) or by piping to a non-TTY. Results are always
// ordered failures-first so problems surface at the top of the table.
package output
