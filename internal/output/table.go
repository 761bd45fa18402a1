package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/aryankumar/vmpower/internal/executor"
	"github.com/aryankumar/vmpower/internal/util"
)

// TableFormatter formats output as a table (kubectl-style)
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	case string:
		fmt.Fprintln(w, v)
		return nil
	default:
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatRun outputs the results of a bulk run as a table, failures first
func (f *TableFormatter) FormatRun(w io.Writer, results []executor.OperationResult, metrics executor.RunMetrics) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return nil
	}

	colors := NewColorScheme(w, f.options.NoColor)
	table := f.createTable(w)

	headers := []string{"TARGET", "ACTION", "STATUS", "MESSAGE", "DURATION"}
	if f.options.Wide {
		headers = append(headers, "TIMESTAMP")
	}

	if !f.options.NoHeaders {
		if colors.Disabled {
			table.SetHeader(headers)
		} else {
			coloredHeaders := make([]string, len(headers))
			for i, h := range headers {
				coloredHeaders[i] = colors.Header(h)
			}
			table.SetHeader(coloredHeaders)
		}
	}

	for _, result := range executor.SortForReport(results) {
		table.Append(f.formatResultRow(result, colors))
	}

	table.Render()

	f.printSummary(w, results, metrics, colors)

	return nil
}

// formatResultRow formats a single result as a table row. Inventory
// paths are shortened to the VM name; the full path stays available in
// the JSON/CSV outputs.
func (f *TableFormatter) formatResultRow(result executor.OperationResult, colors *ColorScheme) []string {
	target := util.ShortVMName(result.Target)
	if !colors.Disabled {
		target = colors.Target(target)
	}

	status := "Success"
	if !result.Success {
		status = "Failed"
	}
	if !colors.Disabled {
		status = colors.StatusColor(!result.Success)(status)
	}

	message := result.Message
	if len(message) > 80 {
		message = message[:77] + "..."
	}

	duration := result.Duration.Round(time.Millisecond).String()
	if !colors.Disabled {
		duration = colors.Duration(duration)
	}

	row := []string{target, string(result.Action), status, message, duration}

	if f.options.Wide {
		row = append(row, result.Timestamp.Format(time.RFC3339))
	}

	return row
}

// formatMap formats a map as a two-column table (key-value pairs)
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	for k, v := range data {
		table.Append([]string{k, fmt.Sprintf("%v", v)})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	var headers []string
	for k := range data[0] {
		headers = append(headers, strings.ToUpper(k))
	}

	if !f.options.NoHeaders {
		table.SetHeader(headers)
	}

	for _, item := range data {
		var row []string
		for _, h := range headers {
			key := strings.ToLower(h)
			row = append(row, fmt.Sprintf("%v", item[key]))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a new table with kubectl-style configuration
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints the run summary and throughput metrics
func (f *TableFormatter) printSummary(w io.Writer, results []executor.OperationResult, metrics executor.RunMetrics, colors *ColorScheme) {
	summary := executor.Summarize(results)

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: ")

	successText := fmt.Sprintf("%d successful", summary.Successful)
	if !colors.Disabled {
		successText = colors.Success(successText)
	}

	failedText := fmt.Sprintf("%d failed", summary.Failed)
	if !colors.Disabled && summary.Failed > 0 {
		failedText = colors.Error(failedText)
	}

	durationText := fmt.Sprintf("avg=%s", summary.AvgDuration.Round(time.Millisecond))
	if !colors.Disabled {
		durationText = colors.Duration(durationText)
	}

	fmt.Fprintf(w, "%s, %s, %s\n", successText, failedText, durationText)

	if metrics.TotalOperations > 0 {
		fmt.Fprintf(w, "Run: %d operations in %s (%.2f ops/sec, peak concurrency %d)\n",
			metrics.TotalOperations,
			metrics.TotalDuration.Round(time.Millisecond),
			metrics.OperationsPerSecond,
			metrics.MaxConcurrency)
	}
}
