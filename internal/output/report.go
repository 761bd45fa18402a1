package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aryankumar/vmpower/internal/executor"
)

// WriteTextReport writes a plain-text run report suitable for archiving.
// Failures are listed first so the interesting rows lead the file.
func WriteTextReport(w io.Writer, results []executor.OperationResult, metrics executor.RunMetrics) error {
	summary := executor.Summarize(results)

	fmt.Fprintln(w, "==============================================")
	fmt.Fprintln(w, " VM Power Operation Report")
	fmt.Fprintln(w, "==============================================")
	fmt.Fprintf(w, "Generated:  %s\n", time.Now().Format(time.RFC3339))
	if !metrics.StartTime.IsZero() {
		fmt.Fprintf(w, "Started:    %s\n", metrics.StartTime.Format(time.RFC3339))
	}
	if !metrics.EndTime.IsZero() {
		fmt.Fprintf(w, "Finished:   %s\n", metrics.EndTime.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Total:      %d\n", summary.Total)
	fmt.Fprintf(w, "Successful: %d\n", summary.Successful)
	fmt.Fprintf(w, "Failed:     %d\n", summary.Failed)
	if summary.Total > 0 {
		fmt.Fprintf(w, "Duration:   %s (%.2f ops/sec)\n",
			metrics.TotalDuration.Round(time.Millisecond), metrics.OperationsPerSecond)
	}
	fmt.Fprintln(w, "----------------------------------------------")

	for _, r := range executor.SortForReport(results) {
		status := "OK  "
		if !r.Success {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %-40s %-12s %8s  %s\n",
			status, r.Target, r.Action, r.Duration.Round(time.Millisecond), r.Message)
	}

	fmt.Fprintln(w, "==============================================")

	return nil
}

// ExportCSV writes results as CSV, one row per operation, matching the
// input column names so a failed run's output can be re-fed as input.
func ExportCSV(w io.Writer, results []executor.OperationResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"vm_name", "action", "success", "message", "duration_s", "timestamp"}); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range executor.SortForReport(results) {
		row := []string{
			r.Target,
			string(r.Action),
			strconv.FormatBool(r.Success),
			r.Message,
			strconv.FormatFloat(r.DurationSeconds(), 'f', 3, 64),
			r.Timestamp.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", r.Target, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveReport writes a text report to the given path
func SaveReport(path string, results []executor.OperationResult, metrics executor.RunMetrics) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := WriteTextReport(f, results, metrics); err != nil {
		return err
	}

	return f.Close()
}

// SaveCSV writes a CSV export to the given path
func SaveCSV(path string, results []executor.OperationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	if err := ExportCSV(f, results); err != nil {
		return err
	}

	return f.Close()
}
