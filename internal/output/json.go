package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/aryankumar/vmpower/internal/executor"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	options *Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(opts *Options) *JSONFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &JSONFormatter{
		options: opts,
	}
}

// Format outputs a single data item as JSON
func (f *JSONFormatter) Format(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// FormatRun outputs run results and metrics as a single JSON document
func (f *JSONFormatter) FormatRun(w io.Writer, results []executor.OperationResult, metrics executor.RunMetrics) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildRunView(results, metrics))
}

// runView is the machine-readable shape of a completed run
type runView struct {
	Results []resultView `json:"results" yaml:"results"`
	Metrics metricsView  `json:"metrics" yaml:"metrics"`
}

type resultView struct {
	Target          string  `json:"target" yaml:"target"`
	Action          string  `json:"action" yaml:"action"`
	Status          string  `json:"status" yaml:"status"`
	Message         string  `json:"message" yaml:"message"`
	DurationSeconds float64 `json:"durationSeconds" yaml:"durationSeconds"`
	Timestamp       string  `json:"timestamp" yaml:"timestamp"`
}

type metricsView struct {
	TotalOperations     int     `json:"totalOperations" yaml:"totalOperations"`
	SuccessCount        int     `json:"successCount" yaml:"successCount"`
	FailureCount        int     `json:"failureCount" yaml:"failureCount"`
	TotalSeconds        float64 `json:"totalSeconds" yaml:"totalSeconds"`
	AverageSeconds      float64 `json:"averageSeconds" yaml:"averageSeconds"`
	OperationsPerSecond float64 `json:"operationsPerSecond" yaml:"operationsPerSecond"`
	MaxConcurrency      int     `json:"maxConcurrency" yaml:"maxConcurrency"`
}

func buildRunView(results []executor.OperationResult, metrics executor.RunMetrics) runView {
	views := make([]resultView, len(results))
	for i, r := range executor.SortForReport(results) {
		status := "success"
		if !r.Success {
			status = "failed"
		}
		views[i] = resultView{
			Target:          r.Target,
			Action:          string(r.Action),
			Status:          status,
			Message:         r.Message,
			DurationSeconds: r.DurationSeconds(),
			Timestamp:       r.Timestamp.Format(time.RFC3339),
		}
	}

	return runView{
		Results: views,
		Metrics: metricsView{
			TotalOperations:     metrics.TotalOperations,
			SuccessCount:        metrics.SuccessCount,
			FailureCount:        metrics.FailureCount,
			TotalSeconds:        metrics.TotalDuration.Seconds(),
			AverageSeconds:      metrics.AverageDuration.Seconds(),
			OperationsPerSecond: metrics.OperationsPerSecond,
			MaxConcurrency:      metrics.MaxConcurrency,
		},
	}
}
