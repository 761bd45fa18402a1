package executor

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// OperationResult represents the outcome of executing one operation.
// Exactly one result is produced per submitted operation; results are
// never mutated after creation.
type OperationResult struct {
	// Target is the VM the operation ran against
	Target string `json:"target" yaml:"target"`

	// Action is the power action that was applied
	Action Action `json:"action" yaml:"action"`

	// Success reports whether the action completed successfully
	Success bool `json:"success" yaml:"success"`

	// Message carries the outcome detail (success note or error text)
	Message string `json:"message" yaml:"message"`

	// Duration is how long the operation took to execute
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Timestamp records when the result was produced
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// DurationSeconds returns the operation duration in seconds
func (r OperationResult) DurationSeconds() float64 {
	return r.Duration.Seconds()
}

// CountSuccessful returns the number of successful results
func CountSuccessful(results []OperationResult) int {
	count := 0
	for _, r := range results {
		if r.Success {
			count++
		}
	}
	return count
}

// CountFailed returns the number of failed results
func CountFailed(results []OperationResult) int {
	return len(results) - CountSuccessful(results)
}

// FilterSuccessful returns only the successful results
func FilterSuccessful(results []OperationResult) []OperationResult {
	filtered := make([]OperationResult, 0, len(results))
	for _, r := range results {
		if r.Success {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterFailed returns only the failed results
func FilterFailed(results []OperationResult) []OperationResult {
	filtered := make([]OperationResult, 0, len(results))
	for _, r := range results {
		if !r.Success {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// FilterByAction returns results for a specific action
func FilterByAction(results []OperationResult, action Action) []OperationResult {
	filtered := make([]OperationResult, 0)
	for _, r := range results {
		if r.Action == action {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// GroupByAction groups results by action
func GroupByAction(results []OperationResult) map[Action][]OperationResult {
	grouped := make(map[Action][]OperationResult)
	for _, r := range results {
		grouped[r.Action] = append(grouped[r.Action], r)
	}
	return grouped
}

// SortForReport orders results for presentation: failures first, then by
// target name, then by action. Completion order carries no meaning, so
// reports always re-sort.
func SortForReport(results []OperationResult) []OperationResult {
	sorted := make([]OperationResult, len(results))
	copy(sorted, results)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Success != sorted[j].Success {
			return !sorted[i].Success
		}
		if sorted[i].Target != sorted[j].Target {
			return sorted[i].Target < sorted[j].Target
		}
		return sorted[i].Action < sorted[j].Action
	})

	return sorted
}

// AverageDuration calculates the average duration of all results
func AverageDuration(results []OperationResult) time.Duration {
	if len(results) == 0 {
		return 0
	}

	var total time.Duration
	for _, r := range results {
		total += r.Duration
	}

	return total / time.Duration(len(results))
}

// MaxDuration returns the maximum duration among all results
func MaxDuration(results []OperationResult) time.Duration {
	var max time.Duration
	for _, r := range results {
		if r.Duration > max {
			max = r.Duration
		}
	}
	return max
}

// Targets extracts unique target names from results, in first-seen order
func Targets(results []OperationResult) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)

	for _, r := range results {
		if !seen[r.Target] {
			seen[r.Target] = true
			names = append(names, r.Target)
		}
	}

	return names
}

// HasFailures returns true if any result failed
func HasFailures(results []OperationResult) bool {
	for _, r := range results {
		if !r.Success {
			return true
		}
	}
	return false
}

// AllSuccessful returns true if every result succeeded
func AllSuccessful(results []OperationResult) bool {
	return !HasFailures(results)
}

// SuccessRate returns the success rate as a percentage (0.0 to 100.0)
func SuccessRate(results []OperationResult) float64 {
	if len(results) == 0 {
		return 0.0
	}
	return float64(CountSuccessful(results)) / float64(len(results)) * 100.0
}

// Summary provides a compact view of a result set
type Summary struct {
	Total       int
	Successful  int
	Failed      int
	AvgDuration time.Duration
	MaxDuration time.Duration
}

// Summarize creates a summary of the results
func Summarize(results []OperationResult) Summary {
	return Summary{
		Total:       len(results),
		Successful:  CountSuccessful(results),
		Failed:      CountFailed(results),
		AvgDuration: AverageDuration(results),
		MaxDuration: MaxDuration(results),
	}
}

// String returns a human-readable string representation of the summary
func (s Summary) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Total: %d, ", s.Total))
	sb.WriteString(fmt.Sprintf("Successful: %d, ", s.Successful))
	sb.WriteString(fmt.Sprintf("Failed: %d", s.Failed))

	if s.Total > 0 {
		sb.WriteString(fmt.Sprintf(", Avg: %s", s.AvgDuration.Round(time.Millisecond)))
		sb.WriteString(fmt.Sprintf(", Max: %s", s.MaxDuration.Round(time.Millisecond)))
	}

	return sb.String()
}
