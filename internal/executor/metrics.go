package executor

import (
	"log/slog"
	"sync"
	"time"
)

// RunMetrics holds the finalized statistics for one run
type RunMetrics struct {
	// TotalOperations is the number of results observed
	TotalOperations int `json:"totalOperations" yaml:"totalOperations"`

	// SuccessCount is the number of successful operations
	SuccessCount int `json:"successCount" yaml:"successCount"`

	// FailureCount is the number of failed operations
	FailureCount int `json:"failureCount" yaml:"failureCount"`

	// StartTime is when the run started
	StartTime time.Time `json:"startTime" yaml:"startTime"`

	// EndTime is when the run was finalized
	EndTime time.Time `json:"endTime" yaml:"endTime"`

	// TotalDuration is EndTime - StartTime
	TotalDuration time.Duration `json:"totalDuration" yaml:"totalDuration"`

	// AverageDuration is TotalDuration / TotalOperations (zero when empty)
	AverageDuration time.Duration `json:"averageDuration" yaml:"averageDuration"`

	// OperationsPerSecond is TotalOperations / TotalDuration in seconds
	// (zero when empty)
	OperationsPerSecond float64 `json:"operationsPerSecond" yaml:"operationsPerSecond"`

	// MaxConcurrency is the peak number of in-flight operations observed
	MaxConcurrency int `json:"maxConcurrency" yaml:"maxConcurrency"`
}

// Tracker aggregates the unordered completion stream of a run into live
// counts and, at run end, a finalized RunMetrics. Workers never touch the
// tracker state directly; all mutation happens under its own lock via
// Observe.
type Tracker struct {
	mu sync.Mutex

	logger *slog.Logger

	start          time.Time
	success        int
	failure        int
	maxConcurrency int

	// lastNarrated throttles progress log lines to one per second
	lastNarrated time.Time

	finalized bool
	metrics   RunMetrics
}

// NewTracker creates a tracker with its start time set to now
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		logger: logger,
		start:  time.Now(),
	}
}

// Observe records one completed operation. Failures are narrated
// immediately; overall progress is narrated at most once per second.
func (t *Tracker) Observe(result OperationResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finalized {
		// Late results after finalize indicate a caller bug; count them
		// nowhere but make the problem visible.
		t.logger.Warn("result observed after metrics were finalized",
			"target", result.Target, "action", result.Action)
		return
	}

	if result.Success {
		t.success++
	} else {
		t.failure++
		t.logger.Warn("operation failed",
			"target", result.Target,
			"action", result.Action,
			"message", result.Message)
	}

	now := time.Now()
	if now.Sub(t.lastNarrated) >= time.Second {
		t.lastNarrated = now
		completed := t.success + t.failure
		t.logger.Info("progress",
			"completed", completed,
			"failed", t.failure,
			"ops_per_sec", round2(t.throughputLocked(now)))
	}
}

// RecordConcurrency records the peak in-flight count reported by the pool.
// The largest value across batches wins.
func (t *Tracker) RecordConcurrency(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n > t.maxConcurrency {
		t.maxConcurrency = n
	}
}

// Snapshot returns the live completed count and throughput
func (t *Tracker) Snapshot() (completed int, opsPerSec float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.success + t.failure, t.throughputLocked(time.Now())
}

// throughputLocked computes completed/elapsed; caller holds t.mu
func (t *Tracker) throughputLocked(now time.Time) float64 {
	elapsed := now.Sub(t.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.success+t.failure) / elapsed
}

// Finalize computes the derived metric fields exactly once and returns the
// finished RunMetrics. Subsequent calls return the same metrics.
func (t *Tracker) Finalize() RunMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finalized {
		return t.metrics
	}
	t.finalized = true

	end := time.Now()
	total := t.success + t.failure

	m := RunMetrics{
		TotalOperations: total,
		SuccessCount:    t.success,
		FailureCount:    t.failure,
		StartTime:       t.start,
		EndTime:         end,
		TotalDuration:   end.Sub(t.start),
		MaxConcurrency:  t.maxConcurrency,
	}

	// Derived fields stay zero for an empty run
	if total > 0 {
		m.AverageDuration = m.TotalDuration / time.Duration(total)
		if secs := m.TotalDuration.Seconds(); secs > 0 {
			m.OperationsPerSecond = float64(total) / secs
		}
	}

	t.metrics = m
	return m
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
