package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aryankumar/vmpower/internal/util"
)

// ActionExecutor performs one power action against a managed VM.
// Implementations must be safe for concurrent use: the pool calls Execute
// from many goroutines with no coordination beyond the worker cap. The
// returned message describes the outcome; the error is nil iff the action
// succeeded.
type ActionExecutor interface {
	Execute(ctx context.Context, target string, action Action, wait bool) (string, error)
}

// Worker count bounds. The upper bound keeps a misconfigured run from
// opening hundreds of sessions against one endpoint.
const (
	MinWorkers = 1
	MaxWorkers = 200
)

// ProgressFunc receives a completion update after each finished operation.
// It must be cheap; it runs on the worker goroutine that completed the
// operation.
type ProgressFunc func(completed, total int, opsPerSec float64)

// RunOptions configures a single pool run
type RunOptions struct {
	// WaitForCompletion blocks each operation until the VM reaches its
	// target power state
	WaitForCompletion bool

	// OpTimeout is the per-operation deadline; zero disables it
	OpTimeout time.Duration

	// Progress, if non-nil, is invoked after every completed operation
	Progress ProgressFunc

	// Tracker, if non-nil, observes every result and the peak concurrency
	Tracker *Tracker
}

// Pool executes operations concurrently with bounded parallelism.
// It guarantees exactly one result per submitted operation: operations
// that cannot be dispatched (cancellation, scheduling failure) surface as
// failed results rather than being dropped.
type Pool struct {
	workers int
	exec    ActionExecutor
	logger  *slog.Logger

	// running guards against overlapping Run calls
	running atomic.Bool
}

// NewPool creates a worker pool with the given concurrency cap.
// workers must be within [MinWorkers, MaxWorkers].
func NewPool(workers int, exec ActionExecutor, logger *slog.Logger) (*Pool, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: nil action executor", util.ErrInvalidConfig)
	}

	if workers < MinWorkers || workers > MaxWorkers {
		return nil, fmt.Errorf("%w: workers must be between %d and %d, got %d",
			util.ErrInvalidConfig, MinWorkers, MaxWorkers, workers)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		workers: workers,
		exec:    exec,
		logger:  logger,
	}, nil
}

// WorkerCount returns the pool's concurrency cap
func (p *Pool) WorkerCount() int {
	return p.workers
}

// Run executes all operations and returns one result per operation, in
// submission order. Dispatch is FIFO; completion order is unordered.
// Context cancellation stops dispatching new operations; operations never
// dispatched are returned as failed results.
func (p *Pool) Run(ctx context.Context, ops []Operation, opts RunOptions) []OperationResult {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Error("pool is already running")
		return undispatchedResults(ops, fmt.Errorf("%w: pool is already running", util.ErrDispatch))
	}
	defer p.running.Store(false)

	total := len(ops)
	if total == 0 {
		p.logger.Debug("no operations to execute")
		return []OperationResult{}
	}

	p.logger.Info("starting operations",
		"workers", p.workers,
		"operations", total,
		"wait", opts.WaitForCompletion)

	startTime := time.Now()

	// Buffered to task count so neither dispatch nor result delivery blocks
	opChan := make(chan indexedOp, total)
	resultChan := make(chan indexedResult, total)

	var completed atomic.Int32
	var inFlight atomic.Int32
	var peak atomic.Int32

	workerCount := p.workers
	if workerCount > total {
		workerCount = total
	}

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.worker(ctx, workerID, opChan, resultChan, workerState{
				completed: &completed,
				inFlight:  &inFlight,
				peak:      &peak,
				total:     total,
				start:     startTime,
				opts:      opts,
			})
		}(i)
	}

	// FIFO dispatch: submit and move on, never blocking past the buffer
	for i, op := range ops {
		select {
		case opChan <- indexedOp{op: op, index: i}:
		case <-ctx.Done():
			p.logger.Warn("context cancelled while queuing operations", "queued", i, "total", total)
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(opChan)

	wg.Wait()
	close(resultChan)

	results := make([]OperationResult, total)
	received := make([]bool, total)
	for res := range resultChan {
		if res.index >= 0 && res.index < total {
			results[res.index] = res.result
			received[res.index] = true
		}
	}

	// Backfill operations that never reached a worker so that every
	// submitted operation yields exactly one result
	for i := range results {
		if !received[i] {
			results[i] = failedResult(ops[i], fmt.Errorf("%w: not dispatched: %v", util.ErrDispatch, context.Cause(ctx)), 0)
			if opts.Tracker != nil {
				opts.Tracker.Observe(results[i])
			}
		}
	}

	if opts.Tracker != nil {
		opts.Tracker.RecordConcurrency(int(peak.Load()))
	}

	p.logger.Info("operations completed",
		"total", total,
		"successful", CountSuccessful(results),
		"failed", CountFailed(results),
		"duration", time.Since(startTime).Round(time.Millisecond),
		"peak_concurrency", peak.Load())

	return results
}

// workerState bundles the per-run counters shared by all workers
type workerState struct {
	completed *atomic.Int32
	inFlight  *atomic.Int32
	peak      *atomic.Int32
	total     int
	start     time.Time
	opts      RunOptions
}

// worker drains the operation channel until it closes or the context is
// cancelled
func (p *Pool) worker(ctx context.Context, workerID int, opChan <-chan indexedOp, resultChan chan<- indexedResult, st workerState) {
	p.logger.Debug("worker started", "worker_id", workerID)

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("worker stopping on cancellation", "worker_id", workerID)
			return

		case item, ok := <-opChan:
			if !ok {
				p.logger.Debug("worker finished", "worker_id", workerID)
				return
			}

			cur := st.inFlight.Add(1)
			for {
				old := st.peak.Load()
				if cur <= old || st.peak.CompareAndSwap(old, cur) {
					break
				}
			}

			result := p.executeOne(ctx, item.op, st.opts)
			st.inFlight.Add(-1)

			// resultChan is buffered to capacity, this never blocks
			resultChan <- indexedResult{result: result, index: item.index}

			done := int(st.completed.Add(1))
			elapsed := time.Since(st.start).Seconds()
			var throughput float64
			if elapsed > 0 {
				throughput = float64(done) / elapsed
			}

			if st.opts.Tracker != nil {
				st.opts.Tracker.Observe(result)
			}
			if st.opts.Progress != nil {
				st.opts.Progress(done, st.total, throughput)
			}
		}
	}
}

// executeOne runs a single operation, converting every failure mode,
// including executor panics, into a failed result
func (p *Pool) executeOne(ctx context.Context, op Operation, opts RunOptions) (res OperationResult) {
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("executor panicked", "target", op.Target, "action", op.Action, "panic", r)
			res = failedResult(op, fmt.Errorf("executor panic: %v", r), time.Since(startTime))
		}
	}()

	select {
	case <-ctx.Done():
		return failedResult(op, fmt.Errorf("%w: %v", util.ErrCancelled, context.Cause(ctx)), time.Since(startTime))
	default:
	}

	opCtx := ctx
	if opts.OpTimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeoutCause(ctx, opts.OpTimeout, util.ErrTimeout)
		defer cancel()
	}

	message, err := p.exec.Execute(opCtx, op.Target, op.Action, opts.WaitForCompletion)
	duration := time.Since(startTime)

	if err != nil {
		p.logger.Warn("operation failed",
			"target", op.Target,
			"action", op.Action,
			"error", err,
			"duration", duration.Round(time.Millisecond))
		return failedResult(op, err, duration)
	}

	if message == "" {
		message = fmt.Sprintf("action %s succeeded", op.Action)
	}

	p.logger.Debug("operation succeeded",
		"target", op.Target,
		"action", op.Action,
		"duration", duration.Round(time.Millisecond))

	return OperationResult{
		Target:    op.Target,
		Action:    op.Action,
		Success:   true,
		Message:   message,
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

// failedResult builds the failure result for an operation
func failedResult(op Operation, err error, duration time.Duration) OperationResult {
	return OperationResult{
		Target:    op.Target,
		Action:    op.Action,
		Success:   false,
		Message:   err.Error(),
		Duration:  duration,
		Timestamp: time.Now(),
	}
}

// undispatchedResults converts a whole operation slice into failed results
// carrying the same dispatch error
func undispatchedResults(ops []Operation, err error) []OperationResult {
	results := make([]OperationResult, len(ops))
	for i, op := range ops {
		results[i] = failedResult(op, err, 0)
	}
	return results
}

// indexedOp pairs an operation with its submission index
type indexedOp struct {
	op    Operation
	index int
}

// indexedResult pairs a result with its submission index
type indexedResult struct {
	result OperationResult
	index  int
}
