// Package executor provides the bulk-operation engine for applying power
// actions to large sets of virtual machines.
//
// The package implements a worker pool with bounded concurrency, batch
// chunking for very large operation sets, run-level retry with exponential
// backoff, and live progress/metrics aggregation.
//
// # Pipeline
//
// A full run composes the pieces from the outside in: the retry Controller
// wraps the whole run, the Chunker splits it into sequential batches, and
// the Pool executes each batch concurrently against an ActionExecutor.
//
//	pool, _ := executor.NewPool(10, client, logger)
//	chunker, _ := executor.NewChunker(500, 10*time.Second, logger)
//	controller, _ := executor.NewController(3, 30*time.Second, logger)
//
//	tracker := executor.NewTracker(logger)
//	results, attempts, err := controller.Run(ctx, func(ctx context.Context, attempt int) []executor.OperationResult {
//	    return chunker.ChunkAndRun(ctx, ops, func(ctx context.Context, batch []executor.Operation) []executor.OperationResult {
//	        return pool.Run(ctx, batch, executor.RunOptions{Tracker: tracker})
//	    })
//	})
//	metrics := tracker.Finalize()
//
// # Guarantees
//
// The engine maintains these invariants at every level:
//
//   - Exactly one OperationResult per submitted Operation. Executor
//     errors, panics, cancellation, and dispatch failures all surface as
//     failed results, never as dropped operations.
//   - At most the configured number of operations are in flight at any
//     instant.
//   - One operation's failure never aborts or corrupts its siblings.
//   - Batches run strictly sequentially; a batch fully drains before the
//     next starts.
//   - All worker goroutines are released before Run returns.
//
// Dispatch order is FIFO over the input; completion order is unordered.
// Callers that need a stable presentation order should use SortForReport.
//
// # Progress and metrics
//
// Workers report each completion to an optional Tracker and ProgressFunc.
// Both are O(1) per event. The Tracker computes live throughput and, at
// run end, a finalized RunMetrics with zero-guarded derived fields.
//
// # Retry semantics
//
// The Controller treats any non-zero failure count as a failed attempt and
// re-runs the entire operation set after an exponential delay
// (base * 2^(n-1) after attempt n), up to the attempt bound. Re-running
// already-successful operations is safe because ActionExecutor
// implementations report trivial success for a VM already in its target
// state.
package executor
