package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryankumar/vmpower/internal/util"
)

// Runner executes one batch of operations and returns one result per
// operation
type Runner func(ctx context.Context, batch []Operation) []OperationResult

// Chunker splits a large operation set into fixed-size batches that are
// run strictly sequentially, with a pause between batches to bound
// sustained load on the endpoint. A batch full of failures does not stop
// the following batches; deciding whether to continue is the caller's
// job, based on the aggregated failure count.
type Chunker struct {
	size   int
	delay  time.Duration
	logger *slog.Logger
}

// NewChunker creates a chunker. size must be at least 1; delay may be
// zero to disable inter-batch pacing.
func NewChunker(size int, delay time.Duration, logger *slog.Logger) (*Chunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least 1, got %d", util.ErrInvalidConfig, size)
	}
	if delay < 0 {
		return nil, fmt.Errorf("%w: batch delay cannot be negative", util.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Chunker{
		size:   size,
		delay:  delay,
		logger: logger,
	}, nil
}

// BatchSize returns the configured batch size
func (c *Chunker) BatchSize() int {
	return c.size
}

// Chunk splits ops into contiguous chunks of at most size elements. The
// last chunk may be smaller. The chunks alias the input slice.
func Chunk(ops []Operation, size int) [][]Operation {
	if size < 1 || len(ops) == 0 {
		return nil
	}

	chunks := make([][]Operation, 0, (len(ops)+size-1)/size)
	for start := 0; start < len(ops); start += size {
		end := start + size
		if end > len(ops) {
			end = len(ops)
		}
		chunks = append(chunks, ops[start:end])
	}
	return chunks
}

// ChunkAndRun processes ops in sequential batches through run, pausing
// between batches. Results are aggregated in batch order; intra-batch
// order is whatever the runner returns. Cancellation stops the loop and
// backfills the remaining operations as failed results so that the
// one-result-per-operation invariant holds.
func (c *Chunker) ChunkAndRun(ctx context.Context, ops []Operation, run Runner) []OperationResult {
	batches := Chunk(ops, c.size)
	if len(batches) == 0 {
		return []OperationResult{}
	}

	c.logger.Info("processing in batches",
		"operations", len(ops),
		"batches", len(batches),
		"batch_size", c.size,
		"batch_delay", c.delay)

	results := make([]OperationResult, 0, len(ops))
	processed := 0

	for i, batch := range batches {
		if ctx.Err() != nil {
			c.logger.Warn("run cancelled, abandoning remaining batches",
				"completed_batches", i, "remaining_operations", len(ops)-processed)
			results = append(results, undispatchedResults(ops[processed:], fmt.Errorf("%w: %v", util.ErrCancelled, context.Cause(ctx)))...)
			return results
		}

		c.logger.Info("starting batch",
			"batch", i+1,
			"batches", len(batches),
			"operations", len(batch))

		batchResults := run(ctx, batch)
		results = append(results, batchResults...)
		processed += len(batch)

		if failed := CountFailed(batchResults); failed > 0 {
			c.logger.Warn("batch finished with failures",
				"batch", i+1, "failed", failed, "total", len(batch))
		}

		// No pause after the final batch
		if i < len(batches)-1 && c.delay > 0 {
			c.logger.Debug("pausing before next batch", "delay", c.delay)
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
			}
		}
	}

	return results
}
