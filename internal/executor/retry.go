package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/aryankumar/vmpower/internal/util"
)

// RunFunc executes one full attempt over the entire operation set and
// returns one result per operation
type RunFunc func(ctx context.Context, attempt int) []OperationResult

// Attempt records the outcome of one retry attempt
type Attempt struct {
	// Number is the 1-indexed attempt number
	Number int

	// FailureCount is how many operations failed in this attempt
	FailureCount int

	// Results is the attempt's full result set
	Results []OperationResult
}

// Controller re-attempts a whole run while it produces failed results,
// waiting baseDelay * 2^(n-1) after attempt n. The entire operation set is
// re-run on retry, including operations that already succeeded; that
// trades wasted idempotent re-execution for a simple contract, and leans
// on the executor reporting trivial success for a VM already in its
// target state.
type Controller struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// NewController creates a retry controller. maxAttempts must be at least
// 1; an attempt count of 1 disables retries.
func NewController(maxAttempts int, baseDelay time.Duration, logger *slog.Logger) (*Controller, error) {
	if maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts must be at least 1, got %d", util.ErrInvalidConfig, maxAttempts)
	}
	if baseDelay <= 0 {
		return nil, fmt.Errorf("%w: retry base delay must be positive, got %s", util.ErrInvalidConfig, baseDelay)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
	}, nil
}

// MaxAttempts returns the configured attempt bound
func (c *Controller) MaxAttempts() int {
	return c.maxAttempts
}

// Run drives run to a terminal state. It returns the final attempt's
// result set, the record of every attempt, and a non-nil error wrapping
// util.ErrRunFailed when the final attempt still contains failures. The
// caller derives its exit status from that error.
func (c *Controller) Run(ctx context.Context, run RunFunc) ([]OperationResult, []Attempt, error) {
	var attempts []Attempt
	var final []OperationResult

	backoff := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewExponential(c.baseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n := len(attempts) + 1

		if n > 1 {
			c.logger.Info("retrying full operation set", "attempt", n, "max_attempts", c.maxAttempts)
		}

		results := run(ctx, n)
		failed := CountFailed(results)

		attempts = append(attempts, Attempt{
			Number:       n,
			FailureCount: failed,
			Results:      results,
		})
		final = results

		if failed > 0 {
			c.logger.Warn("attempt finished with failures",
				"attempt", n,
				"max_attempts", c.maxAttempts,
				"failed", failed,
				"total", len(results))
			return retry.RetryableError(fmt.Errorf("%w: %d of %d operations failed", util.ErrRunFailed, failed, len(results)))
		}

		c.logger.Info("attempt succeeded", "attempt", n, "operations", len(results))
		return nil
	})

	if err != nil {
		c.logger.Error("run failed, retries exhausted",
			"attempts", len(attempts),
			"max_attempts", c.maxAttempts,
			"error", err)
		return final, attempts, err
	}

	return final, attempts, nil
}
