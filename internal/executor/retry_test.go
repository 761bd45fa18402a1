package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aryankumar/vmpower/internal/util"
)

// runResults builds a result set with the given number of failures
func runResults(total, failed int) []OperationResult {
	out := make([]OperationResult, total)
	for i := range out {
		out[i] = OperationResult{
			Target:  "vm",
			Action:  ActionPowerOn,
			Success: i >= failed,
			Message: "x",
		}
	}
	return out
}

func TestNewController(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		baseDelay   time.Duration
		wantErr     bool
	}{
		{name: "valid", maxAttempts: 3, baseDelay: 30 * time.Second},
		{name: "single attempt disables retry", maxAttempts: 1, baseDelay: time.Second},
		{name: "zero attempts", maxAttempts: 0, baseDelay: time.Second, wantErr: true},
		{name: "zero delay", maxAttempts: 3, baseDelay: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewController(tt.maxAttempts, tt.baseDelay, nil)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, util.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.MaxAttempts() != tt.maxAttempts {
				t.Errorf("MaxAttempts = %d, want %d", c.MaxAttempts(), tt.maxAttempts)
			}
		})
	}
}

func TestController_Run_SucceedsFirstAttempt(t *testing.T) {
	controller, err := NewController(3, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	results, attempts, err := controller.Run(context.Background(), func(ctx context.Context, attempt int) []OperationResult {
		return runResults(10, 0)
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(attempts))
	}
	if len(results) != 10 {
		t.Errorf("expected 10 results, got %d", len(results))
	}
	if attempts[0].Number != 1 || attempts[0].FailureCount != 0 {
		t.Errorf("unexpected attempt record: %+v", attempts[0])
	}
}

func TestController_Run_RetriesFullSetThenSucceeds(t *testing.T) {
	controller, err := NewController(3, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	var seenAttempts []int
	results, attempts, err := controller.Run(context.Background(), func(ctx context.Context, attempt int) []OperationResult {
		seenAttempts = append(seenAttempts, attempt)
		if attempt < 3 {
			return runResults(5, 2)
		}
		return runResults(5, 0)
	})

	if err != nil {
		t.Fatalf("expected terminal success, got %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(attempts))
	}
	for i, n := range seenAttempts {
		if n != i+1 {
			t.Errorf("attempt numbers must be sequential, got %v", seenAttempts)
			break
		}
	}
	if attempts[0].FailureCount != 2 || attempts[2].FailureCount != 0 {
		t.Errorf("unexpected failure counts: %+v", attempts)
	}
	if CountFailed(results) != 0 {
		t.Errorf("final results should have no failures, got %d", CountFailed(results))
	}
}

func TestController_Run_ExhaustsAttempts(t *testing.T) {
	controller, err := NewController(3, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	calls := 0
	results, attempts, err := controller.Run(context.Background(), func(ctx context.Context, attempt int) []OperationResult {
		calls++
		return runResults(4, 1)
	})

	if err == nil {
		t.Fatal("expected terminal failure error")
	}
	if !errors.Is(err, util.ErrRunFailed) {
		t.Errorf("expected ErrRunFailed, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly maxAttempts=3 attempts, got %d", calls)
	}
	if len(attempts) != 3 {
		t.Errorf("expected 3 attempt records, got %d", len(attempts))
	}
	// The final attempt's result set is still returned for reporting
	if len(results) != 4 {
		t.Errorf("expected final results, got %d", len(results))
	}
}

func TestController_Run_ExponentialBackoff(t *testing.T) {
	base := 20 * time.Millisecond
	controller, err := NewController(3, base, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	var timestamps []time.Time
	controller.Run(context.Background(), func(ctx context.Context, attempt int) []OperationResult {
		timestamps = append(timestamps, time.Now())
		return runResults(1, 1)
	})

	if len(timestamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(timestamps))
	}

	// Delay before attempt n+1 is base * 2^(n-1): 20ms then 40ms
	firstGap := timestamps[1].Sub(timestamps[0])
	secondGap := timestamps[2].Sub(timestamps[1])

	if firstGap < base {
		t.Errorf("first backoff %s shorter than base %s", firstGap, base)
	}
	if secondGap < 2*base {
		t.Errorf("second backoff %s shorter than 2*base %s", secondGap, 2*base)
	}
}

func TestController_Run_SingleAttemptNoRetry(t *testing.T) {
	controller, err := NewController(1, time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	calls := 0
	_, attempts, err := controller.Run(context.Background(), func(ctx context.Context, attempt int) []OperationResult {
		calls++
		return runResults(2, 2)
	})

	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
	if len(attempts) != 1 {
		t.Errorf("expected 1 attempt record, got %d", len(attempts))
	}
	if !errors.Is(err, util.ErrRunFailed) {
		t.Errorf("expected ErrRunFailed, got %v", err)
	}
}

func TestController_Run_ContextCancellationStopsRetries(t *testing.T) {
	controller, err := NewController(5, 50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, _, err = controller.Run(ctx, func(ctx context.Context, attempt int) []OperationResult {
		calls++
		cancel()
		return runResults(1, 1)
	})

	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected retries to stop after cancellation, got %d attempts", calls)
	}
}
