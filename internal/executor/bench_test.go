package executor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"
)

type benchExecutor struct {
	delay time.Duration
}

func (b *benchExecutor) Execute(ctx context.Context, target string, action Action, wait bool) (string, error) {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return "done", nil
}

// BenchmarkPool_Run benchmarks pool execution with different worker counts
func BenchmarkPool_Run(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8, 16}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	for _, workers := range workerCounts {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			pool, err := NewPool(workers, &benchExecutor{delay: 100 * time.Microsecond}, logger)
			if err != nil {
				b.Fatal(err)
			}

			ops := make([]Operation, 100)
			for i := range ops {
				ops[i] = Operation{Target: fmt.Sprintf("vm-%03d", i), Action: ActionPowerOn}
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				pool.Run(context.Background(), ops, RunOptions{})
			}
		})
	}
}

// BenchmarkChunk benchmarks chunking of large operation sets
func BenchmarkChunk(b *testing.B) {
	ops := make([]Operation, 10000)
	for i := range ops {
		ops[i] = Operation{Target: fmt.Sprintf("vm-%05d", i), Action: ActionPowerOff}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Chunk(ops, 500)
	}
}

// BenchmarkSortForReport benchmarks presentation sorting
func BenchmarkSortForReport(b *testing.B) {
	results := make([]OperationResult, 2000)
	for i := range results {
		results[i] = OperationResult{
			Target:  fmt.Sprintf("vm-%04d", i%700),
			Action:  ActionPowerOn,
			Success: i%3 != 0,
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SortForReport(results)
	}
}
