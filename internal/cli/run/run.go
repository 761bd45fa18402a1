// Package run implements the bulk run command: a CSV of VM/action pairs
// executed through the worker pool with batching and run-level retry.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/vmpower/internal/config"
	"github.com/aryankumar/vmpower/internal/executor"
	"github.com/aryankumar/vmpower/internal/input"
	"github.com/aryankumar/vmpower/internal/output"
	"github.com/aryankumar/vmpower/internal/vsphere"
)

// options collects every knob of a bulk run after config and flag
// resolution
type options struct {
	csvPath    string
	workers    int
	batchSize  int
	batchDelay time.Duration

	maxAttempts int
	retryDelay  time.Duration

	opTimeout time.Duration
	noWait    bool

	reportPath string
	exportPath string
}

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute bulk power operations from a CSV file",
		Long: `Execute power operations against many VMs concurrently.

The input CSV needs a header row with vm_name and action columns. Valid
actions are power_on, power_off, shutdown, restart, and suspend (plus
aliases like on, off, stop, reboot). Rows with unknown actions are
skipped with a warning.

Operations are dispatched through a bounded worker pool in sequential
batches. If any operation fails, the whole set is retried with
exponential backoff until it succeeds or attempts are exhausted. The
exit status is non-zero when the final attempt still has failures.`,
		Example: `  # Power on every VM listed in the file
  vmpower run --csv vms.csv

  # Heavier concurrency, smaller batches
  vmpower run --csv vms.csv --workers 50 --batch-size 100 --batch-delay 5s

  # One attempt only, don't wait for power state convergence
  vmpower run --csv vms.csv --max-attempts 1 --no-wait

  # Save a text report and a CSV of results
  vmpower run --csv vms.csv --report run.txt --export-csv results.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBulk(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "path to CSV file with vm_name,action rows (required)")
	cmd.Flags().IntVar(&opts.workers, "workers", config.DefaultWorkers, "worker pool size (1-200)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", config.DefaultBatchSize, "operations per batch")
	cmd.Flags().DurationVar(&opts.batchDelay, "batch-delay", config.DefaultBatchDelay, "pause between batches")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", config.DefaultMaxAttempts, "maximum run attempts (1 disables retry)")
	cmd.Flags().DurationVar(&opts.retryDelay, "retry-delay", config.DefaultRetryDelay, "base backoff delay between run attempts")
	cmd.Flags().DurationVar(&opts.opTimeout, "op-timeout", config.DefaultOpTimeout, "per-operation timeout (0 disables)")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "do not wait for VMs to reach their target power state")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write a text report to this path")
	cmd.Flags().StringVar(&opts.exportPath, "export-csv", "", "write results as CSV to this path")

	cmd.MarkFlagRequired("csv")

	return cmd
}

func runBulk(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := loadConfig(cmd, &opts)
	if err != nil {
		return err
	}

	loaded, err := input.LoadCSV(opts.csvPath, logger)
	if err != nil {
		return err
	}
	if len(loaded.Operations) == 0 {
		logger.Warn("no valid operations in input, nothing to do",
			"file", opts.csvPath, "skipped", loaded.Skipped)
		return nil
	}

	client, err := vsphere.NewClient(vsphere.Config{
		Host:     cfg.VCenter.Host,
		Username: cfg.VCenter.Username,
		Password: cfg.VCenter.Password,
		Insecure: cfg.VCenter.Insecure,
		Timeout:  cfg.VCenter.Timeout,
	}, logger)
	if err != nil {
		return err
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close(context.WithoutCancel(ctx))

	results, metrics, runErr := executeAll(ctx, client, loaded.Operations, opts, logger)

	if err := render(cmd, results, metrics, opts); err != nil {
		return err
	}

	return runErr
}

// executeAll drives the full pipeline: retry controller around the
// batch chunker around the worker pool. Each attempt gets a fresh
// tracker so its metrics cover only that attempt; the returned metrics
// are the final attempt's.
func executeAll(
	ctx context.Context,
	exec executor.ActionExecutor,
	ops []executor.Operation,
	opts options,
	logger *slog.Logger,
) ([]executor.OperationResult, executor.RunMetrics, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := executor.NewPool(opts.workers, exec, logger)
	if err != nil {
		return nil, executor.RunMetrics{}, err
	}

	chunker, err := executor.NewChunker(opts.batchSize, opts.batchDelay, logger)
	if err != nil {
		return nil, executor.RunMetrics{}, err
	}

	controller, err := executor.NewController(opts.maxAttempts, opts.retryDelay, logger)
	if err != nil {
		return nil, executor.RunMetrics{}, err
	}

	var metrics executor.RunMetrics

	results, attempts, runErr := controller.Run(ctx, func(ctx context.Context, attempt int) []executor.OperationResult {
		tracker := executor.NewTracker(logger)

		attemptResults := chunker.ChunkAndRun(ctx, ops, func(ctx context.Context, batch []executor.Operation) []executor.OperationResult {
			return pool.Run(ctx, batch, executor.RunOptions{
				WaitForCompletion: !opts.noWait,
				OpTimeout:         opts.opTimeout,
				Tracker:           tracker,
			})
		})

		metrics = tracker.Finalize()
		return attemptResults
	})

	logger.Info("run complete",
		"attempts", len(attempts),
		"operations", len(results),
		"failed", executor.CountFailed(results))

	return results, metrics, runErr
}

// render writes the results to stdout in the configured format and
// produces the optional report artifacts
func render(cmd *cobra.Command, results []executor.OperationResult, metrics executor.RunMetrics, opts options) error {
	format := output.Format(viper.GetString("output"))
	noColor := viper.GetBool("no-color")

	formatter := output.NewFormatter(format, output.WithNoColor(noColor))
	if err := formatter.FormatRun(cmd.OutOrStdout(), results, metrics); err != nil {
		return fmt.Errorf("formatting results: %w", err)
	}

	if opts.reportPath != "" {
		if err := output.SaveReport(opts.reportPath, results, metrics); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", opts.reportPath)
	}

	if opts.exportPath != "" {
		if err := output.SaveCSV(opts.exportPath, results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Results exported to %s\n", opts.exportPath)
	}

	return nil
}

// loadConfig loads the config file and overlays any run flags the user
// set explicitly. Flags win over the file; the file wins over built-in
// defaults.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	mgr := config.NewManager(viper.GetString("config"))
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

	// Connection parameters come through the root flags via viper
	if host := viper.GetString("vcenter.host"); host != "" {
		cfg.VCenter.Host = host
	}
	if user := viper.GetString("vcenter.username"); user != "" {
		cfg.VCenter.Username = user
	}
	if pass := viper.GetString("vcenter.password"); pass != "" {
		cfg.VCenter.Password = pass
	}
	if viper.IsSet("vcenter.insecure") {
		cfg.VCenter.Insecure = viper.GetBool("vcenter.insecure")
	}
	if t := viper.GetDuration("vcenter.timeout"); t > 0 {
		cfg.VCenter.Timeout = t
	}

	flags := cmd.Flags()
	if !flags.Changed("workers") {
		opts.workers = cfg.Defaults.Workers
	}
	if !flags.Changed("batch-size") {
		opts.batchSize = cfg.Defaults.BatchSize
	}
	if !flags.Changed("batch-delay") {
		opts.batchDelay = cfg.Defaults.BatchDelay
	}
	if !flags.Changed("max-attempts") {
		opts.maxAttempts = cfg.Defaults.MaxAttempts
	}
	if !flags.Changed("retry-delay") {
		opts.retryDelay = cfg.Defaults.RetryDelay
	}
	if !flags.Changed("op-timeout") {
		opts.opTimeout = cfg.Defaults.OpTimeout
	}

	// Write the resolved values back so Validate covers flag input too
	cfg.Defaults.Workers = opts.workers
	cfg.Defaults.BatchSize = opts.batchSize
	cfg.Defaults.BatchDelay = opts.batchDelay
	cfg.Defaults.MaxAttempts = opts.maxAttempts
	cfg.Defaults.RetryDelay = opts.retryDelay
	cfg.Defaults.OpTimeout = opts.opTimeout

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateConnection(); err != nil {
		return nil, err
	}

	return cfg, nil
}
