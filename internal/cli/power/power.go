// Package power implements the ad-hoc power subcommands: one action
// applied to VMs named on the command line, without batching or retry.
package power

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/vmpower/internal/config"
	"github.com/aryankumar/vmpower/internal/executor"
	"github.com/aryankumar/vmpower/internal/output"
	"github.com/aryankumar/vmpower/internal/util"
	"github.com/aryankumar/vmpower/internal/vsphere"
)

// NewPowerCmd creates the power command with one subcommand per action
func NewPowerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "power",
		Short: "Apply a power action to one or more VMs",
		Long: `Apply a single power action to VMs named on the command line.

Unlike run, this executes exactly one attempt with no batching, which
suits small interactive changes. VMs already in the target state are
reported as successful no-ops.`,
	}

	subcommands := []struct {
		use    string
		short  string
		action executor.Action
	}{
		{"on", "Power on VMs", executor.ActionPowerOn},
		{"off", "Power off VMs (hard)", executor.ActionPowerOff},
		{"shutdown", "Shut down the guest OS gracefully", executor.ActionShutdown},
		{"restart", "Restart VMs (hard reset)", executor.ActionRestart},
		{"suspend", "Suspend VMs", executor.ActionSuspend},
	}

	for _, sub := range subcommands {
		cmd.AddCommand(newActionCmd(sub.use, sub.short, sub.action))
	}

	return cmd
}

// newActionCmd builds one action subcommand
func newActionCmd(use, short string, action executor.Action) *cobra.Command {
	var workers int
	var noWait bool

	cmd := &cobra.Command{
		Use:     use + " VM [VM...]",
		Short:   short,
		Args:    cobra.MinimumNArgs(1),
		Example: fmt.Sprintf("  vmpower power %s web-01 web-02 db-01", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPower(cmd, action, args, workers, noWait)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "worker pool size (1-200)")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "do not wait for VMs to reach their target power state")

	return cmd
}

func runPower(cmd *cobra.Command, action executor.Action, targets []string, workers int, noWait bool) error {
	ctx := cmd.Context()
	logger := slog.Default()

	cfg, err := loadConnectionConfig()
	if err != nil {
		return err
	}

	ops := make([]executor.Operation, 0, len(targets))
	for _, target := range targets {
		op, err := executor.NewOperation(target, string(action))
		if err != nil {
			return err
		}
		ops = append(ops, op)
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

	pool, err := executor.NewPool(workers, client, logger)
	if err != nil {
		return err
	}

	tracker := executor.NewTracker(logger)
	results := pool.Run(ctx, ops, executor.RunOptions{
		WaitForCompletion: !noWait,
		OpTimeout:         cfg.Defaults.OpTimeout,
		Tracker:           tracker,
	})
	metrics := tracker.Finalize()

	format := output.Format(viper.GetString("output"))
	formatter := output.NewFormatter(format, output.WithNoColor(viper.GetBool("no-color")))
	if err := formatter.FormatRun(cmd.OutOrStdout(), results, metrics); err != nil {
		return fmt.Errorf("formatting results: %w", err)
	}

	if failed := executor.CountFailed(results); failed > 0 {
		return fmt.Errorf("%w: %d of %d operations failed", util.ErrRunFailed, failed, len(results))
	}

	return nil
}

// loadConnectionConfig loads the config file and overlays the root
// connection flags
func loadConnectionConfig() (*config.Config, error) {
	mgr := config.NewManager(viper.GetString("config"))
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

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

	if err := cfg.ValidateConnection(); err != nil {
		return nil, err
	}

	return cfg, nil
}
