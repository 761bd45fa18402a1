package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/vmpower/internal/cli/power"
	"github.com/aryankumar/vmpower/internal/cli/run"
)

var (
	cfgFile string

	// envKeyReplacer maps nested config keys onto env var segments, so
	// vcenter.host becomes VMPOWER_VCENTER_HOST
	envKeyReplacer = strings.NewReplacer(".", "_")
)

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vmpower",
		Short: "vmpower - Bulk VM power management for vCenter",
		Long: `vmpower applies power actions (power on, power off, graceful shutdown,
restart, suspend) to large sets of vCenter virtual machines concurrently.

Operations run through a bounded worker pool with batching and automatic
retry of failed runs, producing one result per requested operation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}

	// Define persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vmpower.yaml)")
	rootCmd.PersistentFlags().String("host", "", "vCenter hostname or URL")
	rootCmd.PersistentFlags().StringP("username", "u", "", "vCenter username")
	rootCmd.PersistentFlags().String("password", "", "vCenter password (prefer VMPOWER_VCENTER_PASSWORD)")
	rootCmd.PersistentFlags().BoolP("insecure", "k", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (json, yaml, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "timeout for the vCenter login")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("vcenter.host", rootCmd.PersistentFlags().Lookup("host"))
	viper.BindPFlag("vcenter.username", rootCmd.PersistentFlags().Lookup("username"))
	viper.BindPFlag("vcenter.password", rootCmd.PersistentFlags().Lookup("password"))
	viper.BindPFlag("vcenter.insecure", rootCmd.PersistentFlags().Lookup("insecure"))
	viper.BindPFlag("vcenter.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))

	// Add subcommands
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(run.NewRunCmd())
	rootCmd.AddCommand(power.NewPowerCmd())

	return rootCmd
}

// initConfig initializes configuration and logging
func initConfig(cmd *cobra.Command) error {
	// Initialize viper configuration
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vmpower")
	}

	// Read environment variables (VMPOWER_VCENTER_HOST, ...)
	viper.SetEnvPrefix("VMPOWER")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Setup structured logging
	setupLogging(cmd)

	return nil
}

// setupLogging configures structured logging with slog
func setupLogging(cmd *cobra.Command) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	noColor, _ := cmd.Flags().GetBool("no-color")

	// Set log level based on verbose flag
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if noColor {
		// Use JSON handler for no-color mode
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		// Use text handler for colored output
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	if verbose {
		slog.Debug("verbose logging enabled")
		if viper.ConfigFileUsed() != "" {
			slog.Debug("loaded configuration", "file", viper.ConfigFileUsed())
		}
	}
}
