package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/config"
	"github.com/andrescamacho/deliverysim-go/internal/infrastructure/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deliverysim",
		Short: "deliverysim - discrete-event simulator for last-mile delivery",
		Long: `deliverysim replays an instance of order and courier arrivals on a virtual
clock and simulates the full delivery flow: admission, matching, courier
shifts and user cancellations.

Examples:
  deliverysim seed --instance 1 --orders 200 --couriers 20
  deliverysim run --instance 1 --seed 42
  deliverysim run --instance 1 --until 15:00:00 --metrics-addr :9090
  deliverysim report
  deliverysim report --run-id 9f2c6e9a-...`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: ./config.yaml, ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")

	// Add command groups
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewSeedCommand())
	rootCmd.AddCommand(NewReportCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// setup loads the configuration and builds the process logger, honoring the
// global flags.
func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	log, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
