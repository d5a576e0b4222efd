package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML run file
	traceLevel string // Message trace level (none, messages)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "halosim",
	Short: "Distributed stencil and graph simulations with halo exchange",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// loadRunConfig returns the --config file, or an empty config when none was given.
func loadRunConfig() *RunConfig {
	if configPath == "" {
		return &RunConfig{}
	}
	rc, err := LoadRunConfig(configPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	logrus.Infof("Loaded run config from %s", configPath)
	return rc
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML run file; explicitly set flags override it")
	rootCmd.PersistentFlags().StringVar(&traceLevel, "trace-level", "none", "Message trace level (none, messages)")

	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(regionCmd)
	rootCmd.AddCommand(plotCmd)
}
