// Package cli implements the actinium command line interface.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SnowyUK/actinium/internal/config"
	"github.com/SnowyUK/actinium/internal/logging"
	"github.com/SnowyUK/actinium/pkg/version"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "actinium",
	Short: "Actinium - lightweight state profiling for long-running jobs",
	Long: `Record how much time a long-running program spends in different
states, with events buffered in memory and periodically committed to an
embedded database.

Instrument a job with the profiler package, then inspect the recorded
sessions here:
  actinium profiles          list recorded profiling sessions
  actinium report            summarize time per state for a session
  actinium demo              run a toy instrumented workload`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Actinium version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// loadOptions resolves configuration for a command invocation: config file
// (if any), environment overrides, then the --log-level flag on top.
func loadOptions() (config.Options, error) {
	opts, err := config.Load(configPath)
	if err != nil {
		return config.Options{}, err
	}
	if logLevel != "" {
		opts.LogLevel = logLevel
	}
	return opts, nil
}

func newLogger(opts config.Options) zerolog.Logger {
	return logging.New(logging.Config{
		Level:  opts.LogLevel,
		Pretty: true,
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
