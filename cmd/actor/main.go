// Package main is the CLI entry point for actor.
package main

import (
	"os"

	"github.com/spf13/cobra"

	// Registers the reporters, checkers and fixers.
	_ "github.com/eliteGoblin/focusd/actor/internal/workers"
)

var (
	// Version info (set via ldflags)
	Version   = "0.3.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "actor",
	Short: "Desktop actor - keeps you on the activity you chose",
	Long: `actor is a daemon that watches the desktop and acts on it.
Every few seconds it runs the configured rules, trackers, the current
activity and the current flow. Activities close windows that are not
whitelisted, flows switch activities on a timer, trackers ask a daily
question and record the answer.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the actor daemon in the background",
	RunE:  runStart,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the actor in the foreground",
	Long:  `Runs the tick loop in the foreground, logging to stderr. Stop it with Ctrl-C.`,
	RunE:  runForeground,
}

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run every orchestrator once",
	Long: `Runs a single tick immediately without waiting for the daemon.
Prompts opened by trackers are not waited for.`,
	RunE: runTick,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered workers and orchestrators",
	RunE:  runList,
}

var reportCmd = &cobra.Command{
	Use:   "report <name> [key=value...]",
	Short: "Evaluate one reporter and print its value",
	Long: `Evaluates a reporter once. Positional key=value pairs become
arguments; --opt key=value pairs become constructor options.

  actor report active_window_name
  actor report matching_processes --opt pattern=steam`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon liveness and today's tracker records",
	RunE:  runStatus,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE:  runConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

// Hidden daemon command - used for self-exec by start
var daemonCmd = &cobra.Command{
	Use:    "daemon",
	Hidden: true,
	RunE:   runDaemon,
}

var (
	configPath string
	debug      bool
	jsonOutput bool
	reportOpts []string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/actor/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level to stderr")
	reportCmd.Flags().StringArrayVar(&reportOpts, "opt", nil, "Constructor option key=value (repeatable)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(daemonCmd)
}
