package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information (can be overridden at build time with -ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global flags
var (
	globalVerbose bool
	globalJSON    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hotreload",
	Short: "Template hot-reload engine for rsx sources",
	Long: `hotreload watches Go sources for edits to rsx template literals and
streams template patches to connected clients over a websocket, so pure
template edits apply without recompiling the program.

Use "hotreload watch [root]" to start a watch session. Edits that only
touch template bodies are diffed against the last built state; when the
change is hot-patchable the updated template is broadcast, otherwise
clients are told a rebuild is needed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&globalJSON, "json-logs", false, "Emit logs as JSON lines")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the session logger from the global flags.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if globalVerbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if globalJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
