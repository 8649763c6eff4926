// Package main contains the lockcheck CLI. It uses the cobra package
// for command wiring; all report output goes to stdout, logs to stderr.
package main

import (
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// If not set (e.g., via go install), it is taken from build info.
var version = "dev"

func init() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
}

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "lockcheck",
		Short:   "Report the PostgreSQL locks a schema migration acquires",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(verbose)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.AddCommand(newAnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}
