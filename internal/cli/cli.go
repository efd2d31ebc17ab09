// Package cli wires the command tree: discovery, execution, filtering,
// tracking, and the hook integration.
package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/parecli/pare/internal/display"
	"github.com/parecli/pare/internal/logging"
)

const version = "0.1.0"

var (
	verbosity int
	timing    bool
	noFilter  bool
	noCache   bool

	// runExitCode carries the wrapped command's exit status out of cobra.
	runExitCode int

	rootCmd = &cobra.Command{
		Use:   "pare",
		Short: "Compress command output for LLM context",
		Long: `pare wraps shell commands and compresses their output using declarative
rule files, so coding agents spend fewer tokens reading build logs, test
runs, and git output.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		display.PrintError(err.Error())
		return 1
	}
	return runExitCode
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG)")
	rootCmd.PersistentFlags().BoolVar(&timing, "timing", false, "Show how long filtering took")
	rootCmd.PersistentFlags().BoolVar(&noFilter, "no-filter", false, "Skip filtering, pass output through raw")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass the rule resolution cache for this invocation")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pare v%s\n", version)
	},
}
