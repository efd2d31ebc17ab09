package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/parecli/pare/internal/config"
	"github.com/parecli/pare/internal/display"
	"github.com/parecli/pare/internal/tracking"
)

var gainOpts display.GainOptions

var gainCmd = &cobra.Command{
	Use:   "gain",
	Short: "Show token savings statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
		}

		path := cfg.Tracking.DBPath
		if p := os.Getenv("PARE_DB_PATH"); p != "" {
			path = p
		}

		tracker, err := tracking.NewTracker(path)
		if err != nil {
			display.PrintError("no tracking data (run some commands first)")
			return nil
		}
		defer tracker.Close()

		return display.RunGain(tracker, gainOpts)
	},
}

func init() {
	gainCmd.Flags().BoolVar(&gainOpts.Daily, "daily", false, "Show daily breakdown")
	gainCmd.Flags().BoolVar(&gainOpts.Weekly, "weekly", false, "Show weekly breakdown")
	gainCmd.Flags().BoolVar(&gainOpts.Monthly, "monthly", false, "Show monthly breakdown")
	gainCmd.Flags().BoolVar(&gainOpts.JSON, "json", false, "Output as JSON")
	gainCmd.Flags().BoolVar(&gainOpts.CSV, "csv", false, "Output daily stats as CSV")
	gainCmd.Flags().IntVar(&gainOpts.Top, "top", 0, "Show the top N commands by tokens saved")
	gainCmd.Flags().IntVar(&gainOpts.History, "history", 0, "Show the last N invocations")
	gainCmd.Flags().IntVar(&gainOpts.Days, "days", 7, "Days of history for daily views")

	rootCmd.AddCommand(gainCmd)
}
