package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/parecli/pare/internal/config"
	"github.com/parecli/pare/internal/engine"
	"github.com/parecli/pare/internal/logging"
	"github.com/parecli/pare/internal/rules"
	"github.com/parecli/pare/internal/runner"
	"github.com/parecli/pare/internal/script"
	"github.com/parecli/pare/internal/tee"
	"github.com/parecli/pare/internal/tracking"
	"github.com/parecli/pare/internal/utils"
)

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run a command and filter its output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := cmdRun(args)
		if err != nil {
			return err
		}
		runExitCode = code
		return nil
	},
}

func init() {
	// Flags after the wrapped command belong to that command.
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}

func searchDirs(cfg *config.Config) []string {
	return append(rules.DefaultSearchDirs(), cfg.Rules.ExtraDirs...)
}

func discover(dirs []string) []rules.ResolvedRule {
	log := logging.GetLogger("rules")
	if noCache {
		return rules.DiscoverAll(dirs)
	}
	return rules.DiscoverWithCache(dirs, log)
}

func cmdRun(args []string) (int, error) {
	log := logging.GetLogger("run")

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("config error, using defaults")
		cfg = config.DefaultConfig()
	}

	var matched *rules.ResolvedRule
	consumed := 0
	if !noFilter {
		matched, consumed = rules.Match(discover(searchDirs(cfg)), args)
		if matched != nil {
			log.Info().
				Str("rule", matched.RelativePath).
				Str("command", matched.Rules.Command.First()).
				Msg("rule matched")
		} else {
			log.Info().Str("command", strings.Join(args, " ")).Msg("no rule found, passing through")
		}
	}

	remaining := args[1:]
	if consumed > 0 {
		remaining = args[consumed:]
	}

	timer := startTracking(cfg, log)
	defer timer.Close()

	result, err := executeCommand(matched, args, remaining)
	if err != nil {
		return 1, err
	}

	if matched == nil {
		if result.Combined() != "" {
			fmt.Println(result.Combined())
		}
		tokens := utils.EstimateTokens(result.Combined())
		if err := timer.TrackPassthrough(strings.Join(args, " "), tokens); err != nil {
			log.Warn().Err(err).Msg("tracking failed")
		}
		return result.ExitCode, nil
	}

	raw := result.Combined()
	start := time.Now()

	eng := engine.New(engine.NewRegexCache(), script.NewRunner(logging.GetLogger("script")), log)
	filtered := eng.Apply(matched.Rules, engine.CommandResult{
		ExitCode: result.ExitCode,
		Combined: raw,
	}, remaining)

	if timing {
		fmt.Fprintf(os.Stderr, "[pare] filter took %.1fms\n", float64(time.Since(start).Microseconds())/1000)
	}

	if filtered.Output != "" {
		fmt.Println(filtered.Output)
	}

	if hint := saveTee(raw, result.ExitCode, args[0], cfg); hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}

	err = timer.Track(
		strings.Join(args, " "),
		displayName(matched),
		utils.EstimateTokens(raw),
		utils.EstimateTokens(filtered.Output),
	)
	if err != nil {
		log.Warn().Err(err).Msg("tracking failed")
	}

	return result.ExitCode, nil
}

// executeCommand runs the wrapped command: the rule's `run` override through
// the shell when present, otherwise the command verbatim.
func executeCommand(matched *rules.ResolvedRule, args, remaining []string) (*runner.CommandResult, error) {
	if matched != nil && matched.Rules.Run != "" {
		return runner.ExecuteShell(matched.Rules.Run, remaining)
	}
	return runner.Execute(args[0], args[1:])
}

// startTracking opens the tracker if enabled. Failures disable tracking for
// this run only; they never block the command.
func startTracking(cfg *config.Config, log zerolog.Logger) *tracking.TimedExecution {
	if !cfg.Tracking.Enabled {
		return nil
	}
	path := cfg.Tracking.DBPath
	if p := os.Getenv("PARE_DB_PATH"); p != "" {
		path = p
	}
	tracker, err := tracking.NewTracker(path)
	if err != nil {
		log.Warn().Err(err).Msg("tracking disabled")
		return nil
	}
	return tracking.Start(tracker)
}

func saveTee(raw string, exitCode int, command string, cfg *config.Config) string {
	teeCfg := tee.Config{
		Enabled:     cfg.Tee.Enabled,
		Mode:        cfg.Tee.Mode,
		MaxFiles:    cfg.Tee.MaxFiles,
		MaxFileSize: cfg.Tee.MaxFileSize,
		Dir:         cfg.Tee.Dir,
	}
	if teeCfg.Dir == "" {
		teeCfg.Dir = tee.DefaultConfig().Dir
	}
	return tee.MaybeSave(raw, exitCode, command, teeCfg)
}
