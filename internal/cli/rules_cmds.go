package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parecli/pare/internal/config"
	"github.com/parecli/pare/internal/engine"
	"github.com/parecli/pare/internal/logging"
	"github.com/parecli/pare/internal/rules"
	"github.com/parecli/pare/internal/script"
)

var checkCmd = &cobra.Command{
	Use:   "check <rule-file>",
	Short: "Validate a rule file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := rules.TryLoad(args[0])
		if err != nil {
			return err
		}
		if rs == nil {
			return fmt.Errorf("file not found: %s", args[0])
		}
		fmt.Fprintf(os.Stderr, "[pare] %s is valid (command: %q)\n", args[0], rs.Command.First())
		return nil
	},
}

var testExitCode int

var testCmd = &cobra.Command{
	Use:   "test <rule-file> <fixture-file>",
	Short: "Apply a rule to a fixture file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := rules.TryLoad(args[0])
		if err != nil {
			return err
		}
		if rs == nil {
			return fmt.Errorf("rule not found: %s", args[0])
		}

		fixture, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read fixture %s: %w", args[1], err)
		}

		log := logging.GetLogger("test")
		eng := engine.New(engine.NewRegexCache(), script.NewRunner(log), log)
		result := eng.Apply(rs, engine.CommandResult{
			ExitCode: testExitCode,
			Combined: strings.TrimRight(string(fixture), " \t\n\r"),
		}, nil)

		if result.Output != "" {
			fmt.Println(result.Output)
		}
		return nil
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available rules",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range discoverForInspection() {
			fmt.Printf("%s  →  %s\n", displayName(&r), r.Rules.Command.First())

			if verbosity > 0 {
				fmt.Fprintf(os.Stderr, "[pare]   source: %s  [%s]\n", r.SourcePath, r.PriorityLabel())
				if patterns := r.Rules.Command.Patterns(); len(patterns) > 1 {
					for _, p := range patterns {
						fmt.Fprintf(os.Stderr, "[pare]     pattern: %q\n", p)
					}
				}
			}
		}
	},
}

var whichCmd = &cobra.Command{
	Use:   "which <command>",
	Short: "Show which rule would be used for a command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		words := strings.Fields(args[0])
		resolved := discoverForInspection()

		matched, _ := rules.Match(resolved, words)
		if matched == nil {
			return fmt.Errorf("no rule found for %q", args[0])
		}

		fmt.Printf("%s  [%s]  command: %q\n", displayName(matched), matched.PriorityLabel(), matched.Rules.Command.First())
		if verbosity > 0 {
			fmt.Fprintf(os.Stderr, "[pare] source: %s\n", matched.SourcePath)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <rule>",
	Short: "Show the source of an active rule",
	Long:  `Show the TOML source of an active rule by its relative path without extension, e.g. "git/push".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSuffix(args[0], ".toml")

		for _, r := range discoverForInspection() {
			if displayName(&r) != name {
				continue
			}
			content, err := ruleSource(&r)
			if err != nil {
				return err
			}
			fmt.Print(content)
			return nil
		}
		return fmt.Errorf("rule not found: %s", args[0])
	},
}

func init() {
	testCmd.Flags().IntVar(&testExitCode, "exit-code", 0, "Simulated exit code for branch selection")

	rootCmd.AddCommand(checkCmd, testCmd, lsCmd, whichCmd, showCmd)
}

// discoverForInspection always goes through the cache; --no-cache only
// affects `pare run`.
func discoverForInspection() []rules.ResolvedRule {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return rules.DiscoverWithCache(searchDirs(cfg), logging.GetLogger("rules"))
}

func displayName(r *rules.ResolvedRule) string {
	return strings.TrimSuffix(r.RelativePath, filepath.Ext(r.RelativePath))
}

func ruleSource(r *rules.ResolvedRule) (string, error) {
	if strings.HasPrefix(r.SourcePath, "<built-in>") {
		content, ok := rules.Builtin(r.RelativePath)
		if !ok {
			return "", fmt.Errorf("embedded rule not readable: %s", r.RelativePath)
		}
		return string(content), nil
	}
	content, err := os.ReadFile(r.SourcePath)
	if err != nil {
		return "", fmt.Errorf("reading rule: %w", err)
	}
	return string(content), nil
}
