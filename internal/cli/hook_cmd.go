package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parecli/pare/internal/hook"
	"github.com/parecli/pare/internal/logging"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <command>",
	Short: "Rewrite a command string using installed rules",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(hook.Rewrite(args[0], logging.GetLogger("rewrite")))
	},
}

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Claude Code hook management",
}

var hookHandleCmd = &cobra.Command{
	Use:   "handle",
	Short: "Handle a PreToolUse hook invocation (reads JSON from stdin)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		hook.Handle(logging.GetLogger("hook"))
	},
}

var hookInstallGlobal bool

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the hook into Claude Code settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return hook.Install(hookInstallGlobal)
	},
}

func init() {
	hookInstallCmd.Flags().BoolVar(&hookInstallGlobal, "global", false, "Install globally instead of project-local")

	hookCmd.AddCommand(hookHandleCmd, hookInstallCmd)
	rootCmd.AddCommand(rewriteCmd, hookCmd)
}
