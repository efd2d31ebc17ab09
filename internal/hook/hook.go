// Package hook integrates pare with Claude Code. A PreToolUse hook reads the
// pending tool call from stdin and, when the Bash command matches an
// installed rule, answers with the pare-wrapped command.
package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/parecli/pare/internal/rules"
	"github.com/parecli/pare/internal/runner"
)

// Input is the PreToolUse payload read from stdin.
type Input struct {
	ToolName  string    `json:"tool_name"`
	ToolInput ToolInput `json:"tool_input"`
}

// ToolInput carries the Bash command, when present.
type ToolInput struct {
	Command string `json:"command"`
}

// Response tells Claude Code to run a different command.
type Response struct {
	HookSpecificOutput SpecificOutput `json:"hookSpecificOutput"`
}

type SpecificOutput struct {
	HookEventName      string       `json:"hookEventName"`
	PermissionDecision string       `json:"permissionDecision"`
	UpdatedInput       UpdatedInput `json:"updatedInput"`
}

type UpdatedInput struct {
	Command string `json:"command"`
}

func rewriteResponse(command string) Response {
	return Response{
		HookSpecificOutput: SpecificOutput{
			HookEventName:      "PreToolUse",
			PermissionDecision: "allow",
			UpdatedInput:       UpdatedInput{Command: command},
		},
	}
}

// Handle processes one hook invocation from stdin. It reports whether a
// rewrite was emitted on stdout. Errors never block the command; every
// failure path is a silent pass-through.
func Handle(log zerolog.Logger) bool {
	return handleFromReader(os.Stdin, os.Stdout, log)
}

func handleFromReader(r io.Reader, w io.Writer, log zerolog.Logger) bool {
	data, err := io.ReadAll(r)
	if err != nil {
		return false
	}
	cfg := LoadUserConfig(log)
	return handleJSON(data, w, cfg, rules.DefaultSearchDirs(), log)
}

func handleJSON(data []byte, w io.Writer, cfg RewriteConfig, searchDirs []string, log zerolog.Logger) bool {
	var input Input
	if err := json.Unmarshal(data, &input); err != nil {
		return false
	}
	if input.ToolName != "Bash" || input.ToolInput.Command == "" {
		return false
	}

	rewritten := RewriteWithConfig(input.ToolInput.Command, cfg, searchDirs, log)
	if rewritten == input.ToolInput.Command {
		return false
	}

	out, err := json.Marshal(rewriteResponse(rewritten))
	if err != nil {
		return false
	}
	fmt.Fprintln(w, string(out))
	return true
}

// Install writes the hook shim script and registers it in Claude Code
// settings. Global installs target the user config and home directory;
// local installs target the working directory.
func Install(global bool) error {
	var hookDir, settingsPath string
	if global {
		hookDir = filepath.Join(xdg.ConfigHome, "pare", "hooks")
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		settingsPath = filepath.Join(home, ".claude", "settings.json")
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		hookDir = filepath.Join(cwd, ".pare", "hooks")
		settingsPath = filepath.Join(cwd, ".claude", "settings.json")
	}
	return installTo(hookDir, settingsPath)
}

func installTo(hookDir, settingsPath string) error {
	hookScript := filepath.Join(hookDir, "pre-tool-use.sh")
	if err := writeHookShim(hookDir, hookScript); err != nil {
		return err
	}
	if err := patchSettings(settingsPath, hookScript); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "[pare] hook installed")
	fmt.Fprintf(os.Stderr, "[pare]   script: %s\n", hookScript)
	fmt.Fprintf(os.Stderr, "[pare]   settings: %s\n", settingsPath)
	return nil
}

func writeHookShim(hookDir, hookScript string) error {
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving executable path: %w", err)
	}

	content := "#!/bin/sh\nexec " + runner.ShellEscape(exe) + " hook handle\n"
	return os.WriteFile(hookScript, []byte(content), 0o755)
}

// patchSettings registers the shim in settings.json, keeping foreign hooks
// and replacing any previous pare entry so installs stay idempotent.
func patchSettings(settingsPath, hookScript string) error {
	settings := map[string]any{}
	if data, err := os.ReadFile(settingsPath); err == nil {
		if err := json.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("corrupt settings.json at %s: %w", settingsPath, err)
		}
	}

	hookCommand := runner.ShellEscape(hookScript)
	entry := map[string]any{
		"matcher": "Bash",
		"hooks": []any{
			map[string]any{"type": "command", "command": hookCommand},
		},
	}

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooks = map[string]any{}
		settings["hooks"] = hooks
	}

	preToolUse, _ := hooks["PreToolUse"].([]any)

	kept := preToolUse[:0]
	for _, e := range preToolUse {
		if !isPareHookEntry(e) {
			kept = append(kept, e)
		}
	}
	hooks["PreToolUse"] = append(kept, entry)

	if err := os.MkdirAll(filepath.Dir(settingsPath), 0o755); err != nil {
		return err
	}
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := settingsPath + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, settingsPath)
}

func isPareHookEntry(e any) bool {
	entry, ok := e.(map[string]any)
	if !ok {
		return false
	}
	hookList, ok := entry["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hookList {
		m, ok := h.(map[string]any)
		if !ok {
			continue
		}
		cmd, _ := m["command"].(string)
		if strings.Contains(cmd, "pare") && strings.Contains(cmd, "hook") {
			return true
		}
	}
	return false
}
