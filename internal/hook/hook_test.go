package hook

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func handleString(t *testing.T, input string, searchDirs []string) (string, bool) {
	t.Helper()
	var out strings.Builder
	ok := handleJSON([]byte(input), &out, RewriteConfig{}, searchDirs, zerolog.Nop())
	return out.String(), ok
}

func TestHandleRewritesMatchingCommand(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "git-blame.toml", `command = "git blame"`)

	input := `{"tool_name":"Bash","tool_input":{"command":"git blame"}}`
	out, ok := handleString(t, input, []string{dir})
	if !ok {
		t.Fatal("expected rewrite")
	}

	var resp map[string]any
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	specific := resp["hookSpecificOutput"].(map[string]any)
	if specific["hookEventName"] != "PreToolUse" {
		t.Errorf("hookEventName = %v", specific["hookEventName"])
	}
	if specific["permissionDecision"] != "allow" {
		t.Errorf("permissionDecision = %v", specific["permissionDecision"])
	}
	updated := specific["updatedInput"].(map[string]any)
	if updated["command"] != "pare run git blame" {
		t.Errorf("command = %v", updated["command"])
	}
}

func TestHandlePassThrough(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		input string
	}{
		{"no matching rule", `{"tool_name":"Bash","tool_input":{"command":"unknown-cmd"}}`},
		{"non-bash tool", `{"tool_name":"Read","tool_input":{"file_path":"/tmp/foo"}}`},
		{"bash without command", `{"tool_name":"Bash","tool_input":{}}`},
		{"invalid json", "not json"},
		{"empty input", ""},
		{"already wrapped", `{"tool_name":"Bash","tool_input":{"command":"pare run git status"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := handleString(t, tt.input, []string{dir})
			if ok {
				t.Errorf("expected pass-through, got output %q", out)
			}
		})
	}
}

func TestHandleIgnoresExtraFields(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "git-blame.toml", `command = "git blame"`)

	input := `{"tool_name":"Bash","tool_input":{"command":"git blame","timeout":5000},"session_id":"abc"}`
	if _, ok := handleString(t, input, []string{dir}); !ok {
		t.Error("expected rewrite despite extra fields")
	}
}

func TestPatchSettingsCreatesFile(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, ".claude", "settings.json")

	if err := patchSettings(settings, filepath.Join(dir, "hook.sh")); err != nil {
		t.Fatalf("patchSettings: %v", err)
	}

	var value map[string]any
	data, _ := os.ReadFile(settings)
	if err := json.Unmarshal(data, &value); err != nil {
		t.Fatalf("invalid settings JSON: %v", err)
	}
	arr := value["hooks"].(map[string]any)["PreToolUse"].([]any)
	if len(arr) != 1 {
		t.Fatalf("got %d entries, want 1", len(arr))
	}
	if arr[0].(map[string]any)["matcher"] != "Bash" {
		t.Errorf("matcher = %v", arr[0].(map[string]any)["matcher"])
	}
}

func TestPatchSettingsPreservesExisting(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.json")
	os.WriteFile(settings, []byte(`{"customKey":"customValue","hooks":{"PostToolUse":[]}}`), 0o644)

	if err := patchSettings(settings, filepath.Join(dir, "hook.sh")); err != nil {
		t.Fatalf("patchSettings: %v", err)
	}

	var value map[string]any
	data, _ := os.ReadFile(settings)
	json.Unmarshal(data, &value)
	if value["customKey"] != "customValue" {
		t.Error("custom key lost")
	}
	hooks := value["hooks"].(map[string]any)
	if _, ok := hooks["PostToolUse"]; !ok {
		t.Error("PostToolUse lost")
	}
	if _, ok := hooks["PreToolUse"]; !ok {
		t.Error("PreToolUse missing")
	}
}

func TestPatchSettingsIdempotent(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.json")
	hook := filepath.Join(dir, "pare-hook.sh")

	patchSettings(settings, hook)
	if err := patchSettings(settings, hook); err != nil {
		t.Fatalf("second patchSettings: %v", err)
	}

	var value map[string]any
	data, _ := os.ReadFile(settings)
	json.Unmarshal(data, &value)
	arr := value["hooks"].(map[string]any)["PreToolUse"].([]any)
	if len(arr) != 1 {
		t.Errorf("got %d entries after double install, want 1", len(arr))
	}
}

func TestPatchSettingsPreservesForeignHooks(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.json")
	existing := `{"hooks":{"PreToolUse":[{"matcher":"Bash","hooks":[{"type":"command","command":"/other/tool.sh"}]}]}}`
	os.WriteFile(settings, []byte(existing), 0o644)

	if err := patchSettings(settings, filepath.Join(dir, "pare-hook.sh")); err != nil {
		t.Fatalf("patchSettings: %v", err)
	}

	var value map[string]any
	data, _ := os.ReadFile(settings)
	json.Unmarshal(data, &value)
	arr := value["hooks"].(map[string]any)["PreToolUse"].([]any)
	if len(arr) != 2 {
		t.Errorf("got %d entries, want existing plus new", len(arr))
	}
}

func TestPatchSettingsQuotesPathWithSpaces(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.json")

	if err := patchSettings(settings, "/Users/my name/.pare/hooks/pre-tool-use.sh"); err != nil {
		t.Fatalf("patchSettings: %v", err)
	}

	var value map[string]any
	data, _ := os.ReadFile(settings)
	json.Unmarshal(data, &value)
	arr := value["hooks"].(map[string]any)["PreToolUse"].([]any)
	cmd := arr[0].(map[string]any)["hooks"].([]any)[0].(map[string]any)["command"].(string)
	if !strings.HasPrefix(cmd, "'") {
		t.Errorf("command not quoted: %q", cmd)
	}
	if !strings.Contains(cmd, "my name") {
		t.Errorf("path with space mangled: %q", cmd)
	}
}

func TestPatchSettingsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.json")
	os.WriteFile(settings, []byte("not valid json {{{"), 0o644)

	err := patchSettings(settings, filepath.Join(dir, "hook.sh"))
	if err == nil {
		t.Fatal("expected error for corrupt settings")
	}
	if !strings.Contains(err.Error(), "corrupt settings.json") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteHookShim(t *testing.T) {
	dir := t.TempDir()
	hookDir := filepath.Join(dir, "hooks")
	script := filepath.Join(hookDir, "pre-tool-use.sh")

	if err := writeHookShim(hookDir, script); err != nil {
		t.Fatalf("writeHookShim: %v", err)
	}

	data, err := os.ReadFile(script)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "#!/bin/sh\n") {
		t.Errorf("missing shebang: %q", content)
	}
	if !strings.Contains(content, "hook handle") {
		t.Errorf("missing hook handle: %q", content)
	}
	if !strings.Contains(content, "exec '") {
		t.Errorf("executable path not quoted: %q", content)
	}

	info, _ := os.Stat(script)
	if info.Mode()&0o111 == 0 {
		t.Error("script not executable")
	}
}

func TestInstallTo(t *testing.T) {
	dir := t.TempDir()
	hookDir := filepath.Join(dir, ".pare", "hooks")
	settings := filepath.Join(dir, ".claude", "settings.json")

	if err := installTo(hookDir, settings); err != nil {
		t.Fatalf("installTo: %v", err)
	}
	if _, err := os.Stat(filepath.Join(hookDir, "pre-tool-use.sh")); err != nil {
		t.Error("hook script missing")
	}
	if _, err := os.Stat(settings); err != nil {
		t.Error("settings.json missing")
	}

	// Double install keeps a single entry.
	if err := installTo(hookDir, settings); err != nil {
		t.Fatalf("second installTo: %v", err)
	}
	var value map[string]any
	data, _ := os.ReadFile(settings)
	json.Unmarshal(data, &value)
	arr := value["hooks"].(map[string]any)["PreToolUse"].([]any)
	if len(arr) != 1 {
		t.Errorf("got %d entries after double install, want 1", len(arr))
	}
}
