package hook

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeRule(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestShouldSkip(t *testing.T) {
	log := zerolog.Nop()

	tests := []struct {
		name    string
		command string
		user    []string
		want    bool
	}{
		{"pare commands", "pare run git status", nil, true},
		{"pare rewrite", "pare rewrite foo", nil, true},
		{"heredoc", "cat <<EOF", nil, true},
		{"heredoc in shell", "bash -c 'cat <<EOF'", nil, true},
		{"user pattern match", "my-internal tool", []string{"^my-internal"}, true},
		{"user pattern no match", "git status", []string{"^my-internal"}, false},
		{"invalid user pattern ignored", "git status", []string{"[invalid"}, false},
		{"normal command", "cargo test", nil, false},
		{"normal ls", "ls -la", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkip(tt.command, tt.user, log); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestApplyRulesFirstMatchWins(t *testing.T) {
	ruleList := []RewriteRule{
		{Match: "^git status", Replace: "first {0}"},
		{Match: "^git", Replace: "second {0}"},
	}
	if got := applyRules(ruleList, "git status"); got != "first git status" {
		t.Errorf("got %q", got)
	}
}

func TestApplyRulesNoMatch(t *testing.T) {
	ruleList := []RewriteRule{{Match: "^git", Replace: "pare run {0}"}}
	if got := applyRules(ruleList, "ls -la"); got != "ls -la" {
		t.Errorf("got %q", got)
	}
}

func TestApplyRulesEmpty(t *testing.T) {
	if got := applyRules(nil, "git status"); got != "git status" {
		t.Errorf("got %q", got)
	}
}

func TestApplyRulesCaptureGroups(t *testing.T) {
	ruleList := []RewriteRule{{Match: `^(git) (status)`, Replace: "wrapped {1} {2}"}}
	if got := applyRules(ruleList, "git status"); got != "wrapped git status" {
		t.Errorf("got %q", got)
	}
}

func TestApplyRulesInvalidRegexSkipped(t *testing.T) {
	ruleList := []RewriteRule{
		{Match: "[invalid", Replace: "bad"},
		{Match: `^git status(\s.*)?$`, Replace: "pare run {0}"},
	}
	if got := applyRules(ruleList, "git status"); got != "pare run git status" {
		t.Errorf("got %q", got)
	}
}

func TestInterpolateRewrite(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		template string
		input    string
		want     string
	}{
		{"full match", `^git status(\s.*)?$`, "pare run {0}", "git status --short", "pare run git status --short"},
		{"rest", `^git status`, "pare run git status {rest}", "git status --short -b", "pare run git status --short -b"},
		{"rest empty", `^git status$`, "pare run git status {rest}", "git status", "pare run git status "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := regexp.MustCompile(tt.pattern)
			if got := interpolateRewrite(tt.template, re, tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRulesFromInstalled(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "git-blame.toml", `command = "git blame"`)
	writeRule(t, dir, "runner.toml", `command = ["pnpm exec", "npx exec"]`)

	ruleList := buildRulesFromInstalled([]string{dir}, zerolog.Nop())

	find := func(sub string) *RewriteRule {
		for i := range ruleList {
			if strings.Contains(ruleList[i].Match, sub) {
				return &ruleList[i]
			}
		}
		return nil
	}

	blame := find("blame")
	if blame == nil {
		t.Fatal("expected git blame rule")
	}
	re := regexp.MustCompile(blame.Match)
	if !re.MatchString("git blame") || !re.MatchString("git blame -L 1,10 main.go") {
		t.Errorf("blame pattern %q does not match expected inputs", blame.Match)
	}
	if re.MatchString("git blamestorm") {
		t.Errorf("blame pattern %q matches partial word", blame.Match)
	}

	if find("pnpm") == nil || find("npx") == nil {
		t.Error("expected one rule per pattern in a command list")
	}
}

func TestBuildRulesDedupAcrossDirs(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	writeRule(t, dir1, "git-blame.toml", `command = "git blame"`)
	writeRule(t, dir2, "git-blame.toml", `command = "git blame"`)

	ruleList := buildRulesFromInstalled([]string{dir1, dir2}, zerolog.Nop())
	count := 0
	for _, r := range ruleList {
		if strings.Contains(r.Match, "blame") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("git blame rules = %d, want 1", count)
	}
}

func TestRewriteWithConfigMatchesInstalledRule(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "git-blame.toml", `command = "git blame"`)
	log := zerolog.Nop()

	got := RewriteWithConfig("git blame", RewriteConfig{}, []string{dir}, log)
	if got != "pare run git blame" {
		t.Errorf("got %q", got)
	}

	got = RewriteWithConfig("git blame -L 1,5 main.go", RewriteConfig{}, []string{dir}, log)
	if got != "pare run git blame -L 1,5 main.go" {
		t.Errorf("got %q", got)
	}
}

func TestRewriteWithConfigBuiltinSkip(t *testing.T) {
	got := RewriteWithConfig("pare run git status", RewriteConfig{}, []string{t.TempDir()}, zerolog.Nop())
	if got != "pare run git status" {
		t.Errorf("got %q", got)
	}
}

func TestRewriteWithConfigNoMatch(t *testing.T) {
	got := RewriteWithConfig("unknown-cmd foo", RewriteConfig{}, []string{t.TempDir()}, zerolog.Nop())
	if got != "unknown-cmd foo" {
		t.Errorf("got %q", got)
	}
}

func TestRewriteUserRuleTakesPriority(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "git-blame.toml", `command = "git blame"`)

	cfg := RewriteConfig{
		Rewrite: []RewriteRule{{Match: "^git blame", Replace: "custom-wrapper {0}"}},
	}
	got := RewriteWithConfig("git blame", cfg, []string{dir}, zerolog.Nop())
	if got != "custom-wrapper git blame" {
		t.Errorf("got %q", got)
	}
}

func TestRewriteUserSkipPreventsRewrite(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "git-blame.toml", `command = "git blame"`)

	cfg := RewriteConfig{
		Skip: &SkipConfig{Patterns: []string{"^git blame"}},
	}
	got := RewriteWithConfig("git blame", cfg, []string{dir}, zerolog.Nop())
	if got != "git blame" {
		t.Errorf("got %q", got)
	}
}

func TestLoadUserConfigFirstFoundWins(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	path1 := filepath.Join(dir1, "rewrites.toml")
	path2 := filepath.Join(dir2, "rewrites.toml")

	os.WriteFile(path1, []byte("[[rewrite]]\nmatch = \"^first\"\nreplace = \"first\"\n"), 0o644)
	os.WriteFile(path2, []byte("[[rewrite]]\nmatch = \"^second\"\nreplace = \"second\"\n"), 0o644)

	cfg := loadUserConfigFrom([]string{path1, path2}, zerolog.Nop())
	if len(cfg.Rewrite) != 1 || cfg.Rewrite[0].Match != "^first" {
		t.Errorf("cfg.Rewrite = %+v", cfg.Rewrite)
	}
}

func TestLoadUserConfigMissing(t *testing.T) {
	cfg := loadUserConfigFrom([]string{filepath.Join(t.TempDir(), "missing.toml")}, zerolog.Nop())
	if len(cfg.Rewrite) != 0 || cfg.Skip != nil {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadUserConfigInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewrites.toml")
	os.WriteFile(path, []byte("not valid [[["), 0o644)

	cfg := loadUserConfigFrom([]string{path}, zerolog.Nop())
	if len(cfg.Rewrite) != 0 {
		t.Errorf("expected empty config for invalid file, got %+v", cfg)
	}
}
