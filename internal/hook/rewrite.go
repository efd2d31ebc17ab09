package hook

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/parecli/pare/internal/rules"
)

// Built-in skip patterns that are always active. `^pare ` prevents
// double-wrapping; `<<` prevents rewriting heredocs.
var builtinSkipPatterns = []string{"^pare ", "<<"}

// RewriteRule maps a command regex to a replacement template.
type RewriteRule struct {
	Match   string `toml:"match"`
	Replace string `toml:"replace"`
}

// SkipConfig lists command regexes that must never be rewritten.
type SkipConfig struct {
	Patterns []string `toml:"patterns"`
}

// RewriteConfig is the user-level rewrites.toml content.
type RewriteConfig struct {
	Skip    *SkipConfig   `toml:"skip"`
	Rewrite []RewriteRule `toml:"rewrite"`
}

// LoadUserConfig searches for rewrites.toml, first found wins. A file that
// exists but fails to parse yields an empty config with a logged warning.
func LoadUserConfig(log zerolog.Logger) RewriteConfig {
	return loadUserConfigFrom(configSearchPaths(), log)
}

func configSearchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".pare", "rewrites.toml"))
	}
	paths = append(paths, filepath.Join(xdg.ConfigHome, "pare", "rewrites.toml"))
	return paths
}

func loadUserConfigFrom(paths []string, log zerolog.Logger) RewriteConfig {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg RewriteConfig
		if err := toml.Unmarshal(data, &cfg); err != nil {
			log.Warn().Str("path", path).Err(err).Msg("failed to parse rewrites file")
			return RewriteConfig{}
		}
		return cfg
	}
	return RewriteConfig{}
}

// buildRulesFromInstalled derives rewrite rules from the discovered rule
// files: each command pattern becomes `^pattern(\s.*)?$` -> `pare run {0}`.
func buildRulesFromInstalled(searchDirs []string, log zerolog.Logger) []RewriteRule {
	var out []RewriteRule
	seen := make(map[string]bool)

	for _, r := range rules.DiscoverWithCache(searchDirs, log) {
		for _, pattern := range r.Rules.Command.Patterns() {
			if seen[pattern] {
				continue
			}
			seen[pattern] = true
			out = append(out, RewriteRule{
				Match:   rules.CommandPatternToRegex(pattern),
				Replace: "pare run {0}",
			})
		}
	}
	return out
}

// shouldSkip reports whether command matches a built-in or user skip pattern.
func shouldSkip(command string, userPatterns []string, log zerolog.Logger) bool {
	for _, pattern := range builtinSkipPatterns {
		if re, err := regexp.Compile(pattern); err == nil && re.MatchString(command) {
			return true
		}
	}
	for _, pattern := range userPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Warn().Str("pattern", pattern).Err(err).Msg("invalid skip pattern")
			continue
		}
		if re.MatchString(command) {
			return true
		}
	}
	return false
}

// applyRules applies the first matching rule. Returns command unchanged when
// none match. Invalid rule regexes are skipped.
func applyRules(ruleList []RewriteRule, command string) string {
	for _, rule := range ruleList {
		re, err := regexp.Compile(rule.Match)
		if err != nil {
			continue
		}
		if loc := re.FindStringSubmatchIndex(command); loc != nil {
			return interpolateRewrite(rule.Replace, re, command)
		}
	}
	return command
}

// interpolateRewrite expands {0}, {1}, ... and {rest} in the template.
// {rest} is the text after the whole match, left-trimmed.
func interpolateRewrite(template string, re *regexp.Regexp, input string) string {
	m := re.FindStringSubmatchIndex(input)
	caps := re.FindStringSubmatch(input)

	rest := strings.TrimLeft(input[m[1]:], " \t")
	result := strings.ReplaceAll(template, "{rest}", rest)

	// Replace higher group numbers first so {10} wins over {1}.
	for i := len(caps) - 1; i >= 0; i-- {
		value := caps[i]
		result = strings.ReplaceAll(result, "{"+strconv.Itoa(i)+"}", value)
	}
	return result
}

// Rewrite maps a shell command to its pare-wrapped form, or returns it
// unchanged. User rules win over rules derived from installed rule files.
func Rewrite(command string, log zerolog.Logger) string {
	cfg := LoadUserConfig(log)
	return RewriteWithConfig(command, cfg, rules.DefaultSearchDirs(), log)
}

// RewriteWithConfig is Rewrite with explicit config and search dirs.
func RewriteWithConfig(command string, cfg RewriteConfig, searchDirs []string, log zerolog.Logger) string {
	var userSkip []string
	if cfg.Skip != nil {
		userSkip = cfg.Skip.Patterns
	}
	if shouldSkip(command, userSkip, log) {
		return command
	}

	if result := applyRules(cfg.Rewrite, command); result != command {
		return result
	}

	return applyRules(buildRulesFromInstalled(searchDirs, log), command)
}
