package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/xdg"
)

//go:embed builtin
var builtinFS embed.FS

// builtinPriority sorts the embedded library after every search dir, so
// local and user rules always shadow built-in ones.
const builtinPriority = 1 << 30

// DefaultSearchDirs returns the rule search dirs in priority order:
// repo-local `.pare/rules` (resolved from the working directory), then the
// user config dir. The embedded library is always appended by DiscoverAll.
func DefaultSearchDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(cwd, ".pare", "rules"))
	}
	dirs = append(dirs, filepath.Join(xdg.ConfigHome, "pare", "rules"))
	return dirs
}

// TryLoad loads one rule file. A missing file is (nil, nil); an unreadable
// or unparsable file is an error.
func TryLoad(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	rs, err := Parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	return rs, nil
}

// PatternSpecificity counts the non-wildcard words of a command pattern.
// Higher means more specific.
func PatternSpecificity(pattern string) int {
	n := 0
	for _, w := range strings.Fields(pattern) {
		if w != "*" {
			n++
		}
	}
	return n
}

// PatternMatchesPrefix reports whether pattern matches a prefix of words and
// how many words it consumed. `*` matches any single non-empty word;
// trailing words beyond the pattern are allowed.
func PatternMatchesPrefix(pattern string, words []string) (int, bool) {
	pwords := strings.Fields(pattern)
	if len(pwords) == 0 || len(words) < len(pwords) {
		return 0, false
	}
	for i, pw := range pwords {
		if pw == "*" {
			if words[i] == "" {
				return 0, false
			}
		} else if words[i] != pw {
			return 0, false
		}
	}
	return len(pwords), true
}

// ResolvedRule is a discovered rule file with its provenance.
type ResolvedRule struct {
	Rules *RuleSet
	// SourcePath is the absolute file path, or `<built-in>/…` for
	// embedded rules.
	SourcePath string
	// RelativePath is the path under its search dir, for display.
	RelativePath string
	// Priority is the search-dir index; built-in rules sort last.
	Priority int
}

// Matches reports whether any of the rule's command patterns match words,
// and how many words were consumed.
func (r *ResolvedRule) Matches(words []string) (int, bool) {
	for _, pattern := range r.Rules.Command.Patterns() {
		if consumed, ok := PatternMatchesPrefix(pattern, words); ok {
			return consumed, true
		}
	}
	return 0, false
}

// Specificity is the maximum specificity across the rule's patterns.
func (r *ResolvedRule) Specificity() int {
	max := 0
	for _, pattern := range r.Rules.Command.Patterns() {
		if s := PatternSpecificity(pattern); s > max {
			max = s
		}
	}
	return max
}

// PriorityLabel is the human-readable provenance tag. Extra search dirs
// from config land at priorities past the two standard ones and are still
// user-provided.
func (r *ResolvedRule) PriorityLabel() string {
	switch {
	case r.Priority == builtinPriority:
		return "built-in"
	case r.Priority == 0:
		return "local"
	default:
		return "user"
	}
}

// DiscoverAll loads every rule file under the search dirs plus the embedded
// library, sorted by (priority asc, specificity desc) and deduplicated by
// canonical command pattern. Missing dirs and invalid files are silently
// skipped.
func DiscoverAll(searchDirs []string) []ResolvedRule {
	var all []ResolvedRule

	for priority, dir := range searchDirs {
		for _, path := range discoverRuleFiles(dir) {
			rs, err := TryLoad(path)
			if err != nil || rs == nil {
				continue
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				rel = path
			}
			all = append(all, ResolvedRule{
				Rules:        rs,
				SourcePath:   path,
				RelativePath: rel,
				Priority:     priority,
			})
		}
	}

	all = append(all, builtinRules()...)

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Priority != all[j].Priority {
			return all[i].Priority < all[j].Priority
		}
		return all[i].Specificity() > all[j].Specificity()
	})

	seen := make(map[string]bool, len(all))
	deduped := all[:0]
	for _, r := range all {
		if key := r.Rules.Command.First(); !seen[key] {
			seen[key] = true
			deduped = append(deduped, r)
		}
	}
	return deduped
}

// Match picks the first resolved rule whose command pattern matches words.
// The list is already priority/specificity ordered, so the first hit wins.
func Match(resolved []ResolvedRule, words []string) (*ResolvedRule, int) {
	for i := range resolved {
		if consumed, ok := resolved[i].Matches(words); ok {
			return &resolved[i], consumed
		}
	}
	return nil, 0
}

// discoverRuleFiles walks dir for rule files, sorted by relative path.
// Hidden entries are skipped; a missing dir yields nil.
func discoverRuleFiles(dir string) []string {
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && isRuleFile(name) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

func isRuleFile(name string) bool {
	switch filepath.Ext(name) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

// builtinRules parses the embedded rule library. Invalid embedded files are
// skipped the same way on-disk ones are.
func builtinRules() []ResolvedRule {
	var all []ResolvedRule
	_ = fs.WalkDir(builtinFS, "builtin", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isRuleFile(d.Name()) {
			return nil
		}
		data, err := builtinFS.ReadFile(path)
		if err != nil {
			return nil
		}
		rs, err := Parse(data, path)
		if err != nil {
			return nil
		}
		rel := strings.TrimPrefix(path, "builtin/")
		all = append(all, ResolvedRule{
			Rules:        rs,
			SourcePath:   "<built-in>/" + rel,
			RelativePath: rel,
			Priority:     builtinPriority,
		})
		return nil
	})
	return all
}

// Builtin returns the embedded rule content for a relative path like
// `git/push.toml`, if it exists.
func Builtin(relativePath string) ([]byte, bool) {
	data, err := builtinFS.ReadFile("builtin/" + relativePath)
	if err != nil {
		return nil, false
	}
	return data, true
}

// CommandPatternToRegex turns a command pattern into an anchored regex for
// command-line rewriting. `*` becomes a single-word matcher.
func CommandPatternToRegex(pattern string) string {
	words := strings.Fields(pattern)
	escaped := make([]string, len(words))
	for i, w := range words {
		if w == "*" {
			escaped[i] = `\S+`
		} else {
			escaped[i] = regexp.QuoteMeta(w)
		}
	}
	return "^" + strings.Join(escaped, `\s+`) + `(\s.*)?$`
}
