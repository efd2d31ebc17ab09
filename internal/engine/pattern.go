package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/parecli/pare/internal/rules"
)

// applySkip removes lines matching any of the given patterns.
// Invalid patterns are dropped; an empty (or all-invalid) pattern list is a
// pass-through.
func applySkip(cache *RegexCache, patterns []string, lines []string) []string {
	if len(patterns) == 0 {
		return lines
	}
	compiled := cache.GetAll(patterns)
	if len(compiled) == 0 {
		return lines
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if !anyMatch(compiled, line) {
			out = append(out, line)
		}
	}
	return out
}

// applyKeep retains only lines matching at least one pattern. Same
// invalid-pattern and empty-list behavior as applySkip.
func applyKeep(cache *RegexCache, patterns []string, lines []string) []string {
	if len(patterns) == 0 {
		return lines
	}
	compiled := cache.GetAll(patterns)
	if len(compiled) == 0 {
		return lines
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if anyMatch(compiled, line) {
			out = append(out, line)
		}
	}
	return out
}

func anyMatch(compiled []*regexp.Regexp, line string) bool {
	for _, re := range compiled {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// findMatchingRule returns the first match_output rule whose substring
// appears in the combined output, or nil.
func findMatchingRule(ruleList []rules.MatchOutputRule, combined string) *rules.MatchOutputRule {
	for i := range ruleList {
		if strings.Contains(combined, ruleList[i].Contains) {
			return &ruleList[i]
		}
	}
	return nil
}

// applyExtract scans lines in order and returns the interpolated output
// template of the first line the pattern captures. On invalid regex or no
// match, all lines are rejoined unchanged.
func applyExtract(cache *RegexCache, rule *rules.ExtractRule, lines []string) string {
	re := cache.Get(rule.Pattern)
	if re == nil {
		return strings.Join(lines, "\n")
	}
	for _, line := range lines {
		if caps := re.FindStringSubmatch(line); caps != nil {
			return interpolate(rule.Output, caps)
		}
	}
	return strings.Join(lines, "\n")
}

// applyReplace runs every valid replace rule over every line, in declaration
// order. Each rule's output feeds the next; unmatched lines pass through.
func applyReplace(cache *RegexCache, ruleList []rules.ReplaceRule, lines []string) []string {
	type compiledRule struct {
		re     *regexp.Regexp
		output string
	}
	compiled := make([]compiledRule, 0, len(ruleList))
	for _, r := range ruleList {
		if re := cache.Get(r.Pattern); re != nil {
			compiled = append(compiled, compiledRule{re, r.Output})
		}
	}

	out := make([]string, len(lines))
	for i, line := range lines {
		current := line
		for _, cr := range compiled {
			if caps := cr.re.FindStringSubmatch(current); caps != nil {
				current = interpolate(cr.output, caps)
			}
		}
		out[i] = current
	}
	return out
}

// interpolate replaces `{0}`, `{1}`, … placeholders with capture groups.
// Substitution runs from the highest group number down so `{10}` is not
// corrupted by the `{1}` replacement. Missing groups become empty strings.
func interpolate(template string, caps []string) string {
	result := template
	for i := len(caps) - 1; i >= 0; i-- {
		placeholder := fmt.Sprintf("{%d}", i)
		result = strings.ReplaceAll(result, placeholder, caps[i])
	}
	return result
}
