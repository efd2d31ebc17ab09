package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/parecli/pare/internal/rules"
)

// The structured parse path turns status-table style output into a one-line
// value plus per-group counts. It replaces branch selection entirely when a
// parse spec is present.

const (
	defaultParseFormat      = "{branch}"
	defaultGroupCountFormat = "  {label}: {count}"
)

// runParse applies the parse spec to the pre-filtered lines and renders the
// result with the rule's output spec.
func runParse(cache *RegexCache, spec *rules.ParseSpec, out *rules.OutputSpec, lines []string) string {
	value := extractParseValue(cache, spec.Branch, lines)

	format := defaultParseFormat
	groupFormat := defaultGroupCountFormat
	empty := ""
	if out != nil {
		if out.Format != "" {
			format = out.Format
		}
		if out.GroupCountsFormat != "" {
			groupFormat = out.GroupCountsFormat
		}
		empty = out.Empty
	}

	top := renderTemplate(cache, format, map[string]string{"branch": value}, nil)

	var parts []string
	if top != "" {
		parts = append(parts, top)
	}
	if spec.Group != nil {
		body := renderGroups(cache, spec.Group, groupFormat, empty, groupLines(spec, lines))
		if body != "" {
			parts = append(parts, body)
		}
	}
	return strings.Join(parts, "\n")
}

// extractParseValue pulls the header value from the configured 1-based line.
// Out-of-range lines and non-matching patterns yield the empty string.
func extractParseValue(cache *RegexCache, ex *rules.LineExtract, lines []string) string {
	if ex == nil || ex.Line < 1 || ex.Line > len(lines) {
		return ""
	}
	re := cache.Get(ex.Pattern)
	if re == nil {
		return ""
	}
	caps := re.FindStringSubmatch(lines[ex.Line-1])
	if caps == nil {
		return ""
	}
	output := ex.Output
	if output == "" {
		output = "{1}"
	}
	return interpolate(output, caps)
}

// groupLines returns the lines fed to grouping: everything except the line
// the header value was extracted from.
func groupLines(spec *rules.ParseSpec, lines []string) []string {
	if spec.Branch == nil || spec.Branch.Line < 1 || spec.Branch.Line > len(lines) {
		return lines
	}
	skip := spec.Branch.Line - 1
	remaining := make([]string, 0, len(lines)-1)
	for i, line := range lines {
		if i != skip {
			remaining = append(remaining, line)
		}
	}
	return remaining
}

// renderGroups counts lines per derived key and renders one formatted line
// per group, sorted by label. No groups at all renders the empty message.
func renderGroups(cache *RegexCache, group *rules.GroupSpec, format, empty string, lines []string) string {
	re := cache.Get(group.Key.Pattern)
	if re == nil {
		return empty
	}

	counts := make(map[string]int)
	for _, line := range lines {
		caps := re.FindStringSubmatch(line)
		if caps == nil {
			continue
		}
		key := caps[0]
		if group.Key.Output != "" {
			key = interpolate(group.Key.Output, caps)
		} else if len(caps) > 1 {
			key = caps[1]
		}
		counts[key]++
	}
	if len(counts) == 0 {
		return empty
	}

	type grouped struct {
		label string
		count int
	}
	groups := make([]grouped, 0, len(counts))
	for key, count := range counts {
		label := key
		if mapped, ok := group.Labels[key]; ok {
			label = mapped
		}
		groups = append(groups, grouped{label: label, count: count})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].label < groups[j].label })

	rendered := make([]string, 0, len(groups))
	for _, g := range groups {
		vars := map[string]string{
			"label": g.label,
			"count": strconv.Itoa(g.count),
		}
		rendered = append(rendered, renderTemplate(cache, format, vars, nil))
	}
	return strings.Join(rendered, "\n")
}
