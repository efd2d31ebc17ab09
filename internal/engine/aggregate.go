package engine

import (
	"strconv"

	"github.com/parecli/pare/internal/rules"
)

// runAggregate scans the named section's lines with the rule's pattern,
// parses capture group 1 of each matching line as a number, and binds the
// running sum and match count to the rule's variable names. Lines whose
// capture is not numeric are skipped. When nothing matches the fragment is
// empty, which lets the branch applier fall back instead of rendering a
// template with nothing behind it.
func runAggregate(cache *RegexCache, rule *rules.AggregateRule, sections SectionMap) map[string]string {
	vars := make(map[string]string)

	section, ok := sections[rule.From]
	if !ok {
		return vars
	}
	re := cache.Get(rule.Pattern)
	if re == nil {
		return vars
	}

	var sum float64
	count := 0
	for _, line := range section.Lines {
		caps := re.FindStringSubmatch(line)
		if len(caps) < 2 {
			continue
		}
		n, err := strconv.ParseFloat(caps[1], 64)
		if err != nil {
			continue
		}
		sum += n
		count++
	}

	if count == 0 {
		return vars
	}
	if rule.Sum != "" {
		vars[rule.Sum] = formatNumber(sum)
	}
	if rule.CountAs != "" {
		vars[rule.CountAs] = strconv.Itoa(count)
	}
	return vars
}

// formatNumber renders whole values without a decimal point.
func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
